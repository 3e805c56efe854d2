// Package projection derives per-tilt acquisition geometry from a tilt
// scheme: 12-float projection descriptors for the reconstruction backend
// and the per-axis contribution weights of the beam direction.
package projection

import (
	"gonum.org/v1/gonum/spatial/r3"

	"magtomo/pkg/geometry"
	"magtomo/pkg/tilt"
)

// Vector is one parallel-beam projection descriptor: the ray direction,
// the detector centre and the detector pixel axes, packed as
// [rx ry rz dx dy dz ux uy uz vx vy vz].
type Vector [12]float64

// Ray returns the beam direction.
func (v Vector) Ray() r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }

// D returns the detector centre.
func (v Vector) D() r3.Vec { return r3.Vec{X: v[3], Y: v[4], Z: v[5]} }

// U returns the detector column axis.
func (v Vector) U() r3.Vec { return r3.Vec{X: v[6], Y: v[7], Z: v[8]} }

// V returns the detector row axis.
func (v Vector) V() r3.Vec { return r3.Vec{X: v[9], Y: v[10], Z: v[11]} }

// Build converts one tilt stop into a projection descriptor. The y angle
// is negated to match the row flip applied when detector images are
// stacked, the rotation is composed extrinsically, the ray points against
// the rotated optic axis and the detector centre stays at the origin.
func Build(t tilt.Triple) Vector {
	m := geometry.RotationMatrix(t.X, -t.Y, t.Z, false)
	r := geometry.Apply(m, r3.Vec{Z: -1})
	u := geometry.Apply(m, r3.Vec{X: 1})
	v := geometry.Apply(m, r3.Vec{Y: 1})
	return Vector{
		r.X, r.Y, r.Z,
		0, 0, 0,
		u.X, u.Y, u.Z,
		v.X, v.Y, v.Z,
	}
}

// BuildAll converts a scheme into descriptors, one per stop in order.
func BuildAll(scheme []tilt.Triple) []Vector {
	out := make([]Vector, len(scheme))
	for i, t := range scheme {
		out[i] = Build(t)
	}
	return out
}
