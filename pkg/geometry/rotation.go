// Package geometry implements the rotation conventions shared by the whole
// pipeline: elementary rotation matrices composed intrinsically or
// extrinsically, scalar and vector field resampling under those rotations,
// and the maps between tilt angle triples and beam directions.
//
// Angles are degrees throughout. A triple (ax, ay, az) names rotations
// about the x, y and z axes of the sample frame.
package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

const degToRad = math.Pi / 180

// RotX returns the elementary rotation about x by deg degrees.
func RotX(deg float64) *mat.Dense {
	s, c := math.Sincos(deg * degToRad)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	})
}

// RotY returns the elementary rotation about y by deg degrees.
func RotY(deg float64) *mat.Dense {
	s, c := math.Sincos(deg * degToRad)
	return mat.NewDense(3, 3, []float64{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	})
}

// RotZ returns the elementary rotation about z by deg degrees.
func RotZ(deg float64) *mat.Dense {
	s, c := math.Sincos(deg * degToRad)
	return mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

// RotationMatrix composes the elementary rotations for the triple
// (ax, ay, az). With intrinsic true the composition is Rz·Ry·Rx, the
// product used when the axes follow the rotated body; with intrinsic
// false it is Rx·Ry·Rz.
func RotationMatrix(ax, ay, az float64, intrinsic bool) *mat.Dense {
	out := mat.NewDense(3, 3, nil)
	tmp := mat.NewDense(3, 3, nil)
	if intrinsic {
		tmp.Mul(RotY(ay), RotX(ax))
		out.Mul(RotZ(az), tmp)
	} else {
		tmp.Mul(RotY(ay), RotZ(az))
		out.Mul(RotX(ax), tmp)
	}
	return out
}

// Apply multiplies a 3x3 matrix with a vector.
func Apply(m *mat.Dense, v r3.Vec) r3.Vec {
	return r3.Vec{
		X: m.At(0, 0)*v.X + m.At(0, 1)*v.Y + m.At(0, 2)*v.Z,
		Y: m.At(1, 0)*v.X + m.At(1, 1)*v.Y + m.At(1, 2)*v.Z,
		Z: m.At(2, 0)*v.X + m.At(2, 1)*v.Y + m.At(2, 2)*v.Z,
	}
}

// AngleToVector returns the unit beam direction reached by rotating the
// optic axis (0, 0, 1) through the intrinsic rotation for the triple.
func AngleToVector(ax, ay, az float64) r3.Vec {
	return Apply(RotationMatrix(ax, ay, az, true), r3.Vec{Z: 1})
}

// degenerateTol bounds the cross product norm below which a target is
// treated as parallel to the optic axis.
const degenerateTol = 1e-12

// VectorToAngle returns a rotation triple whose intrinsic rotation takes
// the optic axis (0, 0, 1) onto v. The inverse is not unique; the
// canonical solution is the minimal rotation about the axis z cross v.
// Targets parallel to the optic axis have no such axis: with
// allowDegenerate they map to the zero triple (parallel) or a 180 degree
// x rotation (anti-parallel), otherwise an error is returned.
func VectorToAngle(v r3.Vec, allowDegenerate bool) (ax, ay, az float64, err error) {
	n := r3.Norm(v)
	if n == 0 {
		return 0, 0, 0, fmt.Errorf("vector to angle: zero direction")
	}
	v = r3.Scale(1/n, v)
	z := r3.Vec{Z: 1}
	axis := r3.Cross(z, v)
	sin := r3.Norm(axis)
	cos := r3.Dot(z, v)
	if sin < degenerateTol {
		if !allowDegenerate {
			return 0, 0, 0, fmt.Errorf("vector to angle: direction parallel to the optic axis has no unique rotation axis")
		}
		if cos > 0 {
			return 0, 0, 0, nil
		}
		return 180, 0, 0, nil
	}
	axis = r3.Scale(1/sin, axis)
	m := axisAngleMatrix(axis, math.Atan2(sin, cos))
	ax, ay, az = eulerXYZ(m)
	return ax, ay, az, nil
}

// axisAngleMatrix builds the rotation about a unit axis by angle radians
// using the Rodrigues form.
func axisAngleMatrix(axis r3.Vec, angle float64) *mat.Dense {
	s, c := math.Sincos(angle)
	t := 1 - c
	x, y, z := axis.X, axis.Y, axis.Z
	return mat.NewDense(3, 3, []float64{
		t*x*x + c, t*x*y - s*z, t*x*z + s*y,
		t*x*y + s*z, t*y*y + c, t*y*z - s*x,
		t*x*z - s*y, t*y*z + s*x, t*z*z + c,
	})
}

// eulerXYZ extracts the triple (ax, ay, az) in degrees from a rotation
// matrix written as Rz(az)·Ry(ay)·Rx(ax).
func eulerXYZ(m *mat.Dense) (ax, ay, az float64) {
	r20 := m.At(2, 0)
	switch {
	case r20 <= -1+1e-12:
		ay = 90
		ax = math.Atan2(m.At(0, 1), m.At(0, 2)) / degToRad
	case r20 >= 1-1e-12:
		ay = -90
		ax = math.Atan2(-m.At(0, 1), -m.At(0, 2)) / degToRad
	default:
		ay = math.Asin(-r20) / degToRad
		ax = math.Atan2(m.At(2, 1), m.At(2, 2)) / degToRad
		az = math.Atan2(m.At(1, 0), m.At(0, 0)) / degToRad
	}
	return ax, ay, az
}
