package projection

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"magtomo/pkg/geometry"
	"magtomo/pkg/tilt"
)

// Component names one cartesian axis of the vector potential.
type Component int

const (
	ComponentX Component = iota
	ComponentY
	ComponentZ
)

// String returns the axis name.
func (c Component) String() string {
	switch c {
	case ComponentX:
		return "Ax"
	case ComponentY:
		return "Ay"
	default:
		return "Az"
	}
}

// Components lists the three axes in solve order.
var Components = [3]Component{ComponentX, ComponentY, ComponentZ}

// Weight holds the contribution of each potential component to the phase
// measured at one tilt stop. Values are direction cosines in [-1, 1] and
// are deliberately left unnormalised so thresholds compare across schemes.
type Weight struct {
	X float64
	Y float64
	Z float64
}

// Component returns the weight for one axis.
func (w Weight) Component(c Component) float64 {
	switch c {
	case ComponentX:
		return w.X
	case ComponentY:
		return w.Y
	default:
		return w.Z
	}
}

// ComputeWeight returns the contribution weights for one tilt stop: the
// intrinsic rotation applied to each unit axis, dotted with the beam
// direction (0, 0, 1).
func ComputeWeight(t tilt.Triple) Weight {
	m := geometry.RotationMatrix(t.X, t.Y, t.Z, true)
	beam := r3.Vec{Z: 1}
	return Weight{
		X: r3.Dot(geometry.Apply(m, r3.Vec{X: 1}), beam),
		Y: r3.Dot(geometry.Apply(m, r3.Vec{Y: 1}), beam),
		Z: r3.Dot(geometry.Apply(m, r3.Vec{Z: 1}), beam),
	}
}

// ComputeWeights returns the weights for a whole scheme in order.
func ComputeWeights(scheme []tilt.Triple) []Weight {
	out := make([]Weight, len(scheme))
	for i, t := range scheme {
		out[i] = ComputeWeight(t)
	}
	return out
}

// MaxAbs returns the largest absolute weight of one component across a
// scheme.
func MaxAbs(ws []Weight, c Component) float64 {
	var max float64
	for _, w := range ws {
		if a := math.Abs(w.Component(c)); a > max {
			max = a
		}
	}
	return max
}

// SelectAbove returns the tilt indices whose absolute weight for the
// component exceeds the threshold.
func SelectAbove(ws []Weight, c Component, threshold float64) []int {
	var idx []int
	for i, w := range ws {
		if math.Abs(w.Component(c)) > threshold {
			idx = append(idx, i)
		}
	}
	return idx
}
