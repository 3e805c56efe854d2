package projection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"magtomo/pkg/tilt"
)

func TestBuildZeroTilt(t *testing.T) {
	v := Build(tilt.Triple{})
	assert.InDelta(t, 0, r3.Norm(r3.Sub(v.Ray(), r3.Vec{Z: -1})), 1e-15)
	assert.Equal(t, r3.Vec{}, v.D())
	assert.InDelta(t, 0, r3.Norm(r3.Sub(v.U(), r3.Vec{X: 1})), 1e-15)
	assert.InDelta(t, 0, r3.Norm(r3.Sub(v.V(), r3.Vec{Y: 1})), 1e-15)
}

func TestBuildXTilt(t *testing.T) {
	s, c := math.Sincos(30 * math.Pi / 180)
	v := Build(tilt.Triple{X: 30})
	assert.InDelta(t, 0, r3.Norm(r3.Sub(v.Ray(), r3.Vec{Y: s, Z: -c})), 1e-15)
	assert.InDelta(t, 0, r3.Norm(r3.Sub(v.U(), r3.Vec{X: 1})), 1e-15)
	assert.InDelta(t, 0, r3.Norm(r3.Sub(v.V(), r3.Vec{Y: c, Z: s})), 1e-15)
}

func TestBuildOrthonormalBasis(t *testing.T) {
	scheme := []tilt.Triple{
		{X: 47, Y: -12, Z: 93},
		{X: -70, Y: 40, Z: 0},
		{X: 13, Y: 0, Z: -135},
	}
	for _, tr := range scheme {
		v := Build(tr)
		r, u, w := v.Ray(), v.U(), v.V()
		assert.InDelta(t, 1, r3.Norm(r), 1e-12)
		assert.InDelta(t, 1, r3.Norm(u), 1e-12)
		assert.InDelta(t, 1, r3.Norm(w), 1e-12)
		assert.InDelta(t, 0, r3.Dot(u, w), 1e-12)
		assert.InDelta(t, 0, r3.Dot(u, r), 1e-12)
		assert.InDelta(t, 0, r3.Dot(w, r), 1e-12)
		assert.Equal(t, r3.Vec{}, v.D())
	}
}

func TestBuildAllOrder(t *testing.T) {
	scheme, err := tilt.Generate(tilt.DefaultParams())
	require.NoError(t, err)
	vecs := BuildAll(scheme)
	require.Len(t, vecs, len(scheme))
	for i, tr := range scheme {
		assert.Equal(t, Build(tr), vecs[i])
	}
}

func TestBuildNegatesY(t *testing.T) {
	plus := Build(tilt.Triple{Y: 25})
	minus := Build(tilt.Triple{Y: -25})
	// the internal sign flip swaps the two descriptors
	s, c := math.Sincos(25 * math.Pi / 180)
	assert.InDelta(t, 0, r3.Norm(r3.Sub(plus.U(), r3.Vec{X: c, Z: s})), 1e-15)
	assert.InDelta(t, 0, r3.Norm(r3.Sub(minus.U(), r3.Vec{X: c, Z: -s})), 1e-15)
}
