package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeshResolution(t *testing.T) {
	mesh := NewCubicMesh(100e-9, 50)
	for axis := 0; axis < 3; axis++ {
		assert.InDelta(t, 2e-9, mesh.Resolution(axis), 1e-18)
	}
}

func TestMeshPadKeepsResolution(t *testing.T) {
	mesh := NewCubicMesh(100e-9, 50)
	padded := mesh.Pad(10)
	assert.Equal(t, [3]int{70, 70, 70}, padded.Counts)
	for axis := 0; axis < 3; axis++ {
		assert.InDelta(t, mesh.Resolution(axis), padded.Resolution(axis), 1e-18)
	}
}

func TestMeshValidate(t *testing.T) {
	mesh := NewCubicMesh(100e-9, 50)
	require.NoError(t, mesh.Validate())

	bad := mesh
	bad.Counts[1] = 0
	assert.Error(t, bad.Validate())

	bad = mesh
	bad.Extent[2] = bad.Origin[2]
	assert.Error(t, bad.Validate())
}

func TestVolumePadUnpadRoundTrip(t *testing.T) {
	v := NewVolume(4, 5, 6)
	for i := range v.Data {
		v.Data[i] = float64(i)
	}
	back := v.Pad(3).Unpad(3)
	assert.Equal(t, v.Data, back.Data)
}

func TestVolumeIndexing(t *testing.T) {
	v := NewVolume(3, 4, 5)
	v.Set(2, 3, 4, 7)
	assert.Equal(t, 7.0, v.At(2, 3, 4))
	assert.Equal(t, 7.0, v.Data[len(v.Data)-1])
}

func TestStackSubsetKeepsOrder(t *testing.T) {
	s := NewProjectionStack(2, 4, 2)
	for ti := 0; ti < 4; ti++ {
		s.Set(1, ti, 0, float64(ti))
	}
	sub := s.Subset([]int{3, 1})
	require.Equal(t, 2, sub.Tilts)
	assert.Equal(t, 3.0, sub.At(1, 0, 0))
	assert.Equal(t, 1.0, sub.At(1, 1, 0))
}

func TestStackMarginsRoundTrip(t *testing.T) {
	s := NewProjectionStack(3, 2, 3)
	for i := range s.Data {
		s.Data[i] = float64(i + 1)
	}
	back := s.PadMargins(2).UnpadMargins(2)
	assert.Equal(t, s.Data, back.Data)

	padded := s.PadMargins(2)
	assert.Equal(t, 7, padded.Rows)
	assert.Equal(t, 2, padded.Tilts)
	assert.Equal(t, 0.0, padded.At(0, 0, 0))
}
