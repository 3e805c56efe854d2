// Package models contains the shared data types used across the
// reconstruction pipeline: sample meshes, dense scalar volumes, vector
// fields and tilt-series projection stacks.
package models

import "fmt"

// Mesh describes the physical extent of a regular sample grid.
// Origin and Extent are the corner coordinates in metres, Counts the
// number of voxels along x, y and z.
type Mesh struct {
	Origin [3]float64
	Extent [3]float64
	Counts [3]int
}

// NewCubicMesh returns a mesh with the same length and voxel count along
// every axis, anchored at the origin.
func NewCubicMesh(length float64, n int) Mesh {
	return Mesh{
		Extent: [3]float64{length, length, length},
		Counts: [3]int{n, n, n},
	}
}

// Resolution returns the voxel size in metres along the given axis.
func (m Mesh) Resolution(axis int) float64 {
	return (m.Extent[axis] - m.Origin[axis]) / float64(m.Counts[axis])
}

// Validate checks that the mesh spans a positive volume.
func (m Mesh) Validate() error {
	for ax := 0; ax < 3; ax++ {
		if m.Counts[ax] <= 0 {
			return fmt.Errorf("mesh axis %d has non-positive count %d", ax, m.Counts[ax])
		}
		if m.Extent[ax] <= m.Origin[ax] {
			return fmt.Errorf("mesh axis %d has non-positive extent", ax)
		}
	}
	return nil
}

// Pad grows the mesh by n voxels on each side of every axis, keeping the
// voxel size unchanged.
func (m Mesh) Pad(n int) Mesh {
	out := m
	for ax := 0; ax < 3; ax++ {
		res := m.Resolution(ax)
		out.Origin[ax] -= float64(n) * res
		out.Extent[ax] += float64(n) * res
		out.Counts[ax] += 2 * n
	}
	return out
}

// Volume is a dense scalar field with x as the slowest and z as the
// fastest index.
type Volume struct {
	Data []float64
	Nx   int
	Ny   int
	Nz   int
}

// NewVolume allocates a zeroed volume.
func NewVolume(nx, ny, nz int) *Volume {
	return &Volume{Data: make([]float64, nx*ny*nz), Nx: nx, Ny: ny, Nz: nz}
}

// At returns the value at (i, j, k).
func (v *Volume) At(i, j, k int) float64 {
	return v.Data[(i*v.Ny+j)*v.Nz+k]
}

// Set stores a value at (i, j, k).
func (v *Volume) Set(i, j, k int, val float64) {
	v.Data[(i*v.Ny+j)*v.Nz+k] = val
}

// Clone returns a deep copy.
func (v *Volume) Clone() *Volume {
	out := NewVolume(v.Nx, v.Ny, v.Nz)
	copy(out.Data, v.Data)
	return out
}

// Scale multiplies every voxel by s in place.
func (v *Volume) Scale(s float64) {
	for i := range v.Data {
		v.Data[i] *= s
	}
}

// Pad returns a copy grown by n zero voxels on each side of every axis.
func (v *Volume) Pad(n int) *Volume {
	out := NewVolume(v.Nx+2*n, v.Ny+2*n, v.Nz+2*n)
	for i := 0; i < v.Nx; i++ {
		for j := 0; j < v.Ny; j++ {
			for k := 0; k < v.Nz; k++ {
				out.Set(i+n, j+n, k+n, v.At(i, j, k))
			}
		}
	}
	return out
}

// Unpad strips n voxels from each side of every axis.
func (v *Volume) Unpad(n int) *Volume {
	if n == 0 {
		return v.Clone()
	}
	out := NewVolume(v.Nx-2*n, v.Ny-2*n, v.Nz-2*n)
	for i := 0; i < out.Nx; i++ {
		for j := 0; j < out.Ny; j++ {
			for k := 0; k < out.Nz; k++ {
				out.Set(i, j, k, v.At(i+n, j+n, k+n))
			}
		}
	}
	return out
}

// VectorField holds the three cartesian components of a field sampled on
// a common grid.
type VectorField struct {
	X *Volume
	Y *Volume
	Z *Volume
}

// NewVectorField allocates three zeroed component volumes.
func NewVectorField(nx, ny, nz int) VectorField {
	return VectorField{X: NewVolume(nx, ny, nz), Y: NewVolume(nx, ny, nz), Z: NewVolume(nx, ny, nz)}
}

// Component returns the volume for axis 0, 1 or 2.
func (f VectorField) Component(axis int) *Volume {
	switch axis {
	case 0:
		return f.X
	case 1:
		return f.Y
	default:
		return f.Z
	}
}

// Image is a dense 2D scalar field indexed (x, y).
type Image struct {
	Data []float64
	Nx   int
	Ny   int
}

// NewImage allocates a zeroed image.
func NewImage(nx, ny int) *Image {
	return &Image{Data: make([]float64, nx*ny), Nx: nx, Ny: ny}
}

// At returns the value at (i, j).
func (im *Image) At(i, j int) float64 { return im.Data[i*im.Ny+j] }

// Set stores a value at (i, j).
func (im *Image) Set(i, j int, val float64) { im.Data[i*im.Ny+j] = val }

// ProjectionStack is a tilt series of detector images. The axis order is
// (row, tiltIndex, col): slicing at a fixed tilt index yields one image.
// This layout is the interchange contract with the reconstruction backend
// and must not be reordered.
type ProjectionStack struct {
	Data  []float64
	Rows  int
	Tilts int
	Cols  int
}

// NewProjectionStack allocates a zeroed stack.
func NewProjectionStack(rows, tilts, cols int) *ProjectionStack {
	return &ProjectionStack{Data: make([]float64, rows*tilts*cols), Rows: rows, Tilts: tilts, Cols: cols}
}

// At returns the pixel at (row, tilt, col).
func (s *ProjectionStack) At(r, t, c int) float64 {
	return s.Data[(r*s.Tilts+t)*s.Cols+c]
}

// Set stores a pixel at (row, tilt, col).
func (s *ProjectionStack) Set(r, t, c int, val float64) {
	s.Data[(r*s.Tilts+t)*s.Cols+c] = val
}

// Clone returns a deep copy.
func (s *ProjectionStack) Clone() *ProjectionStack {
	out := NewProjectionStack(s.Rows, s.Tilts, s.Cols)
	copy(out.Data, s.Data)
	return out
}

// Subset returns a new stack containing only the listed tilt indices, in
// the given order.
func (s *ProjectionStack) Subset(tilts []int) *ProjectionStack {
	out := NewProjectionStack(s.Rows, len(tilts), s.Cols)
	for ti, t := range tilts {
		for r := 0; r < s.Rows; r++ {
			for c := 0; c < s.Cols; c++ {
				out.Set(r, ti, c, s.At(r, t, c))
			}
		}
	}
	return out
}

// PadMargins grows the detector rows and columns by n zero pixels on each
// side, leaving the tilt axis unchanged.
func (s *ProjectionStack) PadMargins(n int) *ProjectionStack {
	out := NewProjectionStack(s.Rows+2*n, s.Tilts, s.Cols+2*n)
	for r := 0; r < s.Rows; r++ {
		for t := 0; t < s.Tilts; t++ {
			for c := 0; c < s.Cols; c++ {
				out.Set(r+n, t, c+n, s.At(r, t, c))
			}
		}
	}
	return out
}

// UnpadMargins strips n pixels from each side of the detector rows and
// columns.
func (s *ProjectionStack) UnpadMargins(n int) *ProjectionStack {
	if n == 0 {
		return s.Clone()
	}
	out := NewProjectionStack(s.Rows-2*n, s.Tilts, s.Cols-2*n)
	for r := 0; r < out.Rows; r++ {
		for t := 0; t < out.Tilts; t++ {
			for c := 0; c < out.Cols; c++ {
				out.Set(r, t, c, s.At(r+n, t, c+n))
			}
		}
	}
	return out
}
