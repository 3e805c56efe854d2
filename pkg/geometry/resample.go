package geometry

import (
	"math"

	"magtomo/internal/models"
)

// RotateScalarField resamples a scalar field under the rotation triple.
// The rotation is applied as three sequential single-plane rotations, x
// then y then z, with the y angle negated to compensate the row flip of
// the detector images derived from these fields. Interpolation is
// bilinear about the (n-1)/2 grid centre and samples falling outside the
// grid are dropped, so the output grid matches the input grid.
func RotateScalarField(v *models.Volume, ax, ay, az float64) *models.Volume {
	ay = -ay
	out := v
	if ax != 0 {
		out = rotatePlane(out, ax, 1, 2)
	}
	if ay != 0 {
		out = rotatePlane(out, ay, 2, 0)
	}
	if az != 0 {
		out = rotatePlane(out, az, 0, 1)
	}
	if out == v {
		out = v.Clone()
	}
	return out
}

// RotateVectorField rotates a vector field: each component is resampled
// spatially with RotateScalarField, then the vector at every voxel is
// re-oriented with the intrinsic rotation matrix.
func RotateVectorField(f models.VectorField, ax, ay, az float64) models.VectorField {
	rx := RotateScalarField(f.X, ax, ay, az)
	ry := RotateScalarField(f.Y, ax, ay, az)
	rz := RotateScalarField(f.Z, ax, ay, az)

	m := RotationMatrix(ax, ay, az, true)
	m00, m01, m02 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m10, m11, m12 := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	m20, m21, m22 := m.At(2, 0), m.At(2, 1), m.At(2, 2)

	out := models.NewVectorField(rx.Nx, rx.Ny, rx.Nz)
	for i := range rx.Data {
		x, y, z := rx.Data[i], ry.Data[i], rz.Data[i]
		out.X.Data[i] = m00*x + m01*y + m02*z
		out.Y.Data[i] = m10*x + m11*y + m12*z
		out.Z.Data[i] = m20*x + m21*y + m22*z
	}
	return out
}

// rotatePlane rotates the field by deg degrees in the plane spanned by
// axes a and b, leaving the third axis untouched. The inverse mapping
// convention matches image-style plane rotation: a source sample for
// output offsets (oa, ob) is taken at (c·oa + s·ob, -s·oa + c·ob).
func rotatePlane(v *models.Volume, deg float64, a, b int) *models.Volume {
	s, c := math.Sincos(deg * degToRad)
	dims := [3]int{v.Nx, v.Ny, v.Nz}
	centers := [3]float64{
		float64(v.Nx-1) / 2,
		float64(v.Ny-1) / 2,
		float64(v.Nz-1) / 2,
	}
	out := models.NewVolume(v.Nx, v.Ny, v.Nz)

	var idx [3]int
	for i := 0; i < dims[0]; i++ {
		idx[0] = i
		for j := 0; j < dims[1]; j++ {
			idx[1] = j
			for k := 0; k < dims[2]; k++ {
				idx[2] = k
				oa := float64(idx[a]) - centers[a]
				ob := float64(idx[b]) - centers[b]
				sa := c*oa + s*ob + centers[a]
				sb := -s*oa + c*ob + centers[b]
				val := bilinear(v, idx, a, b, sa, sb, dims)
				out.Set(idx[0], idx[1], idx[2], val)
			}
		}
	}
	return out
}

// bilinear samples the plane (a, b) at fractional coordinates (sa, sb)
// with the remaining index fixed. Out-of-grid neighbours contribute zero.
func bilinear(v *models.Volume, idx [3]int, a, b int, sa, sb float64, dims [3]int) float64 {
	fa := math.Floor(sa)
	fb := math.Floor(sb)
	wa := sa - fa
	wb := sb - fb
	ia := int(fa)
	ib := int(fb)

	var sum float64
	for da := 0; da < 2; da++ {
		pa := ia + da
		if pa < 0 || pa >= dims[a] {
			continue
		}
		fwa := 1 - wa
		if da == 1 {
			fwa = wa
		}
		for db := 0; db < 2; db++ {
			pb := ib + db
			if pb < 0 || pb >= dims[b] {
				continue
			}
			fwb := 1 - wb
			if db == 1 {
				fwb = wb
			}
			p := idx
			p[a] = pa
			p[b] = pb
			sum += fwa * fwb * v.At(p[0], p[1], p[2])
		}
	}
	return sum
}
