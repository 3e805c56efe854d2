// Package phantom builds analytic magnetisation phantoms and simulates
// their electron-optical signatures: the magnetic vector potential by
// Fourier methods and the projected phase shift of a tilt series.
package phantom

import (
	"math"

	"magtomo/internal/models"
)

// DefaultMs is a typical saturated magnetisation in A/m (permalloy).
const DefaultMs = 797700

// Sphere returns a uniformly magnetised sphere centred in a cubic
// bounding box of boxLength metres and n voxels per side. The
// magnetisation lies in the x-y plane, rotated planRot degrees
// anticlockwise from +x.
func Sphere(radiusM, msAm, planRot, boxLengthM float64, n int) (models.VectorField, models.Mesh) {
	mesh := models.NewCubicMesh(boxLengthM, n)
	res := mesh.Resolution(0)
	f := models.NewVectorField(n, n, n)
	ci := n / 2
	r2 := (radiusM / res) * (radiusM / res)
	mx := math.Cos(planRot*math.Pi/180) * msAm
	my := math.Sin(planRot*math.Pi/180) * msAm
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				di, dj, dk := float64(i-ci), float64(j-ci), float64(k-ci)
				if di*di+dj*dj+dk*dk < r2 {
					f.X.Set(i, j, k, mx)
					f.Y.Set(i, j, k, my)
				}
			}
		}
	}
	return f, mesh
}

// Bar returns a uniformly magnetised rectangular bar of side lengths
// lx, ly, lz metres centred in the mesh, magnetised in plane at planRot
// degrees from +x.
func Bar(lxM, lyM, lzM, msAm, planRot float64, mesh models.Mesh) models.VectorField {
	nx, ny, nz := mesh.Counts[0], mesh.Counts[1], mesh.Counts[2]
	f := models.NewVectorField(nx, ny, nz)
	hx := lxM / mesh.Resolution(0) / 2
	hy := lyM / mesh.Resolution(1) / 2
	hz := lzM / mesh.Resolution(2) / 2
	cx, cy, cz := nx/2, ny/2, nz/2
	mx := math.Cos(planRot*math.Pi/180) * msAm
	my := math.Sin(planRot*math.Pi/180) * msAm
	for i := 0; i < nx; i++ {
		if math.Abs(float64(i-cx)) >= hx {
			continue
		}
		for j := 0; j < ny; j++ {
			if math.Abs(float64(j-cy)) >= hy {
				continue
			}
			for k := 0; k < nz; k++ {
				if math.Abs(float64(k-cz)) >= hz {
					continue
				}
				f.X.Set(i, j, k, mx)
				f.Y.Set(i, j, k, my)
			}
		}
	}
	return f
}

// VortexDisc returns a disc of radius radiusM and thickness lz metres
// centred in a cubic box, carrying a clockwise in-plane vortex.
func VortexDisc(radiusM, lzM, msAm, boxLengthM float64, n int) (models.VectorField, models.Mesh) {
	mesh := models.NewCubicMesh(boxLengthM, n)
	res := mesh.Resolution(0)
	f := models.NewVectorField(n, n, n)
	ci := n / 2
	r2 := (radiusM / res) * (radiusM / res)
	hz := lzM / res / 2
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			di, dj := float64(i-ci), float64(j-ci)
			if di*di+dj*dj >= r2 {
				continue
			}
			theta := -math.Atan2(di, dj)
			mx := math.Cos(theta) * msAm
			my := math.Sin(theta) * msAm
			for k := 0; k < n; k++ {
				if math.Abs(float64(k-ci)) >= hz {
					continue
				}
				f.X.Set(i, j, k, mx)
				f.Y.Set(i, j, k, my)
			}
		}
	}
	return f, mesh
}
