package phantom

import (
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"magtomo/internal/models"
	"magtomo/internal/physics"
	"magtomo/pkg/geometry"
	"magtomo/pkg/tilt"
)

// VectorPotential computes the magnetic vector potential of a
// magnetisation field by the Fourier method: A(k) = -i mu0 (M(k) x K) / K^2.
// The field is zero padded by pad voxels per side to suppress convolution
// wrap-around and returned still padded, with the padded mesh. The
// inverse square is stabilised by the Tikhonov term tik scaled by the x
// resolution; with tik zero the DC term is dropped instead.
func VectorPotential(m models.VectorField, mesh models.Mesh, pad int, tik float64) (models.VectorField, models.Mesh, error) {
	if err := mesh.Validate(); err != nil {
		return models.VectorField{}, models.Mesh{}, err
	}
	if pad < 0 {
		return models.VectorField{}, models.Mesh{}, fmt.Errorf("phantom: negative padding %d", pad)
	}
	px := m.X.Pad(pad)
	py := m.Y.Pad(pad)
	pz := m.Z.Pad(pad)
	nx, ny, nz := px.Nx, px.Ny, px.Nz

	cx := toComplex(px.Data)
	cy := toComplex(py.Data)
	cz := toComplex(pz.Data)
	fft3(cx, nx, ny, nz, false)
	fft3(cy, nx, ny, nz, false)
	fft3(cz, nx, ny, nz, false)

	resx := mesh.Resolution(0)
	kx := fftFreq(nx, resx)
	ky := fftFreq(ny, mesh.Resolution(1))
	kz := fftFreq(nz, mesh.Resolution(2))

	idx := 0
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				kxx, kyy, kzz := kx[i], ky[j], kz[k]
				k2inv := inverseSquare(math.Sqrt(kxx*kxx+kyy*kyy+kzz*kzz), tik, resx)
				mxv, myv, mzv := cx[idx], cy[idx], cz[idx]
				crossX := myv*complex(kzz, 0) - mzv*complex(kyy, 0)
				crossY := mzv*complex(kxx, 0) - mxv*complex(kzz, 0)
				crossZ := mxv*complex(kyy, 0) - myv*complex(kxx, 0)
				scale := complex(0, -physics.Mu0*k2inv)
				cx[idx] = scale * crossX
				cy[idx] = scale * crossY
				cz[idx] = scale * crossZ
				idx++
			}
		}
	}

	fft3(cx, nx, ny, nz, true)
	fft3(cy, nx, ny, nz, true)
	fft3(cz, nx, ny, nz, true)

	out := models.NewVectorField(nx, ny, nz)
	realInto(out.X.Data, cx)
	realInto(out.Y.Data, cy)
	realInto(out.Z.Data, cz)
	return out, mesh.Pad(pad), nil
}

// ProjectAlongZ integrates a volume along z, weighting every layer by
// the z resolution.
func ProjectAlongZ(v *models.Volume, mesh models.Mesh) *models.Image {
	resz := mesh.Resolution(2)
	out := models.NewImage(v.Nx, v.Ny)
	for i := 0; i < v.Nx; i++ {
		for j := 0; j < v.Ny; j++ {
			var sum float64
			for k := 0; k < v.Nz; k++ {
				sum += v.At(i, j, k)
			}
			out.Set(i, j, sum*resz)
		}
	}
	return out
}

// PhaseMap computes the electron phase shift of a magnetisation field
// viewed along z. The in-plane magnetisation is projected to 2D first,
// padded, and solved in Fourier space. With unpad false the padded frame
// is kept, matching the detector size of padded reconstructions.
func PhaseMap(m models.VectorField, mesh models.Mesh, pad int, tik float64, unpad bool) *models.Image {
	mx := ProjectAlongZ(m.X, mesh)
	my := ProjectAlongZ(m.Y, mesh)
	nx := mx.Nx + 2*pad
	ny := mx.Ny + 2*pad

	cmx := padImageComplex(mx, pad, nx, ny)
	cmy := padImageComplex(my, pad, nx, ny)
	fft2(cmx, nx, ny, false)
	fft2(cmy, nx, ny, false)

	resx := mesh.Resolution(0)
	kx := fftFreq(nx, resx)
	ky := fftFreq(ny, mesh.Resolution(1))

	// J. Loudon et al., magnetic imaging, eq. 29
	constant := complex(0, 0.5*physics.Mu0/physics.FluxQuantum)
	idx := 0
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			k2inv := inverseSquare(math.Hypot(kx[i], ky[j]), tik, resx)
			crossZ := (-cmy[idx]*complex(kx[i], 0) + cmx[idx]*complex(ky[j], 0)) * complex(k2inv, 0)
			cmx[idx] = constant * crossZ
			idx++
		}
	}
	fft2(cmx, nx, ny, true)

	full := models.NewImage(nx, ny)
	realInto(full.Data, cmx)
	if !unpad || pad == 0 {
		return full
	}
	out := models.NewImage(mx.Nx, mx.Ny)
	for i := 0; i < out.Nx; i++ {
		for j := 0; j < out.Ny; j++ {
			out.Set(i, j, full.At(i+pad, j+pad))
		}
	}
	return out
}

// PhaseStack simulates the phase images of a tilt series: the
// magnetisation is rotated to each stop, its phase map computed, and the
// image placed in the stack with the detector row running against y.
// The padded frame is kept, so the stack is sized n+2*pad.
func PhaseStack(m models.VectorField, mesh models.Mesh, scheme []tilt.Triple, pad int, tik float64) (*models.ProjectionStack, error) {
	if len(scheme) == 0 {
		return nil, fmt.Errorf("phantom: empty tilt scheme")
	}
	n := m.X.Nx + 2*pad
	stack := models.NewProjectionStack(n, len(scheme), n)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for ti, t := range scheme {
		ti, t := ti, t
		g.Go(func() error {
			rotated := geometry.RotateVectorField(m, t.X, t.Y, t.Z)
			ph := PhaseMap(rotated, mesh, pad, tik, false)
			for row := 0; row < n; row++ {
				for col := 0; col < n; col++ {
					stack.Set(row, ti, col, ph.At(col, ph.Ny-1-row))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stack, nil
}

// inverseSquare returns 1/(k + tik*res)^2, with the singular DC term
// dropped when no filter is applied.
func inverseSquare(k, tik, res float64) float64 {
	if tik == 0 {
		if k == 0 {
			return 0
		}
		return 1 / (k * k)
	}
	d := k + tik*res
	return 1 / (d * d)
}

func toComplex(src []float64) []complex128 {
	out := make([]complex128, len(src))
	for i, v := range src {
		out[i] = complex(v, 0)
	}
	return out
}

func realInto(dst []float64, src []complex128) {
	for i, v := range src {
		dst[i] = real(v)
	}
}

// padImageComplex embeds an image into a zeroed nx x ny complex grid with
// the given margin.
func padImageComplex(im *models.Image, pad, nx, ny int) []complex128 {
	out := make([]complex128, nx*ny)
	for i := 0; i < im.Nx; i++ {
		for j := 0; j < im.Ny; j++ {
			out[(i+pad)*ny+(j+pad)] = complex(im.At(i, j), 0)
		}
	}
	return out
}
