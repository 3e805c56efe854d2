package backend

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"magtomo/internal/models"
	"magtomo/pkg/projection"
)

// CPU is a parallel-beam projector and solver running on the host.
// Volumes must be cubic and match the square detector size; geometry is
// carried entirely by the projection descriptors, in voxel units.
type CPU struct {
	workers int
}

// NewCPU returns a CPU backend fanning out across the given number of
// workers, or GOMAXPROCS when workers is zero.
func NewCPU(workers int) *CPU {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &CPU{workers: workers}
}

// Acquire starts a session.
func (c *CPU) Acquire(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &cpuSession{cpu: c}, nil
}

type cpuSession struct {
	cpu      *CPU
	mu       sync.Mutex
	released bool
}

func (s *cpuSession) active() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrSessionReleased
	}
	return nil
}

// Release frees the session. Idempotent.
func (s *cpuSession) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	return nil
}

func (s *cpuSession) ForwardProject(ctx context.Context, vol *models.Volume, vectors []projection.Vector) (*models.ProjectionStack, error) {
	if err := s.active(); err != nil {
		return nil, err
	}
	if err := checkVolume(vol); err != nil {
		return nil, err
	}
	return s.cpu.forward(ctx, vol, vectors)
}

func (s *cpuSession) Reconstruct(ctx context.Context, stack *models.ProjectionStack, vectors []projection.Vector, opts Options) (*models.Volume, error) {
	if err := s.active(); err != nil {
		return nil, err
	}
	if err := checkStack(stack, vectors); err != nil {
		return nil, err
	}
	switch opts.Algorithm {
	case AlgorithmBP:
		return s.cpu.backproject(ctx, stack, vectors)
	case AlgorithmSIRT:
		if opts.Iterations <= 0 {
			return nil, fmt.Errorf("backend: %s needs a positive iteration count", opts.Algorithm)
		}
		return s.cpu.sirt(ctx, stack, vectors, opts.Iterations)
	case AlgorithmCGLS:
		if opts.Iterations <= 0 {
			return nil, fmt.Errorf("backend: %s needs a positive iteration count", opts.Algorithm)
		}
		return s.cpu.cgls(ctx, stack, vectors, opts.Iterations, opts.RegularizationWeight)
	default:
		return nil, fmt.Errorf("backend: unknown algorithm %q", opts.Algorithm)
	}
}

func checkVolume(vol *models.Volume) error {
	if vol.Nx != vol.Ny || vol.Ny != vol.Nz {
		return fmt.Errorf("backend: volume must be cubic, got %dx%dx%d", vol.Nx, vol.Ny, vol.Nz)
	}
	return nil
}

func checkStack(stack *models.ProjectionStack, vectors []projection.Vector) error {
	if stack.Rows != stack.Cols {
		return fmt.Errorf("backend: detector must be square, got %dx%d", stack.Rows, stack.Cols)
	}
	if stack.Tilts != len(vectors) {
		return fmt.Errorf("backend: stack has %d tilts but %d descriptors given", stack.Tilts, len(vectors))
	}
	return nil
}

// forward integrates the volume along every detector ray with unit-step
// trilinear sampling.
func (c *CPU) forward(ctx context.Context, vol *models.Volume, vectors []projection.Vector) (*models.ProjectionStack, error) {
	n := vol.Nx
	out := models.NewProjectionStack(n, len(vectors), n)
	half := math.Sqrt(3) * float64(n) / 2
	steps := int(2*half) + 2

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for t := range vectors {
		t := t
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			vec := vectors[t]
			ray, d, u, v := vec.Ray(), vec.D(), vec.U(), vec.V()
			center := float64(n-1) / 2
			for row := 0; row < n; row++ {
				cv := center - float64(row)
				for col := 0; col < n; col++ {
					cu := float64(col) - center
					base := r3.Add(d, r3.Add(r3.Scale(cu, u), r3.Scale(cv, v)))
					var sum float64
					for si := 0; si < steps; si++ {
						sc := -half + float64(si)
						p := r3.Add(base, r3.Scale(sc, ray))
						sum += trilinear(vol, p.X+center, p.Y+center, p.Z+center)
					}
					out.Set(row, t, col, sum)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// backproject applies the adjoint operator voxel by voxel.
func (c *CPU) backproject(ctx context.Context, stack *models.ProjectionStack, vectors []projection.Vector) (*models.Volume, error) {
	n := stack.Rows
	out := models.NewVolume(n, n, n)
	center := float64(n-1) / 2

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			px := float64(i) - center
			for j := 0; j < n; j++ {
				py := float64(j) - center
				for k := 0; k < n; k++ {
					pz := float64(k) - center
					p := r3.Vec{X: px, Y: py, Z: pz}
					var sum float64
					for t, vec := range vectors {
						rel := r3.Sub(p, vec.D())
						cu := r3.Dot(rel, vec.U())
						cv := r3.Dot(rel, vec.V())
						sum += bilinearStack(stack, t, center-cv, cu+center)
					}
					out.Set(i, j, k, sum)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// trilinear samples the volume at fractional indices, zero outside.
func trilinear(vol *models.Volume, x, y, z float64) float64 {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	z0 := int(math.Floor(z))
	if x0 < -1 || x0 >= vol.Nx || y0 < -1 || y0 >= vol.Ny || z0 < -1 || z0 >= vol.Nz {
		return 0
	}
	wx := x - float64(x0)
	wy := y - float64(y0)
	wz := z - float64(z0)
	var sum float64
	for dx := 0; dx < 2; dx++ {
		xi := x0 + dx
		if xi < 0 || xi >= vol.Nx {
			continue
		}
		fx := 1 - wx
		if dx == 1 {
			fx = wx
		}
		for dy := 0; dy < 2; dy++ {
			yi := y0 + dy
			if yi < 0 || yi >= vol.Ny {
				continue
			}
			fy := 1 - wy
			if dy == 1 {
				fy = wy
			}
			for dz := 0; dz < 2; dz++ {
				zi := z0 + dz
				if zi < 0 || zi >= vol.Nz {
					continue
				}
				fz := 1 - wz
				if dz == 1 {
					fz = wz
				}
				sum += fx * fy * fz * vol.At(xi, yi, zi)
			}
		}
	}
	return sum
}

// bilinearStack samples one tilt image at fractional (row, col), zero
// outside the detector.
func bilinearStack(stack *models.ProjectionStack, t int, row, col float64) float64 {
	r0 := int(math.Floor(row))
	c0 := int(math.Floor(col))
	if r0 < -1 || r0 >= stack.Rows || c0 < -1 || c0 >= stack.Cols {
		return 0
	}
	wr := row - float64(r0)
	wc := col - float64(c0)
	var sum float64
	for dr := 0; dr < 2; dr++ {
		ri := r0 + dr
		if ri < 0 || ri >= stack.Rows {
			continue
		}
		fr := 1 - wr
		if dr == 1 {
			fr = wr
		}
		for dc := 0; dc < 2; dc++ {
			ci := c0 + dc
			if ci < 0 || ci >= stack.Cols {
				continue
			}
			fc := 1 - wc
			if dc == 1 {
				fc = wc
			}
			sum += fr * fc * stack.At(ri, t, ci)
		}
	}
	return sum
}
