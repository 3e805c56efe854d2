// Package reconstruction separates the three cartesian components of a
// magnetic vector potential from a multi-axis phase tilt series.
//
// Each detector pixel measures a weighted mixture of the projected Ax,
// Ay and Az, the weights set by the tilt geometry. The solver alternates
// between decontaminating the series (removing the estimated
// contribution of the other two components from each image) and
// tomographically reconstructing every component from the tilts where
// its own weight is strong enough, lowering that threshold as the
// estimates improve.
package reconstruction

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"magtomo/internal/models"
	"magtomo/pkg/backend"
	"magtomo/pkg/projection"
	"magtomo/pkg/tilt"
)

// Config controls the iterative separation.
type Config struct {
	// FullIterations is the number of major decontaminate-reconstruct
	// rounds.
	FullIterations int
	// StepIterations is the solver iteration count inside each round.
	StepIterations int
	// Algorithm names the backend solver.
	Algorithm string
	// RegularizationWeight is passed through to the backend.
	RegularizationWeight float64
	// ThresholdMin and ThresholdMax bound the weight threshold schedule.
	ThresholdMin float64
	ThresholdMax float64
	// PadVoxels is the zero margin carried by the input stack; results
	// are unpadded by the same amount.
	PadVoxels int
}

// DefaultConfig mirrors the usual experimental settings.
func DefaultConfig() Config {
	return Config{
		FullIterations:       3,
		StepIterations:       10,
		Algorithm:            backend.AlgorithmSIRT,
		RegularizationWeight: 0.001,
		ThresholdMin:         0.01,
		ThresholdMax:         0.7,
		PadVoxels:            10,
	}
}

func (c Config) validate() error {
	if c.FullIterations <= 0 {
		return fmt.Errorf("reconstruction: full iteration count must be positive, got %d", c.FullIterations)
	}
	if c.StepIterations <= 0 {
		return fmt.Errorf("reconstruction: step iteration count must be positive, got %d", c.StepIterations)
	}
	if c.ThresholdMin > c.ThresholdMax {
		return fmt.Errorf("reconstruction: threshold range (%g, %g) is inverted", c.ThresholdMin, c.ThresholdMax)
	}
	if c.PadVoxels < 0 {
		return fmt.Errorf("reconstruction: negative padding %d", c.PadVoxels)
	}
	return nil
}

// ThresholdError reports a weight threshold that left a component with
// no usable tilts.
type ThresholdError struct {
	Component projection.Component
	Threshold float64
}

func (e *ThresholdError) Error() string {
	return fmt.Sprintf("reconstruction: threshold %g leaves no tilts for component %s", e.Threshold, e.Component)
}

// Reconstructor runs the separation against a backend.
type Reconstructor struct {
	cfg Config
	b   backend.Backend
	log *zap.Logger
}

// New validates the configuration and builds a reconstructor. A nil
// logger disables logging.
func New(cfg Config, b backend.Backend, log *zap.Logger) (*Reconstructor, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("reconstruction: nil backend")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconstructor{cfg: cfg, b: b, log: log}, nil
}

// Process separates the phase stack acquired under the given scheme into
// the three vector potential components, returned unpadded. The stack
// axis order is (row, tiltIndex, col) and its tilt count must match the
// scheme.
func (r *Reconstructor) Process(ctx context.Context, phase *models.ProjectionStack, scheme []tilt.Triple, mesh models.Mesh) (models.VectorField, error) {
	var zero models.VectorField
	if phase.Tilts != len(scheme) {
		return zero, fmt.Errorf("reconstruction: stack has %d tilts but scheme has %d", phase.Tilts, len(scheme))
	}
	if phase.Rows != phase.Cols {
		return zero, fmt.Errorf("reconstruction: detector must be square, got %dx%d", phase.Rows, phase.Cols)
	}
	if phase.Rows <= 2*r.cfg.PadVoxels {
		return zero, fmt.Errorf("reconstruction: %d detector rows cannot carry a %d voxel margin", phase.Rows, r.cfg.PadVoxels)
	}
	if err := mesh.Validate(); err != nil {
		return zero, err
	}

	ws := projection.ComputeWeights(scheme)
	for _, comp := range projection.Components {
		if max := projection.MaxAbs(ws, comp); r.cfg.ThresholdMin >= max {
			return zero, fmt.Errorf("reconstruction: threshold minimum %g exceeds the largest %s weight %g in this scheme",
				r.cfg.ThresholdMin, comp, max)
		}
	}

	vecs := projection.BuildAll(scheme)
	res := mesh.Resolution(0)
	schedule := r.thresholds()

	n := phase.Rows
	tilts := phase.Tilts
	projs := [3]*models.ProjectionStack{
		models.NewProjectionStack(n, tilts, n),
		models.NewProjectionStack(n, tilts, n),
		models.NewProjectionStack(n, tilts, n),
	}
	var estimates [3]*models.Volume

	for major, thresh := range schedule {
		if major > 0 {
			if err := r.projectEstimates(ctx, estimates, vecs, res, &projs); err != nil {
				return zero, err
			}
		}
		aX, aY, aZ := Decontaminate(phase, projs[0], projs[1], projs[2], ws)
		decon := [3]*models.ProjectionStack{aX, aY, aZ}

		g, gctx := errgroup.WithContext(ctx)
		for _, comp := range projection.Components {
			comp := comp
			g.Go(func() error {
				vol, err := r.solveComponent(gctx, decon[comp], vecs, ws, comp, major, thresh, res)
				if err != nil {
					return err
				}
				estimates[comp] = vol
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return zero, err
		}
		r.log.Info("major iteration finished",
			zap.Int("iteration", major+1),
			zap.Int("of", len(schedule)),
			zap.Float64("threshold", thresh))
	}

	p := r.cfg.PadVoxels
	return models.VectorField{
		X: estimates[0].Unpad(p),
		Y: estimates[1].Unpad(p),
		Z: estimates[2].Unpad(p),
	}, nil
}

// thresholds returns the weight threshold per major iteration: the first
// round runs at the maximum, the remaining rounds walk the linearly
// spaced range downwards from the top, so the maximum repeats once
// before decreasing.
func (r *Reconstructor) thresholds() []float64 {
	nmaj := r.cfg.FullIterations
	out := make([]float64, nmaj)
	out[0] = r.cfg.ThresholdMax
	if nmaj == 1 {
		return out
	}
	span := make([]float64, nmaj-1)
	if nmaj == 2 {
		span[0] = r.cfg.ThresholdMin
	} else {
		floats.Span(span, r.cfg.ThresholdMin, r.cfg.ThresholdMax)
	}
	for i := 1; i < nmaj; i++ {
		out[i] = span[len(span)-i]
	}
	return out
}

// solveComponent reconstructs one component from the tilts whose weight
// magnitude exceeds the threshold. Failures name the component, major
// iteration and threshold so the schedule can be adjusted.
func (r *Reconstructor) solveComponent(ctx context.Context, stack *models.ProjectionStack, vecs []projection.Vector, ws []projection.Weight, comp projection.Component, major int, thresh, res float64) (*models.Volume, error) {
	idx := projection.SelectAbove(ws, comp, thresh)
	if len(idx) == 0 {
		return nil, fmt.Errorf("reconstruction: major iteration %d: %w", major+1, &ThresholdError{Component: comp, Threshold: thresh})
	}
	sub := stack.Subset(idx)
	subVecs := make([]projection.Vector, len(idx))
	for i, t := range idx {
		subVecs[i] = vecs[t]
	}
	r.log.Debug("solving component",
		zap.String("component", comp.String()),
		zap.Int("tilts", len(idx)),
		zap.Float64("threshold", thresh))

	sess, err := r.b.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Release()

	vol, err := sess.Reconstruct(ctx, sub, subVecs, backend.Options{
		Algorithm:            r.cfg.Algorithm,
		Iterations:           r.cfg.StepIterations,
		RegularizationWeight: r.cfg.RegularizationWeight,
	})
	if err != nil {
		return nil, fmt.Errorf("reconstruction: component %s, major iteration %d, threshold %g: %w", comp, major+1, thresh, err)
	}
	vol.Scale(1 / res)
	return vol, nil
}

// projectEstimates forward projects the unpadded current estimates and
// restores the detector margins, refreshing the per-component projection
// series used by the next decontamination.
func (r *Reconstructor) projectEstimates(ctx context.Context, estimates [3]*models.Volume, vecs []projection.Vector, res float64, projs *[3]*models.ProjectionStack) error {
	p := r.cfg.PadVoxels
	sess, err := r.b.Acquire(ctx)
	if err != nil {
		return err
	}
	defer sess.Release()

	for _, comp := range projection.Components {
		stack, err := sess.ForwardProject(ctx, estimates[comp].Unpad(p), vecs)
		if err != nil {
			return fmt.Errorf("reconstruction: projecting %s estimate: %w", comp, err)
		}
		for i := range stack.Data {
			stack.Data[i] *= res
		}
		projs[comp] = stack.PadMargins(p)
	}
	return nil
}
