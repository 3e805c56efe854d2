package backend

import (
	"context"

	"gonum.org/v1/gonum/floats"

	"magtomo/internal/models"
	"magtomo/pkg/projection"
)

// sirt runs simultaneous iterative reconstruction: the residual is scaled
// by inverse row sums, backprojected and scaled by inverse column sums
// before updating the estimate.
func (c *CPU) sirt(ctx context.Context, stack *models.ProjectionStack, vectors []projection.Vector, iterations int) (*models.Volume, error) {
	n := stack.Rows

	ones := models.NewVolume(n, n, n)
	for i := range ones.Data {
		ones.Data[i] = 1
	}
	rowSum, err := c.forward(ctx, ones, vectors)
	if err != nil {
		return nil, err
	}
	onesStack := models.NewProjectionStack(n, stack.Tilts, n)
	for i := range onesStack.Data {
		onesStack.Data[i] = 1
	}
	colSum, err := c.backproject(ctx, onesStack, vectors)
	if err != nil {
		return nil, err
	}

	x := models.NewVolume(n, n, n)
	for it := 0; it < iterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		proj, err := c.forward(ctx, x, vectors)
		if err != nil {
			return nil, err
		}
		for i := range proj.Data {
			if rowSum.Data[i] > 0 {
				proj.Data[i] = (stack.Data[i] - proj.Data[i]) / rowSum.Data[i]
			} else {
				proj.Data[i] = 0
			}
		}
		corr, err := c.backproject(ctx, proj, vectors)
		if err != nil {
			return nil, err
		}
		for i := range x.Data {
			if colSum.Data[i] > 0 {
				x.Data[i] += corr.Data[i] / colSum.Data[i]
			}
		}
	}
	return x, nil
}

// cgls solves the damped normal equations by conjugate gradients, with
// lambda the Tikhonov weight on the volume norm.
func (c *CPU) cgls(ctx context.Context, stack *models.ProjectionStack, vectors []projection.Vector, iterations int, lambda float64) (*models.Volume, error) {
	n := stack.Rows
	x := models.NewVolume(n, n, n)

	resid := stack.Clone()
	s, err := c.backproject(ctx, resid, vectors)
	if err != nil {
		return nil, err
	}
	p := s.Clone()
	gamma := floats.Dot(s.Data, s.Data)
	if gamma == 0 {
		return x, nil
	}

	for it := 0; it < iterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q, err := c.forward(ctx, p, vectors)
		if err != nil {
			return nil, err
		}
		delta := floats.Dot(q.Data, q.Data) + lambda*floats.Dot(p.Data, p.Data)
		if delta == 0 {
			break
		}
		alpha := gamma / delta
		floats.AddScaled(x.Data, alpha, p.Data)
		floats.AddScaled(resid.Data, -alpha, q.Data)

		s, err = c.backproject(ctx, resid, vectors)
		if err != nil {
			return nil, err
		}
		if lambda != 0 {
			floats.AddScaled(s.Data, -lambda, x.Data)
		}
		gammaNew := floats.Dot(s.Data, s.Data)
		beta := gammaNew / gamma
		gamma = gammaNew
		for i := range p.Data {
			p.Data[i] = s.Data[i] + beta*p.Data[i]
		}
	}
	return x, nil
}
