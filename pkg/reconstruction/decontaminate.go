package reconstruction

import (
	"magtomo/internal/models"
	"magtomo/internal/physics"
	"magtomo/pkg/projection"
)

// weightSlices multiplies every tilt slice of a stack by its factor.
func weightSlices(s *models.ProjectionStack, factor func(i int) float64) *models.ProjectionStack {
	out := models.NewProjectionStack(s.Rows, s.Tilts, s.Cols)
	for t := 0; t < s.Tilts; t++ {
		f := factor(t)
		for r := 0; r < s.Rows; r++ {
			for c := 0; c < s.Cols; c++ {
				out.Set(r, t, c, s.At(r, t, c)*f)
			}
		}
	}
	return out
}

// Mix combines per-component projected potentials into the phase stack
// they would produce: phase = const * (wx*px + wy*py + wz*pz) per tilt.
func Mix(px, py, pz *models.ProjectionStack, ws []projection.Weight) *models.ProjectionStack {
	out := models.NewProjectionStack(px.Rows, px.Tilts, px.Cols)
	for t := 0; t < out.Tilts; t++ {
		w := ws[t]
		for r := 0; r < out.Rows; r++ {
			for c := 0; c < out.Cols; c++ {
				v := w.X*px.At(r, t, c) + w.Y*py.At(r, t, c) + w.Z*pz.At(r, t, c)
				out.Set(r, t, c, v*physics.PhaseConstant)
			}
		}
	}
	return out
}

// Decontaminate inverts Mix one component at a time: from the measured
// phase stack and the current projection estimates of the other two
// components, it recovers each component's own projection series,
// reweighted back to unity. Tilts where a component's weight vanishes
// produce unusable values there; the threshold selection discards them.
func Decontaminate(phase, px, py, pz *models.ProjectionStack, ws []projection.Weight) (x, y, z *models.ProjectionStack) {
	unphased := weightSlices(phase, func(int) float64 { return 1 / physics.PhaseConstant })

	x = remainder(unphased, py, pz, ws, func(w projection.Weight) (float64, float64, float64) { return w.Y, w.Z, w.X })
	y = remainder(unphased, px, pz, ws, func(w projection.Weight) (float64, float64, float64) { return w.X, w.Z, w.Y })
	z = remainder(unphased, py, px, ws, func(w projection.Weight) (float64, float64, float64) { return w.Y, w.X, w.Z })
	return x, y, z
}

// remainder subtracts two weighted contributions from the unphased data
// and rescales by the remaining component's weight.
func remainder(unphased, a, b *models.ProjectionStack, ws []projection.Weight, pick func(projection.Weight) (wa, wb, wSelf float64)) *models.ProjectionStack {
	out := models.NewProjectionStack(unphased.Rows, unphased.Tilts, unphased.Cols)
	for t := 0; t < out.Tilts; t++ {
		wa, wb, wSelf := pick(ws[t])
		for r := 0; r < out.Rows; r++ {
			for c := 0; c < out.Cols; c++ {
				v := unphased.At(r, t, c) - wa*a.At(r, t, c) - wb*b.At(r, t, c)
				out.Set(r, t, c, v/wSelf)
			}
		}
	}
	return out
}
