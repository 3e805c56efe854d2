package reconstruction

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"magtomo/internal/models"
)

// NRMSE returns the root mean square error between a reconstruction and
// its ground truth, normalised by the ground truth range. Zero is a
// perfect match.
func NRMSE(truth, recon *models.Volume) float64 {
	rng := floats.Max(truth.Data) - floats.Min(truth.Data)
	if rng == 0 {
		return math.NaN()
	}
	var sum float64
	for i, t := range truth.Data {
		d := t - recon.Data[i]
		sum += d * d
	}
	return math.Sqrt(sum/float64(len(truth.Data))) / rng
}

// CC returns the Pearson correlation coefficient between two volumes.
func CC(truth, recon *models.Volume) float64 {
	return stat.Correlation(truth.Data, recon.Data, nil)
}

// COD returns the coefficient of determination, the squared correlation.
func COD(truth, recon *models.Volume) float64 {
	cc := CC(truth, recon)
	return cc * cc
}
