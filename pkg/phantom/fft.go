package phantom

import "gonum.org/v1/gonum/dsp/fourier"

// The grids below share the volume layout: x slowest, z fastest. The
// multi-dimensional transforms run the 1D complex FFT along one axis at a
// time, gathering strided lines into a scratch buffer.

// fft3 transforms a 3D complex grid in place. The inverse transform is
// normalised.
func fft3(data []complex128, nx, ny, nz int, inverse bool) {
	// axis x: one line per (j, k) pair
	transformAxis(data, nx, ny*nz, lineStarts(ny, nz, nz, 1), inverse)
	// axis y: one line per (i, k) pair
	transformAxis(data, ny, nz, lineStarts(nx, nz, ny*nz, 1), inverse)
	// axis z: one line per (i, j) pair
	transformAxis(data, nz, 1, lineStarts(nx, ny, ny*nz, nz), inverse)
}

// fft2 transforms a 2D complex grid (x slowest) in place.
func fft2(data []complex128, nx, ny int, inverse bool) {
	transformAxis(data, nx, ny, lineStarts(1, ny, 0, 1), inverse)
	transformAxis(data, ny, 1, lineStarts(1, nx, 0, ny), inverse)
}

// lineStarts enumerates the start offsets of every transform line, with
// the two non-transformed axes running over countA x countB at the given
// strides.
func lineStarts(countA, countB, strideA, strideB int) []int {
	starts := make([]int, 0, countA*countB)
	for a := 0; a < countA; a++ {
		for b := 0; b < countB; b++ {
			starts = append(starts, a*strideA+b*strideB)
		}
	}
	return starts
}

// transformAxis runs the 1D FFT along every line of length n with the
// given element stride.
func transformAxis(data []complex128, n, stride int, starts []int, inverse bool) {
	fft := fourier.NewCmplxFFT(n)
	line := make([]complex128, n)
	out := make([]complex128, n)
	for _, s := range starts {
		for i := 0; i < n; i++ {
			line[i] = data[s+i*stride]
		}
		if inverse {
			out = fft.Sequence(out, line)
			scale := complex(1/float64(n), 0)
			for i := 0; i < n; i++ {
				data[s+i*stride] = out[i] * scale
			}
		} else {
			out = fft.Coefficients(out, line)
			for i := 0; i < n; i++ {
				data[s+i*stride] = out[i]
			}
		}
	}
}

// fftFreq returns the discrete sample frequencies for a transform of
// length n with sample spacing d, in the standard wrapped order.
func fftFreq(n int, d float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		k := i
		if i >= (n+1)/2 {
			k = i - n
		}
		out[i] = float64(k) / (float64(n) * d)
	}
	return out
}
