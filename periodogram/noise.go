package periodogram

import (
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"gonum.org/v1/gonum/floats"
)

// NoiseSpectrum estimates the noise level underneath an amplitude spectrum
// as the moving mean of the amplitudes over a frequency window of the
// given width. The window is expressed in the same unit as the frequency
// grid; the grid is assumed uniform. Edges are count-normalized.
//
// The moving sum is computed as an FFT box convolution, which keeps the
// cost near O(n log n) for the long grids produced by full-range scans.
func NoiseSpectrum(freqs, ampls []float64, windowWidth float64) []float64 {
	n := len(ampls)
	if n == 0 {
		return nil
	}

	out := make([]float64, n)

	if n == 1 || len(freqs) < 2 {
		copy(out, ampls)
		return out
	}

	df := freqs[1] - freqs[0]

	m := int(math.Round(windowWidth / df))
	if m < 1 {
		m = 1
	}

	if m > n {
		m = n
	}

	if m == 1 {
		copy(out, ampls)
		return out
	}

	sums := boxConvolve(ampls, m)

	// Full convolution index i + (m-1)/2 centers the window on bin i;
	// that index sums x[i-(m-1-offset) .. i+offset].
	offset := (m - 1) / 2
	hLeft := m - 1 - offset
	hRight := offset

	for i := range out {
		lo := i - hLeft
		if lo < 0 {
			lo = 0
		}

		hi := i + hRight
		if hi > n-1 {
			hi = n - 1
		}

		out[i] = sums[i+offset] / float64(hi-lo+1)
	}

	return out
}

// boxConvolve returns the full linear convolution of x with a box of ones
// of length m, computed via FFT. Output length is len(x)+m-1.
func boxConvolve(x []float64, m int) []float64 {
	n := len(x)
	outLen := n + m - 1

	size := nextPowerOf2(outLen)

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		// Degenerate plan sizes cannot occur for power-of-2 inputs, but
		// keep a correct direct fallback rather than an invalid result.
		return boxConvolveDirect(x, m)
	}

	a := make([]complex128, size)
	b := make([]complex128, size)

	for i, v := range x {
		a[i] = complex(v, 0)
	}

	for i := 0; i < m; i++ {
		b[i] = complex(1, 0)
	}

	if err := plan.Forward(a, a); err != nil {
		return boxConvolveDirect(x, m)
	}

	if err := plan.Forward(b, b); err != nil {
		return boxConvolveDirect(x, m)
	}

	for i := range a {
		a[i] *= b[i]
	}

	if err := plan.Inverse(a, a); err != nil {
		return boxConvolveDirect(x, m)
	}

	out := make([]float64, outLen)
	for i := range out {
		out[i] = real(a[i])
	}

	return out
}

func boxConvolveDirect(x []float64, m int) []float64 {
	n := len(x)
	out := make([]float64, n+m-1)

	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			out[i+j] += x[i]
		}
	}

	return out
}

func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p <<= 1
	}

	return p
}

// NoiseAtFrequencies estimates the local noise level at each target
// frequency as the mean spectral amplitude in a window of the given width
// centered on the target. The spectrum is evaluated locally at the default
// grid spacing 0.1/T.
func NoiseAtFrequencies(targets, time, flux []float64, windowWidth float64) []float64 {
	out := make([]float64, len(targets))
	if len(time) < 2 {
		return out
	}

	tTot := time[len(time)-1] - time[0]
	df := 0.1 / tTot

	for k, f := range targets {
		f0 := f - windowWidth/2
		if f0 < df/10 {
			f0 = df / 10
		}

		fn := f + windowWidth/2

		_, ampls, err := Spectrum(time, flux, f0, fn, df)
		if err != nil || len(ampls) == 0 {
			continue
		}

		out[k] = floats.Sum(ampls) / float64(len(ampls))
	}

	return out
}
