package periodogram

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-lightcurve/internal/testutil"
)

func TestNoiseSpectrumConstant(t *testing.T) {
	n := 500
	freqs := make([]float64, n)
	ampls := make([]float64, n)
	for i := range freqs {
		freqs[i] = 0.01 * float64(i+1)
		ampls[i] = 0.7
	}

	noise := NoiseSpectrum(freqs, ampls, 1.0)
	if len(noise) != n {
		t.Fatalf("len = %d, want %d", len(noise), n)
	}
	// The mean of a constant is the constant, including at the edges
	// where the window is truncated.
	testutil.RequireSliceNearlyEqual(t, noise, ampls, 1e-9)
}

func TestNoiseSpectrumSmoothsPeak(t *testing.T) {
	n := 1000
	freqs := make([]float64, n)
	ampls := make([]float64, n)
	for i := range freqs {
		freqs[i] = 0.01 * float64(i+1)
		ampls[i] = 0.1
	}
	ampls[500] = 10

	noise := NoiseSpectrum(freqs, ampls, 1.0)
	testutil.RequireFinite(t, noise)
	// The peak spreads over the window: the local mean must sit well
	// below the spike but above the floor.
	if noise[500] >= 1 || noise[500] <= 0.1 {
		t.Fatalf("noise at peak = %v, want between 0.1 and 1", noise[500])
	}
}

func TestNoiseSpectrumMatchesDirect(t *testing.T) {
	n := 300
	freqs := make([]float64, n)
	ampls := testutil.Noise(7, 1, n)
	for i := range freqs {
		freqs[i] = 0.02 * float64(i+1)
		ampls[i] = math.Abs(ampls[i])
	}

	m := int(math.Round(1.0/0.02)) + 1
	want := boxConvolveDirect(ampls, m)
	got := boxConvolve(ampls, m)
	testutil.RequireSliceNearlyEqual(t, got, want, 1e-6)
}

func TestNoiseAtFrequencies(t *testing.T) {
	time := testutil.TimeGrid(1000, 27)
	flux := testutil.Noise(8, 0.01, 1000)

	noise := NoiseAtFrequencies([]float64{2, 5}, time, flux, 1.0)
	if len(noise) != 2 {
		t.Fatalf("len = %d, want 2", len(noise))
	}
	for i, v := range noise {
		if v <= 0 || v > 0.01 {
			t.Fatalf("noise[%d] = %v, want small positive value", i, v)
		}
	}
}
