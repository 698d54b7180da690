package extract

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-lightcurve/internal/testutil"
)

func TestSingleRecoversFrequency(t *testing.T) {
	time := testutil.TimeGrid(1000, 27)
	flux := testutil.Sinusoids(time, []float64{3.14}, []float64{0.05}, []float64{0.7})
	testutil.AddInPlace(flux, testutil.Noise(1, 0.002, 1000))

	f, a, ph, err := Single(time, flux, 0, 0, SelectAmplitude)
	if err != nil {
		t.Fatalf("Single: %v", err)
	}
	if math.Abs(f-3.14) > 0.001 {
		t.Fatalf("f = %v, want 3.14", f)
	}
	if math.Abs(a-0.05) > 0.005 {
		t.Fatalf("a = %v, want 0.05", a)
	}
	if math.Abs(ph-0.7) > 0.1 {
		t.Fatalf("ph = %v, want 0.7", ph)
	}
}

func TestSingleSNRSelection(t *testing.T) {
	time := testutil.TimeGrid(1500, 27)
	// A cluster of strong low-frequency signals raises the local noise
	// there; the weaker but cleaner peak at 8.5 wins on signal-to-noise
	// while amplitude selection would go for the cluster.
	flux := testutil.Sinusoids(time,
		[]float64{0.05, 0.11, 0.18, 0.25, 0.33, 8.5},
		[]float64{0.1, 0.09, 0.1, 0.08, 0.09, 0.03},
		[]float64{0, 0.5, 1, 1.5, 2, 1.2})
	testutil.AddInPlace(flux, testutil.Noise(2, 0.001, 1500))

	f, _, _, err := Single(time, flux, 0, 0, SelectSNR)
	if err != nil {
		t.Fatalf("Single: %v", err)
	}
	if math.Abs(f-8.5) > 0.05 {
		t.Fatalf("SNR selection picked f = %v, want the sharp peak at 8.5", f)
	}
}

func TestLocalConfinedToInterval(t *testing.T) {
	time := testutil.TimeGrid(1000, 27)
	// The strongest peak sits at 2.0, outside the requested interval.
	flux := testutil.Sinusoids(time,
		[]float64{2.0, 5.0}, []float64{1.0, 0.1}, []float64{0, 0})
	testutil.AddInPlace(flux, testutil.Noise(3, 0.001, 1000))

	f, _, _, err := Local(time, flux, 4.0, 6.0)
	if err != nil {
		t.Fatalf("Local: %v", err)
	}
	if math.Abs(f-5.0) > 0.01 {
		t.Fatalf("Local picked f = %v, want 5.0 inside the interval", f)
	}
}

func TestApproxFollowsNearestPeak(t *testing.T) {
	time := testutil.TimeGrid(1000, 27)
	flux := testutil.Sinusoids(time, []float64{3.02}, []float64{0.1}, []float64{-0.3})
	testutil.AddInPlace(flux, testutil.Noise(4, 0.002, 1000))

	f, a, _, err := Approx(time, flux, 3.0)
	if err != nil {
		t.Fatalf("Approx: %v", err)
	}
	if math.Abs(f-3.02) > 0.005 {
		t.Fatalf("f = %v, want 3.02", f)
	}
	if math.Abs(a-0.1) > 0.01 {
		t.Fatalf("a = %v, want 0.1", a)
	}
}

func TestSingleDegenerateInput(t *testing.T) {
	if _, _, _, err := Single(nil, nil, 0, 0, SelectAmplitude); err == nil {
		t.Fatal("expected an error for an empty series")
	}
	if _, _, _, err := Approx([]float64{1}, []float64{1}, 1); err == nil {
		t.Fatal("expected an error for a single-point series")
	}
}
