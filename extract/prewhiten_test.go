package extract

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-lightcurve/internal/testutil"
	"github.com/cwbudde/algo-lightcurve/lightcurve"
)

func newTestModel(t *testing.T, time, flux []float64) *lightcurve.Model {
	t.Helper()
	m, err := lightcurve.New(time, flux, nil)
	if err != nil {
		t.Fatalf("lightcurve.New: %v", err)
	}
	return m
}

func TestSinusoidsRoundTrip(t *testing.T) {
	time := testutil.TimeGrid(1000, 27)
	trueF := []float64{2.5, 3.7, 5.0}
	trueA := []float64{0.02, 0.012, 0.008}
	truePh := []float64{0.3, 1.1, -0.8}
	flux := testutil.Sinusoids(time, trueF, trueA, truePh)
	testutil.AddInPlace(flux, testutil.Noise(1, 0.001, 1000))

	m := newTestModel(t, time, flux)
	bic0 := m.BIC()
	if err := Sinusoids(m, DefaultOptions()); err != nil {
		t.Fatalf("Sinusoids: %v", err)
	}

	n := m.Sinusoid.Count()
	if n < 3 || n > 5 {
		t.Fatalf("extracted %d sinusoids, want 3 (a noise peak or two may slip in)", n)
	}
	if m.BIC() >= bic0 {
		t.Fatalf("BIC did not decrease: %v -> %v", bic0, m.BIC())
	}

	for k, ft := range trueF {
		found := false
		for i, f := range m.Sinusoid.Freq {
			if math.Abs(f-ft) < m.FRes/2 {
				found = true
				if math.Abs(m.Sinusoid.Amp[i]-trueA[k]) > 0.15*trueA[k] {
					t.Fatalf("amplitude at f=%v: got %v, want %v", ft, m.Sinusoid.Amp[i], trueA[k])
				}
				break
			}
		}
		if !found {
			t.Fatalf("injected frequency %v not recovered in %v", ft, m.Sinusoid.Freq)
		}
	}
}

func TestSinusoidsNoiseOnly(t *testing.T) {
	time := testutil.TimeGrid(600, 20)
	flux := testutil.Noise(2, 0.01, 600)

	m := newTestModel(t, time, flux)
	opts := DefaultOptions()
	opts.BICThreshold = 50
	if err := Sinusoids(m, opts); err != nil {
		t.Fatalf("Sinusoids: %v", err)
	}
	if n := m.Sinusoid.Count(); n != 0 {
		t.Fatalf("extracted %d sinusoids from pure noise, want 0", n)
	}
}

func TestSinusoidsRejectionLeavesModelUnchanged(t *testing.T) {
	time := testutil.TimeGrid(800, 25)
	flux := testutil.Sinusoids(time, []float64{1.8}, []float64{0.05}, []float64{0.2})
	testutil.AddInPlace(flux, testutil.Noise(3, 0.002, 800))

	m := newTestModel(t, time, flux)
	opts := DefaultOptions()
	opts.Selection = SelectAmplitude
	if err := Sinusoids(m, opts); err != nil {
		t.Fatalf("Sinusoids: %v", err)
	}

	f0, a0, ph0 := m.Sinusoid.Parameters()
	bic0 := m.BIC()

	// A second run finds the exact candidate the first run already
	// rejected; the rejected step must roll back cleanly.
	if err := Sinusoids(m, opts); err != nil {
		t.Fatalf("Sinusoids (second run): %v", err)
	}

	f1, a1, ph1 := m.Sinusoid.Parameters()
	testutil.RequireSliceNearlyEqual(t, f1, f0, 0)
	testutil.RequireSliceNearlyEqual(t, a1, a0, 0)
	testutil.RequireSliceNearlyEqual(t, ph1, ph0, 0)
	if bic1 := m.BIC(); math.Abs(bic1-bic0) > 1e-9 {
		t.Fatalf("BIC changed across a no-op run: %v -> %v", bic0, bic1)
	}
}

func TestSinusoidsMaxExtract(t *testing.T) {
	time := testutil.TimeGrid(1000, 27)
	flux := testutil.Sinusoids(time,
		[]float64{2.5, 3.7, 5.0}, []float64{0.02, 0.012, 0.008}, []float64{0.3, 1.1, -0.8})
	testutil.AddInPlace(flux, testutil.Noise(4, 0.001, 1000))

	m := newTestModel(t, time, flux)
	opts := DefaultOptions()
	opts.MaxExtract = 1
	if err := Sinusoids(m, opts); err != nil {
		t.Fatalf("Sinusoids: %v", err)
	}
	if n := m.Sinusoid.Count(); n != 1 {
		t.Fatalf("extracted %d sinusoids with a cap of 1", n)
	}
	// The strongest signal goes first.
	if f := m.Sinusoid.Freq[0]; math.Abs(f-2.5) > 0.01 {
		t.Fatalf("first extracted frequency = %v, want 2.5", f)
	}
}

func TestSinusoidsSNRStop(t *testing.T) {
	time := testutil.TimeGrid(1000, 27)
	trueF := []float64{2.5, 3.7, 5.0}
	flux := testutil.Sinusoids(time, trueF, []float64{0.05, 0.03, 0.02}, []float64{0.3, 1.1, -0.8})
	testutil.AddInPlace(flux, testutil.Noise(5, 0.002, 1000))

	m := newTestModel(t, time, flux)
	opts := DefaultOptions()
	opts.StopCriterion = StopSNR
	opts.SNRThreshold = 10
	if err := Sinusoids(m, opts); err != nil {
		t.Fatalf("Sinusoids: %v", err)
	}
	if n := m.Sinusoid.Count(); n < 3 {
		t.Fatalf("extracted %d sinusoids, want at least the 3 strong signals", n)
	}
}

func TestSinusoidsFitEachStep(t *testing.T) {
	time := testutil.TimeGrid(800, 20)
	flux := testutil.Sinusoids(time, []float64{1.3, 4.1}, []float64{0.05, 0.03}, []float64{0.4, -1.0})
	testutil.AddInPlace(flux, testutil.Noise(6, 0.002, 800))

	m := newTestModel(t, time, flux)
	opts := DefaultOptions()
	opts.FitEachStep = true
	opts.MaxExtract = 2
	if err := Sinusoids(m, opts); err != nil {
		t.Fatalf("Sinusoids: %v", err)
	}
	if n := m.Sinusoid.Count(); n != 2 {
		t.Fatalf("extracted %d sinusoids, want 2", n)
	}
	for _, ft := range []float64{1.3, 4.1} {
		found := false
		for _, f := range m.Sinusoid.Freq {
			if math.Abs(f-ft) < 0.01 {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("frequency %v not recovered in %v", ft, m.Sinusoid.Freq)
		}
	}
}
