package extract

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-lightcurve/internal/testutil"
)

func harmonicSeries(pOrb float64, n int) (f, a, ph []float64) {
	f = make([]float64, n)
	a = make([]float64, n)
	ph = make([]float64, n)
	for k := 0; k < n; k++ {
		f[k] = float64(k+1) / pOrb
		a[k] = 0.05 / float64(k+1)
		ph[k] = 0.3 * float64(k)
	}
	return f, a, ph
}

func TestFindOrbitalPeriod(t *testing.T) {
	pOrb := 2.5
	time := testutil.TimeGrid(2000, 50)
	fN, aN, phN := harmonicSeries(pOrb, 8)
	flux := testutil.Sinusoids(time, fN, aN, phN)
	testutil.AddInPlace(flux, testutil.Noise(1, 0.002, 2000))

	got, err := FindOrbitalPeriod(time, flux, fN)
	if err != nil {
		t.Fatalf("FindOrbitalPeriod: %v", err)
	}
	// The full harmonic series pins the period; neither the half nor the
	// double period explains all eight frequencies.
	if math.Abs(got-pOrb) > 0.01 {
		t.Fatalf("period = %v, want %v", got, pOrb)
	}
}

func TestFindOrbitalPeriodNoCandidates(t *testing.T) {
	time := testutil.TimeGrid(100, 10)
	flux := testutil.Noise(2, 0.01, 100)

	_, err := FindOrbitalPeriod(time, flux, nil)
	if err == nil {
		t.Fatal("expected an error without candidate frequencies")
	}
}

func TestRefineOrbitalPeriod(t *testing.T) {
	pOrb := 2.5
	time := testutil.TimeGrid(2000, 50)
	fN, _, _ := harmonicSeries(pOrb, 8)

	got := RefineOrbitalPeriod(2.51, time, fN)
	if math.Abs(got-pOrb) > 1e-3 {
		t.Fatalf("refined period = %v, want %v", got, pOrb)
	}
}

func TestRefineOrbitalPeriodDegenerate(t *testing.T) {
	time := testutil.TimeGrid(100, 10)
	// No frequency anywhere near a harmonic series of the input period.
	got := RefineOrbitalPeriod(2.5, time, []float64{3.73})
	if got != 2.5 {
		t.Fatalf("degenerate refinement changed the period: %v", got)
	}
}
