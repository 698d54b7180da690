package fit

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-lightcurve/internal/testutil"
	"github.com/cwbudde/algo-lightcurve/lightcurve"
)

func rss(time, flux, consts, slopes, fN, aN, phN []float64, chunks [][2]int) float64 {
	sinModel := lightcurve.SumSinusoids(time, fN, aN, phN)
	trend := lightcurve.LinearCurve(time, consts, slopes, chunks)
	sum := 0.0
	for i := range flux {
		r := flux[i] - sinModel[i] - trend[i]
		sum += r * r
	}
	return sum
}

func TestMultiSinusoidPerGroupImprovesFit(t *testing.T) {
	time := testutil.TimeGrid(800, 27)
	trueF := []float64{1.3, 3.7}
	trueA := []float64{0.5, 0.2}
	truePh := []float64{0.4, -1.0}
	flux := testutil.Sinusoids(time, trueF, trueA, truePh)
	testutil.AddInPlace(flux, testutil.Noise(1, 0.01, 800))

	chunks := [][2]int{{0, 800}}
	consts, slopes := lightcurve.LinearPars(time, flux, chunks)

	// Start from slightly perturbed parameters.
	fN := []float64{1.301, 3.698}
	aN := []float64{0.45, 0.22}
	phN := []float64{0.3, -0.9}

	before := rss(time, flux, consts, slopes, fN, aN, phN, chunks)
	c2, s2, f2, a2, ph2 := MultiSinusoidPerGroup(time, flux, consts, slopes, fN, aN, phN, chunks, nil)
	after := rss(time, flux, c2, s2, f2, a2, ph2, chunks)

	if after >= before {
		t.Fatalf("fit did not improve: rss %v -> %v", before, after)
	}
	for i := range trueF {
		if math.Abs(f2[i]-trueF[i]) > 1e-3 {
			t.Fatalf("f[%d] = %v, want %v", i, f2[i], trueF[i])
		}
		if math.Abs(a2[i]-trueA[i]) > 0.01 {
			t.Fatalf("a[%d] = %v, want %v", i, a2[i], trueA[i])
		}
		if math.Abs(ph2[i]-truePh[i]) > 0.05 {
			t.Fatalf("ph[%d] = %v, want %v", i, ph2[i], truePh[i])
		}
	}
}

func TestMultiSinusoidPerGroupEmpty(t *testing.T) {
	time := testutil.TimeGrid(100, 10)
	flux := testutil.Noise(2, 0.1, 100)
	chunks := [][2]int{{0, 100}}
	consts, slopes := lightcurve.LinearPars(time, flux, chunks)

	c2, s2, f2, a2, ph2 := MultiSinusoidPerGroup(time, flux, consts, slopes, nil, nil, nil, chunks, nil)
	if len(f2) != 0 || len(a2) != 0 || len(ph2) != 0 {
		t.Fatalf("expected empty sinusoid set, got %v %v %v", f2, a2, ph2)
	}
	testutil.RequireSliceNearlyEqual(t, c2, consts, 0)
	testutil.RequireSliceNearlyEqual(t, s2, slopes, 0)
}

func TestMultiSinusoidPerGroupNormalizesAmplitude(t *testing.T) {
	time := testutil.TimeGrid(600, 20)
	flux := testutil.Sinusoids(time, []float64{2}, []float64{0.3}, []float64{0.5})
	testutil.AddInPlace(flux, testutil.Noise(3, 0.005, 600))

	chunks := [][2]int{{0, 600}}
	consts, slopes := lightcurve.LinearPars(time, flux, chunks)

	_, _, f2, a2, ph2 := MultiSinusoidPerGroup(time, flux, consts, slopes,
		[]float64{2.0005}, []float64{0.28}, []float64{0.45}, chunks, nil)

	if a2[0] <= 0 {
		t.Fatalf("amplitude = %v, want positive", a2[0])
	}
	if ph2[0] <= -math.Pi || ph2[0] > math.Pi {
		t.Fatalf("phase = %v outside (-pi, pi]", ph2[0])
	}
	if math.Abs(f2[0]-2) > 1e-3 {
		t.Fatalf("f = %v, want 2", f2[0])
	}
}

func TestUncertaintiesScaleWithNoise(t *testing.T) {
	time := testutil.TimeGrid(1000, 27)
	chunks := [][2]int{{0, 1000}}
	aN := []float64{0.5}

	residSmall := testutil.Noise(4, 0.01, 1000)
	residLarge := testutil.Noise(4, 0.1, 1000)

	_, _, fErrS, aErrS, phErrS := Uncertainties(time, residSmall, nil, aN, chunks)
	_, _, fErrL, aErrL, phErrL := Uncertainties(time, residLarge, nil, aN, chunks)

	if fErrL[0] <= fErrS[0] || aErrL[0] <= aErrS[0] || phErrL[0] <= phErrS[0] {
		t.Fatal("uncertainties should grow with residual scatter")
	}
	// sigma_a = sqrt(2/N)*sigma.
	want := math.Sqrt(2.0/1000) * 0.01
	if math.Abs(aErrS[0]-want) > want/2 {
		t.Fatalf("aErr = %v, want about %v", aErrS[0], want)
	}
}

func TestUncertaintiesZeroAmplitude(t *testing.T) {
	time := testutil.TimeGrid(100, 10)
	resid := testutil.Noise(5, 0.01, 100)
	chunks := [][2]int{{0, 100}}

	_, _, fErr, aErr, phErr := Uncertainties(time, resid, nil, []float64{0}, chunks)
	if !math.IsInf(fErr[0], 1) || !math.IsInf(phErr[0], 1) {
		t.Fatalf("fErr, phErr = %v, %v, want +Inf for zero amplitude", fErr[0], phErr[0])
	}
	if aErr[0] <= 0 || math.IsInf(aErr[0], 0) {
		t.Fatalf("aErr = %v, want finite positive", aErr[0])
	}
}

func TestUncertaintiesFluxErr(t *testing.T) {
	time := testutil.TimeGrid(500, 20)
	resid := testutil.Noise(6, 0.01, 500)
	chunks := [][2]int{{0, 500}}
	fluxErr := make([]float64, 500)
	for i := range fluxErr {
		fluxErr[i] = 0.05
	}

	_, _, _, aErrNone, _ := Uncertainties(time, resid, nil, []float64{0.5}, chunks)
	_, _, _, aErrWith, _ := Uncertainties(time, resid, fluxErr, []float64{0.5}, chunks)
	if aErrWith[0] <= aErrNone[0] {
		t.Fatalf("aErr with flux errors %v <= without %v", aErrWith[0], aErrNone[0])
	}
}
