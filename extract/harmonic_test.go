package extract

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-lightcurve/internal/testutil"
)

func TestFixHarmonicFrequencyExactMultiples(t *testing.T) {
	time := testutil.TimeGrid(2000, 50)
	pOrb := 2.5
	harmF := []float64{1 / pOrb, 2 / pOrb, 3 / pOrb}
	flux := testutil.Sinusoids(time,
		append(harmF, 3.7),
		[]float64{0.05, 0.03, 0.02, 0.04},
		[]float64{0.2, -0.5, 1.0, 0.7})
	testutil.AddInPlace(flux, testutil.Noise(1, 0.002, 2000))

	chunks := [][2]int{{0, 2000}}
	// Slightly-off harmonic frequencies, as unconstrained extraction
	// leaves them.
	p := paramsFor(time, flux,
		[]float64{0.4003, 0.7998, 1.2004, 3.7},
		[]float64{0.05, 0.03, 0.02, 0.04},
		[]float64{0.2, -0.5, 1.0, 0.7}, chunks)

	out, err := FixHarmonicFrequency(time, flux, pOrb, p, chunks, nil)
	if err != nil {
		t.Fatalf("FixHarmonicFrequency: %v", err)
	}

	for n := 1; n <= 3; n++ {
		want := float64(n) / pOrb
		found := false
		for _, f := range out.Freq {
			if f == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("harmonic %d not fixed to exactly %v, freqs %v", n, want, out.Freq)
		}
	}

	// The free sinusoid survives near its original frequency.
	found := false
	for _, f := range out.Freq {
		if math.Abs(f-3.7) < 0.05 {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("free frequency 3.7 lost, freqs %v", out.Freq)
	}
}

func TestFixHarmonicFrequencyMergesDuplicates(t *testing.T) {
	time := testutil.TimeGrid(2000, 50)
	pOrb := 2.5
	flux := testutil.Sinusoids(time, []float64{0.4}, []float64{0.05}, []float64{0.2})
	testutil.AddInPlace(flux, testutil.Noise(2, 0.002, 2000))

	chunks := [][2]int{{0, 2000}}
	// Two candidates for the same harmonic number collapse into one.
	p := paramsFor(time, flux,
		[]float64{0.3995, 0.4004}, []float64{0.03, 0.02}, []float64{0.2, 0.2}, chunks)

	out, err := FixHarmonicFrequency(time, flux, pOrb, p, chunks, nil)
	if err != nil {
		t.Fatalf("FixHarmonicFrequency: %v", err)
	}
	if len(out.Freq) != 1 {
		t.Fatalf("duplicate harmonic candidates kept: freqs %v", out.Freq)
	}
	if out.Freq[0] != 1/pOrb {
		t.Fatalf("f = %v, want exactly %v", out.Freq[0], 1/pOrb)
	}
}

func TestFixHarmonicFrequencyNoMatch(t *testing.T) {
	time := testutil.TimeGrid(500, 50)
	flux := testutil.Sinusoids(time, []float64{3.7}, []float64{0.05}, []float64{0.2})
	chunks := [][2]int{{0, 500}}
	p := paramsFor(time, flux, []float64{3.7}, []float64{0.05}, []float64{0.2}, chunks)

	_, err := FixHarmonicFrequency(time, flux, 2.5, p, chunks, nil)
	if !errors.Is(err, ErrNoHarmonics) {
		t.Fatalf("error = %v, want ErrNoHarmonics", err)
	}
}

func TestHarmonicsScanAddsMissing(t *testing.T) {
	time := testutil.TimeGrid(2000, 50)
	pOrb := 2.5
	// The data carries harmonics 1, 2 and 3; the model only knows 1 and 3.
	flux := testutil.Sinusoids(time,
		[]float64{1 / pOrb, 2 / pOrb, 3 / pOrb},
		[]float64{0.05, 0.03, 0.02},
		[]float64{0.2, -0.5, 1.0})
	testutil.AddInPlace(flux, testutil.Noise(3, 0.002, 2000))

	m := newTestModel(t, time, flux)
	m.AddSinusoids([]float64{1 / pOrb, 3 / pOrb}, []float64{0.05, 0.02}, []float64{0.2, 1.0})
	m.SetOrbitalPeriod(pOrb, m.FRes/2)
	m.UpdateLinearModel()

	added := Harmonics(m, 2, nil)
	if added < 1 {
		t.Fatal("missing second harmonic was not added")
	}

	found := false
	for i, f := range m.Sinusoid.Freq {
		if math.Abs(f-2/pOrb) < 1e-9 && m.Sinusoid.HarmonicNum(i) == 2 {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("harmonic 2 not present, freqs %v", m.Sinusoid.Freq)
	}
}
