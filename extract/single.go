package extract

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-lightcurve/periodogram"
	"gonum.org/v1/gonum/floats"
)

// Selection picks the metric by which the next candidate peak is chosen
// from the amplitude spectrum of the residual.
type Selection int

const (
	// SelectAmplitude takes the highest peak outright.
	SelectAmplitude Selection = iota
	// SelectSNR takes the peak with the highest amplitude to local noise
	// ratio, which favours significant peaks at high frequency over the
	// red-noise hump at low frequency.
	SelectSNR
	// SelectHybrid starts with SelectAmplitude and switches to SelectSNR
	// once the first amplitude-selected candidate is rejected.
	SelectHybrid
)

var (
	// ErrNoPeak is returned when a requested frequency interval contains
	// no local maximum to extract.
	ErrNoPeak = errors.New("extract: no spectral peak in the requested interval")

	// ErrNoHarmonics is returned by FixHarmonicFrequency when no sinusoid
	// matches a multiple of the orbital frequency.
	ErrNoHarmonics = errors.New("extract: no harmonic frequencies found")
)

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func timeSpan(time []float64) float64 {
	if len(time) == 0 {
		return 0
	}
	return time[len(time)-1] - time[0]
}

func nyquist(time []float64) float64 {
	minStep := math.Inf(1)
	for i := 1; i < len(time); i++ {
		if d := time[i] - time[i-1]; d > 0 && d < minStep {
			minStep = d
		}
	}
	if math.IsInf(minStep, 1) {
		return 0
	}
	return 1 / (2 * minStep)
}

// refinePeak zooms in on a coarse-grid peak with a hundredfold finer
// frequency step. The amplitude is read off the refined spectrum; the
// phase comes from a dedicated single-frequency fit at the refined
// frequency, which is exact where the spectrum's phase would be smeared
// by the grid.
func refinePeak(time, flux []float64, fPeak, df float64) (f, a, ph float64, err error) {
	fLeft := math.Max(fPeak-df, df/10)
	fRight := fPeak + df
	freqs, ampls, err := periodogram.Spectrum(time, flux, fLeft, fRight, df/100)
	if err != nil {
		return 0, 0, 0, err
	}
	i := floats.MaxIdx(ampls)
	f = freqs[i]
	a = ampls[i]
	_, ph = periodogram.AmplitudePhaseSingle(time, flux, f)
	return f, a, ph, nil
}

// Single extracts the strongest single sinusoid from flux between f0 and
// fn, using the given selection metric. A non-positive f0 defaults to a
// hundredth of the frequency resolution, a non-positive fn to the Nyquist
// frequency of the sampling.
func Single(time, flux []float64, f0, fn float64, sel Selection) (f, a, ph float64, err error) {
	tTot := timeSpan(time)
	if tTot <= 0 {
		return 0, 0, 0, periodogram.ErrTooFewPoints
	}
	df := 0.1 / tTot
	if f0 <= 0 {
		f0 = 0.01 / tTot
	}
	if fn <= 0 {
		fn = nyquist(time)
	}

	freqs, ampls, err := periodogram.Spectrum(time, flux, f0, fn, df)
	if err != nil {
		return 0, 0, 0, err
	}

	var iPeak int
	if sel == SelectSNR {
		noise := periodogram.NoiseSpectrum(freqs, ampls, 1.0)
		snr := make([]float64, len(ampls))
		for i := range snr {
			if noise[i] > 0 {
				snr[i] = ampls[i] / noise[i]
			}
		}
		iPeak = floats.MaxIdx(snr)
	} else {
		iPeak = floats.MaxIdx(ampls)
	}

	return refinePeak(time, flux, freqs[iPeak], df)
}

// Local extracts the strongest sinusoid whose peak lies strictly between
// f0 and fn. Unlike Single, the spectrum is cut down to the one local
// maximum reachable uphill from inside the interval, so a tall peak just
// outside the interval cannot leak in through its flank.
func Local(time, flux []float64, f0, fn float64) (f, a, ph float64, err error) {
	tTot := timeSpan(time)
	if tTot <= 0 {
		return 0, 0, 0, periodogram.ErrTooFewPoints
	}
	df := 0.1 / tTot

	freqs, ampls, err := periodogram.Spectrum(time, flux, math.Max(f0, df/10), fn, df)
	if err != nil {
		return 0, 0, 0, err
	}

	// Walk downhill from both edges to find the interval's interior.
	negA := make([]float64, len(ampls))
	for i, v := range ampls {
		negA[i] = -v
	}
	edges := periodogram.UphillLocalMax(freqs, negA, []float64{freqs[0], freqs[len(freqs)-1]})
	lo, hi := edges[0], edges[1]
	if lo >= hi {
		return 0, 0, 0, ErrNoPeak
	}

	iPeak := lo + floats.MaxIdx(ampls[lo:hi+1])
	return refinePeak(time, flux, freqs[iPeak], df)
}

// Approx re-extracts a sinusoid near a known frequency. It computes the
// spectrum in a narrow band around fApprox, climbs to the nearest local
// maximum, and refines that peak. Used to update an existing sinusoid
// after its neighbours changed.
func Approx(time, flux []float64, fApprox float64) (f, a, ph float64, err error) {
	tTot := timeSpan(time)
	if tTot <= 0 {
		return 0, 0, 0, periodogram.ErrTooFewPoints
	}
	df := 0.1 / tTot

	f0 := math.Max(fApprox-25*df, df/10)
	fn := fApprox + 25*df
	freqs, ampls, err := periodogram.Spectrum(time, flux, f0, fn, df)
	if err != nil {
		return 0, 0, 0, err
	}

	iPeak := periodogram.UphillLocalMax(freqs, ampls, []float64{fApprox})[0]
	return refinePeak(time, flux, freqs[iPeak], df)
}
