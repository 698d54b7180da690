package extract

import (
	"log/slog"

	"github.com/cwbudde/algo-lightcurve/fit"
	"github.com/cwbudde/algo-lightcurve/freqset"
	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/periodogram"
)

// Flags classifies each sinusoid of a parameter set by the significance
// tests it passed.
type Flags struct {
	// PassedSigma marks sinusoids whose amplitude exceeds three times its
	// formal uncertainty and whose frequency does not overlap a stronger
	// neighbour within three combined sigma.
	PassedSigma []bool
	// PassedSNR marks sinusoids whose amplitude over the local residual
	// noise exceeds the false-alarm threshold for the series length.
	PassedSNR []bool
	// PassedBoth is the conjunction of the two tests above.
	PassedBoth []bool
	// PassedHarmonic marks sinusoids consistent with a multiple of the
	// orbital frequency to within three sigma. All false when no orbital
	// period is given.
	PassedHarmonic []bool
}

// Select computes formal uncertainties for the parameter set and runs the
// sigma, signal-to-noise and harmonic significance tests. fluxErr may be
// nil when no per-point uncertainties are known.
func Select(time, flux, fluxErr []float64, pOrb float64, p Parameters, chunks [][2]int, logger *slog.Logger) Flags {
	nSin := len(p.Freq)

	sinModel := lightcurve.SumSinusoids(time, p.Freq, p.Amp, p.Ph)
	curve := lightcurve.LinearCurve(time, p.Const, p.Slope, chunks)
	resid := make([]float64, len(flux))
	for i := range resid {
		resid[i] = flux[i] - curve[i] - sinModel[i]
	}

	_, _, fErr, aErr, _ := fit.Uncertainties(time, resid, fluxErr, p.Amp, chunks)

	removeSigma := freqset.InsignificantSigma(p.Freq, fErr, p.Amp, aErr, 3, 3)
	noiseAtF := periodogram.NoiseAtFrequencies(p.Freq, time, resid, 1.0)
	removeSNR := freqset.InsignificantSNR(len(time), p.Amp, noiseAtF)

	flags := Flags{
		PassedSigma:    trueExcept(nSin, removeSigma),
		PassedSNR:      trueExcept(nSin, removeSNR),
		PassedBoth:     make([]bool, nSin),
		PassedHarmonic: make([]bool, nSin),
	}
	for i := 0; i < nSin; i++ {
		flags.PassedBoth[i] = flags.PassedSigma[i] && flags.PassedSNR[i]
	}

	if pOrb > 0 {
		freqRes := 1.5 / timeSpan(time)
		harmonics, _ := freqset.HarmonicsSigma(p.Freq, fErr, pOrb, freqRes/2, 3)
		for _, i := range harmonics {
			flags.PassedHarmonic[i] = true
		}
	}

	nPassed := 0
	for i := 0; i < nSin; i++ {
		if flags.PassedBoth[i] {
			nPassed++
		}
	}
	logInfo(logger, "significance selection done", "n_sin", nSin, "n_passed", nPassed)
	return flags
}

func trueExcept(n int, except []int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = true
	}
	for _, i := range except {
		out[i] = false
	}
	return out
}
