package extract

import (
	"log/slog"
	"math"

	"github.com/cwbudde/algo-lightcurve/fit"
	"github.com/cwbudde/algo-lightcurve/freqset"
	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/periodogram"
)

// StopCriterion decides when the prewhitening loop stops accepting
// candidates.
type StopCriterion int

const (
	// StopBIC stops when a candidate fails to lower the BIC of the model
	// by more than the threshold.
	StopBIC StopCriterion = iota
	// StopSNR stops when a candidate's amplitude over the local residual
	// noise drops below the threshold.
	StopSNR
)

// Options controls the prewhitening loop. The zero value is not useful;
// start from DefaultOptions.
type Options struct {
	// BICThreshold is the minimum BIC decrease, rounded to two decimals,
	// for a candidate to be accepted under StopBIC.
	BICThreshold float64

	// SNRThreshold is the minimum amplitude to local noise ratio for a
	// candidate to be accepted under StopSNR.
	SNRThreshold float64

	// StopCriterion selects between the BIC and SNR acceptance tests.
	StopCriterion StopCriterion

	// Selection picks the peak selection metric.
	Selection Selection

	// MaxExtract caps the number of accepted sinusoids in this call.
	// Zero means no cap.
	MaxExtract int

	// FitEachStep refits all parameters with a non-linear optimizer after
	// every candidate instead of the cheaper subset refinement.
	FitEachStep bool

	// ReplaceEachStep attempts to replace unresolved frequency clusters
	// around each new candidate with fewer sinusoids.
	ReplaceEachStep bool

	// Logger receives progress output. Nil disables logging.
	Logger *slog.Logger
}

// DefaultOptions returns the standard prewhitening configuration: hybrid
// peak selection, BIC stop criterion with a threshold of 2, and cluster
// replacement after each step.
func DefaultOptions() Options {
	return Options{
		BICThreshold:    2,
		Selection:       SelectHybrid,
		ReplaceEachStep: true,
	}
}

func logInfo(logger *slog.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Info(msg, args...)
	}
}

func logDebug(logger *slog.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}

// Sinusoids iteratively extracts sinusoids from the residual of m until
// the stop criterion fires. Each iteration picks the strongest candidate
// peak, appends it, refines or replaces any cluster of frequencies closer
// than the Rayleigh resolution around it, and accepts the step only if
// the acceptance test passes; a rejected step is rolled back exactly.
//
// With hybrid selection the first rejection does not stop the loop: the
// selection metric switches from raw amplitude to signal-to-noise and
// extraction continues until the next rejection.
func Sinusoids(m *lightcurve.Model, opts Options) error {
	nExtract := opts.MaxExtract
	if nExtract <= 0 {
		nExtract = math.MaxInt
	}

	sel := opts.Selection
	switchAvailable := sel == SelectHybrid
	if switchAvailable {
		sel = SelectAmplitude
	}

	nInit := m.Sinusoid.Count()
	bicPrev := m.BIC()
	logInfo(opts.Logger, "extraction start", "n_sin", nInit, "bic", bicPrev)

	accepted := true
	for (accepted || switchAvailable) && m.Sinusoid.Count()-nInit < nExtract {
		if !accepted {
			// First rejection under hybrid selection: switch metrics and
			// keep going against the same BIC baseline.
			sel = SelectSNR
			switchAvailable = false
			logDebug(opts.Logger, "selection switched to signal-to-noise")
		}

		fC, aC, phC := m.Sinusoid.Parameters()
		constsC, slopesC := m.LinearModel()

		fI, aI, phI, err := Single(m.Time(), m.Residual(), m.PdF0, m.PdFn, sel)
		if err != nil {
			return err
		}

		m.AddSinusoids([]float64{fI}, []float64{aI}, []float64{phI})
		iNew := m.Sinusoid.Len() - 1

		if opts.FitEachStep {
			consts, slopes, f, a, ph := m.Parameters()
			consts, slopes, f, a, ph = fit.MultiSinusoidPerGroup(
				m.Time(), m.Flux(), consts, slopes, f, a, ph, m.Chunks(), opts.Logger)
			m.SetSinusoids(f, a, ph)
			m.SetLinearModel(consts, slopes)
		} else {
			closeF := freqset.WithinRayleigh(iNew, m.Sinusoid.Freq, m.FRes)
			if len(closeF) > 1 {
				RefineSubset(m, closeF, opts.Logger)
			} else {
				m.UpdateLinearModel()
			}
		}

		if opts.ReplaceEachStep {
			closeF := freqset.WithinRayleigh(iNew, m.Sinusoid.Freq, m.FRes)
			if len(closeF) > 1 {
				ReplaceSubset(m, closeF, opts.Logger)
			}
		}

		bic := m.BIC()
		if opts.StopCriterion == StopSNR {
			noise := periodogram.NoiseAtFrequencies([]float64{fI}, m.Time(), m.Residual(), 1.0)
			snr := 0.0
			if noise[0] > 0 {
				snr = aI / noise[0]
			}
			accepted = snr > opts.SNRThreshold
		} else {
			accepted = round2(bicPrev-bic) > opts.BICThreshold
		}

		if accepted {
			bicPrev = bic
			logInfo(opts.Logger, "sinusoid accepted",
				"n_sin", m.Sinusoid.Count(), "f", fI, "a", aI, "bic", bic)
		} else {
			m.SetSinusoids(fC, aC, phC)
			m.SetLinearModel(constsC, slopesC)
			logDebug(opts.Logger, "sinusoid rejected", "f", fI, "a", aI, "bic", bic)
		}
	}

	logInfo(opts.Logger, "extraction done", "n_sin", m.Sinusoid.Count(), "bic", bicPrev)
	return nil
}
