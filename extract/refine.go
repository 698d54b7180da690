package extract

import (
	"log/slog"
	"math"

	"github.com/cwbudde/algo-lightcurve/freqset"
	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/periodogram"
)

// RefineSubset iteratively re-extracts each sinusoid in closeF against the
// residual of all the others. Frequencies closer than the Rayleigh
// resolution bias each other's least-squares solutions; taking them out
// one at a time and re-fitting converges on a consistent set. Passes
// repeat while the BIC improves; the last, non-improving pass is rolled
// back.
//
// Harmonic members keep their frequency and only get a fresh amplitude
// and phase.
func RefineSubset(m *lightcurve.Model, closeF []int, logger *slog.Logger) {
	bicPrev := m.BIC()
	logDebug(logger, "refine start", "n_close", len(closeF), "bic", bicPrev)

	for {
		fC, aC, phC := m.Sinusoid.Parameters()

		for _, j := range closeF {
			m.ExcludeSinusoids(j)
			m.UpdateLinearModel()
			resid := m.Residual()

			fJ := m.Sinusoid.Freq[j]
			var aJ, phJ float64
			if m.Sinusoid.IsHarmonic(j) {
				aJ, phJ = periodogram.AmplitudePhaseSingle(m.Time(), resid, fJ)
			} else {
				f2, a2, ph2, err := Approx(m.Time(), resid, fJ)
				if err != nil {
					aJ, phJ = periodogram.AmplitudePhaseSingle(m.Time(), resid, fJ)
				} else {
					fJ, aJ, phJ = f2, a2, ph2
				}
			}
			m.SetSinusoids([]float64{fJ}, []float64{aJ}, []float64{phJ}, j)
		}
		m.UpdateLinearModel()

		bic := m.BIC()
		if round2(bicPrev-bic) > 0 {
			bicPrev = bic
			continue
		}

		// Roll back the non-improving pass.
		fR := make([]float64, len(closeF))
		aR := make([]float64, len(closeF))
		phR := make([]float64, len(closeF))
		for k, j := range closeF {
			fR[k], aR[k], phR[k] = fC[j], aC[j], phC[j]
		}
		m.SetSinusoids(fR, aR, phR, closeF...)
		m.UpdateLinearModel()
		break
	}

	logDebug(logger, "refine done", "bic", bicPrev)
}

// ReplaceSubset tries to replace runs of unresolved frequencies in closeF
// with a single sinusoid each, from the longest run down. A run
// containing harmonics instead keeps all its harmonic members and drops
// only the free frequencies. Each replacement must lower the BIC or it is
// undone; members of an accepted replacement are removed from the model.
func ReplaceSubset(m *lightcurve.Model, closeF []int, logger *slog.Logger) {
	freqRes := 1 / m.TTot
	bicPrev := m.BIC()
	sets := freqset.ConsecutiveSubsets(closeF)

	removed := make(map[int]bool)
	nRemoved := 0

	for _, set := range sets {
		skip := false
		for _, i := range set {
			if removed[i] {
				skip = true
				break
			}
		}
		if skip {
			continue
		}

		m.ExcludeSinusoids(set...)
		m.UpdateLinearModel()
		resid := m.Residual()

		var harmI []int
		for _, i := range set {
			if m.Sinusoid.IsHarmonic(i) {
				harmI = append(harmI, i)
			}
		}

		nBefore := m.Sinusoid.Len()
		var added int
		if len(harmI) > 0 {
			fI := make([]float64, len(harmI))
			for k, i := range harmI {
				fI[k] = m.Sinusoid.Freq[i]
			}
			aI, phI := periodogram.AmplitudePhase(m.Time(), resid, fI)
			start := m.AddSinusoids(fI, aI, phI)
			for k, i := range harmI {
				m.Sinusoid.MarkHarmonic(start+k, m.Sinusoid.HarmonicNum(i))
			}
			added = len(fI)
		} else {
			fLo, fHi := math.Inf(1), math.Inf(-1)
			for _, i := range set {
				fLo = math.Min(fLo, m.Sinusoid.Freq[i])
				fHi = math.Max(fHi, m.Sinusoid.Freq[i])
			}
			fI, aI, phI, err := Local(m.Time(), resid, fLo-freqRes, fHi+freqRes)
			if err != nil {
				m.IncludeSinusoids(set...)
				m.UpdateLinearModel()
				continue
			}
			m.AddSinusoids([]float64{fI}, []float64{aI}, []float64{phI})
			added = 1
		}
		m.UpdateLinearModel()

		bic := m.BIC()
		if round2(bicPrev-bic) > 0 {
			bicPrev = bic
			for _, i := range set {
				removed[i] = true
			}
			nRemoved += len(set)
			logDebug(logger, "subset replaced", "n_old", len(set), "n_new", added, "bic", bic)
		} else {
			undo := make([]int, added)
			for k := range undo {
				undo[k] = nBefore + k
			}
			m.RemoveSinusoids(undo...)
			m.IncludeSinusoids(set...)
			m.UpdateLinearModel()
		}
	}

	m.RemoveExcludedSinusoids()
	m.UpdateLinearModel()
	logDebug(logger, "replace done", "n_removed", nRemoved, "bic", bicPrev)
}
