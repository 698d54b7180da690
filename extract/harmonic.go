package extract

import (
	"log/slog"
	"sort"

	"github.com/cwbudde/algo-lightcurve/freqset"
	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/periodogram"
)

// FixHarmonicFrequency locks every sinusoid matching a multiple of the
// orbital frequency to exactly that multiple. For each harmonic number
// the matching candidates are removed and a single sinusoid at n/pOrb is
// fit to the freed-up residual. The remaining free sinusoids are then
// re-extracted against the new harmonic model; any that wander by more
// than the frequency resolution are dropped as artefacts of the old,
// unconstrained solution.
//
// Returns ErrNoHarmonics and the input set unchanged when no sinusoid
// matches any multiple of 1/pOrb within half the frequency resolution.
func FixHarmonicFrequency(time, flux []float64, pOrb float64, p Parameters, chunks [][2]int, logger *slog.Logger) (Parameters, error) {
	freqRes := 1.5 / timeSpan(time)

	harmonics, multiples := freqset.Harmonics(p.Freq, pOrb, freqRes/2)
	if len(harmonics) == 0 {
		return p, ErrNoHarmonics
	}
	p = cloneParameters(p)

	curResid := make([]float64, len(flux))
	sinModel := lightcurve.SumSinusoids(time, p.Freq, p.Amp, p.Ph)
	for i := range curResid {
		curResid[i] = flux[i] - sinModel[i]
	}

	byNum := make(map[int][]int)
	for k, i := range harmonics {
		byNum[multiples[k]] = append(byNum[multiples[k]], i)
	}
	nums := make([]int, 0, len(byNum))
	for n := range byNum {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	drop := make(map[int]bool)
	var fNew, aNew, phNew []float64
	for _, n := range nums {
		group := byNum[n]
		old := lightcurve.SumSinusoids(time, rowsOf(p.Freq, group), rowsOf(p.Amp, group), rowsOf(p.Ph, group))
		for k := range curResid {
			curResid[k] += old[k]
		}
		consts, slopes := lightcurve.LinearPars(time, curResid, chunks)
		resid := subtractCurve(time, curResid, consts, slopes, chunks)

		fI := float64(n) / pOrb
		aI, phI := periodogram.AmplitudePhaseSingle(time, resid, fI)
		replacement := lightcurve.SumSinusoids(time, []float64{fI}, []float64{aI}, []float64{phI})
		for k := range curResid {
			curResid[k] -= replacement[k]
		}

		for _, i := range group {
			drop[i] = true
		}
		fNew = append(fNew, fI)
		aNew = append(aNew, aI)
		phNew = append(phNew, phI)
		logDebug(logger, "harmonic fixed", "n", n, "f", fI, "n_candidates", len(group))
	}
	p = deleteRows(p, drop, fNew, aNew, phNew)

	// Re-extract the free sinusoids one at a time against the fixed
	// harmonics and drop the ones the new solution no longer supports.
	harmSet := make(map[int]bool)
	harmonics, _ = freqset.Harmonics(p.Freq, pOrb, 1e-9)
	for _, i := range harmonics {
		harmSet[i] = true
	}

	dropFree := make(map[int]bool)
	for i := range p.Freq {
		if harmSet[i] {
			continue
		}
		old := lightcurve.SumSinusoids(time, p.Freq[i:i+1], p.Amp[i:i+1], p.Ph[i:i+1])
		for k := range curResid {
			curResid[k] += old[k]
		}
		consts, slopes := lightcurve.LinearPars(time, curResid, chunks)
		resid := subtractCurve(time, curResid, consts, slopes, chunks)

		fLo, fHi := p.Freq[i]-freqRes, p.Freq[i]+freqRes
		f2, a2, ph2, err := Approx(time, resid, p.Freq[i])
		if err == nil {
			p.Freq[i], p.Amp[i], p.Ph[i] = f2, a2, ph2
		}
		if p.Freq[i] <= fLo || p.Freq[i] >= fHi {
			dropFree[i] = true
		}

		updated := lightcurve.SumSinusoids(time, p.Freq[i:i+1], p.Amp[i:i+1], p.Ph[i:i+1])
		for k := range curResid {
			curResid[k] -= updated[k]
		}
	}
	p = deleteRows(p, dropFree, nil, nil, nil)

	sinModel = lightcurve.SumSinusoids(time, p.Freq, p.Amp, p.Ph)
	for i := range curResid {
		curResid[i] = flux[i] - sinModel[i]
	}
	p.Const, p.Slope = lightcurve.LinearPars(time, curResid, chunks)

	logInfo(logger, "harmonics fixed",
		"n_harm", len(nums), "n_dropped", len(dropFree), "p_orb", pOrb)
	return p, nil
}

// Harmonics scans each harmonic series in the model for missing
// multiples below the Nyquist frequency and adds the ones that lower the
// BIC by more than bicThr. An orbital period must have been set on m for
// any harmonics to exist.
func Harmonics(m *lightcurve.Model, bicThr float64, logger *slog.Logger) int {
	type candidate struct {
		f float64
		n int
	}
	var candidates []candidate
	for iBase, members := range m.Sinusoid.HarmonicGroups() {
		fBase := m.Sinusoid.Freq[iBase] / float64(m.Sinusoid.HarmonicNum(iBase))
		present := make(map[int]bool)
		for _, i := range members {
			present[m.Sinusoid.HarmonicNum(i)] = true
		}
		for n := 1; float64(n)*fBase < m.PdFn; n++ {
			if !present[n] {
				candidates = append(candidates, candidate{f: float64(n) * fBase, n: n})
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].f < candidates[j].f })

	bicPrev := m.BIC()
	nAdded := 0
	for _, c := range candidates {
		aI, phI := periodogram.AmplitudePhaseSingle(m.Time(), m.Residual(), c.f)
		start := m.AddSinusoids([]float64{c.f}, []float64{aI}, []float64{phI})
		m.Sinusoid.MarkHarmonic(start, c.n)
		m.UpdateLinearModel()

		bic := m.BIC()
		if round2(bicPrev-bic) > bicThr {
			bicPrev = bic
			nAdded++
			logDebug(logger, "harmonic added", "n", c.n, "f", c.f, "bic", bic)
		} else {
			m.RemoveSinusoids(start)
			m.UpdateLinearModel()
		}
	}

	logInfo(logger, "harmonic scan done", "n_added", nAdded, "bic", bicPrev)
	return nAdded
}
