package extract

import (
	"log/slog"
	"math"

	"github.com/cwbudde/algo-lightcurve/freqset"
	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/periodogram"
)

// Parameters holds a complete trend-plus-sinusoid parameter set detached
// from a live model, as produced by the post-extraction passes.
type Parameters struct {
	Const []float64
	Slope []float64
	Freq  []float64
	Amp   []float64
	Ph    []float64
}

func cloneParameters(p Parameters) Parameters {
	return Parameters{
		Const: append([]float64(nil), p.Const...),
		Slope: append([]float64(nil), p.Slope...),
		Freq:  append([]float64(nil), p.Freq...),
		Amp:   append([]float64(nil), p.Amp...),
		Ph:    append([]float64(nil), p.Ph...),
	}
}

// deleteRows returns the parameter rows of p with the given sinusoid
// indices dropped and the extra rows appended.
func deleteRows(p Parameters, drop map[int]bool, fNew, aNew, phNew []float64) Parameters {
	out := Parameters{Const: p.Const, Slope: p.Slope}
	for i := range p.Freq {
		if drop[i] {
			continue
		}
		out.Freq = append(out.Freq, p.Freq[i])
		out.Amp = append(out.Amp, p.Amp[i])
		out.Ph = append(out.Ph, p.Ph[i])
	}
	out.Freq = append(out.Freq, fNew...)
	out.Amp = append(out.Amp, aNew...)
	out.Ph = append(out.Ph, phNew...)
	return out
}

// RemoveSinusoidsSingle greedily removes individual sinusoids whose
// absence lowers the BIC, in repeated full passes until none can be
// removed. Harmonics of pOrb count for one parameter instead of three,
// which the BIC bookkeeping reflects; pass pOrb zero when no orbital
// period is fixed.
func RemoveSinusoidsSingle(time, flux []float64, pOrb float64, p Parameters, chunks [][2]int, logger *slog.Logger) Parameters {
	p = cloneParameters(p)
	nChunks := len(chunks)
	nSin := len(p.Freq)

	harmSet := make(map[int]bool)
	if pOrb > 0 {
		harmonics, _ := freqset.Harmonics(p.Freq, pOrb, 1e-9)
		for _, i := range harmonics {
			harmSet[i] = true
		}
	}
	nHarm := len(harmSet)

	// Residual of the sinusoid part only; the trend is refit per trial.
	curResid := make([]float64, len(flux))
	sinModel := lightcurve.SumSinusoids(time, p.Freq, p.Amp, p.Ph)
	for i := range curResid {
		curResid[i] = flux[i] - sinModel[i]
	}
	consts, slopes := lightcurve.LinearPars(time, curResid, chunks)
	resid := subtractCurve(time, curResid, consts, slopes, chunks)
	bicPrev := lightcurve.BIC(resid, lightcurve.NParameters(nChunks, nSin-nHarm, nHarm))

	removed := make(map[int]bool)
	for {
		nPrev := len(removed)
		for i := 0; i < nSin; i++ {
			if removed[i] {
				continue
			}
			single := lightcurve.SumSinusoids(time, p.Freq[i:i+1], p.Amp[i:i+1], p.Ph[i:i+1])
			trial := make([]float64, len(curResid))
			for k := range trial {
				trial[k] = curResid[k] + single[k]
			}
			consts, slopes = lightcurve.LinearPars(time, trial, chunks)
			resid = subtractCurve(time, trial, consts, slopes, chunks)

			nHarmRemoved := 0
			for j := range removed {
				if harmSet[j] {
					nHarmRemoved++
				}
			}
			nHarmI := nHarm - nHarmRemoved
			if harmSet[i] {
				nHarmI--
			}
			nSinI := nSin - len(removed) - 1 - nHarmI

			bic := lightcurve.BIC(resid, lightcurve.NParameters(nChunks, nSinI, nHarmI))
			if round2(bicPrev-bic) > 0 {
				removed[i] = true
				copy(curResid, trial)
				bicPrev = bic
			}
		}
		if len(removed) == nPrev {
			break
		}
	}

	consts, slopes = lightcurve.LinearPars(time, curResid, chunks)
	out := deleteRows(p, removed, nil, nil, nil)
	out.Const, out.Slope = consts, slopes
	logInfo(logger, "single removal done", "n_removed", len(removed), "bic", bicPrev)
	return out
}

// ReplaceSinusoidGroups tries to replace chains of frequencies closer
// than the resolution with a single sinusoid per chain, and chains
// containing harmonics of pOrb with just their harmonic members. All
// contiguous windows of each chain are candidates; an accepted window
// consumes every window it overlaps. Passes repeat until no window is
// accepted.
func ReplaceSinusoidGroups(time, flux []float64, pOrb float64, p Parameters, chunks [][2]int, logger *slog.Logger) Parameters {
	p = cloneParameters(p)
	nChunks := len(chunks)
	nSin := len(p.Freq)
	freqRes := 1 / timeSpan(time)

	harmSet := make(map[int]bool)
	if pOrb > 0 {
		harmonics, _ := freqset.Harmonics(p.Freq, pOrb, 1e-9)
		for _, i := range harmonics {
			harmSet[i] = true
		}
	}
	nHarm := len(harmSet)

	// Candidate windows over chains of non-harmonic frequencies, then over
	// chains of all frequencies that include at least one harmonic.
	var nonHarm []int
	for i := 0; i < nSin; i++ {
		if !harmSet[i] {
			nonHarm = append(nonHarm, i)
		}
	}
	fNonHarm := make([]float64, len(nonHarm))
	for k, i := range nonHarm {
		fNonHarm[k] = p.Freq[i]
	}

	var fSets [][]int
	var isHarmSet []bool
	for _, chain := range freqset.ChainsWithinResolution(fNonHarm, freqRes) {
		for p1 := 0; p1 < len(chain)-1; p1++ {
			for p2 := p1 + 1; p2 < len(chain); p2++ {
				win := make([]int, 0, p2-p1+1)
				for _, k := range chain[p1 : p2+1] {
					win = append(win, nonHarm[k])
				}
				fSets = append(fSets, win)
				isHarmSet = append(isHarmSet, false)
			}
		}
	}
	for _, chain := range freqset.ChainsWithinResolution(p.Freq, freqRes) {
		for p1 := 0; p1 < len(chain)-1; p1++ {
			for p2 := p1 + 1; p2 < len(chain); p2++ {
				win := append([]int(nil), chain[p1:p2+1]...)
				hasHarm := false
				for _, i := range win {
					if harmSet[i] {
						hasHarm = true
						break
					}
				}
				if hasHarm {
					fSets = append(fSets, win)
					isHarmSet = append(isHarmSet, true)
				}
			}
		}
	}

	curResid := make([]float64, len(flux))
	sinModel := lightcurve.SumSinusoids(time, p.Freq, p.Amp, p.Ph)
	for i := range curResid {
		curResid[i] = flux[i] - sinModel[i]
	}
	consts, slopes := lightcurve.LinearPars(time, curResid, chunks)
	resid := subtractCurve(time, curResid, consts, slopes, chunks)
	bicPrev := lightcurve.BIC(resid, lightcurve.NParameters(nChunks, nSin-nHarm, nHarm))

	used := make(map[int]bool)
	removedRows := make(map[int]bool)
	nRowsRemoved := 0
	var fNew, aNew, phNew []float64

	for {
		nAccepted := len(fNew)
		for si, set := range fSets {
			if used[si] {
				continue
			}

			old := lightcurve.SumSinusoids(time, rowsOf(p.Freq, set), rowsOf(p.Amp, set), rowsOf(p.Ph, set))
			trial := make([]float64, len(curResid))
			for k := range trial {
				trial[k] = curResid[k] + old[k]
			}
			consts, slopes = lightcurve.LinearPars(time, trial, chunks)
			resid = subtractCurve(time, trial, consts, slopes, chunks)

			var fI, aI, phI []float64
			if isHarmSet[si] {
				var fH []float64
				for _, i := range set {
					if harmSet[i] {
						fH = append(fH, p.Freq[i])
					}
				}
				aH, phH := periodogram.AmplitudePhase(time, resid, fH)
				fI, aI, phI = fH, aH, phH
			} else {
				fLo, fHi := math.Inf(1), math.Inf(-1)
				for _, i := range set {
					fLo = math.Min(fLo, p.Freq[i])
					fHi = math.Max(fHi, p.Freq[i])
				}
				fs, as, ps, err := Local(time, resid, fLo-freqRes, fHi+freqRes)
				if err != nil {
					continue
				}
				fI, aI, phI = []float64{fs}, []float64{as}, []float64{ps}
			}

			replacement := lightcurve.SumSinusoids(time, fI, aI, phI)
			for k := range trial {
				trial[k] -= replacement[k]
			}
			consts, slopes = lightcurve.LinearPars(time, trial, chunks)
			resid = subtractCurve(time, trial, consts, slopes, chunks)

			nSinI := nSin - nRowsRemoved - len(set) + len(fNew) + len(fI) - nHarm
			bic := lightcurve.BIC(resid, lightcurve.NParameters(nChunks, nSinI, nHarm))
			if round2(bicPrev-bic) > 0 {
				for sj, other := range fSets {
					if used[sj] {
						continue
					}
					if overlaps(other, set) {
						used[sj] = true
					}
				}
				for _, i := range set {
					removedRows[i] = true
				}
				nRowsRemoved += len(set)
				fNew = append(fNew, fI...)
				aNew = append(aNew, aI...)
				phNew = append(phNew, phI...)
				copy(curResid, trial)
				bicPrev = bic
				logDebug(logger, "group replaced", "n_old", len(set), "n_new", len(fI), "bic", bic)
			}
		}
		if len(fNew) == nAccepted {
			break
		}
	}

	consts, slopes = lightcurve.LinearPars(time, curResid, chunks)
	out := deleteRows(p, removedRows, fNew, aNew, phNew)
	out.Const, out.Slope = consts, slopes
	logInfo(logger, "group replacement done",
		"n_removed", nRowsRemoved, "n_added", len(fNew), "bic", bicPrev)
	return out
}

// Reduce runs the two reduction passes in order: individual removal
// first, then replacement of unresolved groups.
func Reduce(time, flux []float64, pOrb float64, p Parameters, chunks [][2]int, logger *slog.Logger) Parameters {
	p = RemoveSinusoidsSingle(time, flux, pOrb, p, chunks, logger)
	return ReplaceSinusoidGroups(time, flux, pOrb, p, chunks, logger)
}

func subtractCurve(time, values []float64, consts, slopes []float64, chunks [][2]int) []float64 {
	curve := lightcurve.LinearCurve(time, consts, slopes, chunks)
	out := make([]float64, len(values))
	for i := range out {
		out[i] = values[i] - curve[i]
	}
	return out
}

func rowsOf(x []float64, indices []int) []float64 {
	out := make([]float64, len(indices))
	for k, i := range indices {
		out[k] = x[i]
	}
	return out
}

func overlaps(a, b []int) bool {
	for _, i := range a {
		for _, j := range b {
			if i == j {
				return true
			}
		}
	}
	return false
}
