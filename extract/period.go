package extract

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-lightcurve/freqset"
	"github.com/cwbudde/algo-lightcurve/periodogram"
)

// ErrNoPeriod is returned when no candidate orbital period can be derived
// from the sinusoid frequencies.
var ErrNoPeriod = errors.New("extract: no candidate orbital periods")

// refineByDistance densely samples orbital frequency around the peak of
// the harmonic measure and returns the frequency with the smallest summed
// harmonic distance inside the region where the measure exceeds two
// thirds of its maximum. Also reported are the bounds of the low-distance
// region and the measure at the chosen frequency.
func refineByDistance(fGrid, fN []float64, freqRes, fNyquist float64) (fBest, fLoBound, fHiBound, hBest float64, ok bool) {
	nHarm, completeness, distance := freqset.HarmonicSeriesLength(fGrid, fN, freqRes, fNyquist)

	h := make([]float64, len(fGrid))
	hMax := 0.0
	for i := range h {
		h[i] = float64(nHarm[i]) * completeness[i]
		hMax = math.Max(hMax, h[i])
	}
	if hMax <= 0 {
		return 0, 0, 0, 0, false
	}

	var maskIdx []int
	for i := range h {
		if h[i] > hMax/1.5 {
			maskIdx = append(maskIdx, i)
		}
	}

	iMin := 0
	for k, i := range maskIdx {
		if distance[i] < distance[maskIdx[iMin]] {
			iMin = k
		}
	}
	fBest = fGrid[maskIdx[iMin]]
	hBest = h[maskIdx[iMin]]

	dMax := 0.0
	for i := range distance {
		if !math.IsInf(distance[i], 1) {
			dMax = math.Max(dMax, distance[i])
		}
	}

	// Walk outward from the minimum until the distance rises past half of
	// the maximum; the enclosed interval bounds later refinements.
	fLoBound = fGrid[maskIdx[0]]
	for k := iMin - 1; k >= 0; k-- {
		if distance[maskIdx[k]] > dMax/2 {
			fLoBound = fGrid[maskIdx[k]]
			break
		}
	}
	fHiBound = fGrid[maskIdx[len(maskIdx)-1]]
	for k := iMin; k < len(maskIdx); k++ {
		if distance[maskIdx[k]] > dMax/2 {
			fHiBound = fGrid[maskIdx[k]]
			break
		}
	}
	return fBest, fLoBound, fHiBound, hBest, true
}

func denseFrequencyGrid(f0, fn, df float64) []float64 {
	var grid []float64
	for f := f0; f < fn; f += df {
		grid = append(grid, f)
	}
	return grid
}

// RefineOrbitalPeriod nudges a known orbital period to the value that
// minimises the summed distance between the sinusoid frequencies and
// exact harmonic positions. The search covers one percent around the
// input period with a relative precision of 1e-5.
func RefineOrbitalPeriod(pOrb float64, time, fN []float64) float64 {
	freqRes := 1.5 / timeSpan(time)
	fNyq := nyquist(time)

	grid := denseFrequencyGrid(0.99/pOrb, 1.01/pOrb, 1e-5/pOrb)
	fBest, _, _, _, ok := refineByDistance(grid, fN, freqRes, fNyq)
	if !ok {
		return pOrb
	}
	return 1 / fBest
}

// FindOrbitalPeriod searches for the orbital period of an eclipsing
// signal given the extracted sinusoid frequencies. Candidate periods come
// from phase dispersion minimisation combined with the amplitude
// spectrum; the winner by the combined measure is refined on the harmonic
// distance, then commonly missed multiples (half, double and up to five
// times the period) are tested on harmonic completeness before a final
// refinement.
func FindOrbitalPeriod(time, flux, fN []float64) (float64, error) {
	freqRes := 1.5 / timeSpan(time)
	fNyq := nyquist(time)

	periods, phaseDisp := periodogram.PhaseDispersion(time, flux, fN, false)
	if len(periods) == 0 {
		return 0, ErrNoPeriod
	}

	invP := make([]float64, len(periods))
	for i, p := range periods {
		invP[i] = 1 / p
	}
	ampls, _ := periodogram.AmplitudePhase(time, flux, invP)
	nHarm, completeness, _ := freqset.HarmonicSeriesLength(invP, fN, freqRes, fNyq)

	iBest, best := 0, math.Inf(-1)
	for i := range periods {
		psi := 0.0
		if phaseDisp[i] > 0 {
			psi = ampls[i] / phaseDisp[i]
		}
		psiH := psi * float64(nHarm[i]) * completeness[i]
		if psiH > best {
			best, iBest = psiH, i
		}
	}
	pOrb := periods[iBest]

	grid := denseFrequencyGrid(0.99/pOrb, 1.01/pOrb, 1e-5/pOrb)
	fBest, fLoBound, fHiBound, hPeak, ok := refineByDistance(grid, fN, freqRes, fNyq)
	if !ok {
		return pOrb, nil
	}
	pOrb = 1 / fBest
	boundInterval := fHiBound - fLoBound

	// Completeness of the currently accepted period, overall and counting
	// only the low harmonics.
	harmonics, multiples := freqset.Harmonics(fN, pOrb, freqRes/2)
	possible := math.Max(math.Floor(fNyq*pOrb), 1)
	completenessP := float64(len(harmonics)) / possible
	nLow := 0
	fCut := 0.0
	for k, i := range harmonics {
		if multiples[k] <= 15 {
			nLow++
			fCut = math.Max(fCut, fN[i])
		}
	}
	completenessPL := float64(nLow) / possible

	// Commonly missed multiples of the period.
	multipliers := []float64{0.5, 2, 3, 4, 5}
	hM, complM := multipleMeasures(pOrb, multipliers, fN, freqRes, fNyq)

	var extra []float64
	for i := 2; i < len(multipliers); i++ {
		if hPeak > 0 && hM[i]/hPeak > 3 {
			extra = append(extra, 2*multipliers[i])
		}
	}
	if len(extra) > 0 {
		multipliers = append(multipliers, extra...)
		hM, complM = multipleMeasures(pOrb, multipliers, fN, freqRes, fNyq)
	}

	testFrac := make([]float64, len(multipliers))
	complFrac := make([]float64, len(multipliers))
	for i := range multipliers {
		if hPeak > 0 {
			testFrac[i] = hM[i] / hPeak
		}
		if completenessP > 0 {
			complFrac[i] = complM[i] / completenessP
		}
	}

	// Doubling is also allowed when the harmonic filling below the
	// fifteenth multiple is near complete.
	complFrac2 := 0.0
	if fCut > 0 && completenessPL > 0 {
		var fNC []float64
		for _, f := range fN {
			if f <= fCut {
				fNC = append(fNC, f)
			}
		}
		_, compl2 := multipleMeasures(pOrb, multipliers, fNC, freqRes, fNyq)
		complFrac2 = compl2[1] / completenessPL
	}

	const (
		minimalFrac         = 1.1
		minimalComplFrac    = 0.85
		minimalFracLow      = 0.95
		minimalComplFracLow = 0.95
	)

	anyPassed := false
	for i := range multipliers {
		if testFrac[i] > minimalFrac && complFrac[i] > minimalComplFrac {
			anyPassed = true
			break
		}
	}
	doubling := testFrac[1] > minimalFracLow && complFrac2 > minimalComplFracLow

	if anyPassed || doubling {
		if anyPassed {
			iSel, bestFrac := -1, math.Inf(-1)
			for i := range multipliers {
				if complFrac[i] > minimalComplFrac && testFrac[i] > bestFrac {
					bestFrac, iSel = testFrac[i], i
				}
			}
			pOrb *= multipliers[iSel]
		} else {
			pOrb *= 2
		}

		fLo := 1/pOrb - boundInterval/2
		fHi := 1/pOrb + boundInterval/2
		grid2 := denseFrequencyGrid(fLo, fHi, 1e-5/pOrb)
		if fBest, _, _, _, ok := refineByDistance(grid2, fN, freqRes, fNyq); ok {
			pOrb = 1 / fBest
		}
	}

	return pOrb, nil
}

func multipleMeasures(pOrb float64, multipliers, fN []float64, freqRes, fNyq float64) (h, completeness []float64) {
	fM := make([]float64, len(multipliers))
	for i, m := range multipliers {
		fM[i] = 1 / (pOrb * m)
	}
	nHarm, compl, _ := freqset.HarmonicSeriesLength(fM, fN, freqRes, fNyq)
	h = make([]float64, len(fM))
	for i := range fM {
		h[i] = float64(nHarm[i]) * compl[i]
	}
	return h, compl
}
