package freqset

import "math"

// SNRThreshold returns the empirical signal-to-noise acceptance threshold
// for a series of n points (Baran & Koen 2021).
func SNRThreshold(n int) float64 {
	if n < 2 {
		return math.Inf(1)
	}

	return 1.201 * math.Sqrt(1.05*math.Log(float64(n))+7.184)
}

// InsignificantSNR returns the indices of sinusoids whose amplitude over
// the local noise level falls below the empirical threshold for a series
// of n points.
func InsignificantSNR(n int, aN, noiseAtF []float64) []int {
	thr := SNRThreshold(n)

	var out []int

	for i := range aN {
		if noiseAtF[i] <= 0 || aN[i]/noiseAtF[i] < thr {
			out = append(out, i)
		}
	}

	return out
}

// InsignificantSigma returns the indices of sinusoids that fail the formal
// significance test: amplitude below sigmaA times its uncertainty, or
// frequency indistinguishable (within sigmaF times the combined
// uncertainties) from a higher-amplitude sinusoid.
func InsignificantSigma(fN, fErr, aN, aErr []float64, sigmaF, sigmaA float64) []int {
	remove := make(map[int]bool)

	for i := range aN {
		if aN[i] < sigmaA*aErr[i] {
			remove[i] = true
		}
	}

	for i := range fN {
		for j := i + 1; j < len(fN); j++ {
			if math.Abs(fN[i]-fN[j]) >= sigmaF*(fErr[i]+fErr[j]) {
				continue
			}

			if aN[i] < aN[j] {
				remove[i] = true
			} else {
				remove[j] = true
			}
		}
	}

	out := make([]int, 0, len(remove))

	for i := range fN {
		if remove[i] {
			out = append(out, i)
		}
	}

	return out
}

// HarmonicsSigma returns the indices and multiples of sinusoids that are
// candidate harmonics of the given period: within tol of an exact multiple
// and with a deviation consistent with zero at the sigmaF level.
func HarmonicsSigma(fN, fErr []float64, period, tol, sigmaF float64) (indices, multiples []int) {
	if period <= 0 {
		return nil, nil
	}

	for i, f := range fN {
		k := math.Round(f * period)
		if k < 1 {
			continue
		}

		dev := math.Abs(f - k/period)
		if dev < tol && dev < sigmaF*fErr[i] {
			indices = append(indices, i)
			multiples = append(multiples, int(k))
		}
	}

	return indices, multiples
}
