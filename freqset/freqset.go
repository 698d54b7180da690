// Package freqset classifies lists of extracted frequencies: matching
// against harmonic series of a candidate orbital period, grouping
// frequencies that the Rayleigh criterion cannot separate, enumerating
// contiguous sub-chains for replacement trials, and filtering statistically
// insignificant sinusoids.
package freqset

import (
	"math"
	"sort"
)

// Harmonics matches each frequency against the nearest integer multiple of
// 1/period and returns the indices and multiples of the ones within tol of
// an exact multiple. A period of 0 or less matches nothing.
func Harmonics(fN []float64, period, tol float64) (indices, multiples []int) {
	if period <= 0 {
		return nil, nil
	}

	for i, f := range fN {
		k := math.Round(f * period)
		if k < 1 {
			continue
		}

		if math.Abs(f-k/period) < tol {
			indices = append(indices, i)
			multiples = append(multiples, int(k))
		}
	}

	return indices, multiples
}

// HarmonicSeriesLength evaluates how well each candidate base frequency
// explains the frequency list as a harmonic series. For each candidate it
// returns the number of matched frequencies (within half fRes of an exact
// multiple below the Nyquist frequency), the completeness (matched count
// over the number of possible harmonics below Nyquist) and the summed
// distance of the matched frequencies to their exact positions (+Inf when
// nothing matches, so a distance argmin never selects a barren candidate).
func HarmonicSeriesLength(fTest, fN []float64, fRes, fNyquist float64) (nHarm []int, completeness, distance []float64) {
	nHarm = make([]int, len(fTest))
	completeness = make([]float64, len(fTest))
	distance = make([]float64, len(fTest))

	for c, f := range fTest {
		if f <= 0 {
			distance[c] = math.Inf(1)
			continue
		}

		count := 0
		dist := 0.0

		for _, fn := range fN {
			k := math.Round(fn / f)
			if k < 1 {
				k = 1
			}

			exact := k * f
			if exact > fNyquist+fRes/2 {
				continue
			}

			if math.Abs(fn-exact) < fRes/2 {
				count++
				dist += math.Abs(fn - exact)
			}
		}

		possible := math.Floor(fNyquist / f)
		if possible < 1 {
			possible = 1
		}

		nHarm[c] = count
		completeness[c] = float64(count) / possible

		if count == 0 {
			distance[c] = math.Inf(1)
		} else {
			distance[c] = dist
		}
	}

	return nHarm, completeness, distance
}

// ChainsWithinResolution groups the frequency list into maximal chains of
// indices whose frequency-sorted consecutive gaps are below fRes. Only
// chains of two or more members are returned; member indices are ordered
// by frequency.
func ChainsWithinResolution(fN []float64, fRes float64) [][]int {
	if len(fN) < 2 {
		return nil
	}

	order := sortedByFrequency(fN)

	var chains [][]int

	start := 0

	for i := 1; i <= len(order); i++ {
		if i < len(order) && fN[order[i]]-fN[order[i-1]] < fRes {
			continue
		}

		if i-start >= 2 {
			chains = append(chains, append([]int(nil), order[start:i]...))
		}

		start = i
	}

	return chains
}

// WithinRayleigh returns the chain of indices connected to index i through
// frequency gaps below fRes, ordered by frequency. The result always
// contains i itself; a single-element result means i has no close
// neighbors.
func WithinRayleigh(i int, fN []float64, fRes float64) []int {
	order := sortedByFrequency(fN)

	pos := 0
	for k, idx := range order {
		if idx == i {
			pos = k
			break
		}
	}

	lo := pos
	for lo > 0 && fN[order[lo]]-fN[order[lo-1]] < fRes {
		lo--
	}

	hi := pos
	for hi+1 < len(order) && fN[order[hi+1]]-fN[order[hi]] < fRes {
		hi++
	}

	return append([]int(nil), order[lo:hi+1]...)
}

// ConsecutiveSubsets enumerates all contiguous sub-chains of length two or
// more, longest first; equal lengths are ordered left to right. Longer
// chains are tried first so a successful replacement consumes as many
// members as possible.
func ConsecutiveSubsets(chain []int) [][]int {
	var out [][]int

	for length := len(chain); length >= 2; length-- {
		for start := 0; start+length <= len(chain); start++ {
			out = append(out, append([]int(nil), chain[start:start+length]...))
		}
	}

	return out
}

func sortedByFrequency(fN []float64) []int {
	order := make([]int, len(fN))
	for i := range order {
		order[i] = i
	}

	sort.Slice(order, func(a, b int) bool { return fN[order[a]] < fN[order[b]] })

	return order
}
