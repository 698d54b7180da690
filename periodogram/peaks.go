package periodogram

import "sort"

// UphillLocalMax walks uphill in y from each seed abscissa to the nearest
// local maximum and returns the resulting indices, one per seed. x must be
// sorted ascending. Walking a negated y finds local minima, which is how
// interval edges are trimmed to an enclosed peak.
func UphillLocalMax(x, y []float64, seeds []float64) []int {
	out := make([]int, len(seeds))
	if len(x) == 0 {
		return out
	}

	for k, s := range seeds {
		i := sort.SearchFloat64s(x, s)
		if i >= len(x) {
			i = len(x) - 1
		}

		// SearchFloat64s returns the insertion point; pick the nearer
		// neighbor.
		if i > 0 && s-x[i-1] < x[i]-s {
			i--
		}

		switch {
		case i+1 < len(y) && y[i+1] > y[i]:
			for i+1 < len(y) && y[i+1] > y[i] {
				i++
			}
		case i > 0 && y[i-1] > y[i]:
			for i > 0 && y[i-1] > y[i] {
				i--
			}
		}

		out[k] = i
	}

	return out
}
