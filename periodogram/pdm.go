package periodogram

import (
	"math"
	"sort"
)

const pdmBins = 10

// PhaseDispersion computes the phase dispersion minimisation statistic
// theta at a set of candidate periods derived from the given frequencies.
// Lower theta means the folded curve is more coherent.
//
// With local false, the candidates are the periods 1/f and their low
// integer multiples 2/f..5/f for every input frequency, which covers the
// common case of the true period being a multiple of the strongest
// spacing. With local true, the candidates are a dense scan within one
// percent around 1/f for every input frequency. Candidates are
// deduplicated and returned in ascending order.
func PhaseDispersion(time, flux, freqs []float64, local bool) (periods, theta []float64) {
	var candidates []float64

	for _, f := range freqs {
		if f <= 0 {
			continue
		}

		if local {
			p := 1 / f
			for step := -100; step <= 100; step++ {
				candidates = append(candidates, p*(1+1e-4*float64(step)))
			}

			continue
		}

		for k := 1; k <= 5; k++ {
			candidates = append(candidates, float64(k)/f)
		}
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	sort.Float64s(candidates)

	periods = candidates[:1]
	for _, p := range candidates[1:] {
		last := periods[len(periods)-1]
		if p-last > 1e-9*p {
			periods = append(periods, p)
		}
	}

	theta = make([]float64, len(periods))
	for i, p := range periods {
		theta[i] = Theta(time, flux, p)
	}

	return periods, theta
}

// Theta returns the phase dispersion statistic of the series folded at the
// given period: the ratio of the pooled within-bin variance to the overall
// variance. Values near 1 mean no coherence; values near 0 mean the folded
// curve is smooth.
func Theta(time, flux []float64, period float64) float64 {
	n := len(flux)
	if n < 2 || period <= 0 {
		return 1
	}

	mean := 0.0
	for _, v := range flux {
		mean += v
	}

	mean /= float64(n)

	variance := 0.0
	for _, v := range flux {
		variance += (v - mean) * (v - mean)
	}

	variance /= float64(n - 1)
	if variance == 0 {
		return 1
	}

	var (
		sums   [pdmBins]float64
		sqSums [pdmBins]float64
		counts [pdmBins]int
	)

	for i, t := range time {
		phase := t/period - math.Floor(t/period)

		bin := int(phase * pdmBins)
		if bin >= pdmBins {
			bin = pdmBins - 1
		}

		sums[bin] += flux[i]
		sqSums[bin] += flux[i] * flux[i]
		counts[bin]++
	}

	pooled := 0.0
	weight := 0

	for b := 0; b < pdmBins; b++ {
		if counts[b] < 2 {
			continue
		}

		nb := float64(counts[b])
		s2 := (sqSums[b] - sums[b]*sums[b]/nb) / (nb - 1)

		pooled += float64(counts[b]-1) * s2
		weight += counts[b] - 1
	}

	if weight == 0 {
		return 1
	}

	return pooled / float64(weight) / variance
}
