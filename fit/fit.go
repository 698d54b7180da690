// Package fit provides non-linear least-squares refinement of a
// multi-sinusoid model and formal parameter uncertainties.
package fit

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/optimize"

	"github.com/cwbudde/algo-lightcurve/lightcurve"
)

// Sinusoids are fit in groups of at most this many, strongest first, each
// group against the residual of all others. Fitting everything at once is
// both slow and unstable for the large sets prewhitening produces.
const defaultGroupSize = 20

// MultiSinusoidPerGroup jointly refines all sinusoid parameters by
// non-linear least squares. Sinusoids are sorted by amplitude and fit in
// groups against the residual of the remaining model; after each group the
// piecewise-linear trend is refit. Returns the updated full parameter set.
//
// A group whose optimization fails to converge keeps its previous
// parameters; the failure is local and never propagated.
func MultiSinusoidPerGroup(time, flux []float64, consts, slopes, fN, aN, phN []float64, chunks [][2]int, logger *slog.Logger) (newConsts, newSlopes, newF, newA, newPh []float64) {
	newConsts = append([]float64(nil), consts...)
	newSlopes = append([]float64(nil), slopes...)
	newF = append([]float64(nil), fN...)
	newA = append([]float64(nil), aN...)
	newPh = append([]float64(nil), phN...)

	if len(fN) == 0 {
		return newConsts, newSlopes, newF, newA, newPh
	}

	order := make([]int, len(fN))
	for i := range order {
		order[i] = i
	}

	sort.Slice(order, func(a, b int) bool { return newA[order[a]] > newA[order[b]] })

	for start := 0; start < len(order); start += defaultGroupSize {
		end := start + defaultGroupSize
		if end > len(order) {
			end = len(order)
		}

		group := order[start:end]

		fitGroup(time, flux, newConsts, newSlopes, newF, newA, newPh, chunks, group)

		// Trend refit on the full sinusoid residual keeps the linear part
		// consistent with the just-updated group.
		sinModel := lightcurve.SumSinusoids(time, newF, newA, newPh)

		resid := make([]float64, len(flux))
		for i := range resid {
			resid[i] = flux[i] - sinModel[i]
		}

		c, s := lightcurve.LinearPars(time, resid, chunks)
		copy(newConsts, c)
		copy(newSlopes, s)

		if logger != nil {
			logger.Debug("fit group done", "group_size", len(group), "fitted", end)
		}
	}

	return newConsts, newSlopes, newF, newA, newPh
}

// fitGroup optimizes the (f, a, ph) parameters of one index group against
// the residual of everything else. Results are written back in place.
func fitGroup(time, flux []float64, consts, slopes, fN, aN, phN []float64, chunks [][2]int, group []int) {
	inGroup := make(map[int]bool, len(group))
	for _, g := range group {
		inGroup[g] = true
	}

	var othersF, othersA, othersPh []float64

	for i := range fN {
		if !inGroup[i] {
			othersF = append(othersF, fN[i])
			othersA = append(othersA, aN[i])
			othersPh = append(othersPh, phN[i])
		}
	}

	target := make([]float64, len(flux))
	othersModel := lightcurve.SumSinusoids(time, othersF, othersA, othersPh)
	trend := lightcurve.LinearCurve(time, consts, slopes, chunks)

	for i := range target {
		target[i] = flux[i] - othersModel[i] - trend[i]
	}

	ng := len(group)

	x0 := make([]float64, 3*ng)
	for k, g := range group {
		x0[k] = fN[g]
		x0[ng+k] = aN[g]
		x0[2*ng+k] = phN[g]
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			sum := 0.0

			for i, t := range time {
				r := target[i]
				for k := 0; k < ng; k++ {
					r -= x[ng+k] * math.Sin(2*math.Pi*x[k]*t+x[2*ng+k])
				}

				sum += r * r
			}

			return 0.5 * sum
		},
		Grad: func(grad, x []float64) {
			for k := range grad {
				grad[k] = 0
			}

			for i, t := range time {
				r := target[i]
				for k := 0; k < ng; k++ {
					r -= x[ng+k] * math.Sin(2*math.Pi*x[k]*t+x[2*ng+k])
				}

				for k := 0; k < ng; k++ {
					arg := 2*math.Pi*x[k]*t + x[2*ng+k]
					sin, cos := math.Sincos(arg)

					grad[k] -= r * x[ng+k] * 2 * math.Pi * t * cos
					grad[ng+k] -= r * sin
					grad[2*ng+k] -= r * x[ng+k] * cos
				}
			}
		},
	}

	settings := &optimize.Settings{MajorIterations: 300}

	result, err := optimize.Minimize(problem, x0, settings, nil)
	if err != nil || result == nil {
		return
	}

	for k, g := range group {
		f := result.X[k]
		a := result.X[ng+k]
		ph := result.X[2*ng+k]

		if f <= 0 || math.IsNaN(f) || math.IsNaN(a) || math.IsNaN(ph) {
			continue
		}

		if a < 0 {
			a = -a
			ph += math.Pi
		}

		fN[g] = f
		aN[g] = a
		phN[g] = lightcurve.WrapPhase(ph)
	}
}
