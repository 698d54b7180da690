package fit

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Uncertainties computes the formal 1-sigma errors of the linear and
// sinusoid parameters from the residual scatter and (optionally) the flux
// measurement errors, following the classical error formulae for sinusoid
// fits to time series (Montgomery & O'Donoghue 1999):
//
//	sigma_f  = sqrt(6/N) * sigma / (pi * a * T)
//	sigma_a  = sqrt(2/N) * sigma
//	sigma_ph = sqrt(2/N) * sigma / a
//
// Per chunk, the trend errors follow ordinary least squares:
// sigma_c = sigma/sqrt(n) and sigma_slope = sigma/(sqrt(n)*std(t)).
//
// fluxErr may be nil; when given, its mean is added in quadrature to the
// residual scatter.
func Uncertainties(time, resid, fluxErr, aN []float64, chunks [][2]int) (cErr, slErr, fErr, aErr, phErr []float64) {
	n := float64(len(time))
	tTot := time[len(time)-1] - time[0]

	sigma2 := stat.Variance(resid, nil)

	if len(fluxErr) > 0 {
		meanErr := 0.0
		for _, e := range fluxErr {
			meanErr += e
		}

		meanErr /= float64(len(fluxErr))
		sigma2 += meanErr * meanErr
	}

	sigma := math.Sqrt(sigma2)

	cErr = make([]float64, len(chunks))
	slErr = make([]float64, len(chunks))

	for c, ch := range chunks {
		t := time[ch[0]:ch[1]]
		nc := float64(len(t))

		if nc < 2 {
			cErr[c] = math.Inf(1)
			slErr[c] = math.Inf(1)

			continue
		}

		cErr[c] = sigma / math.Sqrt(nc)

		tStd := math.Sqrt(stat.Variance(t, nil))
		if tStd == 0 {
			slErr[c] = math.Inf(1)
		} else {
			slErr[c] = sigma / (math.Sqrt(nc) * tStd)
		}
	}

	fErr = make([]float64, len(aN))
	aErr = make([]float64, len(aN))
	phErr = make([]float64, len(aN))

	for i, a := range aN {
		aErr[i] = math.Sqrt(2/n) * sigma

		if a == 0 || tTot == 0 {
			fErr[i] = math.Inf(1)
			phErr[i] = math.Inf(1)

			continue
		}

		fErr[i] = math.Sqrt(6/n) * sigma / (math.Pi * a * tTot)
		phErr[i] = math.Sqrt(2/n) * sigma / a
	}

	return cErr, slErr, fErr, aErr, phErr
}
