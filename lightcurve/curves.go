package lightcurve

import (
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// LinearPars fits one constant and slope per time chunk by ordinary least
// squares on the given values. The slope is taken about the mean time of
// each chunk, matching LinearCurve.
func LinearPars(time, values []float64, chunks [][2]int) (consts, slopes []float64) {
	consts = make([]float64, len(chunks))
	slopes = make([]float64, len(chunks))

	for c, ch := range chunks {
		t := time[ch[0]:ch[1]]
		v := values[ch[0]:ch[1]]

		if len(t) < 2 {
			if len(t) == 1 {
				consts[c] = v[0]
			}

			continue
		}

		tMean := floats.Sum(t) / float64(len(t))

		x := make([]float64, len(t))
		for i := range t {
			x[i] = t[i] - tMean
		}

		alpha, beta := stat.LinearRegression(x, v, nil, false)
		consts[c] = alpha
		slopes[c] = beta
	}

	return consts, slopes
}

// LinearCurve evaluates the piecewise-linear trend at every time point.
// The slope of each chunk is about the mean time of that chunk.
func LinearCurve(time []float64, consts, slopes []float64, chunks [][2]int) []float64 {
	out := make([]float64, len(time))

	for c, ch := range chunks {
		t := time[ch[0]:ch[1]]
		if len(t) == 0 {
			continue
		}

		tMean := floats.Sum(t) / float64(len(t))

		seg := out[ch[0]:ch[1]]
		for i := range t {
			seg[i] = consts[c] + slopes[c]*(t[i]-tMean)
		}
	}

	return out
}

// SumSinusoids evaluates the sum of sinusoids a*sin(2*pi*f*t + ph) at
// every time point.
func SumSinusoids(time []float64, f, a, ph []float64) []float64 {
	out := make([]float64, len(time))
	if len(f) == 0 {
		return out
	}

	tmp := make([]float64, len(time))

	for j := range f {
		omega := 2 * math.Pi * f[j]

		for i, t := range time {
			tmp[i] = a[j] * math.Sin(omega*t+ph[j])
		}

		vecmath.AddBlockInPlace(out, tmp)
	}

	return out
}

// NParameters returns the number of free parameters of a model with the
// given chunk count, non-harmonic sinusoid count and harmonic sinusoid
// count. Each chunk carries two linear parameters and each free sinusoid
// three. A harmonic sinusoid counts as one: its frequency is derived from
// the shared orbital period once fixed.
func NParameters(nChunks, nSin, nHarm int) int {
	return 2*nChunks + 3*nSin + 1*nHarm
}

// BIC computes the Bayesian Information Criterion of a residual under the
// assumption of independent Gaussian errors:
//
//	BIC = n*ln(2*pi*RSS/n) + n + k*ln(n)
//
// Lower is better.
func BIC(resid []float64, nParams int) float64 {
	n := float64(len(resid))
	if n == 0 {
		return math.Inf(1)
	}

	rss := floats.Dot(resid, resid)
	if rss <= 0 {
		return math.Inf(-1)
	}

	return n*math.Log(2*math.Pi*rss/n) + n + float64(nParams)*math.Log(n)
}
