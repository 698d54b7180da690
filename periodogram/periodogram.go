package periodogram

import (
	"errors"
	"math"
	"runtime"
	"sync"
)

// Errors returned by periodogram functions.
var (
	ErrTooFewPoints   = errors.New("periodogram: time series needs at least 2 points")
	ErrLengthMismatch = errors.New("periodogram: time and flux must have equal length")
	ErrInvalidRange   = errors.New("periodogram: invalid frequency range")
	ErrInvalidStep    = errors.New("periodogram: frequency step must be positive")
)

// sinusoidLSQ solves the single-sinusoid least-squares problem
// x ~ alpha*cos(w*t) + beta*sin(w*t) at one frequency and returns the
// equivalent amplitude and phase of a*sin(w*t + ph).
func sinusoidLSQ(time, flux []float64, f float64) (a, ph float64) {
	omega := 2 * math.Pi * f

	var cc, ss, cs, xc, xs float64

	for i, t := range time {
		sin, cos := math.Sincos(omega * t)

		cc += cos * cos
		ss += sin * sin
		cs += cos * sin
		xc += flux[i] * cos
		xs += flux[i] * sin
	}

	det := cc*ss - cs*cs
	if det == 0 {
		return 0, 0
	}

	alpha := (xc*ss - xs*cs) / det
	beta := (xs*cc - xc*cs) / det

	a = math.Hypot(alpha, beta)
	ph = math.Atan2(alpha, beta)

	return a, wrapPhase(ph)
}

func wrapPhase(ph float64) float64 {
	w := math.Mod(ph+math.Pi, 2*math.Pi)
	if w <= 0 {
		w += 2 * math.Pi
	}

	return w - math.Pi
}

// Spectrum computes the least-squares amplitude spectrum of an unevenly
// sampled series on the frequency grid f0, f0+df, ..., up to and including
// fn. Returns the grid and the amplitudes, aligned.
//
// The grid is split across up to runtime.NumCPU() workers; each worker
// fills a disjoint output range, so the result is deterministic.
func Spectrum(time, flux []float64, f0, fn, df float64) (freqs, ampls []float64, err error) {
	if len(time) != len(flux) {
		return nil, nil, ErrLengthMismatch
	}

	if len(time) < 2 {
		return nil, nil, ErrTooFewPoints
	}

	if df <= 0 {
		return nil, nil, ErrInvalidStep
	}

	if f0 <= 0 || fn <= f0 {
		return nil, nil, ErrInvalidRange
	}

	nf := int((fn-f0)/df) + 1

	freqs = make([]float64, nf)
	ampls = make([]float64, nf)

	for i := range freqs {
		freqs[i] = f0 + float64(i)*df
	}

	workers := runtime.NumCPU()
	if workers > nf {
		workers = nf
	}

	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup

	chunk := (nf + workers - 1) / workers

	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= nf {
			break
		}

		hi := lo + chunk
		if hi > nf {
			hi = nf
		}

		wg.Add(1)

		go func(lo, hi int) {
			defer wg.Done()

			for i := lo; i < hi; i++ {
				ampls[i], _ = sinusoidLSQ(time, flux, freqs[i])
			}
		}(lo, hi)
	}

	wg.Wait()

	return freqs, ampls, nil
}

// AmplitudePhaseSingle returns the exact least-squares amplitude and phase
// of a single sinusoid at frequency f. The phase is wrapped to (-pi, pi]
// for the model convention a*sin(2*pi*f*t + ph).
func AmplitudePhaseSingle(time, flux []float64, f float64) (a, ph float64) {
	return sinusoidLSQ(time, flux, f)
}

// AmplitudePhase returns the exact least-squares amplitude and phase at
// each of the given frequencies.
func AmplitudePhase(time, flux []float64, freqs []float64) (a, ph []float64) {
	a = make([]float64, len(freqs))
	ph = make([]float64, len(freqs))

	for i, f := range freqs {
		a[i], ph[i] = sinusoidLSQ(time, flux, f)
	}

	return a, ph
}
