package testutil

import (
	"math"
	"math/rand"
)

// TimeGrid returns n evenly spaced timestamps from 0 up to span.
func TimeGrid(n int, span float64) []float64 {
	out := make([]float64, n)
	step := span / float64(n-1)
	for i := range out {
		out[i] = step * float64(i)
	}
	return out
}

// GappedTimeGrid returns an evenly spaced grid with the given index
// ranges removed, mimicking interruptions in an observing run.
func GappedTimeGrid(n int, span float64, gaps [][2]int) []float64 {
	full := TimeGrid(n, span)
	keep := make([]bool, n)
	for i := range keep {
		keep[i] = true
	}
	for _, g := range gaps {
		for i := g[0]; i < g[1] && i < n; i++ {
			keep[i] = false
		}
	}
	out := make([]float64, 0, n)
	for i, t := range full {
		if keep[i] {
			out = append(out, t)
		}
	}
	return out
}

// Sinusoids evaluates a sum of sine waves a*sin(2*pi*f*t + ph) on the
// given timestamps.
func Sinusoids(time []float64, f, a, ph []float64) []float64 {
	out := make([]float64, len(time))
	for j := range f {
		for i, t := range time {
			out[i] += a[j] * math.Sin(2*math.Pi*f[j]*t+ph[j])
		}
	}
	return out
}

// Noise returns reproducible Gaussian noise with the given standard
// deviation.
func Noise(seed int64, sigma float64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64() * sigma
	}
	return out
}

// AddInPlace adds b to a element by element.
func AddInPlace(a, b []float64) {
	for i := range a {
		a[i] += b[i]
	}
}
