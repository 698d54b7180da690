// Package extract implements the model-selection-driven search that
// decomposes a light curve into a piecewise-linear trend plus a sum of
// sinusoids.
//
// The central routine is [Sinusoids], the prewhitening loop: it repeatedly
// pulls the strongest remaining peak out of the residual, refines or
// replaces clusters of frequencies the data cannot separate, and accepts
// or rejects each candidate with a Bayesian Information Criterion (or
// signal-to-noise) test, rolling back rejected steps exactly.
//
// Post-hoc routines operate on the final detached parameter set: [Reduce]
// prunes and consolidates sinusoids, [Select] classifies their statistical
// significance, [FixHarmonicFrequency] locks harmonics to exact multiples
// of an orbital period, and [FindOrbitalPeriod] searches for that period
// in the first place.
//
// Everything here is single-threaded and CPU-bound; routines assume
// exclusive access to the model for the duration of a call.
package extract
