// Package periodogram provides frequency-domain estimation for unevenly
// sampled time series: least-squares amplitude spectra, exact amplitude
// and phase at given frequencies, noise-spectrum estimates, phase
// dispersion minimisation, and local-maximum search helpers.
//
// All routines accept the raw (gapped) time stamps directly; no resampling
// onto a regular grid takes place. Spectrum evaluation over a frequency
// grid is split across workers internally, which is invisible to callers:
// results are deterministic for identical inputs.
package periodogram
