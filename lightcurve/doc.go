// Package lightcurve provides the data model for additive sinusoid
// decomposition of astronomical time series.
//
// A light curve is modeled as a piecewise-linear trend (one constant and
// slope per time chunk) plus a sum of sinusoids a*sin(2*pi*f*t + ph).
// The central type is [Model], which owns the raw series, the trend and
// the [SinusoidSet], and evaluates the residual and the Bayesian
// Information Criterion of the current parameter set. All mutation of the
// sinusoid set goes through the model, which is what makes snapshot-based
// rollback in the extraction routines safe.
//
// The package also exposes the stateless building blocks (per-chunk linear
// least squares, sinusoid evaluation, BIC) for callers that operate on
// plain parameter arrays instead of a live model.
package lightcurve
