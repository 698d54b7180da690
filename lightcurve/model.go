package lightcurve

import (
	"errors"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// Errors returned by the model constructor.
var (
	ErrTooFewPoints = errors.New("lightcurve: time series needs at least 2 points")
	ErrTimeOrder    = errors.New("lightcurve: time must be strictly increasing")
	ErrNoVariance   = errors.New("lightcurve: flux has no variance")
	ErrLengthMatch  = errors.New("lightcurve: time and flux must have equal length")
	ErrBadChunks    = errors.New("lightcurve: invalid chunk boundaries")
)

// Model is the live state of one analysis run: the raw series, the
// piecewise-linear trend, and the sinusoid set, plus the derived scalars
// used throughout extraction. It is created once per run and mutated for
// the duration of the extraction session; it is not safe for concurrent
// use.
type Model struct {
	time   []float64
	flux   []float64
	chunks [][2]int

	Sinusoid *SinusoidSet

	consts []float64
	slopes []float64

	period      float64
	harmonicTol float64

	// TTot is the total time baseline max(t) - min(t).
	TTot float64
	// FRes is the frequency resolution 1.5/TTot (Rayleigh criterion).
	FRes float64
	// PdF0 is the default lower periodogram search bound 1/(100*TTot).
	PdF0 float64
	// PdFn is the default upper periodogram search bound, the Nyquist
	// frequency 1/(2*min(dt)).
	PdFn float64
}

// New creates a model for the given series. chunks holds index pair ranges
// into the time array for the piecewise-linear trend; pass nil for a
// single chunk covering the whole series. The input slices are copied.
func New(time, flux []float64, chunks [][2]int) (*Model, error) {
	if len(time) != len(flux) {
		return nil, ErrLengthMatch
	}

	if len(time) < 2 {
		return nil, ErrTooFewPoints
	}

	minDt := math.Inf(1)

	for i := 1; i < len(time); i++ {
		dt := time[i] - time[i-1]
		if dt <= 0 {
			return nil, ErrTimeOrder
		}

		if dt < minDt {
			minDt = dt
		}
	}

	mean := 0.0
	for _, v := range flux {
		mean += v
	}

	mean /= float64(len(flux))

	variance := 0.0
	for _, v := range flux {
		variance += (v - mean) * (v - mean)
	}

	if variance == 0 {
		return nil, ErrNoVariance
	}

	if chunks == nil {
		chunks = [][2]int{{0, len(time)}}
	}

	for _, ch := range chunks {
		if ch[0] < 0 || ch[1] > len(time) || ch[0] >= ch[1] {
			return nil, ErrBadChunks
		}
	}

	tTot := time[len(time)-1] - time[0]

	m := &Model{
		time:     append([]float64(nil), time...),
		flux:     append([]float64(nil), flux...),
		chunks:   append([][2]int(nil), chunks...),
		Sinusoid: NewSinusoidSet(),
		TTot:     tTot,
		FRes:     1.5 / tTot,
		PdF0:     0.01 / tTot,
		PdFn:     1 / (2 * minDt),
	}

	m.UpdateLinearModel()

	return m, nil
}

// Time returns the timestamps. The slice is owned by the model; treat it
// as read-only.
func (m *Model) Time() []float64 { return m.time }

// Flux returns the measurement values. The slice is owned by the model;
// treat it as read-only.
func (m *Model) Flux() []float64 { return m.flux }

// Chunks returns the chunk boundary index pairs.
func (m *Model) Chunks() [][2]int { return m.chunks }

// LinearModel returns copies of the per-chunk constants and slopes.
func (m *Model) LinearModel() (consts, slopes []float64) {
	return append([]float64(nil), m.consts...), append([]float64(nil), m.slopes...)
}

// included returns the parameters of the rows currently in the model.
func (m *Model) included() (f, a, ph []float64) {
	s := m.Sinusoid

	for i := range s.Freq {
		if s.excluded[i] {
			continue
		}

		f = append(f, s.Freq[i])
		a = append(a, s.Amp[i])
		ph = append(ph, s.Ph[i])
	}

	return f, a, ph
}

// residualSinusoid returns flux minus the sum of included sinusoids.
func (m *Model) residualSinusoid() []float64 {
	f, a, ph := m.included()

	out := append([]float64(nil), m.flux...)
	if len(f) == 0 {
		return out
	}

	model := SumSinusoids(m.time, f, a, ph)
	vecmath.ScaleBlock(model, model, -1)
	vecmath.AddBlockInPlace(out, model)

	return out
}

// Residual returns flux minus the current linear trend minus the sum of
// included sinusoids. It is a pure function of the current state and is
// recomputed on every call.
func (m *Model) Residual() []float64 {
	out := m.residualSinusoid()

	trend := LinearCurve(m.time, m.consts, m.slopes, m.chunks)
	vecmath.ScaleBlock(trend, trend, -1)
	vecmath.AddBlockInPlace(out, trend)

	return out
}

// BIC returns the Bayesian Information Criterion of the current residual
// given the current free parameter count. Lower is better.
func (m *Model) BIC() float64 {
	nHarm := m.Sinusoid.CountHarmonic()
	nSin := m.Sinusoid.Count() - nHarm

	return BIC(m.Residual(), NParameters(len(m.chunks), nSin, nHarm))
}

// UpdateLinearModel recomputes the piecewise-linear trend by ordinary
// least squares per chunk on the current sinusoid residual. Call after any
// sinusoid-set mutation before trusting BIC.
func (m *Model) UpdateLinearModel() {
	m.consts, m.slopes = LinearPars(m.time, m.residualSinusoid(), m.chunks)
}

// SetLinearModel overrides the trend parameters, one pair per chunk.
func (m *Model) SetLinearModel(consts, slopes []float64) {
	if len(consts) != len(m.chunks) || len(slopes) != len(m.chunks) {
		panic("lightcurve: linear parameter count must match chunk count")
	}

	m.consts = append(m.consts[:0], consts...)
	m.slopes = append(m.slopes[:0], slopes...)
}

// AddSinusoids appends sinusoids to the set and returns the index of the
// first added row.
func (m *Model) AddSinusoids(f, a, ph []float64) int {
	start := m.Sinusoid.Append(f, a, ph)
	m.markHarmonics()

	return start
}

// RemoveSinusoids deletes the rows at the given indices. Remaining row
// indices shift down.
func (m *Model) RemoveSinusoids(indices ...int) {
	m.Sinusoid.Remove(indices)
}

// ExcludeSinusoids temporarily takes rows out of the model without
// discarding their parameters.
func (m *Model) ExcludeSinusoids(indices ...int) {
	m.Sinusoid.Exclude(indices)
}

// IncludeSinusoids reinstates previously excluded rows.
func (m *Model) IncludeSinusoids(indices ...int) {
	m.Sinusoid.Include(indices)
}

// RemoveExcludedSinusoids permanently deletes all rows currently excluded.
func (m *Model) RemoveExcludedSinusoids() {
	m.Sinusoid.RemoveExcluded()
}

// SetSinusoids updates the rows at the given indices, or replaces the
// whole set when no indices are given. Updated rows are reinstated if they
// were excluded; on wholesale replacement the harmonic bookkeeping is
// re-derived from the orbital period, if one is set.
func (m *Model) SetSinusoids(f, a, ph []float64, indices ...int) {
	if len(indices) == 0 {
		m.Sinusoid.Replace(f, a, ph)
		m.markHarmonics()

		return
	}

	m.Sinusoid.Update(f, a, ph, indices)
}

// SetOrbitalPeriod fixes the orbital period used for harmonic bookkeeping
// and flags all rows within tol of an exact harmonic multiple. Returns the
// number of harmonic rows found. A period of 0 clears all harmonic flags.
func (m *Model) SetOrbitalPeriod(period, tol float64) int {
	m.period = period
	m.harmonicTol = tol

	return m.Sinusoid.MarkHarmonics(period, tol)
}

// OrbitalPeriod returns the period set with SetOrbitalPeriod, or 0.
func (m *Model) OrbitalPeriod() float64 { return m.period }

func (m *Model) markHarmonics() {
	if m.period > 0 {
		m.Sinusoid.MarkHarmonics(m.period, m.harmonicTol)
	}
}

// Parameters returns copies of the full current parameter set
// (const, slope, f, a, ph), including excluded sinusoid rows.
func (m *Model) Parameters() (consts, slopes, f, a, ph []float64) {
	consts, slopes = m.LinearModel()
	f, a, ph = m.Sinusoid.Parameters()

	return consts, slopes, f, a, ph
}
