package lightcurve

import (
	"fmt"
	"math"
	"sort"
)

// WrapPhase normalizes a phase angle to the half-open interval (-pi, pi].
// An input of pi + 0.1 maps to -pi + 0.1; an input of -pi maps to pi.
func WrapPhase(ph float64) float64 {
	w := math.Mod(ph+math.Pi, 2*math.Pi)
	if w <= 0 {
		w += 2 * math.Pi
	}

	return w - math.Pi
}

// SinusoidSet is an ordered collection of sinusoids in insertion order
// (not sorted by frequency), stored as parallel parameter slices.
//
// Rows can be soft-removed with Exclude: an excluded row is absent from the
// model evaluation but keeps its parameters so it can be reinstated with
// Include. Harmonic rows carry the integer multiple of the base (orbital)
// frequency they are locked to; their frequency is a derived quantity once
// fixed, which is reflected in the parameter count.
//
// The parameter slices are exported for read access; mutate only through
// the set (or Model) operations so the harmonic bookkeeping stays
// consistent.
type SinusoidSet struct {
	Freq []float64
	Amp  []float64
	Ph   []float64

	excluded []bool
	harmonic []bool
	hBase    []int // row index of the lowest-multiple member of the group, -1 if none
	hNum     []int // harmonic multiple, 0 if not harmonic
}

// NewSinusoidSet returns an empty sinusoid set.
func NewSinusoidSet() *SinusoidSet {
	return &SinusoidSet{}
}

func (s *SinusoidSet) checkIndex(i int) {
	if i < 0 || i >= len(s.Freq) {
		panic(fmt.Sprintf("lightcurve: sinusoid index %d out of range [0, %d)", i, len(s.Freq)))
	}
}

// Len returns the total number of rows, including excluded ones.
func (s *SinusoidSet) Len() int {
	return len(s.Freq)
}

// Count returns the number of rows currently in the model (not excluded).
func (s *SinusoidSet) Count() int {
	n := 0

	for i := range s.Freq {
		if !s.excluded[i] {
			n++
		}
	}

	return n
}

// CountHarmonic returns the number of included rows locked to a harmonic.
func (s *SinusoidSet) CountHarmonic() int {
	n := 0

	for i := range s.Freq {
		if !s.excluded[i] && s.harmonic[i] {
			n++
		}
	}

	return n
}

// IsExcluded reports whether row i is currently soft-removed.
func (s *SinusoidSet) IsExcluded(i int) bool {
	s.checkIndex(i)
	return s.excluded[i]
}

// IsHarmonic reports whether row i is locked to a harmonic multiple.
func (s *SinusoidSet) IsHarmonic(i int) bool {
	s.checkIndex(i)
	return s.harmonic[i]
}

// HarmonicNum returns the harmonic multiple of row i, or 0 if the row is
// not a harmonic.
func (s *SinusoidSet) HarmonicNum(i int) int {
	s.checkIndex(i)
	return s.hNum[i]
}

// HarmonicBase returns the row index of the lowest-multiple member of the
// harmonic group row i belongs to, or -1 if the row is not a harmonic.
func (s *SinusoidSet) HarmonicBase(i int) int {
	s.checkIndex(i)
	return s.hBase[i]
}

// HarmonicIndices returns the indices of all rows flagged harmonic,
// regardless of exclusion state.
func (s *SinusoidSet) HarmonicIndices() []int {
	var out []int

	for i := range s.Freq {
		if s.harmonic[i] {
			out = append(out, i)
		}
	}

	return out
}

// HarmonicGroups returns the harmonic rows grouped by base row index.
// Group keys are the hBase representative indices; member lists are sorted
// by harmonic multiple.
func (s *SinusoidSet) HarmonicGroups() map[int][]int {
	groups := make(map[int][]int)

	for i := range s.Freq {
		if s.harmonic[i] && s.hBase[i] >= 0 {
			groups[s.hBase[i]] = append(groups[s.hBase[i]], i)
		}
	}

	for base, members := range groups {
		sort.Slice(members, func(a, b int) bool { return s.hNum[members[a]] < s.hNum[members[b]] })
		groups[base] = members
	}

	return groups
}

// Append adds new rows with the given parameters and returns the index of
// the first added row. Phases are wrapped to (-pi, pi].
func (s *SinusoidSet) Append(f, a, ph []float64) int {
	if len(f) != len(a) || len(f) != len(ph) {
		panic("lightcurve: sinusoid parameter slices must have equal length")
	}

	start := len(s.Freq)

	for i := range f {
		s.Freq = append(s.Freq, f[i])
		s.Amp = append(s.Amp, a[i])
		s.Ph = append(s.Ph, WrapPhase(ph[i]))
		s.excluded = append(s.excluded, false)
		s.harmonic = append(s.harmonic, false)
		s.hBase = append(s.hBase, -1)
		s.hNum = append(s.hNum, 0)
	}

	return start
}

// Remove deletes the rows at the given indices. Indices of the remaining
// rows shift down; callers must treat previously held indices as
// invalidated.
func (s *SinusoidSet) Remove(indices []int) {
	if len(indices) == 0 {
		return
	}

	drop := make(map[int]bool, len(indices))

	for _, i := range indices {
		s.checkIndex(i)

		drop[i] = true
	}

	keep := 0

	for i := range s.Freq {
		if drop[i] {
			continue
		}

		s.Freq[keep] = s.Freq[i]
		s.Amp[keep] = s.Amp[i]
		s.Ph[keep] = s.Ph[i]
		s.excluded[keep] = s.excluded[i]
		s.harmonic[keep] = s.harmonic[i]
		s.hNum[keep] = s.hNum[i]
		keep++
	}

	s.truncate(keep)
	s.rebuildHarmonicBases()
}

func (s *SinusoidSet) truncate(n int) {
	s.Freq = s.Freq[:n]
	s.Amp = s.Amp[:n]
	s.Ph = s.Ph[:n]
	s.excluded = s.excluded[:n]
	s.harmonic = s.harmonic[:n]
	s.hBase = s.hBase[:n]
	s.hNum = s.hNum[:n]
}

// Exclude soft-removes the rows at the given indices.
func (s *SinusoidSet) Exclude(indices []int) {
	for _, i := range indices {
		s.checkIndex(i)

		s.excluded[i] = true
	}
}

// Include reinstates previously excluded rows.
func (s *SinusoidSet) Include(indices []int) {
	for _, i := range indices {
		s.checkIndex(i)

		s.excluded[i] = false
	}
}

// RemoveExcluded permanently deletes all rows currently flagged excluded.
func (s *SinusoidSet) RemoveExcluded() {
	var drop []int

	for i := range s.Freq {
		if s.excluded[i] {
			drop = append(drop, i)
		}
	}

	s.Remove(drop)
}

// Update sets the parameters of the rows at the given indices and
// reinstates them if they were excluded. Phases are wrapped to (-pi, pi].
func (s *SinusoidSet) Update(f, a, ph []float64, indices []int) {
	if len(f) != len(indices) || len(a) != len(indices) || len(ph) != len(indices) {
		panic("lightcurve: update length mismatch")
	}

	for k, i := range indices {
		s.checkIndex(i)

		s.Freq[i] = f[k]
		s.Amp[i] = a[k]
		s.Ph[i] = WrapPhase(ph[k])
		s.excluded[i] = false
	}
}

// Replace swaps the entire set for the given parameters, clearing the
// harmonic and exclusion bookkeeping. Callers holding an orbital period
// re-mark harmonics afterwards (the Model does this automatically).
func (s *SinusoidSet) Replace(f, a, ph []float64) {
	if len(f) != len(a) || len(f) != len(ph) {
		panic("lightcurve: sinusoid parameter slices must have equal length")
	}

	s.truncate(0)
	s.Append(f, a, ph)
}

// Parameters returns copies of the frequency, amplitude and phase slices
// for all rows, including excluded ones. The copies are suitable as a
// rollback snapshot.
func (s *SinusoidSet) Parameters() (f, a, ph []float64) {
	f = append([]float64(nil), s.Freq...)
	a = append([]float64(nil), s.Amp...)
	ph = append([]float64(nil), s.Ph...)

	return f, a, ph
}

// MarkHarmonic flags row i as the n-th harmonic of its base frequency.
func (s *SinusoidSet) MarkHarmonic(i, n int) {
	s.checkIndex(i)

	if n < 1 {
		panic(fmt.Sprintf("lightcurve: harmonic multiple must be positive, got %d", n))
	}

	s.harmonic[i] = true
	s.hNum[i] = n
	s.rebuildHarmonicBases()
}

// MarkHarmonics matches all rows against integer multiples of 1/period and
// flags the ones within tol of an exact multiple. Previous harmonic flags
// are cleared first. Returns the number of harmonic rows found.
func (s *SinusoidSet) MarkHarmonics(period, tol float64) int {
	for i := range s.harmonic {
		s.harmonic[i] = false
		s.hNum[i] = 0
		s.hBase[i] = -1
	}

	if period <= 0 {
		return 0
	}

	n := 0

	for i, f := range s.Freq {
		k := math.Round(f * period)
		if k < 1 {
			continue
		}

		if math.Abs(f-k/period) < tol {
			s.harmonic[i] = true
			s.hNum[i] = int(k)
			n++
		}
	}

	s.rebuildHarmonicBases()

	return n
}

// rebuildHarmonicBases recomputes the group representative of every
// harmonic row: rows whose implied base frequencies f/n agree within a
// relative tolerance share a group, represented by the lowest-multiple row.
func (s *SinusoidSet) rebuildHarmonicBases() {
	const relTol = 1e-6

	var harm []int

	for i := range s.Freq {
		s.hBase[i] = -1

		if s.harmonic[i] && s.hNum[i] > 0 {
			harm = append(harm, i)
		}
	}

	// Lowest multiples first so the representative is assigned before its
	// higher harmonics are visited.
	sort.Slice(harm, func(a, b int) bool { return s.hNum[harm[a]] < s.hNum[harm[b]] })

	for _, i := range harm {
		base := s.Freq[i] / float64(s.hNum[i])

		for _, j := range harm {
			if s.hBase[j] < 0 {
				continue
			}

			other := s.Freq[j] / float64(s.hNum[j])
			if math.Abs(base-other) <= relTol*base {
				s.hBase[i] = s.hBase[j]
				break
			}
		}

		if s.hBase[i] < 0 {
			s.hBase[i] = i
		}
	}
}
