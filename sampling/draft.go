// Package sampling provides weighted random selection with replacement.
package sampling

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

var (
	// ErrEmptyPool is returned by Next when no entry has a positive weight.
	ErrEmptyPool = errors.New("sampling: draw from empty pool")
	// ErrInvalidWeight is returned by Add for negative, NaN or infinite weights.
	ErrInvalidWeight = errors.New("sampling: weight must be finite and non-negative")
	// ErrNoRandom is returned by Next when called without a random source.
	ErrNoRandom = errors.New("sampling: random source is required")
)

// Draft selects payloads with probability proportional to their weight.
// Draws do not consume entries.
type Draft[T any] struct {
	cumulative []float64 // running sum of positive weights
	payloads   []T
	total      float64
	added      int
}

// NewDraft returns an empty draft with room for capacity entries.
func NewDraft[T any](capacity int) *Draft[T] {
	return &Draft[T]{
		cumulative: make([]float64, 0, capacity),
		payloads:   make([]T, 0, capacity),
	}
}

// Add registers payload with the given weight. Zero weights are accepted
// but never drawn.
func (d *Draft[T]) Add(weight float64, payload T) error {
	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return ErrInvalidWeight
	}
	d.added++
	if weight == 0 {
		return nil
	}
	d.total += weight
	d.cumulative = append(d.cumulative, d.total)
	d.payloads = append(d.payloads, payload)
	return nil
}

// Next draws a payload. The draw u is uniform in [0, total) and the selected
// entry is the first whose running sum exceeds u.
func (d *Draft[T]) Next(rng *rand.Rand) (T, error) {
	var zero T
	if rng == nil {
		return zero, ErrNoRandom
	}
	if d.total <= 0 {
		return zero, ErrEmptyPool
	}
	u := rng.Float64() * d.total
	i := sort.Search(len(d.cumulative), func(i int) bool { return d.cumulative[i] > u })
	if i == len(d.cumulative) {
		// u rounded up to total
		i--
	}
	return d.payloads[i], nil
}

// Total returns the sum of all added weights.
func (d *Draft[T]) Total() float64 { return d.total }

// Len returns the number of Add calls, including zero-weight entries.
func (d *Draft[T]) Len() int { return d.added }

// Reset empties the draft, keeping its storage.
func (d *Draft[T]) Reset() {
	clear(d.payloads)
	d.cumulative = d.cumulative[:0]
	d.payloads = d.payloads[:0]
	d.total = 0
	d.added = 0
}
