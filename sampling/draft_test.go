package sampling

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestDraftDistribution(t *testing.T) {
	weights := []float64{1, 2, 3, 4}
	d := NewDraft[int](len(weights))
	for i, w := range weights {
		require.NoError(t, d.Add(w, i))
	}
	require.Equal(t, 10.0, d.Total())

	const n = 100000
	rng := rand.New(rand.NewSource(7))
	observed := make([]float64, len(weights))
	for range n {
		i, err := d.Next(rng)
		require.NoError(t, err)
		observed[i]++
	}

	expected := make([]float64, len(weights))
	for i, w := range weights {
		expected[i] = n * w / d.Total()
	}

	chi2 := stat.ChiSquare(observed, expected)
	critical := distuv.ChiSquared{K: float64(len(weights) - 1)}.Quantile(0.999)
	require.Less(t, chi2, critical, "observed %v, expected %v", observed, expected)
}

func TestDraftZeroWeightNeverDrawn(t *testing.T) {
	d := NewDraft[string](3)
	require.NoError(t, d.Add(0, "never"))
	require.NoError(t, d.Add(1, "a"))
	require.NoError(t, d.Add(0, "never"))
	require.NoError(t, d.Add(1, "b"))
	require.Equal(t, 4, d.Len())

	rng := rand.New(rand.NewSource(1))
	for range 10000 {
		got, err := d.Next(rng)
		require.NoError(t, err)
		require.NotEqual(t, "never", got)
	}
}

func TestDraftEmptyPool(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	d := NewDraft[int](0)
	_, err := d.Next(rng)
	require.ErrorIs(t, err, ErrEmptyPool)

	// Zero-weight entries alone leave the pool empty.
	require.NoError(t, d.Add(0, 1))
	require.NoError(t, d.Add(0, 2))
	_, err = d.Next(rng)
	require.ErrorIs(t, err, ErrEmptyPool)
}

func TestDraftInvalidWeight(t *testing.T) {
	d := NewDraft[int](1)
	require.ErrorIs(t, d.Add(-1, 0), ErrInvalidWeight)
	require.Equal(t, 0, d.Len())
	require.Zero(t, d.Total())
}

func TestDraftWithReplacement(t *testing.T) {
	d := NewDraft[int](1)
	require.NoError(t, d.Add(5, 42))

	rng := rand.New(rand.NewSource(3))
	for range 100 {
		got, err := d.Next(rng)
		require.NoError(t, err)
		require.Equal(t, 42, got)
	}
}

func TestDraftNilRandom(t *testing.T) {
	d := NewDraft[int](1)
	require.NoError(t, d.Add(1, 1))
	_, err := d.Next(nil)
	require.ErrorIs(t, err, ErrNoRandom)
}

func TestDraftReset(t *testing.T) {
	d := NewDraft[int](2)
	require.NoError(t, d.Add(1, 1))
	require.NoError(t, d.Add(2, 2))
	d.Reset()

	require.Zero(t, d.Len())
	require.Zero(t, d.Total())
	_, err := d.Next(rand.New(rand.NewSource(1)))
	require.ErrorIs(t, err, ErrEmptyPool)
}
