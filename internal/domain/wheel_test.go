package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWheelValidation(t *testing.T) {
	_, err := NewWheel(nil, nil)
	assert.Error(t, err)

	_, err = NewWheel([]int64{1, 2}, []float64{1})
	assert.Error(t, err)

	_, err = NewWheel([]int64{1}, []float64{-1})
	assert.Error(t, err)

	_, err = NewWheel([]int64{1, 2}, []float64{0, 0})
	assert.Error(t, err)

	w, err := NewWheel([]int64{1, 2}, []float64{1, 0})
	require.NoError(t, err)
	assert.Equal(t, 1.0, w.TotalWeight())
}

func TestPickAtCumulativeBoundaries(t *testing.T) {
	w := DefaultWheel()
	assert.InDelta(t, 100.0, w.TotalWeight(), 1e-9)

	// A draw of 29.9 lands in the first sector (weight 30).
	assert.Equal(t, int64(500_000), w.PickAt(29.9))
	// The boundary itself tips into the next sector.
	assert.Equal(t, int64(700_000), w.PickAt(30.0))
	// Far end of the wheel.
	assert.Equal(t, int64(100_000_000), w.PickAt(99.95))
}

func TestPickAtProportionalToTotal(t *testing.T) {
	// Same shape as the production wheel at a smaller total: draw 29.9 of
	// total 30.1 still selects the first sector.
	w, err := NewWheel([]int64{500_000, 700_000}, []float64{30, 0.1})
	require.NoError(t, err)
	assert.Equal(t, int64(500_000), w.PickAt(29.9))
	assert.Equal(t, int64(700_000), w.PickAt(30.05))
}

func TestPickZeroWeightSectorUnreachable(t *testing.T) {
	w, err := NewWheel([]int64{10, 20, 30}, []float64{1, 0, 1})
	require.NoError(t, err)

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		assert.NotEqual(t, int64(20), w.Pick(r))
	}
}

func TestPickHeavilyFavorsSmallRewards(t *testing.T) {
	w := DefaultWheel()
	r := rand.New(rand.NewSource(1))

	counts := make(map[int64]int)
	const n = 100_000
	for i := 0; i < n; i++ {
		counts[w.Pick(r)]++
	}

	// Weight 30 vs 0.1: the smallest reward must dominate the jackpot.
	assert.Greater(t, counts[500_000], counts[100_000_000]*50)
	// Every draw lands on a real sector.
	total := 0
	for reward, c := range counts {
		assert.Contains(t, w.Sectors(), reward)
		total += c
	}
	assert.Equal(t, n, total)
}
