package policy

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedOutcome(t *testing.T) {
	assert.True(t, FixedOutcome(true).Decide(nil))
	assert.False(t, FixedOutcome(false).Decide(nil))
}

func TestRandomOutcomeDeterministicPerSeed(t *testing.T) {
	a := NewRandomOutcome(7)
	b := NewRandomOutcome(7)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Decide(nil), b.Decide(nil))
	}
}

func TestRandomOutcomeMixesResults(t *testing.T) {
	o := NewRandomOutcome(1)
	wins := 0
	for i := 0; i < 1000; i++ {
		if o.Decide(nil) {
			wins++
		}
	}
	assert.Greater(t, wins, 400)
	assert.Less(t, wins, 600)
}

func TestRandomPriceStaysInBand(t *testing.T) {
	p := NewRandomPrice(3)
	for i := 0; i < 100; i++ {
		quote := p.Entry("EURUSD")
		v, err := strconv.ParseFloat(quote, 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, basePrice)
		assert.Less(t, v, basePrice+priceDrift)
	}
}

func TestFixedPrice(t *testing.T) {
	p := FixedPrice("1.08500")
	assert.Equal(t, "1.08500", p.Entry("EURUSD"))
	assert.Equal(t, "1.08500", p.Exit("BTCUSD"))
}
