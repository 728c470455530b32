package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulMicrosExactTierMath(t *testing.T) {
	// 0.30 stake at the 60s tier pays 0.555 exactly.
	m, ok := MultiplierFor(60 * time.Second)
	require.True(t, ok)
	assert.Equal(t, int64(555_000), MulMicros(300_000, m))

	// 10 USD at 1.85 pays 18.50.
	assert.Equal(t, int64(18_500_000), MulMicros(10_000_000, m))
}

func TestMulMicrosFee(t *testing.T) {
	fee := decimal.RequireFromString("0.18")

	// 18% of 100 USD is exactly 18 USD.
	assert.Equal(t, int64(18_000_000), MulMicros(100_000_000, fee))
	// 18% of 1 USD is exactly 0.18 USD.
	assert.Equal(t, int64(180_000), MulMicros(1_000_000, fee))
}

func TestMulMicrosRoundsDown(t *testing.T) {
	factor := decimal.RequireFromString("0.5")
	assert.Equal(t, int64(0), MulMicros(1, factor))
	assert.Equal(t, int64(1), MulMicros(3, factor))
}

func TestDecimalRoundTrip(t *testing.T) {
	d := ToDecimal(1_234_567)
	assert.Equal(t, "1.234567", d.String())
	assert.Equal(t, int64(1_234_567), FromDecimal(d))
}

func TestFormatMicros(t *testing.T) {
	assert.Equal(t, "$10.25", FormatMicros(10_250_000))
	assert.Equal(t, "$0.30", FormatMicros(300_000))
}
