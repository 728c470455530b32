package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Payout multipliers by trade duration. The tier table is fixed product
// configuration; durations outside it are rejected at open time rather than
// silently downgraded to the lowest tier.
var multiplierTiers = map[time.Duration]decimal.Decimal{
	30 * time.Second:  decimal.RequireFromString("1.8"),
	60 * time.Second:  decimal.RequireFromString("1.85"),
	120 * time.Second: decimal.RequireFromString("1.9"),
	300 * time.Second: decimal.RequireFromString("2.0"),
	600 * time.Second: decimal.RequireFromString("2.2"),
}

// MultiplierFor returns the payout multiplier for a trade duration.
// The boolean reports whether the duration is a recognized tier.
func MultiplierFor(duration time.Duration) (decimal.Decimal, bool) {
	m, ok := multiplierTiers[duration]
	return m, ok
}

// TierDurations returns the supported durations in ascending order.
func TierDurations() []time.Duration {
	out := make([]time.Duration, 0, len(multiplierTiers))
	for d := range multiplierTiers {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
