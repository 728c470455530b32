package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amounts are stored as BIGINT micros (10^-6 dollars) to avoid floating
// point errors. The platform is single-currency USD.
const MicrosPerDollar = 1_000_000

// ToDecimal converts int64 micros to a shopspring/decimal.Decimal in dollars.
func ToDecimal(micros int64) decimal.Decimal {
	return decimal.NewFromInt(micros).Div(decimal.NewFromInt(MicrosPerDollar))
}

// FromDecimal converts a dollar decimal to int64 micros, truncating toward zero.
func FromDecimal(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(MicrosPerDollar)).IntPart()
}

// MulMicros scales a micro amount by a decimal factor (payout multiplier,
// fee rate) and rounds down.
func MulMicros(micros int64, factor decimal.Decimal) int64 {
	return decimal.NewFromInt(micros).Mul(factor).IntPart()
}

// FormatMicros renders a micro amount as a dollar string with two decimals.
func FormatMicros(micros int64) string {
	return fmt.Sprintf("$%s", ToDecimal(micros).StringFixed(2))
}
