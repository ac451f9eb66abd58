package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest amount that fits in int64 cents.
var MaxAmount = decimal.New(math.MaxInt64, -2)

// CentsToDecimal converts integer minor units to a decimal amount.
func CentsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// DecimalToCents converts a decimal amount to integer minor units,
// rounding half away from zero at the second fraction digit.
// Callers keep d within [-MaxAmount, MaxAmount]; larger values wrap.
func DecimalToCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// AmountInRange reports whether d survives DecimalToCents unchanged in magnitude.
func AmountInRange(d decimal.Decimal) bool {
	return d.Round(2).Abs().LessThanOrEqual(MaxAmount)
}
