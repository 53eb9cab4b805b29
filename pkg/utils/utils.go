package utils

import (
	"github.com/shopspring/decimal"
)

// ValidAmount reports whether an amount is a well-formed payment value:
// strictly positive with at most two decimal places.
func ValidAmount(amount decimal.Decimal) bool {
	if !amount.IsPositive() {
		return false
	}
	return amount.Equal(amount.Round(2))
}

// AmountToCents converts a 2-decimal amount to integer cents for storage.
func AmountToCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).IntPart()
}

// CentsToAmount converts stored integer cents back to a decimal amount.
func CentsToAmount(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// DecimalFromString converts string to decimal.Decimal
func DecimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
