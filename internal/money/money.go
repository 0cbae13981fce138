// Package money holds the decimal helpers shared by the catalog, basket and ledger.
// Amounts travel through SQL as NUMERIC rendered to text.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Parse reads a NUMERIC text value. Empty input is zero.
func Parse(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}

// ParsePrice is Parse plus the non-negative, two-decimal rule for prices.
func ParsePrice(s string) (decimal.Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return d, err
	}
	if d.IsNegative() {
		return d, fmt.Errorf("price must be non-negative")
	}
	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return d, fmt.Errorf("price has more than two decimals")
	}
	return d.Round(2), nil
}

// Minor converts an amount into the smallest currency unit (paise, cents).
func Minor(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// FromMinor is the inverse of Minor.
func FromMinor(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}
