// Package core provides money handling utilities.
//
// Amounts are shopspring decimals with at most two fractional digits. Storage
// backends that lack a decimal type persist them as integer cents.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest amount a decimal(10,2) column can hold.
var MaxAmount = decimal.RequireFromString("99999999.99")

// ValidateAmount rejects negative values, values above MaxAmount and values
// with more than two fractional digits. Nothing is rounded.
func ValidateAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return ErrInvalidAmount
	}
	if d.GreaterThan(MaxAmount) {
		return ErrInvalidAmount
	}
	if !d.Equal(d.Truncate(2)) {
		return ErrInvalidAmount
	}
	return nil
}

// ToCents converts an already validated amount to integer cents.
func ToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// FromCents converts integer cents back to a two-digit decimal.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FormatEuros renders an amount as "€1,234.56".
func FormatEuros(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := "€" + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
