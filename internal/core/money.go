// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and for resolving owner proportions.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromInt(50)
)

// ParseAmount converts a decimal string to an amount rounded half-up to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Negative,
// zero and malformed values return ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("12.345") -> 12.35, nil
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ResolveProportions returns the percentages of a proportional split.
// Both absent yields 50/50; one absent is the complement of the other.
func ResolveProportions(a, b decimal.NullDecimal) (decimal.Decimal, decimal.Decimal) {
	switch {
	case a.Valid && b.Valid:
		return a.Decimal, b.Decimal
	case a.Valid:
		return a.Decimal, hundred.Sub(a.Decimal)
	case b.Valid:
		return hundred.Sub(b.Decimal), b.Decimal
	}
	return half, half
}

// Percent returns part/total*100, or zero when total is zero.
func Percent(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred)
}
