// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents so totals are exact. On the wire they are
// plain JSON numbers with up to two decimals.
package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmount keeps cents comfortably inside int64.
var maxAmount = decimal.New(1, 15)

type Money struct {
	Cents int64
}

// ParseAmount converts form text to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up to the cent. Signs, non-numeric text, and anything that rounds to
// zero are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,345") -> 1235 cents
//	ParseAmount("0.004")  -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	m := fromDecimal(d)
	if m.Cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// ParseBound parses an optional filter bound. Empty text means no bound.
func ParseBound(s string) (*Money, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := parseDecimal(s)
	if err != nil {
		return nil, ErrInvalidBound
	}
	m := fromDecimal(d)
	return &m, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

func fromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Shift(2).Round(0).IntPart()}
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Validate enforces the positive-amount invariant of a stored expense.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// String renders the shortest exact decimal form, e.g. "12.5" or "40".
func (m Money) String() string {
	return m.Decimal().String()
}

// Format renders with exactly two decimals for display.
func (m Money) Format() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON writes the amount as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON reads a JSON number; quoted numbers are tolerated.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(b) == 0 || string(b) == "null" {
		*m = Money{}
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("decode amount %q: %w", b, err)
	}
	*m = fromDecimal(d)
	return nil
}
