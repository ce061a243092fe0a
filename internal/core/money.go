// Package core provides money parsing and handling utilities.
//
// Amounts are signed decimals: income is positive, spending negative.
// They travel as bare JSON numbers and are stored as TEXT so no
// precision is lost on either path.
package core

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	decimal.Decimal
}

func NewMoney(v int64) Money {
	return Money{decimal.NewFromInt(v)}
}

// ParseMoney reads an amount typed by a user.
//
// Whitespace and underscores are ignored and a lone comma is accepted as
// the decimal separator. An empty string is zero.
//
// Examples:
//
//	ParseMoney("-20000") -> -20000
//	ParseMoney("12,5")   -> 12.5
//	ParseMoney("")       -> 0
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return Money{}, nil
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Money{d}, nil
}

func (m Money) Add(o Money) Money {
	return Money{m.Decimal.Add(o.Decimal)}
}

// FormatGrouped renders the amount with dot thousands separators and a
// decimal comma, e.g. 1234567.5 -> "1.234.567,5".
func (m Money) FormatGrouped() string {
	s := m.Decimal.String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if frac != "" {
		out += "," + frac
	}
	if neg {
		return "-" + out
	}
	return out
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

// UnmarshalJSON accepts numbers, numeric strings and null.
func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Money{}
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, data)
	}
	m.Decimal = d
	return nil
}

func (m Money) Value() (driver.Value, error) {
	return m.Decimal.String(), nil
}

func (m *Money) Scan(src any) error {
	if src == nil {
		*m = Money{}
		return nil
	}
	return m.Decimal.Scan(src)
}
