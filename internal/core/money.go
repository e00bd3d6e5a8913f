// Package core holds the ledger domain: transaction and reminder types,
// the validation layer, and the monthly aggregation engine.
//
// This file contains money parsing and formatting. Amounts are carried as
// integer cents to keep arithmetic exact; decimal strings only appear at the
// boundaries (caller input, tabular storage).
package core

import (
	"strconv"
	"strings"
)

// Money is an exact monetary amount in cents. Stored amounts are always
// positive; derived values such as a summary balance may go negative.
type Money struct {
	Cents int64
}

// ParseDecimalToCents converts a positive decimal string to cents.
//
// Both dot and comma decimal separators are accepted. A third decimal digit
// is rounded half-up. Missing, non-numeric, signed, or non-positive values
// fail with ErrInvalidAmount.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, ErrInvalidAmount
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if strings.Contains(frac, ".") || !allDigits(whole) || !allDigits(frac) {
		return 0, ErrInvalidAmount
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > (1<<63-1)/100 {
		return 0, ErrInvalidAmount
	}

	var cents int64
	switch {
	case len(frac) >= 2:
		cents = int64(frac[0]-'0')*10 + int64(frac[1]-'0')
		if len(frac) > 2 && frac[2] >= '5' {
			cents++
		}
	case len(frac) == 1:
		cents = int64(frac[0]-'0') * 10
	}

	total := units*100 + cents
	if total <= 0 {
		return 0, ErrInvalidAmount
	}
	return total, nil
}

// Decimal renders the amount as a plain decimal string ("1200.50"),
// dropping the fractional part when it is zero ("1200"). This is the
// canonical representation written to tabular storage.
func (m Money) Decimal() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10)
	if rem := cents % 100; rem != 0 {
		s += "." + pad2(rem)
	}
	if neg {
		return "-" + s
	}
	return s
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
