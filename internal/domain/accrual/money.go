// Package accrual defines billing records (accruals), the fee calculator that
// prices them and the decision policy that chooses how a new task is billed.
package accrual

import (
	"math"
	"strconv"
	"strings"
)

// DefaultCurrency is used when a fee carries no currency code.
const DefaultCurrency = "TRY"

// Money is an amount in a single currency.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool {
	return m.Amount > 0
}

// String renders the amount with two decimals followed by the currency code.
func (m Money) String() string {
	return strconv.FormatFloat(m.Amount, 'f', 2, 64) + " " + m.Currency
}

// NormalizeCurrency upper-cases and trims code, returning fallback when the
// result is empty. An empty fallback means DefaultCurrency.
func NormalizeCurrency(code, fallback string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c != "" {
		return c
	}
	f := strings.ToUpper(strings.TrimSpace(fallback))
	if f == "" {
		return DefaultCurrency
	}
	return f
}

// FormatList renders amounts as "<amount> <CUR>" joined with "; ".
func FormatList(amounts []Money) string {
	parts := make([]string, 0, len(amounts))
	for _, m := range amounts {
		parts = append(parts, m.String())
	}
	return strings.Join(parts, "; ")
}

// CloneList returns an independent copy of amounts.
func CloneList(amounts []Money) []Money {
	if amounts == nil {
		return nil
	}
	out := make([]Money, len(amounts))
	copy(out, amounts)
	return out
}

// roundMinor rounds to two decimal places.
func roundMinor(v float64) float64 {
	return math.Round(v*100) / 100
}

//Personal.AI order the ending
