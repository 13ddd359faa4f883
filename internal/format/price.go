// Package format holds the pure text helpers used to lay out receipts.
package format

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrencySymbol prefixes amounts rendered by FormatPrice.
const DefaultCurrencySymbol = "$"

// FormatPrice renders an amount in cents as dollars with two decimals.
// Zero renders as "$0.00".
func FormatPrice(cents int64) string {
	return FormatMoney(cents, DefaultCurrencySymbol)
}

// FormatMoney renders an amount in minor units with the given symbol.
// Negative amounts carry the sign before the symbol.
func FormatMoney(cents int64, symbol string) string {
	amount := decimal.New(cents, -2)
	if amount.IsNegative() {
		return "-" + symbol + amount.Neg().StringFixed(2)
	}
	return symbol + amount.StringFixed(2)
}

// FormatDate renders t for a receipt header. The zero time renders empty.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
