package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrencyKRW formats an amount as Korean won
// Example: 21300 -> "21,300원"
func FormatCurrencyKRW(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	integer := amount.Abs().Round(0).StringFixed(0)

	// Tambahkan pemisah ribuan
	var parts []string
	for i := len(integer); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		parts = append([]string{integer[start:i]}, parts...)
	}

	formatted := strings.Join(parts, ",") + "원"
	if negative {
		return "-" + formatted
	}
	return formatted
}
