package enrich

import (
	"fmt"
	"math"
)

// NotAvailable is the display sentinel substituted for missing numeric
// inputs. Formatting never panics on absent data.
const NotAvailable = "N/A"

// MarketCapFromMillions converts a provider market capitalization reported in
// millions into absolute units. 3000000 from the provider means 3 trillion.
func MarketCapFromMillions(millions float64) float64 {
	return millions * 1e6
}

// FormatCurrency renders a monetary value with two decimals, or the sentinel
// when absent.
func FormatCurrency(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return fmt.Sprintf("$%.2f", *v)
}

// FormatPercent renders a percentage with two decimals and an explicit sign,
// or the sentinel when absent.
func FormatPercent(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%+.2f%%", *v)
}

// FormatNumber renders a ratio-style number with two decimals, or the
// sentinel when absent.
func FormatNumber(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f", *v)
}

// FormatCompact renders a large value with a magnitude suffix (K, M, B, T),
// or the sentinel when absent. Used for market capitalization display.
func FormatCompact(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	n := *v
	sign := ""
	if n < 0 {
		sign = "-"
		n = math.Abs(n)
	}
	switch {
	case n >= 1e12:
		return fmt.Sprintf("%s$%.2fT", sign, n/1e12)
	case n >= 1e9:
		return fmt.Sprintf("%s$%.2fB", sign, n/1e9)
	case n >= 1e6:
		return fmt.Sprintf("%s$%.2fM", sign, n/1e6)
	case n >= 1e3:
		return fmt.Sprintf("%s$%.2fK", sign, n/1e3)
	default:
		return fmt.Sprintf("%s$%.2f", sign, n)
	}
}

// Float64Ptr returns a pointer to v. Convenience for building display inputs
// and test fixtures.
func Float64Ptr(v float64) *float64 {
	return &v
}
