package types

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// AlmostZero is the smallest amount the ledger treats as money. Anything below
// it is considered settled.
const AlmostZero = 0.0001

// IsNegligible reports whether amount is too small to be worth tracking.
func IsNegligible(amount float64) bool {
	return amount < AlmostZero
}

// IsFinite reports whether amount is a usable number.
func IsFinite(amount float64) bool {
	return !math.IsNaN(amount) && !math.IsInf(amount, 0)
}

// FormatAmount renders amount with two decimal places, e.g. "12.50".
func FormatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

// FormatCurrency renders amount followed by its currency code, e.g. "12.50 USD".
func FormatCurrency(amount float64, currency string) string {
	if currency == "" {
		return FormatAmount(amount)
	}
	return FormatAmount(amount) + " " + strings.ToUpper(currency)
}

// SumAmounts adds amounts in decimal space so long sums do not drift.
func SumAmounts(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	f, _ := total.Float64()
	return f
}
