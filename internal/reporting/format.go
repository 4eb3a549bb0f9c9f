package reporting

import (
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

// NotAvailable is rendered for undefined metrics.
const NotAvailable = "n/a"

// FormatCurrency renders a money amount with two fixed decimal places.
func FormatCurrency(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatRatio renders a dimensionless value with four decimal places.
func FormatRatio(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(4)
}

// FormatPercent renders a fraction as a percentage, e.g. 0.4567 -> "45.67%".
func FormatPercent(v float64) string {
	return decimal.NewFromFloat(v).Shift(2).StringFixed(2) + "%"
}

// FormatOptionalCurrency renders Some as currency and None as NotAvailable.
func FormatOptionalCurrency(v optional.Option[float64]) string {
	if v.IsNone() {
		return NotAvailable
	}
	return FormatCurrency(v.Unwrap())
}

// FormatOptionalRatio renders Some as a ratio and None as NotAvailable.
func FormatOptionalRatio(v optional.Option[float64]) string {
	if v.IsNone() {
		return NotAvailable
	}
	return FormatRatio(v.Unwrap())
}
