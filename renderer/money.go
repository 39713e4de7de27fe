// Package renderer turns replayed series into human output: markdown
// reports, terminal tables, and a PNG chart.
package renderer

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// formatMoney renders an amount with its currency's own separators and
// symbol, e.g. "$12,345.67".
func formatMoney(amount float64, currency string) string {
	cur := money.New(0, currency).Currency()
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}

// formatSignedMoney is formatMoney with an explicit sign for gains.
func formatSignedMoney(amount float64, currency string) string {
	if amount >= 0 {
		return "+" + formatMoney(amount, currency)
	}
	return "-" + formatMoney(-amount, currency)
}

// formatPercent renders a return with an explicit sign.
func formatPercent(v float64) string { return fmt.Sprintf("%+.2f%%", v) }
