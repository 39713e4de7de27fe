package renderer

import (
	"bytes"
	"fmt"
	"maps"
	"slices"

	md "github.com/nao1215/markdown"

	"github.com/folioscout/folioscout"
)

// SummaryMarkdown renders the headline report: current net worth,
// contributions, gain, and the trailing performance windows.
func SummaryMarkdown(s *folioscout.Summary, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Net Worth on %s", s.Date))
	doc.PlainText(fmt.Sprintf("Net Worth: %s", formatMoney(s.NetWorth, currency)))
	doc.PlainText(fmt.Sprintf("Contributed: %s", formatMoney(s.Contribution, currency)))
	doc.PlainText(fmt.Sprintf("Net Gain: %s (%s since inception)",
		formatSignedMoney(s.NetGain, currency), formatPercent(s.TWRR)))

	if len(s.Periods) > 0 {
		doc.H2("Performance")
		rows := make([][]string, 0, len(s.Periods))
		for _, p := range s.Periods {
			rows = append(rows, []string{p.Label, formatSignedMoney(p.Gain, currency), formatPercent(p.TWRR)})
		}
		doc.Table(md.TableSet{
			Header: []string{"Period", "Gain", "TWRR"},
			Rows:   rows,
		})
	}
	return doc.String()
}

// BreakdownMarkdown renders the per-ticker composition of the last
// point of a series replayed with breakdown enabled.
func BreakdownMarkdown(point folioscout.DataPoint, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Holdings on %s", point.Date))
	if len(point.Holdings) == 0 {
		doc.PlainText("No holdings.")
		return doc.String()
	}

	rows := make([][]string, 0, len(point.Holdings))
	for _, ticker := range slices.Sorted(maps.Keys(point.Holdings)) {
		rows = append(rows, []string{
			ticker,
			formatMoney(point.Holdings[ticker], currency),
			fmt.Sprintf("%.1f%%", point.Weights[ticker]),
			formatPercent(point.Returns[ticker]),
		})
	}
	doc.Table(md.TableSet{
		Header: []string{"Ticker", "Value", "Weight", "Return"},
		Rows:   rows,
	})
	return doc.String()
}
