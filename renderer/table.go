package renderer

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"

	"github.com/folioscout/folioscout"
	"github.com/folioscout/folioscout/date"
)

// WriteSeriesTable prints the tail of a daily series as a terminal
// table, newest row last.
func WriteSeriesTable(w io.Writer, points []folioscout.DataPoint, tail int, currency string) {
	if tail > 0 && len(points) > tail {
		points = points[len(points)-tail:]
	}
	table := tablewriter.NewWriter(w)
	table.Header("Date", "Net Worth", "Contributed", "Net Gain", "TWRR")
	for _, p := range points {
		table.Append(
			p.Date.String(),
			formatMoney(p.NetWorth, currency),
			formatMoney(p.Contribution, currency),
			formatSignedMoney(p.NetGain, currency),
			formatPercent(p.TWRR),
		)
	}
	table.Render()
}

// WriteIntradayTable prints an intraday series as a terminal table.
func WriteIntradayTable(w io.Writer, points []folioscout.IntradayPoint, tail int, currency string) {
	if tail > 0 && len(points) > tail {
		points = points[len(points)-tail:]
	}
	table := tablewriter.NewWriter(w)
	table.Header("Time", "Net Worth", "Net Gain", "TWRR")
	for _, p := range points {
		table.Append(
			p.Time.Format("2006-01-02 15:04"),
			formatMoney(p.NetWorth, currency),
			formatSignedMoney(p.NetGain, currency),
			formatPercent(p.TWRR),
		)
	}
	table.Render()
}

// WriteHoldingsTable prints the current positions of a replay state
// valued at the given day's prices.
func WriteHoldingsTable(w io.Writer, state *folioscout.ReplayState, prices *folioscout.PriceBook, on date.Date, currency string) {
	table := tablewriter.NewWriter(w)
	table.Header("Ticker", "Shares", "Cost Basis", "Value", "Return")
	for ticker, pos := range state.Holdings() {
		price, ok := prices.PriceAsOf(ticker, on)
		value := "n/a"
		ret := "n/a"
		if ok {
			market := pos.Shares * price
			value = formatMoney(market, currency)
			if pos.CostBasis > 0 {
				ret = formatPercent(100 * (market - pos.CostBasis) / pos.CostBasis)
			}
		}
		table.Append(ticker, fmt.Sprintf("%.4f", pos.Shares), formatMoney(pos.CostBasis, currency), value, ret)
	}
	table.Append("CASH", "", "", formatMoney(state.Cash, currency), "")
	table.Render()
}

// WriteCashflowTotals prints per-source deposit and withdrawal totals
// with a grand-total row.
func WriteCashflowTotals(w io.Writer, sources map[string][]folioscout.Cashflow, currency string) {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	table := tablewriter.NewWriter(w)
	table.Header("Source", "Deposits", "Withdrawals", "Net")
	var deposits, withdrawals float64
	for _, name := range names {
		var in, out float64
		for _, flow := range sources[name] {
			if flow.Amount >= 0 {
				in += flow.Amount
			} else {
				out += flow.Amount
			}
		}
		deposits += in
		withdrawals += out
		table.Append(name, formatMoney(in, currency), formatMoney(-out, currency), formatSignedMoney(in+out, currency))
	}
	table.Append("TOTAL", formatMoney(deposits, currency), formatMoney(-withdrawals, currency), formatSignedMoney(deposits+withdrawals, currency))
	table.Render()
}
