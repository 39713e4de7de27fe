package folioscout

import (
	"github.com/folioscout/folioscout/date"
)

// Cashflow is a signed external cash movement: positive for deposits
// and transfers-in, negative for withdrawals and transfers-out.
type Cashflow struct {
	Date   date.Date
	Amount float64
}

// ContributionLedger is the merged, cumulative view of all external
// cash flows. It answers "how much money had been put in, net of
// withdrawals, as of day X".
type ContributionLedger struct {
	cumulative date.History[float64]
}

// NewContributionLedger merges cash flows from any number of sources.
// Same-date entries are summed, then the running signed total is
// indexed by date.
func NewContributionLedger(sources ...[]Cashflow) *ContributionLedger {
	byDate := new(date.History[float64])
	for _, events := range sources {
		for _, e := range events {
			if prev, ok := byDate.Get(e.Date); ok {
				byDate.Append(e.Date, prev+e.Amount)
			} else {
				byDate.Append(e.Date, e.Amount)
			}
		}
	}

	ledger := &ContributionLedger{}
	running := 0.0
	for on, amount := range byDate.Values() {
		running += amount
		ledger.cumulative.Append(on, running)
	}
	return ledger
}

// CumulativeAt returns the cumulative signed sum of all contributions
// at or before the given date, or 0 when none exist yet.
func (l *ContributionLedger) CumulativeAt(on date.Date) float64 {
	sum, ok := l.cumulative.ValueAsOf(on)
	if !ok {
		return 0
	}
	return sum
}

// Len returns the number of distinct contribution dates.
func (l *ContributionLedger) Len() int { return l.cumulative.Len() }

// History exposes the cumulative series, for timeline construction.
func (l *ContributionLedger) History() *date.History[float64] { return &l.cumulative }
