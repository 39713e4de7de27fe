package folioscout

import (
	"fmt"
	"slices"

	"github.com/folioscout/folioscout/date"
)

// TWRR computes the time-weighted rate of return, in percent, between
// two point indexes (inclusive). It chains the single-period return of
// every adjacent pair of points in the range, so interleaved cash flows
// compound correctly; the growth factor is anchored to 1 at the start
// index. Indexes are clamped to the series bounds.
func TWRR(points []DataPoint, start, end int) float64 {
	start, end, ok := clampRange(len(points), start, end)
	if !ok {
		return 0
	}
	growth := 1.0
	for i := start + 1; i <= end; i++ {
		growth = chainGrowth(growth, points[i-1], points[i].NetWorth, points[i].Contribution)
	}
	return (growth - 1) * 100
}

// RangeGain is the currency gain between two point indexes, net of the
// cash flows of the period. It is independent of TWRR.
func RangeGain(points []DataPoint, start, end int) float64 {
	start, end, ok := clampRange(len(points), start, end)
	if !ok {
		return 0
	}
	return (points[end].NetWorth - points[start].NetWorth) -
		(points[end].Contribution - points[start].Contribution)
}

func clampRange(n, start, end int) (int, int, bool) {
	if n == 0 {
		return 0, 0, false
	}
	start = max(start, 0)
	end = min(end, n-1)
	if start >= end {
		return 0, 0, false
	}
	return start, end, true
}

// IndexAtOrBefore returns the index of the last point dated at or
// before 'on', or -1 when the series starts after it.
func IndexAtOrBefore(points []DataPoint, on date.Date) int {
	i, found := slices.BinarySearchFunc(points, on, func(p DataPoint, t date.Date) int {
		return p.Date.Compare(t)
	})
	if found {
		return i
	}
	return i - 1
}

// PeriodPerformance is one row of a summary: the portfolio performance
// over a trailing window ending at the summary date.
type PeriodPerformance struct {
	Label string
	Gain  float64
	TWRR  float64
}

// Summary is an at-a-glance overview of the reconstructed series as of
// its last point.
type Summary struct {
	Date         date.Date
	NetWorth     float64
	Contribution float64
	NetGain      float64
	TWRR         float64 // since inception
	Periods      []PeriodPerformance
}

// NewSummary computes the headline summary over a replayed series:
// since-inception figures plus trailing week/month/quarter/year
// windows. Windows that start before the series are dropped.
func NewSummary(points []DataPoint) (*Summary, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("cannot summarize an empty series")
	}
	last := points[len(points)-1]
	s := &Summary{
		Date:         last.Date,
		NetWorth:     last.NetWorth,
		Contribution: last.Contribution,
		NetGain:      last.NetGain,
		TWRR:         TWRR(points, 0, len(points)-1),
	}

	windows := []struct {
		label string
		days  int
	}{
		{"1 week", 7},
		{"1 month", 30},
		{"3 months", 91},
		{"1 year", 365},
	}
	end := len(points) - 1
	for _, w := range windows {
		start := IndexAtOrBefore(points, last.Date.Add(-w.days))
		if start < 0 {
			continue
		}
		s.Periods = append(s.Periods, PeriodPerformance{
			Label: w.label,
			Gain:  round2(RangeGain(points, start, end)),
			TWRR:  round2(TWRR(points, start, end)),
		})
	}
	return s, nil
}
