package folioscout

import (
	"iter"
	"maps"
	"math"
	"slices"

	"github.com/folioscout/folioscout/date"
	"github.com/phuslu/log"
)

// DustThreshold is the share balance below which a position is treated
// as zero, so float rounding noise never produces phantom holdings.
const DustThreshold = 1e-4

// Position is the holding of a single ticker: a share count and the
// cumulative amount paid for the shares still held.
type Position struct {
	Shares    float64
	CostBasis float64
}

// ReplayState is the mutable state of one replay pass: per-ticker
// positions, the cash balance, and the last applied cumulative
// contribution. It is owned by exactly one pass and only ever advances
// forward in time.
type ReplayState struct {
	positions   map[string]Position
	Cash        float64
	Contributed float64

	skippedTrades int // trades dropped for lack of a usable price
}

// NewReplayState returns an empty state.
func NewReplayState() *ReplayState {
	return &ReplayState{positions: make(map[string]Position)}
}

// Position returns the current position for a ticker (zero value if none).
func (s *ReplayState) Position(ticker string) Position { return s.positions[ticker] }

// Holdings iterates over positions above the dust threshold, sorted by ticker.
func (s *ReplayState) Holdings() iter.Seq2[string, Position] {
	return func(yield func(string, Position) bool) {
		tickers := slices.Collect(maps.Keys(s.positions))
		slices.Sort(tickers)
		for _, ticker := range tickers {
			pos := s.positions[ticker]
			if pos.Shares <= DustThreshold {
				continue
			}
			if !yield(ticker, pos) {
				return
			}
		}
	}
}

// SkippedTrades returns how many trades were dropped because no usable
// price existed on their date.
func (s *ReplayState) SkippedTrades() int { return s.skippedTrades }

// applyContribution brings the cash balance up to date with the
// cumulative contribution as of the current day. It must run exactly
// once per calendar date, even on sub-day timelines.
func (s *ReplayState) applyContribution(cumulative float64) {
	if cumulative != s.Contributed {
		s.Cash += cumulative - s.Contributed
		s.Contributed = cumulative
	}
}

// applyTrade mutates the state for one trade given the price on its
// date. The caller guarantees price > 0.
//
// Sells are capped at the current holding (no short positions), but
// cash is always credited in full: the sale is cash-settled even when
// the share accounting caps at zero. Zero-share sells therefore still
// credit cash; see DESIGN.md for the policy decision.
func (s *ReplayState) applyTrade(t Trade, price float64) {
	pos := s.positions[t.Ticker]
	sharesDelta := t.Amount / price

	switch t.Side {
	case Buy:
		pos.Shares += sharesDelta
		pos.CostBasis += t.Amount
		s.Cash -= t.Amount
	case Sell:
		if pos.Shares > 0 {
			sharesSold := math.Min(sharesDelta, pos.Shares)
			costPerShare := pos.CostBasis / pos.Shares
			pos.Shares -= sharesSold
			pos.CostBasis -= costPerShare * sharesSold
		}
		s.Cash += t.Amount
	}
	s.positions[t.Ticker] = pos
}

// applyTrades applies every trade of one day, in source order. A trade
// whose ticker has no usable price on that day is skipped outright: no
// share or cash mutation. That is a data-quality condition, not an error.
func (s *ReplayState) applyTrades(trades []Trade, on date.Date, prices *PriceBook) {
	for _, t := range trades {
		price, ok := prices.PriceAsOf(t.Ticker, on)
		if !ok || price <= 0 {
			s.skippedTrades++
			continue
		}
		s.applyTrade(t, price)
	}
}

// netWorth values the state at end of day: cash plus every position
// above the dust threshold at its as-of price. A held ticker with no
// price data at all contributes zero, it never fails the valuation.
func (s *ReplayState) netWorth(on date.Date, prices *PriceBook) float64 {
	worth := s.Cash
	for ticker, pos := range s.positions {
		if pos.Shares <= DustThreshold {
			continue
		}
		price, ok := prices.PriceAsOf(ticker, on)
		if !ok {
			continue
		}
		worth += pos.Shares * price
	}
	return worth
}

// Engine replays a chronological trade stream and a contribution stream
// against daily price series. It is strictly sequential: one replay
// pass owns one state, and nothing is ever rolled back.
type Engine struct {
	trades        []Trade // sorted by date, same-day source order preserved
	contributions *ContributionLedger
	prices        *PriceBook

	// Breakdown asks Replay to also emit per-ticker holdings values,
	// weights, and returns on every point.
	Breakdown bool
}

// NewEngine creates a replay engine. Trades must already be normalized
// (see NormalizeTrades); contributions and prices may be empty.
func NewEngine(trades []Trade, contributions *ContributionLedger, prices *PriceBook) *Engine {
	return &Engine{
		trades:        trades,
		contributions: contributions,
		prices:        prices,
	}
}

// Timeline returns every calendar day the replay should emit a point
// for: the sorted union of all price dates, trade dates, and
// contribution dates, clipped to start at 'from' when non-zero.
func (e *Engine) Timeline(from date.Date) []date.Date {
	histories := make([]*date.History[float64], 0, len(e.prices.series)+2)
	for _, h := range e.prices.Histories() {
		histories = append(histories, h)
	}
	histories = append(histories, e.contributions.History())

	tradeDays := new(date.History[float64])
	for _, t := range e.trades {
		tradeDays.Append(t.Date, 0)
	}
	histories = append(histories, tradeDays)

	var days []date.Date
	for on := range date.Iterate(histories...) {
		if !from.IsZero() && on.Before(from) {
			continue
		}
		days = append(days, on)
	}
	return days
}

// Replay folds the trade and contribution streams forward through the
// given days and emits one DataPoint per day. Days must be sorted
// ascending. The same inputs always produce identical output.
func (e *Engine) Replay(days []date.Date) []DataPoint {
	state := NewReplayState()
	cursor := 0 // index of the first trade not yet applied

	// Trades dated before the first day still shape the opening state.
	if len(days) > 0 {
		cursor = e.seed(state, days[0])
	}

	points := make([]DataPoint, 0, len(days))
	growth := 1.0
	for _, on := range days {
		state.applyContribution(e.contributions.CumulativeAt(on))

		start := cursor
		for cursor < len(e.trades) && !e.trades[cursor].Date.After(on) {
			cursor++
		}
		state.applyTrades(e.trades[start:cursor], on, e.prices)

		point := DataPoint{
			Date:         on,
			NetWorth:     round2(state.netWorth(on, e.prices)),
			Contribution: round2(state.Contributed),
		}
		point.NetGain = round2(point.NetWorth - point.Contribution)

		if len(points) > 0 {
			growth = chainGrowth(growth, points[len(points)-1], point.NetWorth, point.Contribution)
		}
		point.TWRR = round2((growth - 1) * 100)

		if e.Breakdown {
			e.breakdown(&point, state, on)
		}
		points = append(points, point)
	}

	if state.skippedTrades > 0 {
		log.Warn().Int("count", state.skippedTrades).Msg("trades skipped for missing prices")
	}
	return points
}

// StateAsOf replays every trade strictly before the cutoff date into a
// fresh state, including the contributions posted before it. This seeds
// sub-day timelines that start mid-history without replaying the entire
// day-by-day series.
func (e *Engine) StateAsOf(cutoff date.Date) *ReplayState {
	state := NewReplayState()
	e.seed(state, cutoff)
	return state
}

// seed applies all trades strictly before cutoff to state and returns
// the index of the first remaining trade. Contributions posted before
// the cutoff are folded into cash the same way the per-day transition
// would have.
func (e *Engine) seed(state *ReplayState, cutoff date.Date) int {
	state.applyContribution(e.contributions.CumulativeAt(cutoff.Add(-1)))
	cursor := 0
	for cursor < len(e.trades) && e.trades[cursor].Date.Before(cutoff) {
		t := e.trades[cursor]
		state.applyTrades([]Trade{t}, t.Date, e.prices)
		cursor++
	}
	return cursor
}

// breakdown fills the optional per-ticker maps of a point.
func (e *Engine) breakdown(point *DataPoint, state *ReplayState, on date.Date) {
	point.Holdings = make(map[string]float64)
	point.Weights = make(map[string]float64)
	point.Returns = make(map[string]float64)
	for ticker, pos := range state.Holdings() {
		price, ok := e.prices.PriceAsOf(ticker, on)
		if !ok {
			continue
		}
		value := pos.Shares * price
		point.Holdings[ticker] = round2(value)
		if point.NetWorth != 0 {
			point.Weights[ticker] = round2(100 * value / point.NetWorth)
		}
		if pos.CostBasis > 0 {
			point.Returns[ticker] = round2(100 * (value - pos.CostBasis) / pos.CostBasis)
		}
	}
}

// chainGrowth multiplies the running growth factor by one sub-period
// return, the core of the time-weighted calculation. The period's cash
// flow is added to the base first so a deposit alone never looks like
// performance. Non-finite ratios and zero bases leave the factor
// unchanged: data gaps must never corrupt the cumulative TWRR.
func chainGrowth(growth float64, prev DataPoint, netWorth, contribution float64) float64 {
	cashFlow := contribution - prev.Contribution
	base := prev.NetWorth + cashFlow
	if base == 0 {
		return growth
	}
	ratio := netWorth / base
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return growth
	}
	return growth * ratio
}
