package folioscout

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/folioscout/folioscout/date"
)

// TickSeries is a sorted sequence of intraday price observations for a
// single ticker. Like date.History it keeps parallel slices and a
// last-write-wins Append, just at sub-day granularity.
type TickSeries struct {
	times  []time.Time
	prices []float64
}

// Append inserts an observation keeping the series sorted. Appending an
// existing timestamp overwrites its price.
func (s *TickSeries) Append(t time.Time, price float64) {
	i, found := slices.BinarySearchFunc(s.times, t, time.Time.Compare)
	if found {
		s.prices[i] = price
		return
	}
	s.times = slices.Insert(s.times, i, t)
	s.prices = slices.Insert(s.prices, i, price)
}

// Len returns the number of observations.
func (s *TickSeries) Len() int { return len(s.times) }

// AsOf returns the latest price observed at or before t, and false when
// the series starts after t.
func (s *TickSeries) AsOf(t time.Time) (float64, bool) {
	i, found := slices.BinarySearchFunc(s.times, t, time.Time.Compare)
	if found {
		return s.prices[i], true
	}
	if i == 0 {
		return 0, false
	}
	return s.prices[i-1], true
}

// Times iterates over observation timestamps in order.
func (s *TickSeries) Times() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for _, t := range s.times {
			if !yield(t) {
				return
			}
		}
	}
}

// TrimBefore drops every observation strictly before the cutoff.
func (s *TickSeries) TrimBefore(cutoff time.Time) {
	i, _ := slices.BinarySearchFunc(s.times, cutoff, time.Time.Compare)
	s.times = slices.Delete(s.times, 0, i)
	s.prices = slices.Delete(s.prices, 0, i)
}

// millisecondFloor: any unix timestamp above it is necessarily in
// milliseconds already (it would otherwise be tens of thousands of
// years in the future).
const millisecondFloor = 1e12

// ParseTickTime normalizes the timestamp shapes data sources emit into
// a UTC time.Time: unix seconds, unix milliseconds, or an ISO-8601
// string.
func ParseTickTime(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case float64:
		return fromUnix(v), nil
	case int64:
		return fromUnix(float64(v)), nil
	case int:
		return fromUnix(float64(v)), nil
	case string:
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return fromUnix(n), nil
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", v)
	default:
		return time.Time{}, fmt.Errorf("unrecognized timestamp type %T", raw)
	}
}

func fromUnix(v float64) time.Time {
	ms := int64(v)
	if v < millisecondFloor {
		ms = int64(v * 1000)
	}
	return time.UnixMilli(ms).UTC()
}

// SessionWindow is the daily span of market hours a tick must fall
// within to appear on an intraday series, observed in a configurable
// location.
type SessionWindow struct {
	Location *time.Location
	Open     int // minutes from local midnight, inclusive
	Close    int // minutes from local midnight, exclusive
}

// ParseSessionWindow builds a window from an IANA timezone name and
// "HH:MM" open and close times.
func ParseSessionWindow(tz, open, close string) (SessionWindow, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return SessionWindow{}, fmt.Errorf("invalid session timezone %q: %w", tz, err)
	}
	o, err := parseClock(open)
	if err != nil {
		return SessionWindow{}, fmt.Errorf("invalid session open: %w", err)
	}
	c, err := parseClock(close)
	if err != nil {
		return SessionWindow{}, fmt.Errorf("invalid session close: %w", err)
	}
	if c <= o {
		return SessionWindow{}, fmt.Errorf("session close %q is not after open %q", close, open)
	}
	return SessionWindow{Location: loc, Open: o, Close: c}, nil
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("want HH:MM, got %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Contains reports whether t falls on a weekday inside the window.
func (w SessionWindow) Contains(t time.Time) bool {
	local := t.In(w.Location)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minutes := local.Hour()*60 + local.Minute()
	return minutes >= w.Open && minutes < w.Close
}

// Projector turns intraday tick series into a sub-day net-worth series,
// using the replay engine for the opening state and the daily series
// for tickers without tick data.
type Projector struct {
	engine *Engine
	window SessionWindow
	ticks  map[string]*TickSeries
}

// NewProjector creates a projector over the engine's holdings.
func NewProjector(engine *Engine, window SessionWindow) *Projector {
	return &Projector{engine: engine, window: window, ticks: make(map[string]*TickSeries)}
}

// AddTicks registers the tick series of one ticker. The ticker must be
// in its normalized form.
func (p *Projector) AddTicks(ticker string, series *TickSeries) {
	if series != nil && series.Len() > 0 {
		p.ticks[ticker] = series
	}
}

// Project emits one point per distinct tick timestamp on or after
// 'from' that falls inside the session window. The opening state is the
// portfolio as of the first emitted date; trades and contributions of a
// date are applied in one batch on its first tick.
func (p *Projector) Project(from date.Date) []IntradayPoint {
	times := p.timeline(from)
	if len(times) == 0 {
		return nil
	}

	state := p.engine.StateAsOf(date.Of(times[0]))
	tradeCursor := 0
	for tradeCursor < len(p.engine.trades) && p.engine.trades[tradeCursor].Date.Before(date.Of(times[0])) {
		tradeCursor++
	}
	cursors := make(map[string]int, len(p.ticks))

	points := make([]IntradayPoint, 0, len(times))
	growth := 1.0
	var current date.Date
	for _, t := range times {
		if on := date.Of(t); on != current {
			current = on
			state.applyContribution(p.engine.contributions.CumulativeAt(on))

			start := tradeCursor
			for tradeCursor < len(p.engine.trades) && !p.engine.trades[tradeCursor].Date.After(on) {
				tradeCursor++
			}
			for _, trade := range p.engine.trades[start:tradeCursor] {
				state.applyTrades([]Trade{trade}, trade.Date, p.engine.prices)
			}
		}

		point := IntradayPoint{
			Time:         t,
			NetWorth:     round2(p.netWorthAt(state, t, cursors)),
			Contribution: round2(state.Contributed),
		}
		point.NetGain = round2(point.NetWorth - point.Contribution)

		if len(points) > 0 {
			prev := points[len(points)-1]
			growth = chainGrowth(growth,
				DataPoint{NetWorth: prev.NetWorth, Contribution: prev.Contribution},
				point.NetWorth, point.Contribution)
		}
		point.TWRR = round2((growth - 1) * 100)
		points = append(points, point)
	}
	return points
}

// timeline merges every registered tick timestamp into one sorted,
// deduplicated slice, keeping only session-window times on or after
// 'from'.
func (p *Projector) timeline(from date.Date) []time.Time {
	var times []time.Time
	for _, ticker := range slices.Sorted(maps.Keys(p.ticks)) {
		for t := range p.ticks[ticker].Times() {
			if date.Of(t).Before(from) || !p.window.Contains(t) {
				continue
			}
			times = append(times, t)
		}
	}
	slices.SortFunc(times, time.Time.Compare)
	return slices.CompactFunc(times, time.Time.Equal)
}

// netWorthAt values the state at a tick: each held ticker at its latest
// tick price at or before t, falling back to the daily as-of price when
// it has no tick data yet. Cursors advance monotonically because the
// timeline is sorted.
func (p *Projector) netWorthAt(state *ReplayState, t time.Time, cursors map[string]int) float64 {
	worth := state.Cash
	for ticker, pos := range state.Holdings() {
		price, ok := p.tickPrice(ticker, t, cursors)
		if !ok {
			price, ok = p.engine.prices.PriceAsOf(ticker, date.Of(t))
		}
		if !ok {
			continue
		}
		worth += pos.Shares * price
	}
	return worth
}

func (p *Projector) tickPrice(ticker string, t time.Time, cursors map[string]int) (float64, bool) {
	series, ok := p.ticks[ticker]
	if !ok {
		return 0, false
	}
	i := cursors[ticker]
	for i < len(series.times) && !series.times[i].After(t) {
		i++
	}
	cursors[ticker] = i
	if i == 0 {
		return 0, false
	}
	return series.prices[i-1], true
}
