package folioscout

import (
	"iter"
	"maps"
	"slices"

	"github.com/folioscout/folioscout/date"
)

// PriceBook holds the daily price history of every known ticker.
type PriceBook struct {
	series map[string]*date.History[float64]
}

// NewPriceBook returns an empty price book.
func NewPriceBook() *PriceBook {
	return &PriceBook{series: make(map[string]*date.History[float64])}
}

// Add records a price for a ticker on a day. A price already recorded
// for that day is overwritten (last write wins).
func (b *PriceBook) Add(ticker string, on date.Date, price float64) {
	h, ok := b.series[ticker]
	if !ok {
		h = new(date.History[float64])
		b.series[ticker] = h
	}
	h.Append(on, price)
}

// SetHistory installs a whole price series for a ticker.
func (b *PriceBook) SetHistory(ticker string, h *date.History[float64]) {
	b.series[ticker] = h
}

// History returns the price series of a ticker, or nil if unknown.
func (b *PriceBook) History(ticker string) *date.History[float64] {
	return b.series[ticker]
}

// PriceAsOf returns the price of a ticker on a day, or the most recent
// price before it. The boolean is false when the ticker has no data at
// or before the day; callers must treat that as "absent", distinct from
// a zero price.
func (b *PriceBook) PriceAsOf(ticker string, on date.Date) (float64, bool) {
	h, ok := b.series[ticker]
	if !ok {
		return 0, false
	}
	return h.ValueAsOf(on)
}

// Tickers iterates over the tickers of the book in sorted order.
func (b *PriceBook) Tickers() iter.Seq[string] {
	return func(yield func(string) bool) {
		tickers := slices.Collect(maps.Keys(b.series))
		slices.Sort(tickers)
		for _, ticker := range tickers {
			if !yield(ticker) {
				return
			}
		}
	}
}

// Histories iterates over all price series, sorted by ticker.
func (b *PriceBook) Histories() iter.Seq2[string, *date.History[float64]] {
	return func(yield func(string, *date.History[float64]) bool) {
		for ticker := range b.Tickers() {
			if !yield(ticker, b.series[ticker]) {
				return
			}
		}
	}
}

// FxRates converts foreign-currency cash events to the base currency.
// It uses the same as-of policy as prices, but conversion never fails:
// when no rate exists at or before the date, a configured fallback rate
// is used. A stale default is preferred over blocking ingestion.
type FxRates struct {
	history  date.History[float64]
	fallback float64
}

// NewFxRates returns an empty rate series with the given fallback.
func NewFxRates(fallback float64) *FxRates {
	return &FxRates{fallback: fallback}
}

// Add records a rate for a day.
func (f *FxRates) Add(on date.Date, rate float64) { f.history.Append(on, rate) }

// RateAt returns the conversion rate as of a day, falling back to the
// default rate when no history exists at or before it.
func (f *FxRates) RateAt(on date.Date) float64 {
	rate, ok := f.history.ValueAsOf(on)
	if !ok || rate <= 0 {
		return f.fallback
	}
	return rate
}

// Len returns the number of recorded rates.
func (f *FxRates) Len() int { return f.history.Len() }
