package folioscout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/folioscout/folioscout/date"
)

// Side is the direction of a trade.
type Side string

const (
	// Buy converts cash into shares.
	Buy Side = "BUY"
	// Sell converts shares back into cash.
	Sell Side = "SELL"
)

// ParseSide parses a string into a Side.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	default:
		return "", fmt.Errorf("unknown trade side: %q", s)
	}
}

// Trade is a single normalized buy or sell, expressed as a currency
// amount (not a share count): the share delta is derived at replay time
// from the price on the trade date.
type Trade struct {
	Ticker string    `json:"ticker"`
	Date   date.Date `json:"date"`
	Side   Side      `json:"side"`
	Amount float64   `json:"amount"`
}

// NormalizeTicker maps brokerage ticker variants to the canonical form
// used across price files and replay.
func NormalizeTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	switch t {
	case "GOOGL":
		return "GOOG"
	case "BRKB":
		return "BRK-B"
	}
	return t
}

// NormalizeTrades validates and canonicalizes raw trade records.
// Invalid rows (empty ticker, unknown side, non-positive amount, zero
// date) are dropped here, never at replay time. The result is sorted by
// date; same-day trades keep their relative source order. It returns
// the kept trades and the number of dropped rows.
func NormalizeTrades(raw []Trade) (trades []Trade, dropped int) {
	trades = make([]Trade, 0, len(raw))
	for _, t := range raw {
		t.Ticker = NormalizeTicker(t.Ticker)
		side, err := ParseSide(string(t.Side))
		if err != nil || t.Ticker == "" || t.Date.IsZero() || t.Amount <= 0 {
			dropped++
			continue
		}
		t.Side = side
		trades = append(trades, t)
	}
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Date.Before(trades[j].Date)
	})
	return trades, dropped
}

// Tickers returns the sorted set of distinct tickers appearing in trades.
func Tickers(trades []Trade) []string {
	seen := make(map[string]struct{})
	for _, t := range trades {
		seen[t.Ticker] = struct{}{}
	}
	tickers := make([]string, 0, len(seen))
	for ticker := range seen {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers
}
