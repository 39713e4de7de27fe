package yahoo

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/folioscout/folioscout"
	"github.com/folioscout/folioscout/date"
)

// usdToCAD is the chart symbol of the USD/CAD currency pair.
const usdToCAD = "CAD=X"

// refetchOverlapDays is how far incremental updates reach back before
// the last stored price, so late close adjustments are picked up.
const refetchOverlapDays = 7

// Updater refreshes the stored price histories for the tickers of the
// trade ledger.
type Updater struct {
	Client *Client
	Store  *folioscout.Store
	Config *folioscout.Config

	// Concurrency bounds the parallel symbol fetches. Zero means 4.
	Concurrency int
}

// ResolveSymbol maps a normalized ticker to the symbol the chart API
// expects: explicit overrides first, then the exchange suffix for TSX
// listings.
func (u *Updater) ResolveSymbol(ticker string) string {
	if symbol, ok := u.Config.SymbolOverrides[ticker]; ok {
		return symbol
	}
	if u.Config.IsCanadian(ticker) {
		return ticker + ".TO"
	}
	return ticker
}

func (u *Updater) concurrency() int {
	if u.Concurrency > 0 {
		return u.Concurrency
	}
	return 4
}

// UpdateDaily brings every ticker's daily history up to today. The
// fetch is incremental: it starts a few days before the last stored
// price, or at the configured start date for a fresh ticker.
func (u *Updater) UpdateDaily(ctx context.Context, tickers []string) error {
	book, err := u.Store.LoadPriceBook()
	if err != nil {
		return err
	}
	start, err := u.Config.Start()
	if err != nil {
		return err
	}
	if start.IsZero() {
		start = date.Today().Add(-5 * 365)
	}
	today := date.Today()

	// A failing ticker costs its own update, never the others'. The
	// group only bounds the fan-out.
	var failed atomic.Int32
	var g errgroup.Group
	g.SetLimit(u.concurrency())
	for _, ticker := range tickers {
		g.Go(func() error {
			from := start
			existing := book.History(ticker)
			if existing != nil && existing.Len() > 0 {
				last, _ := existing.Latest()
				from = last.Add(-refetchOverlapDays)
			}
			if from.After(today) {
				return nil
			}
			fetched, err := u.Client.DailyCloses(ctx, u.ResolveSymbol(ticker), from, today)
			if err != nil {
				log.Warn().Err(err).Str("ticker", ticker).Msg("daily update failed, keeping stored history")
				failed.Add(1)
				return nil
			}
			if existing == nil {
				existing = new(date.History[float64])
			}
			added := 0
			for on, price := range fetched.Values() {
				existing.Append(on, price)
				added++
			}
			log.Info().Str("ticker", ticker).Int("prices", added).Msg("daily history updated")
			if err := u.Store.SavePriceHistory(ticker, existing); err != nil {
				log.Warn().Err(err).Str("ticker", ticker).Msg("daily history not saved")
				failed.Add(1)
			}
			return nil
		})
	}
	g.Wait()
	if n := failed.Load(); n > 0 {
		log.Warn().Int32("tickers", n).Msg("daily update incomplete")
	}
	return nil
}

// UpdateIntraday merges fresh sub-day observations for every ticker at
// one interval, keeping the interval's retention window.
func (u *Updater) UpdateIntraday(ctx context.Context, tickers []string, interval folioscout.Interval) error {
	var failed atomic.Int32
	var g errgroup.Group
	g.SetLimit(u.concurrency())
	for _, ticker := range tickers {
		g.Go(func() error {
			fetched, err := u.Client.Intraday(ctx, u.ResolveSymbol(ticker), interval)
			if err != nil {
				log.Warn().Err(err).Str("ticker", ticker).Str("interval", interval.Name).Msg("intraday update failed, keeping stored ticks")
				failed.Add(1)
				return nil
			}
			existing, err := u.Store.LoadTicks(interval, ticker)
			if err != nil {
				log.Warn().Err(err).Str("ticker", ticker).Str("interval", interval.Name).Msg("stored ticks unreadable, refetching from scratch")
				existing = new(folioscout.TickSeries)
			}
			for t := range fetched.Times() {
				price, _ := fetched.AsOf(t)
				existing.Append(t, price)
			}
			log.Info().Str("ticker", ticker).Str("interval", interval.Name).
				Int("ticks", fetched.Len()).Msg("intraday history updated")
			if err := u.Store.SaveTicks(interval, ticker, existing); err != nil {
				log.Warn().Err(err).Str("ticker", ticker).Msg("intraday history not saved")
				failed.Add(1)
			}
			return nil
		})
	}
	g.Wait()
	if n := failed.Load(); n > 0 {
		log.Warn().Int32("tickers", n).Msg("intraday update incomplete")
	}
	return nil
}

// UpdateFx records today's USD conversion rate.
func (u *Updater) UpdateFx(ctx context.Context) error {
	rate, err := u.Client.Quote(ctx, usdToCAD)
	if err != nil {
		return fmt.Errorf("update forex: %w", err)
	}
	return u.Store.SaveFxRate(date.Today(), rate)
}
