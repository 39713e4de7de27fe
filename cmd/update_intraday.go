package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/folioscout/folioscout"
	"github.com/folioscout/folioscout/yahoo"
	"github.com/google/subcommands"
)

type updateIntradayCmd struct {
	interval string
}

func (*updateIntradayCmd) Name() string { return "update-intraday" }
func (*updateIntradayCmd) Synopsis() string {
	return "fetch intraday ticks from the quote provider"
}
func (*updateIntradayCmd) Usage() string {
	return `fsc update-intraday [-interval name]

  Fetches intraday ticks for every ticker in the ledger at the given
  granularity, or at all granularities when none is given. Old ticks
  beyond the interval's retention window are dropped.
`
}
func (c *updateIntradayCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.interval, "interval", "", "Tick granularity: quarterhourly, semihourly or hourly; empty for all")
}

func (c *updateIntradayCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := OpenConfig()
	if err != nil {
		return fail(err)
	}
	store, err := OpenStore(cfg)
	if err != nil {
		return fail(err)
	}
	trades, err := store.LoadTrades()
	if err != nil {
		return fail(err)
	}
	tickers := folioscout.Tickers(trades)
	if len(tickers) == 0 {
		return fail(fmt.Errorf("the trade ledger is empty, run 'fsc import' first"))
	}

	intervals := folioscout.Intervals()
	if c.interval != "" {
		interval, err := folioscout.ParseInterval(c.interval)
		if err != nil {
			return fail(err)
		}
		intervals = []folioscout.Interval{interval}
	}

	updater := &yahoo.Updater{Client: yahoo.NewClient(), Store: store, Config: cfg}
	for _, interval := range intervals {
		if err := updater.UpdateIntraday(ctx, tickers, interval); err != nil {
			return fail(err)
		}
	}
	fmt.Printf("Updated intraday ticks for %d tickers\n", len(tickers))
	return subcommands.ExitSuccess
}
