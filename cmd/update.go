package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/folioscout/folioscout"
	"github.com/folioscout/folioscout/yahoo"
	"github.com/google/subcommands"
)

type updateCmd struct {
	skipFx bool
}

func (*updateCmd) Name() string { return "update" }
func (*updateCmd) Synopsis() string {
	return "fetch daily closes and the exchange rate from the quote provider"
}
func (*updateCmd) Usage() string {
	return `fsc update [-no-fx]

  Fetches daily closing prices for every ticker in the ledger, starting
  where the stored history ends, and refreshes the USD exchange rate.
`
}
func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.skipFx, "no-fx", false, "Skip the exchange rate refresh")
}

func (c *updateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	updater := &yahoo.Updater{Client: yahoo.NewClient(), Store: store, Config: cfg}
	if err := updater.UpdateDaily(ctx, tickers); err != nil {
		return fail(err)
	}
	if !c.skipFx {
		if err := updater.UpdateFx(ctx); err != nil {
			return fail(err)
		}
	}
	fmt.Printf("Updated daily prices for %d tickers\n", len(tickers))
	return subcommands.ExitSuccess
}
