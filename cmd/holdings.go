package cmd

import (
	"context"
	"flag"
	"os"

	"github.com/folioscout/folioscout"
	"github.com/folioscout/folioscout/date"
	"github.com/folioscout/folioscout/renderer"
	"github.com/google/subcommands"
)

type holdingsCmd struct {
	on string
}

func (*holdingsCmd) Name() string { return "holdings" }
func (*holdingsCmd) Synopsis() string {
	return "print the positions held on a given day"
}
func (*holdingsCmd) Usage() string {
	return `fsc holdings [-date YYYY-MM-DD]

  Replays the ledger up to the given day (today by default) and prints
  each position with its market value, plus the cash balance.
`
}
func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.on, "date", "", "Day to inspect, defaults to today")
}

func (c *holdingsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := OpenConfig()
	if err != nil {
		return fail(err)
	}
	store, err := OpenStore(cfg)
	if err != nil {
		return fail(err)
	}

	on := date.Today()
	if c.on != "" {
		if on, err = date.Parse(c.on); err != nil {
			return fail(err)
		}
	}

	trades, err := store.LoadTrades()
	if err != nil {
		return fail(err)
	}
	flows, err := store.LoadCashflows()
	if err != nil {
		return fail(err)
	}
	prices, err := store.LoadPriceBook()
	if err != nil {
		return fail(err)
	}

	engine := folioscout.NewEngine(trades, folioscout.NewContributionLedger(flows), prices)
	// End-of-day state, so trades dated exactly 'on' are included.
	state := engine.StateAsOf(on.Add(1))
	renderer.WriteHoldingsTable(os.Stdout, state, prices, on, cfg.BaseCurrency)
	return subcommands.ExitSuccess
}
