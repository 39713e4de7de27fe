package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/folioscout/folioscout"
	"github.com/folioscout/folioscout/nbdb"
	"github.com/folioscout/folioscout/rbc"
	"github.com/folioscout/folioscout/wealthsimple"
	"github.com/google/subcommands"
	"github.com/phuslu/log"
)

type importCmd struct {
	nbdbDir string
	wsDir   string
	rbcDir  string
}

func (*importCmd) Name() string { return "import" }
func (*importCmd) Synopsis() string {
	return "rebuild the trade ledger from broker exports"
}
func (*importCmd) Usage() string {
	return `fsc import [-nbdb dir] [-wealthsimple dir] [-rbc dir]

  Parses broker exports, normalizes the trades and writes the merged
  ledger to the data directory. Each run replaces the ledger, so pass
  every source you want included.
`
}
func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.nbdbDir, "nbdb", "", "Folder of National Bank Direct Brokerage CSV exports")
	f.StringVar(&c.wsDir, "wealthsimple", "", "Root folder of Wealthsimple exports")
	f.StringVar(&c.rbcDir, "rbc", "", "Folder of RBC PDF statements")
}

func (c *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.nbdbDir == "" && c.wsDir == "" && c.rbcDir == "" {
		fmt.Println("at least one of -nbdb, -wealthsimple or -rbc is required")
		return subcommands.ExitUsageError
	}

	cfg, err := OpenConfig()
	if err != nil {
		return fail(err)
	}
	store, err := OpenStore(cfg)
	if err != nil {
		return fail(err)
	}
	fx, err := store.LoadFxRates(cfg.DefaultFxRate)
	if err != nil {
		return fail(err)
	}

	var trades []folioscout.Trade
	if c.nbdbDir != "" {
		res, err := nbdb.ImportDir(c.nbdbDir, fx)
		if err != nil {
			return fail(fmt.Errorf("importing nbdb exports: %w", err))
		}
		log.Info().Str("dir", c.nbdbDir).Int("trades", len(res.Trades)).Msg("imported nbdb exports")
		trades = append(trades, res.Trades...)
	}
	if c.wsDir != "" {
		res, err := wealthsimple.ImportDir(c.wsDir, cfg.WealthsimpleSources, fx)
		if err != nil {
			return fail(fmt.Errorf("importing wealthsimple exports: %w", err))
		}
		log.Info().Str("source", res.Source).Int("trades", len(res.Trades)).Msg("imported wealthsimple exports")
		trades = append(trades, res.Trades...)
	}
	if c.rbcDir != "" {
		res, err := rbc.ImportDir(c.rbcDir, cfg.DefaultFxRate)
		if err != nil {
			return fail(fmt.Errorf("importing rbc statements: %w", err))
		}
		log.Info().Int("statements", res.Statements).Int("trades", len(res.Trades)).Msg("imported rbc statements")
		trades = append(trades, res.Trades...)
	}

	normalized, dropped := folioscout.NormalizeTrades(trades)
	if err := store.SaveTrades(normalized); err != nil {
		return fail(err)
	}
	fmt.Printf("Wrote %d trades (%d dropped) to %s\n", len(normalized), dropped, store.Dir())
	return subcommands.ExitSuccess
}
