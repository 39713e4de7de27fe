package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/folioscout/folioscout"
	"github.com/folioscout/folioscout/nbdb"
	"github.com/folioscout/folioscout/renderer"
	"github.com/folioscout/folioscout/wealthsimple"
	"github.com/google/subcommands"
	"github.com/phuslu/log"
)

type contributionsCmd struct {
	nbdbDir string
	wsDir   string
}

func (*contributionsCmd) Name() string { return "contributions" }
func (*contributionsCmd) Synopsis() string {
	return "rebuild the contribution ledger from broker exports"
}
func (*contributionsCmd) Usage() string {
	return `fsc contributions [-nbdb dir] [-wealthsimple dir]

  Extracts deposits and withdrawals from broker exports and writes the
  merged contribution ledger to the data directory.
`
}
func (c *contributionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.nbdbDir, "nbdb", "", "Folder of National Bank Direct Brokerage CSV exports")
	f.StringVar(&c.wsDir, "wealthsimple", "", "Folder of Wealthsimple monthly statement CSV exports")
}

func (c *contributionsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.nbdbDir == "" && c.wsDir == "" {
		fmt.Println("at least one of -nbdb or -wealthsimple is required")
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

	var flows []folioscout.Cashflow
	sources := make(map[string][]folioscout.Cashflow)
	if c.nbdbDir != "" {
		res, err := nbdb.ImportDir(c.nbdbDir, fx)
		if err != nil {
			return fail(fmt.Errorf("importing nbdb exports: %w", err))
		}
		log.Info().Str("dir", c.nbdbDir).Int("cashflows", len(res.Cashflows)).Msg("imported nbdb cashflows")
		sources["nbdb"] = res.Cashflows
		flows = append(flows, res.Cashflows...)
	}
	if c.wsDir != "" {
		ws, err := wealthsimple.ImportCashflowDir(c.wsDir, fx)
		if err != nil {
			return fail(fmt.Errorf("importing wealthsimple cashflows: %w", err))
		}
		log.Info().Str("dir", c.wsDir).Int("cashflows", len(ws)).Msg("imported wealthsimple cashflows")
		sources["wealthsimple"] = ws
		flows = append(flows, ws...)
	}

	sort.SliceStable(flows, func(i, j int) bool { return flows[i].Date.Before(flows[j].Date) })
	if err := store.SaveCashflows(flows); err != nil {
		return fail(err)
	}
	renderer.WriteCashflowTotals(os.Stdout, sources, cfg.BaseCurrency)
	fmt.Printf("Wrote %d cashflows to %s\n", len(flows), store.Dir())
	return subcommands.ExitSuccess
}
