package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/folioscout/folioscout/renderer"
	"github.com/google/subcommands"
	"github.com/phuslu/log"
)

type rebuildCmd struct {
	tail int
}

func (*rebuildCmd) Name() string { return "rebuild" }
func (*rebuildCmd) Synopsis() string {
	return "replay the ledger into the daily net-worth series"
}
func (*rebuildCmd) Usage() string {
	return `fsc rebuild [-tail n]

  Replays trades and contributions against stored prices, writes the
  daily net-worth series and prints its last rows.
`
}
func (c *rebuildCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.tail, "tail", 10, "Number of trailing rows to print, 0 for none")
}

func (c *rebuildCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := OpenConfig()
	if err != nil {
		return fail(err)
	}
	store, err := OpenStore(cfg)
	if err != nil {
		return fail(err)
	}
	engine, err := OpenEngine(store)
	if err != nil {
		return fail(err)
	}

	start, err := cfg.Start()
	if err != nil {
		return fail(err)
	}
	days := engine.Timeline(start)
	if len(days) == 0 {
		return fail(fmt.Errorf("nothing to replay: ledger and contributions are empty"))
	}
	points := engine.Replay(days)
	if err := store.WriteNetWorth(points); err != nil {
		return fail(err)
	}
	log.Info().Int("days", len(points)).Stringer("from", points[0].Date).Stringer("to", points[len(points)-1].Date).Msg("series rebuilt")

	if c.tail > 0 {
		renderer.WriteSeriesTable(os.Stdout, points, c.tail, cfg.BaseCurrency)
	}
	last := points[len(points)-1]
	fmt.Printf("Net worth %.2f %s, net gain %.2f, TWRR %+.2f%% since %s\n",
		last.NetWorth, cfg.BaseCurrency, last.NetGain, last.TWRR, points[0].Date)
	return subcommands.ExitSuccess
}
