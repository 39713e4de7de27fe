package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/folioscout/folioscout/renderer"
	"github.com/google/subcommands"
)

type chartCmd struct {
	out string
}

func (*chartCmd) Name() string { return "chart" }
func (*chartCmd) Synopsis() string {
	return "render the daily net-worth series as a PNG chart"
}
func (*chartCmd) Usage() string {
	return `fsc chart [-o file]

  Renders net worth over cumulative contributions as a line chart.
  Run 'fsc rebuild' first.
`
}
func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", "networth.png", "Output PNG file")
}

func (c *chartCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := OpenConfig()
	if err != nil {
		return fail(err)
	}
	store, err := OpenStore(cfg)
	if err != nil {
		return fail(err)
	}
	points, err := store.LoadNetWorth()
	if err != nil {
		return fail(err)
	}

	png, err := renderer.NetWorthChart(points, renderer.ChartOptions{
		Width:  cfg.Chart.Width,
		Height: cfg.Chart.Height,
	})
	if err != nil {
		return fail(err)
	}
	if err := os.WriteFile(c.out, png, 0o644); err != nil {
		return fail(err)
	}
	fmt.Printf("Wrote %s (%d points)\n", c.out, len(points))
	return subcommands.ExitSuccess
}
