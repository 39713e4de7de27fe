package cmd

import (
	"context"
	"flag"

	"github.com/folioscout/folioscout"
	"github.com/folioscout/folioscout/date"
	"github.com/folioscout/folioscout/renderer"
	"github.com/google/subcommands"
)

type summaryCmd struct {
	from string
	to   string
}

func (*summaryCmd) Name() string { return "summary" }
func (*summaryCmd) Synopsis() string {
	return "print performance figures for the rebuilt series"
}
func (*summaryCmd) Usage() string {
	return `fsc summary [-from YYYY-MM-DD] [-to YYYY-MM-DD]

  Prints net worth, net gain and time-weighted returns since inception
  and over trailing windows, optionally restricted to a sub-range.
  Run 'fsc rebuild' first.
`
}
func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First day of the reporting range")
	f.StringVar(&c.to, "to", "", "Last day of the reporting range")
}

func (c *summaryCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	if c.from != "" {
		from, err := date.Parse(c.from)
		if err != nil {
			return fail(err)
		}
		for len(points) > 0 && points[0].Date.Before(from) {
			points = points[1:]
		}
	}
	if c.to != "" {
		to, err := date.Parse(c.to)
		if err != nil {
			return fail(err)
		}
		if i := folioscout.IndexAtOrBefore(points, to); i >= 0 {
			points = points[:i+1]
		} else {
			points = nil
		}
	}
	summary, err := folioscout.NewSummary(points)
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderer.SummaryMarkdown(summary, cfg.BaseCurrency))
	return subcommands.ExitSuccess
}
