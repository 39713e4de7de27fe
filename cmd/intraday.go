package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/folioscout/folioscout"
	"github.com/folioscout/folioscout/date"
	"github.com/folioscout/folioscout/renderer"
	"github.com/google/subcommands"
	"github.com/phuslu/log"
)

type intradayCmd struct {
	interval string
	from     string
	tail     int
}

func (*intradayCmd) Name() string { return "intraday" }
func (*intradayCmd) Synopsis() string {
	return "project the net-worth series at intraday resolution"
}
func (*intradayCmd) Usage() string {
	return `fsc intraday [-interval name] [-from YYYY-MM-DD] [-tail n]

  Projects net worth over stored intraday ticks, one point per tick
  time inside market hours, and writes the series next to the daily
  one. Run 'fsc update-intraday' first to fetch ticks.
`
}
func (c *intradayCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.interval, "interval", folioscout.Hourly.Name, "Tick granularity: quarterhourly, semihourly or hourly")
	f.StringVar(&c.from, "from", "", "First day to project, defaults to the interval's retention window")
	f.IntVar(&c.tail, "tail", 10, "Number of trailing rows to print, 0 for none")
}

func (c *intradayCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := OpenConfig()
	if err != nil {
		return fail(err)
	}
	interval, err := folioscout.ParseInterval(c.interval)
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
	window, err := cfg.Window()
	if err != nil {
		return fail(err)
	}

	from := date.Today().Add(-interval.KeepDays)
	if c.from != "" {
		if from, err = date.Parse(c.from); err != nil {
			return fail(err)
		}
	}

	trades, err := store.LoadTrades()
	if err != nil {
		return fail(err)
	}
	projector := folioscout.NewProjector(engine, window)
	for _, ticker := range folioscout.Tickers(trades) {
		ticks, err := store.LoadTicks(interval, ticker)
		if err != nil {
			return fail(err)
		}
		if ticks.Len() == 0 {
			log.Debug().Str("ticker", ticker).Msg("no ticks stored, daily prices will be used")
			continue
		}
		projector.AddTicks(ticker, ticks)
	}

	points := projector.Project(from)
	if len(points) == 0 {
		return fail(fmt.Errorf("no ticks inside market hours since %s", from))
	}
	if err := store.WriteIntraday(interval, points); err != nil {
		return fail(err)
	}
	log.Info().Str("interval", interval.Name).Int("points", len(points)).Msg("intraday series projected")

	if c.tail > 0 {
		renderer.WriteIntradayTable(os.Stdout, points, c.tail, cfg.BaseCurrency)
	}
	return subcommands.ExitSuccess
}
