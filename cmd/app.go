// Package cmd implements the CLI application to rebuild and inspect a
// portfolio's net-worth history.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/folioscout/folioscout"
	"github.com/google/subcommands"
	"github.com/phuslu/log"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&importCmd{}, "ledger")
	c.Register(&contributionsCmd{}, "ledger")

	c.Register(&updateCmd{}, "market data")
	c.Register(&updateIntradayCmd{}, "market data")

	c.Register(&rebuildCmd{}, "series")
	c.Register(&intradayCmd{}, "series")

	c.Register(&summaryCmd{}, "reports")
	c.Register(&holdingsCmd{}, "reports")
	c.Register(&chartCmd{}, "reports")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "folioscout.toml", "Path to the configuration file (TOML format)")
var dataDir = flag.String("data", "", "Data directory, overrides the configured one")
var verbose = flag.Bool("v", false, "Enable debug logging")

func init() {
	log.DefaultLogger = log.Logger{
		Level:  log.InfoLevel,
		Writer: &log.ConsoleWriter{ColorOutput: true},
	}
}

// OpenConfig is the central function to load the app configuration.
func OpenConfig() (*folioscout.Config, error) {
	if *verbose {
		log.DefaultLogger.Level = log.DebugLevel
	}
	return folioscout.LoadConfig(*configFile)
}

// OpenStore opens the configured data directory.
func OpenStore(cfg *folioscout.Config) (*folioscout.Store, error) {
	dir := cfg.DataDir
	if *dataDir != "" {
		dir = *dataDir
	}
	return folioscout.NewStore(dir)
}

// OpenEngine loads trades, contributions and prices into a replay engine.
func OpenEngine(store *folioscout.Store) (*folioscout.Engine, error) {
	trades, err := store.LoadTrades()
	if err != nil {
		return nil, fmt.Errorf("loading trades: %w", err)
	}
	flows, err := store.LoadCashflows()
	if err != nil {
		return nil, fmt.Errorf("loading contributions: %w", err)
	}
	prices, err := store.LoadPriceBook()
	if err != nil {
		return nil, fmt.Errorf("loading prices: %w", err)
	}
	return folioscout.NewEngine(trades, folioscout.NewContributionLedger(flows), prices), nil
}

// printMarkdown renders markdown for the terminal. When rendering
// fails the raw markdown is printed instead.
func printMarkdown(markdown string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(0))
	if err != nil {
		fmt.Print(markdown)
		return
	}
	out, err := r.Render(markdown)
	if err != nil {
		fmt.Print(markdown)
		return
	}
	fmt.Print(out)
}

// fail reports a command error and translates it to an exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, "Error:", err)
	return subcommands.ExitFailure
}
