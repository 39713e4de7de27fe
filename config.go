package folioscout

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/folioscout/folioscout/date"
)

// Config is the file-backed configuration of the tool. Every field has
// a usable default so a missing config file is not an error.
type Config struct {
	// DataDir is where ledgers, price histories and generated series live.
	DataDir string `toml:"data_dir"`

	// BaseCurrency is the reporting currency. Foreign amounts are
	// converted into it at import time.
	BaseCurrency string `toml:"base_currency"`

	// DefaultFxRate converts USD amounts when no dated rate is known.
	DefaultFxRate float64 `toml:"default_fx_rate"`

	// StartDate clips the daily series; empty means full history.
	StartDate string `toml:"start_date"`

	// CanadianTickers lists symbols quoted on the TSX, fetched with
	// their exchange suffix.
	CanadianTickers []string `toml:"canadian_tickers"`

	// SymbolOverrides maps a normalized ticker to the exact symbol the
	// quote provider expects.
	SymbolOverrides map[string]string `toml:"symbol_overrides"`

	// WealthsimpleSources orders the export folders to try; the first
	// one holding data for a month wins.
	WealthsimpleSources []string `toml:"wealthsimple_sources"`

	Session SessionConfig `toml:"session"`
	Chart   ChartConfig   `toml:"chart"`
}

// SessionConfig describes market hours for intraday series.
type SessionConfig struct {
	Timezone string `toml:"timezone"`
	Open     string `toml:"open"`
	Close    string `toml:"close"`
}

// ChartConfig sizes the rendered net-worth chart.
type ChartConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *Config {
	return &Config{
		DataDir:             "data",
		BaseCurrency:        "CAD",
		DefaultFxRate:       1.35,
		CanadianTickers:     nil,
		SymbolOverrides:     map[string]string{},
		WealthsimpleSources: []string{"activities", "monthly"},
		Session: SessionConfig{
			Timezone: "America/Edmonton",
			Open:     "07:30",
			Close:    "14:00",
		},
		Chart: ChartConfig{Width: 1280, Height: 720},
	}
}

// LoadConfig reads a TOML config file over the defaults. A missing file
// yields the defaults; a malformed one is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read config %q: %w", path, err)
	}
	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config %q: %w", path, err)
	}
	return cfg, nil
}

// Start returns the configured start date, zero when unset.
func (c *Config) Start() (date.Date, error) {
	if c.StartDate == "" {
		return date.Date{}, nil
	}
	on, err := date.Parse(c.StartDate)
	if err != nil {
		return date.Date{}, fmt.Errorf("invalid start_date: %w", err)
	}
	return on, nil
}

// Window builds the intraday session window from the config.
func (c *Config) Window() (SessionWindow, error) {
	return ParseSessionWindow(c.Session.Timezone, c.Session.Open, c.Session.Close)
}

// IsCanadian reports whether a normalized ticker trades on the TSX.
func (c *Config) IsCanadian(ticker string) bool {
	for _, t := range c.CanadianTickers {
		if t == ticker {
			return true
		}
	}
	return false
}
