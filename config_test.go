package folioscout

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseCurrency != "CAD" || cfg.DefaultFxRate != 1.35 {
		t.Errorf("defaults = %+v", cfg)
	}
	if on, err := cfg.Start(); err != nil || !on.IsZero() {
		t.Errorf("default start = %v, %v; want zero", on, err)
	}
	if _, err := cfg.Window(); err != nil {
		t.Errorf("default session window: %v", err)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folioscout.toml")
	content := `
data_dir = "/tmp/folio"
start_date = "2021-06-01"
canadian_tickers = ["SHOP", "ENB"]

[symbol_overrides]
"BRK-B" = "BRK-B"

[session]
timezone = "America/Toronto"
open = "09:30"
close = "16:00"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataDir != "/tmp/folio" {
		t.Errorf("data_dir = %q", cfg.DataDir)
	}
	if cfg.DefaultFxRate != 1.35 {
		t.Errorf("unset field lost its default: %v", cfg.DefaultFxRate)
	}
	if on, err := cfg.Start(); err != nil || on != day("2021-06-01") {
		t.Errorf("start = %v, %v", on, err)
	}
	if !cfg.IsCanadian("SHOP") || cfg.IsCanadian("AAPL") {
		t.Error("canadian ticker lookup broken")
	}
	w, err := cfg.Window()
	if err != nil {
		t.Fatal(err)
	}
	if w.Open != 9*60+30 || w.Close != 16*60 {
		t.Errorf("window = %+v", w)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folioscout.toml")
	if err := os.WriteFile(path, []byte("data_dir = [not toml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("want error on malformed config")
	}
}
