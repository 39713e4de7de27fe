// Package wealthsimple imports Wealthsimple export CSVs. Two formats
// exist in the wild: the activities export (one row per activity, with
// explicit columns) and the older monthly statements (trade details
// buried in a description column). A configured, ordered list of export
// folders decides which format to read; the first folder holding data
// wins, so overlapping exports are never merged.
package wealthsimple

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/phuslu/log"
	"github.com/shopspring/decimal"

	"github.com/folioscout/folioscout"
	"github.com/folioscout/folioscout/date"
)

// Result is the typed outcome of one import.
type Result struct {
	Trades    []folioscout.Trade
	Cashflows []folioscout.Cashflow
	Skipped   int
	Source    string // folder the data actually came from
}

func (r *Result) merge(other Result) {
	r.Trades = append(r.Trades, other.Trades...)
	r.Cashflows = append(r.Cashflows, other.Cashflows...)
	r.Skipped += other.Skipped
}

// statementDescription captures ticker and side from the prose of a
// monthly statement row, e.g.
// "TMF - Direxion Daily...: Bought 3.0000 shares (executed at 2022-12-29)".
var statementDescription = regexp.MustCompile(
	`^(?i)([A-Za-z0-9.\-]+)\s*-.*?:\s*(Bought|Sold)\s+[0-9.]+\s+shares?(?:.*?\(executed at (\d{4}-\d{2}-\d{2})\))?`)

// ImportDir reads the first export folder under root that holds CSV
// files, trying them in the configured order. Folders whose name starts
// with "activities" are read as activities exports, everything else as
// monthly statements.
func ImportDir(root string, order []string, fx *folioscout.FxRates) (Result, error) {
	for _, name := range order {
		dir := filepath.Join(root, name)
		paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
		if err != nil {
			return Result{}, err
		}
		if len(paths) == 0 {
			continue
		}
		sort.Strings(paths)

		parser := parseStatements
		if strings.HasPrefix(filepath.Base(name), "activities") {
			parser = parseActivities
		}
		result := Result{Source: name}
		for _, path := range paths {
			f, err := os.Open(path)
			if err != nil {
				return result, err
			}
			one, err := parser(f, fx)
			f.Close()
			if err != nil {
				return result, fmt.Errorf("wealthsimple %s: %w", filepath.Base(path), err)
			}
			result.merge(one)
		}
		log.Info().Str("source", name).Int("trades", len(result.Trades)).Msg("wealthsimple export read")
		return result, nil
	}
	return Result{}, nil
}

// parseActivities reads the activities export: explicit columns, ISO
// dates, trades only.
func parseActivities(r io.Reader, fx *folioscout.FxRates) (Result, error) {
	var result Result
	return result, forEachRecord(r, ',', func(field func(string) string) {
		if field("activity_type") != "Trade" {
			return
		}
		side, err := folioscout.ParseSide(field("activity_sub_type"))
		if err != nil {
			return
		}
		on, err := date.Parse(field("transaction_date"))
		if err != nil {
			result.Skipped++
			return
		}
		ticker := folioscout.NormalizeTicker(field("symbol"))
		amount, err := parseAmount(field("net_cash_amount"))
		if err != nil || ticker == "" {
			result.Skipped++
			return
		}
		if strings.EqualFold(field("currency"), "USD") {
			amount = cents(amount * fx.RateAt(on))
		}
		result.Trades = append(result.Trades, folioscout.Trade{
			Ticker: ticker, Date: on, Side: side, Amount: amount,
		})
	})
}

// parseStatements reads the older monthly statement export: trades are
// recovered from the description column, cash flows from the
// transaction type.
func parseStatements(r io.Reader, fx *folioscout.FxRates) (Result, error) {
	var result Result
	return result, forEachRecord(r, ',', func(field func(string) string) {
		tx := strings.ToUpper(field("transaction"))
		switch tx {
		case "BUY", "SELL":
			m := statementDescription.FindStringSubmatch(field("description"))
			if m == nil {
				result.Skipped++
				return
			}
			// The execution date inside the description beats the
			// posting date of the row.
			dateText := m[3]
			if dateText == "" {
				dateText = field("date")
			}
			on, err := date.Parse(dateText)
			if err != nil {
				result.Skipped++
				return
			}
			amount, err := parseAmount(field("amount"))
			if err != nil {
				result.Skipped++
				return
			}
			if strings.EqualFold(field("currency"), "USD") {
				amount = cents(amount * fx.RateAt(on))
			}
			side := folioscout.Buy
			if tx == "SELL" {
				side = folioscout.Sell
			}
			result.Trades = append(result.Trades, folioscout.Trade{
				Ticker: folioscout.NormalizeTicker(m[1]), Date: on, Side: side, Amount: amount,
			})

		case "CONT", "TRFIN", "TRFOUT", "WD":
			on, err := date.Parse(field("date"))
			if err != nil {
				result.Skipped++
				return
			}
			amount, err := parseAmount(field("amount"))
			if err != nil {
				result.Skipped++
				return
			}
			if strings.EqualFold(field("currency"), "USD") {
				amount = cents(amount * fx.RateAt(on))
			}
			if tx == "TRFOUT" || tx == "WD" {
				amount = -amount
			}
			result.Cashflows = append(result.Cashflows, folioscout.Cashflow{Date: on, Amount: amount})
		}
	})
}

// ImportCashflowDir reads only the external cash flows of a statement
// folder, for accounts whose trades come from elsewhere.
func ImportCashflowDir(dir string, fx *folioscout.FxRates) ([]folioscout.Cashflow, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	var flows []folioscout.Cashflow
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		result, err := parseStatements(f, fx)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("wealthsimple %s: %w", filepath.Base(path), err)
		}
		flows = append(flows, result.Cashflows...)
	}
	return flows, nil
}

// forEachRecord streams a headered CSV, handing each row to fn as a
// column lookup by lower-cased header name.
func forEachRecord(r io.Reader, comma rune, fn func(field func(string) string)) error {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		fn(func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(strings.Trim(strings.TrimSpace(record[i]), `"`))
		})
	}
}

func parseAmount(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d.Abs().InexactFloat64(), nil
}

// cents rounds a converted amount to currency precision.
func cents(v float64) float64 { return math.Round(v*100) / 100 }
