// Package nbdb imports National Bank Direct Brokerage activity
// exports: semicolon-delimited CSVs with DD/MM/YYYY dates and amounts
// that may be quoted in USD.
package nbdb

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/folioscout/folioscout"
	"github.com/folioscout/folioscout/date"
)

const dateFormat = "02/01/2006"

// Result is the typed outcome of one import: trades and external cash
// flows, already converted to the base currency.
type Result struct {
	Trades    []folioscout.Trade
	Cashflows []folioscout.Cashflow
	Skipped   int // rows dropped for missing date, symbol or amount
}

func (r *Result) merge(other Result) {
	r.Trades = append(r.Trades, other.Trades...)
	r.Cashflows = append(r.Cashflows, other.Cashflows...)
	r.Skipped += other.Skipped
}

// ImportDir parses every CSV in a folder, in name order.
func ImportDir(dir string, fx *folioscout.FxRates) (Result, error) {
	var result Result
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return result, err
	}
	sort.Strings(paths)
	for _, path := range paths {
		one, err := ImportFile(path, fx)
		if err != nil {
			return result, fmt.Errorf("nbdb %s: %w", filepath.Base(path), err)
		}
		result.merge(one)
	}
	return result, nil
}

// ImportFile parses one activity export.
func ImportFile(path string, fx *folioscout.FxRates) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()
	return parse(f, fx)
}

func parse(r io.Reader, fx *folioscout.FxRates) (Result, error) {
	var result Result
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return result, nil
	}
	if err != nil {
		return result, err
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(clean(name))] = i
	}
	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return clean(record[i])
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, err
		}

		op := field(record, "operation")
		isTrade := op == "Buy" || op == "Sell"
		isCashflow := op == "Contribution" || op == "Withdrawal"
		if !isTrade && !isCashflow {
			continue
		}

		on, err := parseDate(field(record, "trade date"))
		if err != nil {
			result.Skipped++
			continue
		}
		amount, err := parseAmount(field(record, "net amount"))
		if err != nil {
			result.Skipped++
			continue
		}
		if isUSD(field(record, "currency"), field(record, "market"), field(record, "account description")) {
			amount = cents(amount * fx.RateAt(on))
		}

		switch op {
		case "Buy", "Sell":
			ticker := folioscout.NormalizeTicker(field(record, "symbol"))
			if ticker == "" {
				result.Skipped++
				continue
			}
			side := folioscout.Buy
			if op == "Sell" {
				side = folioscout.Sell
			}
			result.Trades = append(result.Trades, folioscout.Trade{
				Ticker: ticker, Date: on, Side: side, Amount: amount,
			})
		case "Contribution":
			result.Cashflows = append(result.Cashflows, folioscout.Cashflow{Date: on, Amount: amount})
		case "Withdrawal":
			result.Cashflows = append(result.Cashflows, folioscout.Cashflow{Date: on, Amount: -amount})
		}
	}
	return result, nil
}

func clean(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"`))
}

func parseDate(s string) (date.Date, error) {
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return date.Date{}, err
	}
	return date.Of(t), nil
}

// parseAmount reads an absolute currency amount from a possibly
// comma-grouped value; the sign is carried by the operation type.
func parseAmount(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d.Abs().InexactFloat64(), nil
}

// cents rounds a converted amount to currency precision.
func cents(v float64) float64 { return math.Round(v*100) / 100 }

// isUSD detects USD rows: an explicit currency column, the USA market,
// or a USD account. Some exports only reveal the currency in the
// account description.
func isUSD(currency, market, accountDesc string) bool {
	return strings.EqualFold(currency, "USD") ||
		strings.EqualFold(market, "USA") ||
		strings.Contains(strings.ToUpper(accountDesc), "USD")
}
