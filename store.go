package folioscout

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/folioscout/folioscout/date"
)

// Interval is a supported intraday granularity. Each one maps to its
// own subfolder of the price history and its own fetch window.
type Interval struct {
	Name        string // subfolder and file-name component
	Granularity string // provider granularity, e.g. "15m"
	FetchRange  string // provider lookback per fetch, e.g. "1d"
	KeepDays    int    // observations older than this are trimmed
}

// The supported intraday intervals, finest first.
var (
	Quarterhourly = Interval{Name: "quarterhourly", Granularity: "15m", FetchRange: "1d", KeepDays: 7}
	Semihourly    = Interval{Name: "semihourly", Granularity: "30m", FetchRange: "7d", KeepDays: 30}
	Hourly        = Interval{Name: "hourly", Granularity: "60m", FetchRange: "30d", KeepDays: 90}
)

// Intervals lists every supported intraday interval.
func Intervals() []Interval { return []Interval{Quarterhourly, Semihourly, Hourly} }

// ParseInterval resolves an interval by name.
func ParseInterval(name string) (Interval, error) {
	for _, iv := range Intervals() {
		if iv.Name == name {
			return iv, nil
		}
	}
	return Interval{}, fmt.Errorf("unknown interval %q", name)
}

// Store reads and writes every artifact of the data directory: the
// trade ledger, computed contributions, price histories, forex rates,
// and the generated net-worth series. The trade ledger is the one file
// that must exist; everything else degrades to empty when missing, so a
// partially populated directory still replays.
type Store struct {
	dir string
}

// NewStore opens a store over a data directory, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create data dir %q: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the root of the data directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(elem ...string) string {
	return filepath.Join(append([]string{s.dir}, elem...)...)
}

// LoadTrades reads the trade ledger. Unlike the other loaders a missing
// ledger is an error; without trades there is nothing to replay.
func (s *Store) LoadTrades() ([]Trade, error) {
	var raw []Trade
	if err := readJSON(s.path("trades.json"), &raw); err != nil {
		return nil, fmt.Errorf("cannot load trade ledger: %w", err)
	}
	trades, dropped := NormalizeTrades(raw)
	if dropped > 0 {
		log.Warn().Int("count", dropped).Msg("invalid trades dropped from ledger")
	}
	return trades, nil
}

// SaveTrades writes the trade ledger.
func (s *Store) SaveTrades(trades []Trade) error {
	return writeJSON(s.path("trades.json"), trades)
}

// LoadCashflows reads the computed contribution events. A missing or
// unreadable file means no contributions yet.
func (s *Store) LoadCashflows() ([]Cashflow, error) {
	var flows []Cashflow
	err := readJSON(s.path("calculatedContributions.json"), &flows)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		log.Warn().Err(err).Msg("contribution file unreadable, treated as empty")
		return nil, nil
	}
	return flows, nil
}

// SaveCashflows writes the computed contribution events.
func (s *Store) SaveCashflows(flows []Cashflow) error {
	return writeJSON(s.path("calculatedContributions.json"), flows)
}

// LoadPriceBook reads every daily price history under stockPriceHistory/
// concurrently. An absent folder yields an empty book.
func (s *Store) LoadPriceBook() (*PriceBook, error) {
	book := NewPriceBook()
	entries, err := os.ReadDir(s.path("stockPriceHistory"))
	if errors.Is(err, fs.ErrNotExist) {
		return book, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot list price histories: %w", err)
	}

	var g errgroup.Group
	var mu sync.Mutex
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		g.Go(func() error {
			ticker := strings.TrimSuffix(entry.Name(), ".json")
			h, err := s.loadHistory(s.path("stockPriceHistory", entry.Name()))
			if err != nil {
				// A corrupt file costs one ticker, not the rebuild.
				log.Warn().Err(err).Str("ticker", ticker).Msg("price history unreadable, treated as empty")
				return nil
			}
			mu.Lock()
			book.SetHistory(ticker, h)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return book, nil
}

// SavePriceHistory writes the daily series of one ticker.
func (s *Store) SavePriceHistory(ticker string, h *date.History[float64]) error {
	byDate := make(map[string]float64, h.Len())
	for on, price := range h.Values() {
		byDate[on.String()] = round4(price)
	}
	return writeJSON(s.path("stockPriceHistory", ticker+".json"), byDate)
}

func (s *Store) loadHistory(path string) (*date.History[float64], error) {
	byDate := make(map[string]float64)
	if err := readJSON(path, &byDate); err != nil {
		return nil, err
	}
	h := new(date.History[float64])
	for str, price := range byDate {
		on, err := date.Parse(str)
		if err != nil {
			return nil, err
		}
		h.Append(on, price)
	}
	return h, nil
}

// LoadTicks reads a ticker's intraday observations for one interval.
// A missing or unreadable file means no ticks yet.
func (s *Store) LoadTicks(interval Interval, ticker string) (*TickSeries, error) {
	var rows [][2]float64 // [unix milliseconds, price]
	err := readJSON(s.path("stockPriceHistory", interval.Name, ticker+".json"), &rows)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("interval", interval.Name).Str("ticker", ticker).Msg("tick file unreadable, treated as empty")
		}
		return new(TickSeries), nil
	}
	series := new(TickSeries)
	for _, row := range rows {
		series.Append(time.UnixMilli(int64(row[0])).UTC(), row[1])
	}
	return series, nil
}

// SaveTicks writes a ticker's intraday observations for one interval,
// trimming anything older than the interval's retention first.
func (s *Store) SaveTicks(interval Interval, ticker string, series *TickSeries) error {
	series.TrimBefore(time.Now().UTC().AddDate(0, 0, -interval.KeepDays))
	rows := make([][2]float64, 0, series.Len())
	for t := range series.Times() {
		price, _ := series.AsOf(t)
		rows = append(rows, [2]float64{float64(t.UnixMilli()), round4(price)})
	}
	return writeJSON(s.path("stockPriceHistory", interval.Name, ticker+".json"), rows)
}

// LoadFxRates reads dated USD conversion rates. A missing or
// unreadable file yields only the fallback rate.
func (s *Store) LoadFxRates(fallback float64) (*FxRates, error) {
	rates := NewFxRates(fallback)
	byDate := make(map[string]float64)
	err := readJSON(s.path("forex.json"), &byDate)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Msg("forex file unreadable, using the fallback rate")
		}
		return rates, nil
	}
	for str, rate := range byDate {
		on, err := date.Parse(str)
		if err != nil {
			log.Warn().Err(err).Msg("forex rate with unreadable date skipped")
			continue
		}
		rates.Add(on, rate)
	}
	return rates, nil
}

// SaveFxRate records one dated rate, preserving existing ones.
func (s *Store) SaveFxRate(on date.Date, rate float64) error {
	byDate := make(map[string]float64)
	if err := readJSON(s.path("forex.json"), &byDate); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot load forex rates: %w", err)
	}
	byDate[on.String()] = round4(rate)
	return writeJSON(s.path("forex.json"), byDate)
}

// WriteNetWorth writes the daily series in its compact row form:
// [date, net worth, cumulative contribution].
func (s *Store) WriteNetWorth(points []DataPoint) error {
	rows := make([][3]json.RawMessage, 0, len(points))
	for _, p := range points {
		d, _ := json.Marshal(p.Date.String())
		nw, _ := json.Marshal(p.NetWorth)
		c, _ := json.Marshal(p.Contribution)
		rows = append(rows, [3]json.RawMessage{d, nw, c})
	}
	return writeJSON(s.path("networth.json"), rows)
}

// LoadNetWorth reads the daily series back. TWRR and gains are
// recomputed from the stored columns.
func (s *Store) LoadNetWorth() ([]DataPoint, error) {
	var rows [][3]json.RawMessage
	err := readJSON(s.path("networth.json"), &rows)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot load net worth series: %w", err)
	}
	points := make([]DataPoint, 0, len(rows))
	growth := 1.0
	for _, row := range rows {
		var str string
		var p DataPoint
		if err := json.Unmarshal(row[0], &str); err != nil {
			return nil, fmt.Errorf("net worth series: %w", err)
		}
		if p.Date, err = date.Parse(str); err != nil {
			return nil, fmt.Errorf("net worth series: %w", err)
		}
		if err := json.Unmarshal(row[1], &p.NetWorth); err != nil {
			return nil, fmt.Errorf("net worth series: %w", err)
		}
		if err := json.Unmarshal(row[2], &p.Contribution); err != nil {
			return nil, fmt.Errorf("net worth series: %w", err)
		}
		p.NetGain = round2(p.NetWorth - p.Contribution)
		if len(points) > 0 {
			growth = chainGrowth(growth, points[len(points)-1], p.NetWorth, p.Contribution)
		}
		p.TWRR = round2((growth - 1) * 100)
		points = append(points, p)
	}
	return points, nil
}

// WriteIntraday writes an intraday series as
// [unix milliseconds, net worth, cumulative contribution] rows.
func (s *Store) WriteIntraday(interval Interval, points []IntradayPoint) error {
	rows := make([][3]float64, 0, len(points))
	for _, p := range points {
		rows = append(rows, [3]float64{float64(p.Time.UnixMilli()), p.NetWorth, p.Contribution})
	}
	return writeJSON(s.path("networth-"+interval.Name+".json"), rows)
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
