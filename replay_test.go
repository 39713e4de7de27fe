package folioscout

import (
	"math"
	"reflect"
	"testing"

	"github.com/folioscout/folioscout/date"
)

func day(str string) date.Date { return date.MustParse(str) }

// buildEngine wires an engine from literal fixtures: prices as
// ticker -> date -> price, contributions and trades as given.
func buildEngine(t *testing.T, prices map[string]map[string]float64, flows []Cashflow, raw []Trade) *Engine {
	t.Helper()
	book := NewPriceBook()
	for ticker, series := range prices {
		for str, price := range series {
			book.Add(ticker, day(str), price)
		}
	}
	trades, dropped := NormalizeTrades(raw)
	if dropped > 0 {
		t.Fatalf("fixture has %d invalid trades", dropped)
	}
	return NewEngine(trades, NewContributionLedger(flows), book)
}

func TestReplaySingleBuy(t *testing.T) {
	e := buildEngine(t,
		map[string]map[string]float64{"AAPL": {"2024-01-02": 100}},
		[]Cashflow{{day("2024-01-02"), 1000}},
		[]Trade{{Ticker: "AAPL", Date: day("2024-01-02"), Side: Buy, Amount: 1000}},
	)
	points := e.Replay(e.Timeline(date.Date{}))
	if len(points) != 1 {
		t.Fatalf("got %d points, want 1", len(points))
	}
	p := points[0]
	if p.NetWorth != 1000 || p.Contribution != 1000 || p.NetGain != 0 || p.TWRR != 0 {
		t.Errorf("got %+v, want netWorth=1000 contribution=1000 gain=0 twrr=0", p)
	}
}

func TestReplayPriceAppreciation(t *testing.T) {
	e := buildEngine(t,
		map[string]map[string]float64{"AAPL": {"2024-01-02": 100, "2024-01-03": 110}},
		[]Cashflow{{day("2024-01-02"), 1000}},
		[]Trade{{Ticker: "AAPL", Date: day("2024-01-02"), Side: Buy, Amount: 1000}},
	)
	points := e.Replay(e.Timeline(date.Date{}))
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	last := points[1]
	if last.NetWorth != 1100 {
		t.Errorf("netWorth = %v, want 1100", last.NetWorth)
	}
	if last.NetGain != 100 {
		t.Errorf("netGain = %v, want 100", last.NetGain)
	}
	if math.Abs(last.TWRR-10) > 0.01 {
		t.Errorf("twrr = %v, want 10", last.TWRR)
	}
}

// A sell larger than the holding caps the share reduction at zero but
// still credits the full sale amount.
func TestReplayOversell(t *testing.T) {
	e := buildEngine(t,
		map[string]map[string]float64{"AAPL": {"2024-01-02": 100, "2024-01-03": 100}},
		[]Cashflow{{day("2024-01-02"), 1000}},
		[]Trade{
			{Ticker: "AAPL", Date: day("2024-01-02"), Side: Buy, Amount: 1000},
			{Ticker: "AAPL", Date: day("2024-01-03"), Side: Sell, Amount: 2000},
		},
	)
	points := e.Replay(e.Timeline(date.Date{}))
	state := e.StateAsOf(day("2024-01-04"))
	if pos := state.Position("AAPL"); pos.Shares < 0 || pos.Shares > DustThreshold {
		t.Errorf("position after oversell = %+v, want flat", pos)
	}
	if state.Cash != 2000 {
		t.Errorf("cash = %v, want 2000 (full sale credited)", state.Cash)
	}
	last := points[len(points)-1]
	if last.NetWorth != 2000 {
		t.Errorf("netWorth = %v, want 2000", last.NetWorth)
	}
}

// A sell with no open position still credits cash, identically in the
// daily replay and the starting-state path.
func TestReplayZeroShareSell(t *testing.T) {
	fixtures := func() *Engine {
		return buildEngine(t,
			map[string]map[string]float64{"AAPL": {"2024-01-02": 100}},
			nil,
			[]Trade{{Ticker: "AAPL", Date: day("2024-01-02"), Side: Sell, Amount: 500}},
		)
	}
	points := fixtures().Replay(fixtures().Timeline(date.Date{}))
	if got := points[len(points)-1].NetWorth; got != 500 {
		t.Errorf("replay netWorth = %v, want 500", got)
	}
	if got := fixtures().StateAsOf(day("2024-01-03")).Cash; got != 500 {
		t.Errorf("seeded cash = %v, want 500", got)
	}
}

// A trade without a usable price on its date is skipped without
// touching cash or shares.
func TestReplaySkipsUnpricedTrade(t *testing.T) {
	e := buildEngine(t,
		map[string]map[string]float64{"AAPL": {"2024-01-02": 100}},
		[]Cashflow{{day("2024-01-02"), 1000}},
		[]Trade{
			{Ticker: "AAPL", Date: day("2024-01-02"), Side: Buy, Amount: 400},
			{Ticker: "MSFT", Date: day("2024-01-02"), Side: Buy, Amount: 400},
		},
	)
	points := e.Replay(e.Timeline(date.Date{}))
	p := points[0]
	if p.NetWorth != 1000 {
		t.Errorf("netWorth = %v, want 1000 (cash 600 + AAPL 400)", p.NetWorth)
	}
	state := e.StateAsOf(day("2024-01-03"))
	if got := state.SkippedTrades(); got != 1 {
		t.Errorf("skipped = %d, want 1", got)
	}
	if state.Position("MSFT").Shares != 0 {
		t.Errorf("MSFT position = %+v, want none", state.Position("MSFT"))
	}
}

// A deposit with no price movement must not register as performance.
func TestTWRRContributionNeutrality(t *testing.T) {
	e := buildEngine(t,
		map[string]map[string]float64{"AAPL": {"2024-01-02": 100, "2024-01-03": 100, "2024-01-04": 100}},
		[]Cashflow{{day("2024-01-02"), 1000}, {day("2024-01-03"), 5000}},
		[]Trade{{Ticker: "AAPL", Date: day("2024-01-02"), Side: Buy, Amount: 1000}},
	)
	for _, p := range e.Replay(e.Timeline(date.Date{})) {
		if p.TWRR != 0 {
			t.Errorf("twrr on %s = %v, want 0 with flat prices", p.Date, p.TWRR)
		}
	}
}

func TestReplayIdempotent(t *testing.T) {
	e := buildEngine(t,
		map[string]map[string]float64{
			"AAPL": {"2024-01-02": 100, "2024-01-03": 105, "2024-01-04": 98},
			"MSFT": {"2024-01-02": 200, "2024-01-04": 210},
		},
		[]Cashflow{{day("2024-01-02"), 5000}, {day("2024-01-04"), -500}},
		[]Trade{
			{Ticker: "AAPL", Date: day("2024-01-02"), Side: Buy, Amount: 2000},
			{Ticker: "MSFT", Date: day("2024-01-02"), Side: Buy, Amount: 1000},
			{Ticker: "AAPL", Date: day("2024-01-03"), Side: Sell, Amount: 500},
		},
	)
	days := e.Timeline(date.Date{})
	first := e.Replay(days)
	second := e.Replay(days)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("replay is not deterministic:\n%+v\n%+v", first, second)
	}
}

// Same-date deposit and trade: the deposit lands before the trade, so
// buying the full balance never drives cash negative.
func TestReplaySameDayDepositThenBuy(t *testing.T) {
	e := buildEngine(t,
		map[string]map[string]float64{"AAPL": {"2024-01-02": 50}},
		[]Cashflow{{day("2024-01-02"), 750}},
		[]Trade{{Ticker: "AAPL", Date: day("2024-01-02"), Side: Buy, Amount: 750}},
	)
	state := e.StateAsOf(day("2024-01-03"))
	if state.Cash != 0 {
		t.Errorf("cash = %v, want 0", state.Cash)
	}
	if got := state.Position("AAPL").Shares; got != 15 {
		t.Errorf("shares = %v, want 15", got)
	}
}

// StateAsOf must agree with the end state of a full daily replay up to
// the same cutoff.
func TestStateAsOfMatchesReplay(t *testing.T) {
	e := buildEngine(t,
		map[string]map[string]float64{
			"AAPL": {"2024-01-02": 100, "2024-01-03": 105, "2024-01-05": 110},
		},
		[]Cashflow{{day("2024-01-02"), 3000}},
		[]Trade{
			{Ticker: "AAPL", Date: day("2024-01-02"), Side: Buy, Amount: 1000},
			{Ticker: "AAPL", Date: day("2024-01-03"), Side: Buy, Amount: 500},
			{Ticker: "AAPL", Date: day("2024-01-05"), Side: Sell, Amount: 200},
		},
	)
	cutoff := day("2024-01-04")
	state := e.StateAsOf(cutoff)
	points := e.Replay(e.Timeline(date.Date{}))

	var asOf DataPoint
	for _, p := range points {
		if p.Date.Before(cutoff) {
			asOf = p
		}
	}
	if got := round2(state.netWorth(cutoff.Add(-1), e.prices)); got != asOf.NetWorth {
		t.Errorf("seeded netWorth = %v, replay says %v", got, asOf.NetWorth)
	}
	if round2(state.Contributed) != asOf.Contribution {
		t.Errorf("seeded contribution = %v, replay says %v", state.Contributed, asOf.Contribution)
	}
}

// Sells reduce the cost basis at average cost, keeping per-share cost
// stable across partial exits.
func TestSellReducesCostBasisAtAverage(t *testing.T) {
	state := NewReplayState()
	state.applyTrade(Trade{Ticker: "AAPL", Side: Buy, Amount: 1000}, 100) // 10 shares @ 100
	state.applyTrade(Trade{Ticker: "AAPL", Side: Buy, Amount: 600}, 120)  // 5 shares @ 120
	state.applyTrade(Trade{Ticker: "AAPL", Side: Sell, Amount: 650}, 130) // sells 5 shares

	pos := state.Position("AAPL")
	if math.Abs(pos.Shares-10) > 1e-9 {
		t.Fatalf("shares = %v, want 10", pos.Shares)
	}
	// average cost was 1600/15; 5 shares sold removes a third of it.
	want := 1600.0 * 10 / 15
	if math.Abs(pos.CostBasis-want) > 1e-9 {
		t.Errorf("costBasis = %v, want %v", pos.CostBasis, want)
	}
}

func TestBreakdown(t *testing.T) {
	e := buildEngine(t,
		map[string]map[string]float64{
			"AAPL": {"2024-01-02": 100},
			"MSFT": {"2024-01-02": 200},
		},
		[]Cashflow{{day("2024-01-02"), 1000}},
		[]Trade{
			{Ticker: "AAPL", Date: day("2024-01-02"), Side: Buy, Amount: 600},
			{Ticker: "MSFT", Date: day("2024-01-02"), Side: Buy, Amount: 400},
		},
	)
	e.Breakdown = true
	points := e.Replay(e.Timeline(date.Date{}))
	p := points[0]
	if p.Holdings["AAPL"] != 600 || p.Holdings["MSFT"] != 400 {
		t.Errorf("holdings = %v", p.Holdings)
	}
	if p.Weights["AAPL"] != 60 || p.Weights["MSFT"] != 40 {
		t.Errorf("weights = %v", p.Weights)
	}
}

func TestTimelineUnion(t *testing.T) {
	e := buildEngine(t,
		map[string]map[string]float64{"AAPL": {"2024-01-02": 100, "2024-01-04": 101}},
		[]Cashflow{{day("2024-01-03"), 100}},
		[]Trade{{Ticker: "AAPL", Date: day("2024-01-05"), Side: Buy, Amount: 100}},
	)
	want := []date.Date{day("2024-01-02"), day("2024-01-03"), day("2024-01-04"), day("2024-01-05")}
	if got := e.Timeline(date.Date{}); !reflect.DeepEqual(got, want) {
		t.Errorf("timeline = %v, want %v", got, want)
	}
	if got := e.Timeline(day("2024-01-04")); !reflect.DeepEqual(got, want[2:]) {
		t.Errorf("clipped timeline = %v, want %v", got, want[2:])
	}
}
