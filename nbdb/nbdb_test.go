package nbdb

import (
	"strings"
	"testing"

	"github.com/folioscout/folioscout"
	"github.com/folioscout/folioscout/date"
)

const sample = `"Trade date";"Operation";"Symbol";"Net amount";"Currency";"Market";"Account description"
"18/08/2022";"Contribution";"";"5,000.00";"CAD";"CAN";"TFSA CAD"
"19/08/2022";"Buy";"XEQT";"-2,500.00";"CAD";"CAN";"TFSA CAD"
"22/08/2022";"Buy";"GOOGL";"-1,000.00";"USD";"USA";"TFSA USD"
"23/08/2022";"Withdrawal";"";"-200.00";"CAD";"CAN";"TFSA CAD"
"24/08/2022";"Dividend";"XEQT";"12.34";"CAD";"CAN";"TFSA CAD"
"25/08/2022";"Sell";"";"100.00";"CAD";"CAN";"TFSA CAD"
`

func TestParse(t *testing.T) {
	fx := folioscout.NewFxRates(1.35)
	result, err := parse(strings.NewReader(sample), fx)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Trades) != 2 {
		t.Fatalf("trades = %d, want 2", len(result.Trades))
	}
	first := result.Trades[0]
	if first.Ticker != "XEQT" || first.Side != folioscout.Buy || first.Amount != 2500 {
		t.Errorf("first trade = %+v", first)
	}
	if first.Date != date.New(2022, 8, 19) {
		t.Errorf("date = %v, want 2022-08-19 (day/month order)", first.Date)
	}

	// USD trade converted at the fallback rate, ticker normalized.
	usd := result.Trades[1]
	if usd.Ticker != "GOOG" {
		t.Errorf("ticker = %q, want GOOG", usd.Ticker)
	}
	if usd.Amount != 1350 {
		t.Errorf("amount = %v, want 1350 (1000 USD at 1.35)", usd.Amount)
	}

	if len(result.Cashflows) != 2 {
		t.Fatalf("cashflows = %d, want 2", len(result.Cashflows))
	}
	if result.Cashflows[0].Amount != 5000 || result.Cashflows[1].Amount != -200 {
		t.Errorf("cashflows = %+v", result.Cashflows)
	}

	// The sell without a symbol is dropped, the dividend is ignored.
	if result.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", result.Skipped)
	}
}

func TestParseUsesDatedRate(t *testing.T) {
	fx := folioscout.NewFxRates(1.35)
	fx.Add(date.New(2022, 8, 22), 1.40)
	result, err := parse(strings.NewReader(sample), fx)
	if err != nil {
		t.Fatal(err)
	}
	if got := result.Trades[1].Amount; got != 1400 {
		t.Errorf("amount = %v, want 1400 with dated rate", got)
	}
}

func TestParseEmpty(t *testing.T) {
	result, err := parse(strings.NewReader(""), folioscout.NewFxRates(1.35))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Trades) != 0 || len(result.Cashflows) != 0 {
		t.Errorf("empty input produced %+v", result)
	}
}
