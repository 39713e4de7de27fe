package rbc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/folioscout/folioscout"
	"github.com/folioscout/folioscout/date"
)

const reviewPage = `Your Portfolio
Asset Review
RBC U.S. INDEX FUND (0522) RBF0522 100.000 10.00 10.50 $1,050.00
FIDELITY GLOBAL GROWTH (253) FID253 50.000 20.00 21.00 $1,050.00
VANGUARD GROWTH ETF VGRO 10.000 30.00 31.00 $310.00
Account Activity
`

func buildTable() *symbolTable {
	st := newSymbolTable()
	st.collect([]string{reviewPage})
	return st
}

func TestSymbolTableCollect(t *testing.T) {
	st := buildTable()
	tests := []struct{ desc, want string }{
		{"RBC U.S. INDEX FUND (0522)", "RBF0522"},
		{"SOMETHING WITH CODE 0522 ONLY", "RBF0522"}, // bare fund code
		{"FIDELITY GLOBAL GROWTH (253)", "FID253"},
		{"VANGUARD GROWTH ETF", "VGRO"}, // exact compacted description
		{"VANGUARD GROWTH", "VGRO"},     // substring containment
		{"COMPLETELY UNKNOWN HOLDING", ""},
	}
	for _, test := range tests {
		if got := st.resolve(test.desc); got != test.want {
			t.Errorf("resolve(%q) = %q, want %q", test.desc, got, test.want)
		}
	}
}

func TestSymbolTableFundInference(t *testing.T) {
	st := newSymbolTable() // empty: nothing collected
	if got := st.resolve("RBC SELECT GROWTH PORTFOLIO (0999)"); got != "RBF0999" {
		t.Errorf("rbc inference = %q, want RBF0999", got)
	}
	if got := st.resolve("FIDELITY SPECIAL SITUATIONS (1234)"); got != "FID1234" {
		t.Errorf("fidelity inference = %q, want FID1234", got)
	}
}

const activityPage = `Account Activity
DATE ACTIVITY DESCRIPTION
Opening Balance 5,000.00
JAN 5 BOUGHT RBC U.S. INDEX FUND (0522)
UNSOLICITED
100.000 10.00 1,000.00
JAN 10 SOLD VANGUARD GROWTH ETF 10.000 31.00 310.00
JAN 15 CASHDIV VANGUARD GROWTH ETF
3.000 1.00 3.00
Closing Balance 4,313.00
`

func TestParseStatement(t *testing.T) {
	trades, unresolved := parseStatement("statement-2023-01-31.pdf", []string{reviewPage, activityPage}, buildTable(), 1.35)
	if unresolved != 0 {
		t.Fatalf("unresolved = %d", unresolved)
	}
	if len(trades) != 2 {
		t.Fatalf("trades = %+v, want 2 (dividend ignored)", trades)
	}

	buy := trades[0]
	if buy.Ticker != "RBF0522" || buy.Side != folioscout.Buy || buy.Amount != 1000 {
		t.Errorf("buy = %+v", buy)
	}
	if buy.Date != date.New(2023, 1, 5) {
		t.Errorf("buy date = %v", buy.Date)
	}

	// Inline amounts on the activity line itself.
	sell := trades[1]
	if sell.Ticker != "VGRO" || sell.Side != folioscout.Sell || sell.Amount != 310 {
		t.Errorf("sell = %+v", sell)
	}
}

func TestParseStatementUSD(t *testing.T) {
	page := `Statement (U.S.$)
Exchange rate 1USD = 1.3400 CAD
Account Activity
FEB 1 BOUGHT VANGUARD GROWTH ETF 1.000 100.00 100.00
Closing Balance 0.00
`
	trades, _ := parseStatement("statement-2023-02-28.pdf", []string{page}, buildTable(), 1.35)
	if len(trades) != 1 {
		t.Fatalf("trades = %+v", trades)
	}
	if trades[0].Amount != 134 {
		t.Errorf("amount = %v, want 134 (statement's own rate)", trades[0].Amount)
	}
}

// A January statement can report trades executed in late December.
func TestParseStatementYearRollback(t *testing.T) {
	page := `Account Activity
DEC 29 BOUGHT VANGUARD GROWTH ETF 1.000 30.00 30.00
Closing Balance 0.00
`
	trades, _ := parseStatement("statement-2023-01-31.pdf", []string{page}, buildTable(), 1.35)
	if len(trades) != 1 {
		t.Fatalf("trades = %+v", trades)
	}
	if trades[0].Date != date.New(2022, 12, 29) {
		t.Errorf("date = %v, want 2022-12-29", trades[0].Date)
	}
}

func TestParseAccountingNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"3,170.85-", -3170.85, true},
		{"1,000.00", 1000, true},
		{"$42.50", 42.5, true},
		{"n/a", 0, false},
	}
	for _, test := range tests {
		got, ok := parseAccountingNumber(test.in)
		if ok != test.ok || got != test.want {
			t.Errorf("parseAccountingNumber(%q) = %v, %v; want %v, %v", test.in, got, ok, test.want, test.ok)
		}
	}
}

func TestStatementPeriod(t *testing.T) {
	year, month, ok := statementPeriod("statement-2023-06-30.pdf")
	if !ok || year != 2023 || month != 6 {
		t.Errorf("got %d, %v, %v", year, month, ok)
	}
	if _, _, ok := statementPeriod("random.pdf"); ok {
		t.Error("want !ok for undated name")
	}
}

func TestListStatementsSkipsDuplicates(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"statement-2023-01-31.pdf",
		"statement-2023-01-31-1.pdf", // duplicate download of the above
		"statement-2023-02-28-1.pdf", // no base file: kept
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	paths, err := listStatements(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v, want 2", paths)
	}
	if filepath.Base(paths[0]) != "statement-2023-01-31.pdf" ||
		filepath.Base(paths[1]) != "statement-2023-02-28-1.pdf" {
		t.Errorf("paths = %v", paths)
	}
}
