package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/folioscout/folioscout"
	"github.com/folioscout/folioscout/date"
)

// testClient points a client at a stub chart endpoint.
func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c := NewClient()
	c.baseURL = server.URL
	return c
}

func chartPayload(timestamps []int64, closes []string) string {
	ts, cl := "", ""
	for i, t := range timestamps {
		if i > 0 {
			ts += ","
			cl += ","
		}
		ts += fmt.Sprint(t)
		cl += closes[i]
	}
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"currency":"USD","regularMarketPrice":101.5},
		"timestamp":[%s],"indicators":{"quote":[{"close":[%s]}]}}],"error":null}}`, ts, cl)
}

func TestDailyCloses(t *testing.T) {
	day1 := time.Date(2024, 3, 14, 14, 30, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("interval"); got != "1d" {
			t.Errorf("interval = %q, want 1d", got)
		}
		// Yahoo pads missing closes with null; those must be dropped.
		fmt.Fprint(w, chartPayload(
			[]int64{day1.Unix(), day2.Unix(), day2.AddDate(0, 0, 1).Unix()},
			[]string{"100.5", "null", "102.25"}))
	})

	h, err := c.DailyCloses(context.Background(), "AAPL", date.New(2024, 3, 14), date.New(2024, 3, 16))
	if err != nil {
		t.Fatal(err)
	}
	if h.Len() != 2 {
		t.Fatalf("len = %d, want 2 (null dropped)", h.Len())
	}
	if got, ok := h.Get(date.New(2024, 3, 14)); !ok || got != 100.5 {
		t.Errorf("close = %v, %v; want 100.5", got, ok)
	}
}

func TestIntraday(t *testing.T) {
	at := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("interval"); got != "15m" {
			t.Errorf("interval = %q, want 15m", got)
		}
		if got := r.URL.Query().Get("range"); got != "1d" {
			t.Errorf("range = %q, want 1d", got)
		}
		fmt.Fprint(w, chartPayload([]int64{at.Unix()}, []string{"105.5"}))
	})

	series, err := c.Intraday(context.Background(), "AAPL", folioscout.Quarterhourly)
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := series.AsOf(at); !ok || got != 105.5 {
		t.Errorf("tick = %v, %v; want 105.5", got, ok)
	}
}

func TestQuote(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartPayload(nil, nil))
	})
	price, err := c.Quote(context.Background(), usdToCAD)
	if err != nil {
		t.Fatal(err)
	}
	if price != 101.5 {
		t.Errorf("quote = %v, want 101.5", price)
	}
}

func TestChartAPIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	})
	if _, err := c.DailyCloses(context.Background(), "NOPE", date.Today().Add(-7), date.Today()); err == nil {
		t.Fatal("want error from chart API error payload")
	}
}

func TestUpdateDailyIsolatesFailures(t *testing.T) {
	at := time.Now().UTC().Add(-24 * time.Hour)
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "BAD") {
			fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
			return
		}
		fmt.Fprint(w, chartPayload([]int64{at.Unix()}, []string{"42.5"}))
	})
	store, err := folioscout.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	u := &Updater{Client: c, Store: store, Config: folioscout.DefaultConfig()}

	if err := u.UpdateDaily(context.Background(), []string{"BAD", "GOOD"}); err != nil {
		t.Fatalf("one failing ticker must not fail the update: %v", err)
	}
	book, err := store.LoadPriceBook()
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := book.PriceAsOf("GOOD", date.Today()); !ok || got != 42.5 {
		t.Errorf("intact ticker = %v, %v; want 42.5", got, ok)
	}
	if _, ok := book.PriceAsOf("BAD", date.Today()); ok {
		t.Error("failing ticker should have no stored history")
	}
}

func TestResolveSymbol(t *testing.T) {
	cfg := folioscout.DefaultConfig()
	cfg.CanadianTickers = []string{"SHOP"}
	cfg.SymbolOverrides = map[string]string{"BRK-B": "BRK-B", "SHOP": "SHOP.TO"}
	u := &Updater{Config: cfg}

	tests := []struct{ ticker, want string }{
		{"AAPL", "AAPL"},
		{"SHOP", "SHOP.TO"}, // override wins over suffixing
		{"BRK-B", "BRK-B"},
	}
	for _, test := range tests {
		if got := u.ResolveSymbol(test.ticker); got != test.want {
			t.Errorf("ResolveSymbol(%q) = %q, want %q", test.ticker, got, test.want)
		}
	}

	u.Config.SymbolOverrides = nil
	if got := u.ResolveSymbol("SHOP"); got != "SHOP.TO" {
		t.Errorf("canadian suffix = %q, want SHOP.TO", got)
	}
}
