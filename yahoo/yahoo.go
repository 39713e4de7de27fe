// Package yahoo fetches daily and intraday quotes from the Yahoo
// Finance v8 chart API and keeps the local price histories current.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/folioscout/folioscout"
	"github.com/folioscout/folioscout/date"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client talks to the chart API. It rate-limits itself because the
// endpoint is unauthenticated and throttles aggressive callers.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	baseURL string
}

// NewClient returns a client with sane timeouts and throttling.
func NewClient() *Client {
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(300*time.Millisecond), 2),
		baseURL: defaultBaseURL,
	}
}

// chartResponse is the subset of the v8 chart payload we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// observations flattens a chart result into (timestamp, close) pairs,
// dropping the null closes Yahoo pads series with.
func (r *chartResponse) observations() (times []int64, closes []float64, err error) {
	if r.Chart.Error != nil {
		return nil, nil, fmt.Errorf("yahoo: %s: %s", r.Chart.Error.Code, r.Chart.Error.Description)
	}
	if len(r.Chart.Result) == 0 {
		return nil, nil, fmt.Errorf("yahoo: empty chart result")
	}
	res := r.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return nil, nil, nil
	}
	raw := res.Indicators.Quote[0].Close
	for i, ts := range res.Timestamp {
		if i >= len(raw) || raw[i] <= 0 {
			continue
		}
		times = append(times, ts)
		closes = append(closes, raw[i])
	}
	return times, closes, nil
}

func (c *Client) chart(ctx context.Context, symbol string, params url.Values) (*chartResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	// The API refuses requests without a browser-ish agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; folioscout/1.0)")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo: cannot GET chart for %s: %w", symbol, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: chart for %s: %s", symbol, resp.Status)
	}
	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("yahoo: malformed chart payload for %s: %w", symbol, err)
	}
	return &payload, nil
}

// DailyCloses fetches the daily closing prices of a symbol between two
// dates (inclusive), indexed by the trading day observed in UTC.
func (c *Client) DailyCloses(ctx context.Context, symbol string, from, to date.Date) (*date.History[float64], error) {
	params := url.Values{
		"interval": {"1d"},
		"period1":  {fmt.Sprint(unixAtMidnight(from))},
		"period2":  {fmt.Sprint(unixAtMidnight(to.Add(1)))},
	}
	payload, err := c.chart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}
	times, closes, err := payload.observations()
	if err != nil {
		return nil, err
	}
	h := new(date.History[float64])
	for i, ts := range times {
		h.Append(date.Of(time.Unix(ts, 0)), closes[i])
	}
	return h, nil
}

// Intraday fetches recent sub-day closes at the interval's granularity
// over its rolling fetch range.
func (c *Client) Intraday(ctx context.Context, symbol string, interval folioscout.Interval) (*folioscout.TickSeries, error) {
	params := url.Values{
		"interval": {interval.Granularity},
		"range":    {interval.FetchRange},
	}
	payload, err := c.chart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}
	times, closes, err := payload.observations()
	if err != nil {
		return nil, err
	}
	series := new(folioscout.TickSeries)
	for i, ts := range times {
		series.Append(time.Unix(ts, 0).UTC(), closes[i])
	}
	return series, nil
}

// Quote returns the latest regular-market price of a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{"interval": {"1d"}, "range": {"1d"}}
	payload, err := c.chart(ctx, symbol, params)
	if err != nil {
		return 0, err
	}
	if payload.Chart.Error != nil || len(payload.Chart.Result) == 0 {
		return 0, fmt.Errorf("yahoo: no quote for %s", symbol)
	}
	price := payload.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return 0, fmt.Errorf("yahoo: no usable quote for %s", symbol)
	}
	return price, nil
}

func unixAtMidnight(on date.Date) int64 {
	return time.Date(on.Year(), on.Month(), on.Day(), 0, 0, 0, 0, time.UTC).Unix()
}
