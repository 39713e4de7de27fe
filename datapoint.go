package folioscout

import (
	"math"
	"time"

	"github.com/folioscout/folioscout/date"
)

// DataPoint is one emitted row of a daily replay: the portfolio state
// at the end of a calendar day. Points are ordered ascending by date
// and immutable once produced.
type DataPoint struct {
	Date         date.Date
	NetWorth     float64 // cash + market value of holdings, rounded to cents
	Contribution float64 // cumulative signed contributions, rounded to cents
	TWRR         float64 // time-weighted return percent since replay start
	NetGain      float64 // NetWorth - Contribution

	// Per-ticker breakdown, only populated when the engine is asked for it.
	Holdings map[string]float64 `json:",omitempty"` // market value
	Weights  map[string]float64 `json:",omitempty"` // share of net worth
	Returns  map[string]float64 `json:",omitempty"` // percent vs cost basis
}

// IntradayPoint is one emitted row of an intraday projection.
type IntradayPoint struct {
	Time         time.Time
	NetWorth     float64
	Contribution float64
	TWRR         float64
	NetGain      float64
}

// round2 rounds to currency-cent precision, applied to every emitted value.
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// round4 is the precision used for stored prices.
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
