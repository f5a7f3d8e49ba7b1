// Package indicator derives technical indicator series from ordered candle
// data: SMA, EMA, RSI, Bollinger Bands, and price change.
//
// Every indicator is a pure function from (candle series, parameters) to a
// derived point series. Warm-up gaps — points with insufficient history for
// the requested window — are reported as points with Valid=false, never as
// zero and never as an error. Ordering violations in the input abort the
// whole computation with *series.UnorderedSeriesError.
//
// The package is a synchronous computation library: no goroutines, no I/O,
// no shared state across calls. Distinct series may be computed in parallel
// by the caller without coordination.
package indicator

import (
	"fmt"
	"time"
)

// InvalidParameterError reports an indicator parameter outside its legal
// range (non-positive period or lag, out-of-range smoothing factor).
type InvalidParameterError struct {
	Param  string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Param, e.Value, e.Reason)
}

// Point is one derived value aligned to a source candle.
type Point struct {
	OpenTime time.Time `json:"open_time"`
	Close    float64   `json:"close"`
	Value    float64   `json:"value"`
	Valid    bool      `json:"valid"`
}

// BandPoint is one Bollinger Bands sample. The three bands become valid
// together, on the same warm-up schedule as SMA.
type BandPoint struct {
	OpenTime time.Time `json:"open_time"`
	Close    float64   `json:"close"`
	Middle   float64   `json:"middle"`
	Upper    float64   `json:"upper"`
	Lower    float64   `json:"lower"`
	Valid    bool      `json:"valid"`
}

// ChangePoint is one price-change sample. Percent carries its own validity:
// it is absent whenever the reference close is not strictly positive.
type ChangePoint struct {
	OpenTime     time.Time `json:"open_time"`
	Close        float64   `json:"close"`
	Change       float64   `json:"change"`
	Percent      float64   `json:"percent"`
	Valid        bool      `json:"valid"`
	PercentValid bool      `json:"percent_valid"`
}
