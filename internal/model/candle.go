// Package model defines the validated market-data records shared by the
// engine and its storage collaborators: OHLCV candles, derived indicator
// points, and daily rollup buckets.
package model

import (
	"encoding/json"
	"time"
)

// Candle is one immutable OHLCV record for a (symbol, interval) pair.
// Times are UTC instants; prices are strictly positive, volume non-negative.
// The store assigns row identity and timestamps; the engine never reads them.
type Candle struct {
	Symbol    string    `json:"symbol"`
	Interval  Interval  `json:"interval"`
	OpenTime  time.Time `json:"open_time"`
	CloseTime time.Time `json:"close_time"`

	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`

	// Extended fields, zero for sources that do not report them.
	QuoteVolume   float64 `json:"quote_volume,omitempty"`
	TradeCount    int64   `json:"trade_count,omitempty"`
	TakerBuyBase  float64 `json:"taker_buy_base,omitempty"`
	TakerBuyQuote float64 `json:"taker_buy_quote,omitempty"`

	// Source tags the upstream feed; Raw keeps the original payload for
	// provenance only and is never consumed by computation.
	Source string          `json:"source,omitempty"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}

// Key returns "symbol:interval".
func (c *Candle) Key() string {
	return c.Symbol + ":" + string(c.Interval)
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// SeriesKey identifies one stored candle series.
type SeriesKey struct {
	Symbol   string
	Interval Interval
}

// String returns "symbol:interval".
func (k SeriesKey) String() string {
	return k.Symbol + ":" + string(k.Interval)
}
