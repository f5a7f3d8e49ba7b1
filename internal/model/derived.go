package model

import (
	"encoding/json"
	"time"
)

// DerivedPoint holds one computed indicator value aligned to a source candle.
// Valid=false marks a warm-up gap (insufficient history at that point);
// consumers must render it as "no data", never as zero.
type DerivedPoint struct {
	Name     string    `json:"name"` // e.g. "SMA_20", "RSI_14", "BBANDS_20_UP"
	Symbol   string    `json:"symbol"`
	Interval Interval  `json:"interval"`
	OpenTime time.Time `json:"open_time"`
	Close    float64   `json:"close"`
	Value    float64   `json:"value"`
	Valid    bool      `json:"valid"`
}

// LatestKey returns the cache key for the freshest value of this indicator:
// "derived:latest:{name}:{symbol}:{interval}".
func (p *DerivedPoint) LatestKey() string {
	return "derived:latest:" + p.Name + ":" + p.Symbol + ":" + string(p.Interval)
}

// JSON returns the JSON-encoded derived point.
func (p *DerivedPoint) JSON() []byte {
	b, _ := json.Marshal(p)
	return b
}

// DailyBucket is one calendar-day OHLC-of-OHLC rollup of a candle series.
// Date is UTC midnight of the day the bucket covers.
type DailyBucket struct {
	Symbol      string    `json:"symbol"`
	Interval    Interval  `json:"interval"`
	Date        time.Time `json:"date"`
	CandleCount int       `json:"candle_count"`
	DayOpen     float64   `json:"day_open"`
	DayHigh     float64   `json:"day_high"`
	DayLow      float64   `json:"day_low"`
	DayClose    float64   `json:"day_close"`
	DayVolume   float64   `json:"day_volume"`
	AvgPrice    float64   `json:"avg_price"` // arithmetic mean of closes
}

// JSON returns the JSON-encoded bucket.
func (b *DailyBucket) JSON() []byte {
	data, _ := json.Marshal(b)
	return data
}
