package model

import (
	"fmt"
	"time"
)

// Interval is a candle timeframe. Only the listed values are legal; the
// month entry uses the 30-day convention.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval3m  Interval = "3m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval2h  Interval = "2h"
	Interval4h  Interval = "4h"
	Interval6h  Interval = "6h"
	Interval12h Interval = "12h"
	Interval1d  Interval = "1d"
	Interval1w  Interval = "1w"
	Interval1M  Interval = "1M"
)

var intervalSeconds = map[Interval]int64{
	Interval1m:  60,
	Interval3m:  180,
	Interval5m:  300,
	Interval15m: 900,
	Interval30m: 1800,
	Interval1h:  3600,
	Interval2h:  7200,
	Interval4h:  14400,
	Interval6h:  21600,
	Interval12h: 43200,
	Interval1d:  86400,
	Interval1w:  604800,
	Interval1M:  2592000, // 30 days
}

var intervalOrder = []Interval{
	Interval1m, Interval3m, Interval5m, Interval15m, Interval30m,
	Interval1h, Interval2h, Interval4h, Interval6h, Interval12h,
	Interval1d, Interval1w, Interval1M,
}

// Valid reports whether i is one of the supported timeframes.
func (i Interval) Valid() bool {
	_, ok := intervalSeconds[i]
	return ok
}

// Seconds returns the nominal timeframe length in seconds, 0 for unknown
// intervals.
func (i Interval) Seconds() int64 {
	return intervalSeconds[i]
}

// Duration returns the nominal timeframe length.
func (i Interval) Duration() time.Duration {
	return time.Duration(i.Seconds()) * time.Second
}

// ParseInterval converts a string to a known Interval.
func ParseInterval(s string) (Interval, error) {
	iv := Interval(s)
	if !iv.Valid() {
		return "", fmt.Errorf("unknown interval %q", s)
	}
	return iv, nil
}

// Intervals returns all supported timeframes in ascending length order.
func Intervals() []Interval {
	out := make([]Interval, len(intervalOrder))
	copy(out, intervalOrder)
	return out
}
