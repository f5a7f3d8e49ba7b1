// Package aggregate rolls ordered candle series up into calendar-day
// buckets. One forward pass, one open bucket at a time; a bucket is flushed
// the moment a candle from a later UTC day arrives.
package aggregate

import (
	"time"

	"candlecore/internal/model"
	"candlecore/internal/series"
)

// Daily reduces a candle series into per-UTC-day buckets. Day open and close
// come from the first and last candle of the day, high/low are the day
// extremes, volume is summed, and AvgPrice is the plain mean of closes.
// Days with no candles produce no bucket. An ordering break returns the
// error and no buckets.
func Daily(candles []model.Candle) ([]model.DailyBucket, error) {
	var (
		out      []model.DailyBucket
		bucket   model.DailyBucket
		closeSum float64
		open     bool
	)

	flush := func() {
		bucket.AvgPrice = closeSum / float64(bucket.CandleCount)
		out = append(out, bucket)
		bucket, closeSum, open = model.DailyBucket{}, 0, false
	}

	cur := series.New(candles)
	for {
		c, ok, err := cur.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		day := c.OpenTime.UTC().Truncate(24 * time.Hour)
		if open && !day.Equal(bucket.Date) {
			flush()
		}
		if !open {
			open = true
			bucket = model.DailyBucket{
				Symbol:   c.Symbol,
				Interval: c.Interval,
				Date:     day,
				DayOpen:  c.Open,
				DayHigh:  c.High,
				DayLow:   c.Low,
			}
		}
		if c.High > bucket.DayHigh {
			bucket.DayHigh = c.High
		}
		if c.Low < bucket.DayLow {
			bucket.DayLow = c.Low
		}
		bucket.DayClose = c.Close
		bucket.DayVolume += c.Volume
		bucket.CandleCount++
		closeSum += c.Close
	}
	if open {
		flush()
	}
	return out, nil
}
