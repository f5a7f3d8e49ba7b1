package indicator

import (
	"candlecore/internal/model"
	"candlecore/internal/series"
)

// EMA computes the exponential moving average of closes with smoothing
// factor alpha = 2/(period+1), seeded from the first close. Seeding from the
// first observation makes every point valid; there is no warm-up gap, the
// early values are simply dominated by the seed.
func EMA(candles []model.Candle, period int) ([]Point, error) {
	if period <= 0 {
		return nil, &InvalidParameterError{Param: "period", Value: float64(period), Reason: "must be a positive integer"}
	}
	rec, err := NewRecurrence(2 / (float64(period) + 1))
	if err != nil {
		return nil, err
	}

	out := make([]Point, 0, len(candles))
	cur := series.New(candles)
	for {
		c, ok, err := cur.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, Point{
			OpenTime: c.OpenTime,
			Close:    c.Close,
			Value:    rec.Push(c.Close),
			Valid:    true,
		})
	}
	return out, nil
}
