package indicator

import (
	"candlecore/internal/model"
	"candlecore/internal/series"
)

// DefaultChangeLag compares each candle to its immediate predecessor.
const DefaultChangeLag = 1

// Change computes close-over-lagged-close price change, absolute and
// percent. The first `lag` points have no reference candle and are not
// valid. Percent carries its own flag: it is absent whenever the reference
// close is not strictly positive, while the absolute change is still
// reported.
func Change(candles []model.Candle, lag int) ([]ChangePoint, error) {
	if lag <= 0 {
		return nil, &InvalidParameterError{Param: "lag", Value: float64(lag), Reason: "must be a positive integer"}
	}

	// ring of the last `lag` closes; ring[idx] is the close from exactly
	// lag candles ago once primed
	ring := make([]float64, lag)
	idx, seen := 0, 0

	out := make([]ChangePoint, 0, len(candles))
	cur := series.New(candles)
	for {
		c, ok, err := cur.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		p := ChangePoint{OpenTime: c.OpenTime, Close: c.Close}
		if seen >= lag {
			base := ring[idx]
			p.Change = c.Close - base
			p.Valid = true
			if base > 0 {
				p.Percent = p.Change / base * 100
				p.PercentValid = true
			}
		}
		ring[idx] = c.Close
		idx = (idx + 1) % lag
		seen++
		out = append(out, p)
	}
	return out, nil
}
