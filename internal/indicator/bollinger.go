package indicator

import (
	"candlecore/internal/model"
	"candlecore/internal/series"
)

// Bollinger Bands defaults, the values virtually all charting uses.
const (
	DefaultBollingerPeriod = 20
	DefaultBollingerK      = 2.0
)

// Bollinger computes the three Bollinger Bands over closes: middle is the
// period SMA, upper and lower sit k population standard deviations above and
// below it. All three share SMA's warm-up schedule and become valid at index
// period-1 together.
func Bollinger(candles []model.Candle, period int, k float64) ([]BandPoint, error) {
	if k <= 0 {
		return nil, &InvalidParameterError{Param: "k", Value: k, Reason: "must be positive"}
	}
	win, err := NewWindow(period)
	if err != nil {
		return nil, err
	}

	out := make([]BandPoint, 0, len(candles))
	cur := series.New(candles)
	for {
		c, ok, err := cur.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		win.Push(c.Close)
		p := BandPoint{OpenTime: c.OpenTime, Close: c.Close, Valid: win.Full()}
		if p.Valid {
			mid := win.Mean()
			span := k * win.StdDev()
			p.Middle = mid
			p.Upper = mid + span
			p.Lower = mid - span
		}
		out = append(out, p)
	}
	return out, nil
}
