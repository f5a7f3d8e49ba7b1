package indicator

import (
	"candlecore/internal/model"
	"candlecore/internal/series"
)

// RSI computes the relative strength index over close-to-close deltas,
// using plain window means of gains and losses over the last `period`
// deltas. The point at index 0 has no delta and is never valid; the first
// valid point is index `period`.
//
// Saturation is exact: RSI is 100 iff the window holds no losses, 0 iff it
// holds no gains.
func RSI(candles []model.Candle, period int) ([]Point, error) {
	win, err := NewGainLossWindow(period)
	if err != nil {
		return nil, err
	}

	out := make([]Point, 0, len(candles))
	cur := series.New(candles)
	var prevClose float64
	for {
		c, ok, err := cur.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		p := Point{OpenTime: c.OpenTime, Close: c.Close}
		if len(out) > 0 {
			win.Push(c.Close - prevClose)
			if win.Full() {
				p.Value = rsiValue(win.AvgGain(), win.AvgLoss())
				p.Valid = true
			}
		}
		prevClose = c.Close
		out = append(out, p)
	}
	return out, nil
}

// rsiValue maps average gain/loss to the 0..100 index. avgLoss == 0 pins the
// value at 100 (RS is unbounded there); avgGain == 0 yields exactly 0.
func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
