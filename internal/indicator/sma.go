package indicator

import (
	"candlecore/internal/model"
	"candlecore/internal/series"
)

// SMA computes the simple moving average of closes over the given period.
// The output has one point per input candle; indexes 0..period-2 are warm-up
// and carry Valid=false. An ordering break in the input returns the error
// and no points at all.
func SMA(candles []model.Candle, period int) ([]Point, error) {
	win, err := NewWindow(period)
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
		win.Push(c.Close)
		p := Point{OpenTime: c.OpenTime, Close: c.Close, Valid: win.Full()}
		if p.Valid {
			p.Value = win.Mean()
		}
		out = append(out, p)
	}
	return out, nil
}
