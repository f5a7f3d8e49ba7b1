package indicator

import (
	"fmt"

	"candlecore/internal/model"
)

// Kind identifies an indicator family.
type Kind string

const (
	KindSMA       Kind = "SMA"
	KindEMA       Kind = "EMA"
	KindRSI       Kind = "RSI"
	KindBollinger Kind = "BBANDS"
	KindChange    Kind = "CHANGE"
)

// Config is one indicator instance to compute. Zero Period, K or Lag pick
// the family default where one exists; SMA, EMA and RSI have no default
// period and require one.
type Config struct {
	Kind   Kind    `yaml:"kind" json:"kind"`
	Period int     `yaml:"period" json:"period"`
	K      float64 `yaml:"k" json:"k"`
	Lag    int     `yaml:"lag" json:"lag"`
}

// Name returns the canonical derived-series name for this instance, e.g.
// "SMA_20", "BBANDS_20" or "CHANGE_1".
func (c Config) Name() string {
	switch c.Kind {
	case KindChange:
		return fmt.Sprintf("%s_%d", c.Kind, c.Lag)
	default:
		return fmt.Sprintf("%s_%d", c.Kind, c.Period)
	}
}

// Set is a validated collection of indicator instances computed together
// over each series.
type Set struct {
	configs []Config
}

// NewSet validates the configs, fills family defaults, and rejects unknown
// kinds and illegal parameters up front so Compute cannot fail on them.
func NewSet(configs []Config) (*Set, error) {
	out := make([]Config, 0, len(configs))
	for _, c := range configs {
		switch c.Kind {
		case KindSMA, KindEMA, KindRSI:
			if c.Period <= 0 {
				return nil, &InvalidParameterError{Param: "period", Value: float64(c.Period), Reason: fmt.Sprintf("%s requires a positive period", c.Kind)}
			}
		case KindBollinger:
			if c.Period == 0 {
				c.Period = DefaultBollingerPeriod
			}
			if c.K == 0 {
				c.K = DefaultBollingerK
			}
			if c.Period <= 0 {
				return nil, &InvalidParameterError{Param: "period", Value: float64(c.Period), Reason: "must be a positive integer"}
			}
			if c.K <= 0 {
				return nil, &InvalidParameterError{Param: "k", Value: c.K, Reason: "must be positive"}
			}
		case KindChange:
			if c.Lag == 0 {
				c.Lag = DefaultChangeLag
			}
			if c.Lag <= 0 {
				return nil, &InvalidParameterError{Param: "lag", Value: float64(c.Lag), Reason: "must be a positive integer"}
			}
		default:
			return nil, &InvalidParameterError{Param: "kind", Reason: fmt.Sprintf("unknown indicator kind %q", c.Kind)}
		}
		out = append(out, c)
	}
	return &Set{configs: out}, nil
}

// Configs returns the validated instances, defaults filled.
func (s *Set) Configs() []Config { return s.configs }

// Compute runs every configured indicator over one candle series and
// flattens the results into derived points. Bollinger contributes three
// series (name_MID, name_UP, name_LOW); price change contributes the
// absolute series plus a _PCT series whose validity additionally tracks the
// reference close. An ordering error aborts the whole set: no points.
func (s *Set) Compute(candles []model.Candle) ([]model.DerivedPoint, error) {
	var out []model.DerivedPoint
	for _, cfg := range s.configs {
		pts, err := s.computeOne(cfg, candles)
		if err != nil {
			return nil, err
		}
		out = append(out, pts...)
	}
	return out, nil
}

func (s *Set) computeOne(cfg Config, candles []model.Candle) ([]model.DerivedPoint, error) {
	var symbol string
	var interval model.Interval
	if len(candles) > 0 {
		symbol, interval = candles[0].Symbol, candles[0].Interval
	}
	name := cfg.Name()

	mk := func(n string, p Point) model.DerivedPoint {
		return model.DerivedPoint{
			Name: n, Symbol: symbol, Interval: interval,
			OpenTime: p.OpenTime, Close: p.Close, Value: p.Value, Valid: p.Valid,
		}
	}

	switch cfg.Kind {
	case KindSMA:
		pts, err := SMA(candles, cfg.Period)
		if err != nil {
			return nil, err
		}
		out := make([]model.DerivedPoint, 0, len(pts))
		for _, p := range pts {
			out = append(out, mk(name, p))
		}
		return out, nil

	case KindEMA:
		pts, err := EMA(candles, cfg.Period)
		if err != nil {
			return nil, err
		}
		out := make([]model.DerivedPoint, 0, len(pts))
		for _, p := range pts {
			out = append(out, mk(name, p))
		}
		return out, nil

	case KindRSI:
		pts, err := RSI(candles, cfg.Period)
		if err != nil {
			return nil, err
		}
		out := make([]model.DerivedPoint, 0, len(pts))
		for _, p := range pts {
			out = append(out, mk(name, p))
		}
		return out, nil

	case KindBollinger:
		bands, err := Bollinger(candles, cfg.Period, cfg.K)
		if err != nil {
			return nil, err
		}
		out := make([]model.DerivedPoint, 0, 3*len(bands))
		for _, b := range bands {
			out = append(out,
				mk(name+"_MID", Point{OpenTime: b.OpenTime, Close: b.Close, Value: b.Middle, Valid: b.Valid}),
				mk(name+"_UP", Point{OpenTime: b.OpenTime, Close: b.Close, Value: b.Upper, Valid: b.Valid}),
				mk(name+"_LOW", Point{OpenTime: b.OpenTime, Close: b.Close, Value: b.Lower, Valid: b.Valid}),
			)
		}
		return out, nil

	case KindChange:
		chs, err := Change(candles, cfg.Lag)
		if err != nil {
			return nil, err
		}
		out := make([]model.DerivedPoint, 0, 2*len(chs))
		for _, ch := range chs {
			out = append(out,
				mk(name, Point{OpenTime: ch.OpenTime, Close: ch.Close, Value: ch.Change, Valid: ch.Valid}),
				mk(name+"_PCT", Point{OpenTime: ch.OpenTime, Close: ch.Close, Value: ch.Percent, Valid: ch.Valid && ch.PercentValid}),
			)
		}
		return out, nil
	}

	return nil, &InvalidParameterError{Param: "kind", Reason: fmt.Sprintf("unknown indicator kind %q", cfg.Kind)}
}
