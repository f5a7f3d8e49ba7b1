package indicator

import (
	"errors"
	"testing"
	"time"

	"candlecore/internal/model"
)

func TestNewSet_FillsDefaults(t *testing.T) {
	set, err := NewSet([]Config{
		{Kind: KindBollinger},
		{Kind: KindChange},
	})
	if err != nil {
		t.Fatal(err)
	}
	cfgs := set.Configs()
	if cfgs[0].Period != DefaultBollingerPeriod || cfgs[0].K != DefaultBollingerK {
		t.Errorf("bollinger defaults not filled: %+v", cfgs[0])
	}
	if cfgs[1].Lag != DefaultChangeLag {
		t.Errorf("change default not filled: %+v", cfgs[1])
	}
}

func TestNewSet_RejectsBadConfigs(t *testing.T) {
	cases := []Config{
		{Kind: KindSMA},                      // missing period
		{Kind: KindRSI, Period: -2},          // negative period
		{Kind: KindBollinger, K: -1},         // negative k
		{Kind: KindChange, Lag: -1},          // negative lag
		{Kind: "MACD", Period: 12},           // unknown kind
	}
	for _, c := range cases {
		_, err := NewSet([]Config{c})
		var perr *InvalidParameterError
		if !errors.As(err, &perr) {
			t.Errorf("config %+v: expected *InvalidParameterError, got %v", c, err)
		}
	}
}

func TestConfig_Name(t *testing.T) {
	cases := []struct {
		cfg  Config
		want string
	}{
		{Config{Kind: KindSMA, Period: 20}, "SMA_20"},
		{Config{Kind: KindRSI, Period: 14}, "RSI_14"},
		{Config{Kind: KindBollinger, Period: 20}, "BBANDS_20"},
		{Config{Kind: KindChange, Lag: 1}, "CHANGE_1"},
	}
	for _, tc := range cases {
		if got := tc.cfg.Name(); got != tc.want {
			t.Errorf("Name() = %q, want %q", got, tc.want)
		}
	}
}

func TestSet_ComputeFlattensAllFamilies(t *testing.T) {
	set, err := NewSet([]Config{
		{Kind: KindSMA, Period: 3},
		{Kind: KindBollinger, Period: 3, K: 2},
		{Kind: KindChange, Lag: 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	candles := mkSeries(100, 102, 101, 105, 103)
	points, err := set.Compute(candles)
	if err != nil {
		t.Fatal(err)
	}

	// 5 SMA + 15 band + 10 change points
	if len(points) != 30 {
		t.Fatalf("got %d points, want 30", len(points))
	}

	byName := map[string]int{}
	for _, p := range points {
		byName[p.Name]++
		if p.Symbol != "BTCUSDT" || p.Interval != model.Interval1m {
			t.Errorf("point %s: series identity lost: %s %s", p.Name, p.Symbol, p.Interval)
		}
	}
	for _, name := range []string{"SMA_3", "BBANDS_3_MID", "BBANDS_3_UP", "BBANDS_3_LOW", "CHANGE_1", "CHANGE_1_PCT"} {
		if byName[name] != 5 {
			t.Errorf("series %s: %d points, want 5", name, byName[name])
		}
	}
}

func TestSet_ComputePercentValidityIndependent(t *testing.T) {
	set, err := NewSet([]Config{{Kind: KindChange, Lag: 1}})
	if err != nil {
		t.Fatal(err)
	}

	candles := mkSeries(100, 101)
	candles[0].Close = 0

	points, err := set.Compute(candles)
	if err != nil {
		t.Fatal(err)
	}
	var abs, pct *model.DerivedPoint
	for i := range points {
		if points[i].OpenTime.Equal(candles[1].OpenTime) {
			switch points[i].Name {
			case "CHANGE_1":
				abs = &points[i]
			case "CHANGE_1_PCT":
				pct = &points[i]
			}
		}
	}
	if abs == nil || pct == nil {
		t.Fatal("missing change points")
	}
	if !abs.Valid {
		t.Error("absolute change should be valid")
	}
	if pct.Valid {
		t.Error("percent should be invalid with a non-positive reference close")
	}
}

func TestSet_ComputeUnorderedAbortsWholeSet(t *testing.T) {
	set, err := NewSet([]Config{
		{Kind: KindSMA, Period: 2},
		{Kind: KindEMA, Period: 2},
	})
	if err != nil {
		t.Fatal(err)
	}

	candles := mkSeries(100, 102, 101)
	candles[2].OpenTime = candles[0].OpenTime.Add(-time.Minute)

	points, err := set.Compute(candles)
	if err == nil {
		t.Fatal("expected ordering error")
	}
	if len(points) != 0 {
		t.Errorf("got %d points after ordering error, want 0", len(points))
	}
}

func TestSet_ComputeEmptySeries(t *testing.T) {
	set, _ := NewSet([]Config{{Kind: KindSMA, Period: 3}})
	points, err := set.Compute(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 0 {
		t.Errorf("got %d points for empty input", len(points))
	}
}
