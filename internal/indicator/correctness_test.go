package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"candlecore/internal/model"
	"candlecore/internal/series"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func mkCandle(i int, close float64) model.Candle {
	open := base.Add(time.Duration(i) * time.Minute)
	return model.Candle{
		Symbol:    "BTCUSDT",
		Interval:  model.Interval1m,
		OpenTime:  open,
		CloseTime: open.Add(time.Minute),
		Open:      close, High: close + 1, Low: close - 1, Close: close,
		Volume: 1,
	}
}

func mkSeries(closes ...float64) []model.Candle {
	out := make([]model.Candle, len(closes))
	for i, c := range closes {
		out[i] = mkCandle(i, c)
	}
	return out
}

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

// ────────────────────────────────────────────────────────────
// SMA Correctness
// ────────────────────────────────────────────────────────────

func TestSMA_Correctness_Period3(t *testing.T) {
	// Hand-calculated SMA(3) for closes 100, 102, 101, 105, 103:
	// index 2: (100+102+101)/3 = 101.0
	// index 3: (102+101+105)/3 = 102.666667
	// index 4: (101+105+103)/3 = 103.0

	pts, err := SMA(mkSeries(100, 102, 101, 105, 103), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 5 {
		t.Fatalf("got %d points, want 5", len(pts))
	}

	expected := []float64{0, 0, 101.0, 102.666667, 103.0}
	valid := []bool{false, false, true, true, true}
	for i, p := range pts {
		if p.Valid != valid[i] {
			t.Errorf("index %d: Valid=%v, want %v", i, p.Valid, valid[i])
		}
		if valid[i] {
			assertClose(t, "SMA(3)", p.Value, expected[i], 1e-4)
		}
	}
}

func TestSMA_PeriodOneEchoesCloses(t *testing.T) {
	closes := []float64{100, 102, 101}
	pts, err := SMA(mkSeries(closes...), 1)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range pts {
		if !p.Valid {
			t.Errorf("index %d: SMA(1) should be valid everywhere", i)
		}
		assertClose(t, "SMA(1)", p.Value, closes[i], 1e-9)
	}
}

func TestSMA_PeriodLongerThanSeries(t *testing.T) {
	pts, err := SMA(mkSeries(100, 101), 5)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range pts {
		if p.Valid {
			t.Errorf("index %d: should be warm-up with period 5 over 2 candles", i)
		}
	}
}

func TestSMA_InvalidPeriod(t *testing.T) {
	_, err := SMA(mkSeries(100), 0)
	var perr *InvalidParameterError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *InvalidParameterError, got %v", err)
	}
}

func TestSMA_EmptySeries(t *testing.T) {
	pts, err := SMA(nil, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 0 {
		t.Errorf("got %d points for empty input", len(pts))
	}
}

// ────────────────────────────────────────────────────────────
// EMA Correctness
// ────────────────────────────────────────────────────────────

func TestEMA_Correctness_Period3(t *testing.T) {
	// EMA(3): alpha = 2/(3+1) = 0.5, seeded from the first close.
	// Closes 100, 102, 101, 105, 103:
	// index 0: 100
	// index 1: 0.5*102 + 0.5*100 = 101
	// index 2: 0.5*101 + 0.5*101 = 101
	// index 3: 0.5*105 + 0.5*101 = 103
	// index 4: 0.5*103 + 0.5*103 = 103

	pts, err := EMA(mkSeries(100, 102, 101, 105, 103), 3)
	if err != nil {
		t.Fatal(err)
	}

	expected := []float64{100, 101, 101, 103, 103}
	for i, p := range pts {
		if !p.Valid {
			t.Errorf("index %d: EMA has no warm-up gap", i)
		}
		assertClose(t, "EMA(3)", p.Value, expected[i], 1e-6)
	}
}

func TestEMA_PeriodOneEchoesCloses(t *testing.T) {
	// alpha = 2/2 = 1
	closes := []float64{100, 250.5, 3}
	pts, err := EMA(mkSeries(closes...), 1)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range pts {
		assertClose(t, "EMA(1)", p.Value, closes[i], 1e-12)
	}
}

func TestEMA_InvalidPeriod(t *testing.T) {
	var perr *InvalidParameterError
	if _, err := EMA(mkSeries(100), -1); !errors.As(err, &perr) {
		t.Fatalf("expected *InvalidParameterError, got %v", err)
	}
}

// ────────────────────────────────────────────────────────────
// RSI Correctness
// ────────────────────────────────────────────────────────────

func TestRSI_Correctness_Period2(t *testing.T) {
	// Closes 10, 12, 11, 14 -> deltas +2, -1, +3.
	// index 2: gains {2}, losses {1} over last 2 deltas:
	//   avgGain = 1, avgLoss = 0.5, RS = 2, RSI = 100 - 100/3 = 66.666667
	// index 3: deltas {-1, +3}:
	//   avgGain = 1.5, avgLoss = 0.5, RS = 3, RSI = 75

	pts, err := RSI(mkSeries(10, 12, 11, 14), 2)
	if err != nil {
		t.Fatal(err)
	}

	valid := []bool{false, false, true, true}
	expected := []float64{0, 0, 66.666667, 75}
	for i, p := range pts {
		if p.Valid != valid[i] {
			t.Errorf("index %d: Valid=%v, want %v", i, p.Valid, valid[i])
		}
		if valid[i] {
			assertClose(t, "RSI(2)", p.Value, expected[i], 1e-4)
		}
	}
}

func TestRSI_SaturatesAt100OnPureGains(t *testing.T) {
	pts, err := RSI(mkSeries(10, 11, 12, 13, 14), 3)
	if err != nil {
		t.Fatal(err)
	}
	last := pts[len(pts)-1]
	if !last.Valid || last.Value != 100 {
		t.Errorf("pure gains: Value=%v Valid=%v, want exactly 100", last.Value, last.Valid)
	}
}

func TestRSI_SaturatesAt0OnPureLosses(t *testing.T) {
	pts, err := RSI(mkSeries(14, 13, 12, 11, 10), 3)
	if err != nil {
		t.Fatal(err)
	}
	last := pts[len(pts)-1]
	if !last.Valid || last.Value != 0 {
		t.Errorf("pure losses: Value=%v Valid=%v, want exactly 0", last.Value, last.Valid)
	}
}

func TestRSI_FlatSeriesIs100(t *testing.T) {
	// all-zero deltas: avgLoss == 0 pins RSI at 100
	pts, err := RSI(mkSeries(10, 10, 10, 10), 2)
	if err != nil {
		t.Fatal(err)
	}
	last := pts[len(pts)-1]
	if !last.Valid || last.Value != 100 {
		t.Errorf("flat series: Value=%v Valid=%v, want 100", last.Value, last.Valid)
	}
}

func TestRSI_BoundedZeroToHundred(t *testing.T) {
	pts, err := RSI(mkSeries(50, 53, 47, 60, 44, 58, 51, 49, 62, 40), 3)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range pts {
		if !p.Valid {
			continue
		}
		if p.Value < 0 || p.Value > 100 {
			t.Errorf("index %d: RSI %v out of [0,100]", i, p.Value)
		}
	}
}

func TestRSI_FirstValidIndexIsPeriod(t *testing.T) {
	period := 4
	pts, err := RSI(mkSeries(10, 11, 12, 13, 14, 15), period)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range pts {
		want := i >= period
		if p.Valid != want {
			t.Errorf("index %d: Valid=%v, want %v", i, p.Valid, want)
		}
	}
}

// ────────────────────────────────────────────────────────────
// Bollinger Bands Correctness
// ────────────────────────────────────────────────────────────

func TestBollinger_Correctness_Period3(t *testing.T) {
	// Closes 100, 102, 101 at index 2 with k=2:
	// middle = 101, population stddev = sqrt(2/3) = 0.816497
	// upper = 102.632993, lower = 99.367007

	bands, err := Bollinger(mkSeries(100, 102, 101), 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	last := bands[2]
	if !last.Valid {
		t.Fatal("index 2 should be valid")
	}
	assertClose(t, "middle", last.Middle, 101.0, 1e-6)
	assertClose(t, "upper", last.Upper, 102.632993, 1e-5)
	assertClose(t, "lower", last.Lower, 99.367007, 1e-5)

	for i := 0; i < 2; i++ {
		if bands[i].Valid {
			t.Errorf("index %d: warm-up should be invalid", i)
		}
	}
}

func TestBollinger_BandWidthIsTwoKSigma(t *testing.T) {
	k := 2.5
	bands, err := Bollinger(mkSeries(50, 53, 47, 60, 44, 58, 51), 4, k)
	if err != nil {
		t.Fatal(err)
	}
	// recompute stddev directly per window and compare widths
	closes := []float64{50, 53, 47, 60, 44, 58, 51}
	for i, b := range bands {
		if !b.Valid {
			continue
		}
		win := closes[i-3 : i+1]
		var sum float64
		for _, v := range win {
			sum += v
		}
		mean := sum / 4
		var m2 float64
		for _, v := range win {
			m2 += (v - mean) * (v - mean)
		}
		sigma := math.Sqrt(m2 / 4)
		assertClose(t, "width", b.Upper-b.Lower, 2*k*sigma, 1e-7)
		assertClose(t, "middle", b.Middle, mean, 1e-7)
	}
}

func TestBollinger_MiddleEqualsSMA(t *testing.T) {
	candles := mkSeries(50, 53, 47, 60, 44, 58, 51)
	bands, err := Bollinger(candles, 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	smaPts, err := SMA(candles, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i := range bands {
		if bands[i].Valid != smaPts[i].Valid {
			t.Errorf("index %d: validity differs", i)
		}
		if bands[i].Valid {
			assertClose(t, "middle vs SMA", bands[i].Middle, smaPts[i].Value, 1e-9)
		}
	}
}

func TestBollinger_ConstantSeriesCollapses(t *testing.T) {
	bands, err := Bollinger(mkSeries(75, 75, 75, 75), 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	last := bands[3]
	assertClose(t, "upper==middle", last.Upper, last.Middle, 1e-9)
	assertClose(t, "lower==middle", last.Lower, last.Middle, 1e-9)
}

func TestBollinger_InvalidK(t *testing.T) {
	var perr *InvalidParameterError
	if _, err := Bollinger(mkSeries(100), 3, 0); !errors.As(err, &perr) {
		t.Fatalf("expected *InvalidParameterError for k=0, got %v", err)
	}
	if _, err := Bollinger(mkSeries(100), 3, -1.5); !errors.As(err, &perr) {
		t.Fatalf("expected *InvalidParameterError for k<0, got %v", err)
	}
}

// ────────────────────────────────────────────────────────────
// Price Change Correctness
// ────────────────────────────────────────────────────────────

func TestChange_Lag1(t *testing.T) {
	pts, err := Change(mkSeries(100, 102, 101), 1)
	if err != nil {
		t.Fatal(err)
	}

	if pts[0].Valid {
		t.Error("index 0 has no reference candle")
	}
	assertClose(t, "change idx1", pts[1].Change, 2, 1e-9)
	assertClose(t, "percent idx1", pts[1].Percent, 2, 1e-9)
	assertClose(t, "change idx2", pts[2].Change, -1, 1e-9)
	assertClose(t, "percent idx2", pts[2].Percent, -1.0/102*100, 1e-9)
	if !pts[1].PercentValid || !pts[2].PercentValid {
		t.Error("percent should be valid with positive reference closes")
	}
}

func TestChange_Lag2(t *testing.T) {
	pts, err := Change(mkSeries(100, 102, 101, 105), 2)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if pts[i].Valid {
			t.Errorf("index %d: no reference candle at lag 2", i)
		}
	}
	assertClose(t, "change idx2", pts[2].Change, 1, 1e-9)
	assertClose(t, "change idx3", pts[3].Change, 3, 1e-9)
	assertClose(t, "percent idx3", pts[3].Percent, 3.0/102*100, 1e-9)
}

func TestChange_PercentAbsentOnNonPositiveReference(t *testing.T) {
	// Indicators only check ordering, so a zero close can reach them when a
	// caller skips validation. The absolute change must still be reported.
	candles := mkSeries(100, 101)
	candles[0].Close = 0

	pts, err := Change(candles, 1)
	if err != nil {
		t.Fatal(err)
	}
	p := pts[1]
	if !p.Valid {
		t.Fatal("absolute change should be valid")
	}
	if p.PercentValid {
		t.Error("percent must be absent for reference close <= 0")
	}
	assertClose(t, "change", p.Change, 101, 1e-9)
}

func TestChange_RoundTripExact(t *testing.T) {
	// close[k-L] + change[k] == close[k] must hold exactly, no tolerance
	closes := []float64{50.25, 53.5, 47.125, 60, 44.75, 58.5}
	lag := 2
	pts, err := Change(mkSeries(closes...), lag)
	if err != nil {
		t.Fatal(err)
	}
	for k := lag; k < len(closes); k++ {
		if closes[k-lag]+pts[k].Change != closes[k] {
			t.Errorf("index %d: %v + %v != %v", k, closes[k-lag], pts[k].Change, closes[k])
		}
	}
}

func TestChange_InvalidLag(t *testing.T) {
	var perr *InvalidParameterError
	if _, err := Change(mkSeries(100), 0); !errors.As(err, &perr) {
		t.Fatalf("expected *InvalidParameterError, got %v", err)
	}
}

// ────────────────────────────────────────────────────────────
// Ordering violations are fatal for every indicator
// ────────────────────────────────────────────────────────────

func TestIndicators_UnorderedSeriesYieldsNoPoints(t *testing.T) {
	candles := mkSeries(100, 102, 101, 105)
	candles[2].OpenTime = candles[1].OpenTime.Add(-time.Second)

	var oerr *series.UnorderedSeriesError

	if pts, err := SMA(candles, 2); !errors.As(err, &oerr) || len(pts) != 0 {
		t.Errorf("SMA: err=%v points=%d", err, len(pts))
	}
	if pts, err := EMA(candles, 2); !errors.As(err, &oerr) || len(pts) != 0 {
		t.Errorf("EMA: err=%v points=%d", err, len(pts))
	}
	if pts, err := RSI(candles, 2); !errors.As(err, &oerr) || len(pts) != 0 {
		t.Errorf("RSI: err=%v points=%d", err, len(pts))
	}
	if pts, err := Bollinger(candles, 2, 2); !errors.As(err, &oerr) || len(pts) != 0 {
		t.Errorf("Bollinger: err=%v points=%d", err, len(pts))
	}
	if pts, err := Change(candles, 1); !errors.As(err, &oerr) || len(pts) != 0 {
		t.Errorf("Change: err=%v points=%d", err, len(pts))
	}
}
