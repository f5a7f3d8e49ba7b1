package aggregate

import (
	"math"
	"testing"
	"time"

	"candlecore/internal/model"
)

func mk(open time.Time, o, h, l, c, v float64) model.Candle {
	return model.Candle{
		Symbol:    "BTCUSDT",
		Interval:  model.Interval1h,
		OpenTime:  open,
		CloseTime: open.Add(time.Hour),
		Open:      o, High: h, Low: l, Close: c,
		Volume: v,
	}
}

func assertClose(t *testing.T, label string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s: got %v, want %v", label, got, want)
	}
}

func TestDaily_SingleDay(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := []model.Candle{
		mk(day.Add(9*time.Hour), 100, 106, 99, 104, 10),
		mk(day.Add(10*time.Hour), 104, 110, 103, 108, 20),
		mk(day.Add(11*time.Hour), 108, 109, 101, 102, 5),
	}

	buckets, err := Daily(candles)
	if err != nil {
		t.Fatal(err)
	}
	if len(buckets) != 1 {
		t.Fatalf("got %d buckets, want 1", len(buckets))
	}

	b := buckets[0]
	if !b.Date.Equal(day) {
		t.Errorf("Date = %v, want %v", b.Date, day)
	}
	if b.CandleCount != 3 {
		t.Errorf("CandleCount = %d, want 3", b.CandleCount)
	}
	assertClose(t, "DayOpen", b.DayOpen, 100)
	assertClose(t, "DayClose", b.DayClose, 102)
	assertClose(t, "DayHigh", b.DayHigh, 110)
	assertClose(t, "DayLow", b.DayLow, 99)
	assertClose(t, "DayVolume", b.DayVolume, 35)
	assertClose(t, "AvgPrice", b.AvgPrice, (104.0+108+102)/3)
}

func TestDaily_FlushesOnDateChange(t *testing.T) {
	day1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	day4 := day1.AddDate(0, 0, 3) // gap: no candles on day 3

	candles := []model.Candle{
		mk(day1.Add(23*time.Hour), 100, 101, 99, 100, 1),
		mk(day2, 100, 103, 100, 103, 2), // UTC midnight belongs to day 2
		mk(day2.Add(time.Hour), 103, 104, 102, 102, 3),
		mk(day4, 102, 105, 102, 105, 4),
	}

	buckets, err := Daily(candles)
	if err != nil {
		t.Fatal(err)
	}
	if len(buckets) != 3 {
		t.Fatalf("got %d buckets, want 3", len(buckets))
	}

	if !buckets[0].Date.Equal(day1) || buckets[0].CandleCount != 1 {
		t.Errorf("bucket 0: %+v", buckets[0])
	}
	if !buckets[1].Date.Equal(day2) || buckets[1].CandleCount != 2 {
		t.Errorf("bucket 1: %+v", buckets[1])
	}
	assertClose(t, "day2 open", buckets[1].DayOpen, 100)
	assertClose(t, "day2 close", buckets[1].DayClose, 102)
	if !buckets[2].Date.Equal(day4) || buckets[2].CandleCount != 1 {
		t.Errorf("bucket 2: %+v", buckets[2])
	}
}

func TestDaily_EmptySeries(t *testing.T) {
	buckets, err := Daily(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(buckets) != 0 {
		t.Errorf("got %d buckets for empty input", len(buckets))
	}
}

func TestDaily_UnorderedFails(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := []model.Candle{
		mk(day.Add(2*time.Hour), 100, 101, 99, 100, 1),
		mk(day.Add(time.Hour), 100, 101, 99, 100, 1),
	}
	buckets, err := Daily(candles)
	if err == nil {
		t.Fatal("expected ordering error")
	}
	if len(buckets) != 0 {
		t.Errorf("got %d buckets after ordering error, want 0", len(buckets))
	}
}
