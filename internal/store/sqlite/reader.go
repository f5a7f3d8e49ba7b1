package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"candlecore/internal/model"
)

// Reader provides read-only access to the candle store.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := open(dbPath, 2)
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// FetchSeries returns candles for (symbol, interval) with
// from <= open_time <= to, ordered by open_time ascending. A zero from or to
// leaves that bound open.
func (r *Reader) FetchSeries(ctx context.Context, symbol string, interval model.Interval, from, to time.Time) ([]model.Candle, error) {
	lo := int64(0)
	if !from.IsZero() {
		lo = from.Unix()
	}
	hi := int64(1<<62 - 1)
	if !to.IsZero() {
		hi = to.Unix()
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, interval, open_time, close_time, open, high, low, close, volume,
		       quote_volume, trade_count, taker_buy_base, taker_buy_quote, source, raw
		FROM candles
		WHERE symbol = ? AND interval = ? AND open_time >= ? AND open_time <= ?
		ORDER BY open_time ASC
	`, symbol, string(interval), lo, hi)
	if err != nil {
		return nil, fmt.Errorf("sqlite query candles: %w", err)
	}
	defer rows.Close()

	var candles []model.Candle
	for rows.Next() {
		var (
			c              model.Candle
			iv             string
			openTS, closeTS int64
			source, raw    sql.NullString
		)
		if err := rows.Scan(&c.Symbol, &iv, &openTS, &closeTS, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume,
			&c.QuoteVolume, &c.TradeCount, &c.TakerBuyBase, &c.TakerBuyQuote, &source, &raw); err != nil {
			return nil, fmt.Errorf("sqlite scan candle: %w", err)
		}
		c.Interval = model.Interval(iv)
		c.OpenTime = time.Unix(openTS, 0).UTC()
		c.CloseTime = time.Unix(closeTS, 0).UTC()
		c.Source = source.String
		if raw.Valid {
			c.Raw = json.RawMessage(raw.String)
		}
		candles = append(candles, c)
	}
	return candles, rows.Err()
}

// ListSeriesKeys returns every distinct (symbol, interval) in the store.
func (r *Reader) ListSeriesKeys(ctx context.Context) ([]model.SeriesKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT symbol, interval FROM candles ORDER BY symbol, interval
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query series keys: %w", err)
	}
	defer rows.Close()

	var keys []model.SeriesKey
	for rows.Next() {
		var k model.SeriesKey
		var iv string
		if err := rows.Scan(&k.Symbol, &iv); err != nil {
			return nil, fmt.Errorf("sqlite scan series key: %w", err)
		}
		k.Interval = model.Interval(iv)
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// ReadDailyStats returns the materialized daily buckets for (symbol,
// interval), ordered by date ascending.
func (r *Reader) ReadDailyStats(ctx context.Context, symbol string, interval model.Interval) ([]model.DailyBucket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, interval, date, candle_count, day_open, day_high, day_low, day_close, day_volume, avg_price
		FROM daily_stats
		WHERE symbol = ? AND interval = ?
		ORDER BY date ASC
	`, symbol, string(interval))
	if err != nil {
		return nil, fmt.Errorf("sqlite query daily_stats: %w", err)
	}
	defer rows.Close()

	var buckets []model.DailyBucket
	for rows.Next() {
		var (
			b      model.DailyBucket
			iv     string
			dateTS int64
		)
		if err := rows.Scan(&b.Symbol, &iv, &dateTS, &b.CandleCount, &b.DayOpen, &b.DayHigh, &b.DayLow, &b.DayClose, &b.DayVolume, &b.AvgPrice); err != nil {
			return nil, fmt.Errorf("sqlite scan daily_stats: %w", err)
		}
		b.Interval = model.Interval(iv)
		b.Date = time.Unix(dateTS, 0).UTC()
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
