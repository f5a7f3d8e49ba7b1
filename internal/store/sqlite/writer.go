package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"candlecore/internal/model"
)

const (
	defaultBatchSize  = 200
	defaultFlushDelay = 200 * time.Millisecond
)

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/candles.db"
}

// Writer is a single-goroutine SQLite writer with transaction batching.
// Duplicate candles (same symbol, interval, open_time) are skipped, never
// overwritten; stored candles are immutable.
type Writer struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New creates a new SQLite Writer, initializes the database with WAL mode
// and the schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := open(cfg.DBPath, 1)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db}, nil
}

// Run reads candles from candleCh and inserts them in batched transactions.
// Flushes every batchSize candles OR every flushDelay, whichever first.
// Blocks until ctx is cancelled or candleCh is closed.
func (w *Writer) Run(ctx context.Context, candleCh <-chan model.Candle) {
	batch := make([]model.Candle, 0, defaultBatchSize)
	timer := time.NewTimer(defaultFlushDelay)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		start := time.Now()
		if n, err := w.InsertBatch(ctx, batch); err != nil {
			log.Printf("[sqlite] batch insert error: %v", err)
		} else {
			log.Printf("[sqlite] committed %d/%d candles in %v", n, len(batch), time.Since(start))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case candle, ok := <-candleCh:
			if !ok {
				flush()
				return
			}
			batch = append(batch, candle)
			if len(batch) >= defaultBatchSize {
				flush()
				timer.Reset(defaultFlushDelay)
			}

		case <-timer.C:
			flush()
			timer.Reset(defaultFlushDelay)
		}
	}
}

// InsertBatch inserts candles in a single transaction with INSERT OR IGNORE
// and returns the number of rows actually written. Rows that collide with an
// existing (symbol, interval, open_time) are silently skipped.
func (w *Writer) InsertBatch(ctx context.Context, candles []model.Candle) (int64, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO candles
			(symbol, interval, open_time, close_time, open, high, low, close, volume,
			 quote_volume, trade_count, taker_buy_base, taker_buy_quote, source, raw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	var inserted int64
	for i := range candles {
		c := &candles[i]
		var raw any
		if len(c.Raw) > 0 {
			raw = string(c.Raw)
		}
		res, err := stmt.Exec(
			c.Symbol, string(c.Interval), c.OpenTime.Unix(), c.CloseTime.Unix(),
			c.Open, c.High, c.Low, c.Close, c.Volume,
			c.QuoteVolume, c.TradeCount, c.TakerBuyBase, c.TakerBuyQuote,
			nullable(c.Source), raw,
		)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("insert candle %s: %w", c.Key(), err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// UpsertDailyStats inserts or replaces the materialized daily buckets.
func (w *Writer) UpsertDailyStats(ctx context.Context, buckets []model.DailyBucket) error {
	if len(buckets) == 0 {
		return nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO daily_stats
			(symbol, interval, date, candle_count, day_open, day_high, day_low, day_close, day_volume, avg_price, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT (symbol, interval, date) DO UPDATE SET
			candle_count = excluded.candle_count,
			day_open     = excluded.day_open,
			day_high     = excluded.day_high,
			day_low      = excluded.day_low,
			day_close    = excluded.day_close,
			day_volume   = excluded.day_volume,
			avg_price    = excluded.avg_price,
			updated_at   = excluded.updated_at
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range buckets {
		b := &buckets[i]
		_, err := stmt.Exec(
			b.Symbol, string(b.Interval), b.Date.Unix(),
			b.CandleCount, b.DayOpen, b.DayHigh, b.DayLow, b.DayClose, b.DayVolume, b.AvgPrice,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert daily_stats %s:%s: %w", b.Symbol, b.Interval, err)
		}
	}
	return tx.Commit()
}

// DeleteOldCandles removes candles with open_time before cutoff and returns
// the number of rows removed.
func (w *Writer) DeleteOldCandles(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := w.db.ExecContext(ctx, `DELETE FROM candles WHERE open_time < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete old candles: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		log.Printf("[sqlite] pruned %d candles older than %s", n, cutoff.UTC().Format(time.RFC3339))
	}
	return n, nil
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
