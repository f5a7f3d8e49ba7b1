package model

import (
	"context"
	"time"
)

// ── Storage Port Interfaces ──
// These interfaces decouple the computation engine and the refresh scheduler
// from concrete storage implementations (SQLite, Redis).

// SeriesReader fetches ascending candle series from the store. The store
// guarantees per-key uniqueness and enforces the candle invariants at write
// time, so results are already valid and ordered by open_time ascending.
type SeriesReader interface {
	// FetchSeries returns the candles for (symbol, interval) with
	// from <= open_time <= to, ascending. Zero from/to means unbounded.
	FetchSeries(ctx context.Context, symbol string, interval Interval, from, to time.Time) ([]Candle, error)

	// ListSeriesKeys returns every distinct (symbol, interval) in the store.
	ListSeriesKeys(ctx context.Context) ([]SeriesKey, error)
}

// CandleWriter persists validated candles.
type CandleWriter interface {
	// Run reads candles from candleCh and writes them in batches.
	// Blocks until ctx is cancelled or candleCh is closed.
	Run(ctx context.Context, candleCh <-chan Candle)

	// InsertBatch writes a batch in one transaction, skipping duplicates.
	InsertBatch(ctx context.Context, candles []Candle) (int64, error)

	// Close releases underlying resources.
	Close() error
}

// DailyStatsWriter persists materialized daily aggregates.
type DailyStatsWriter interface {
	// UpsertDailyStats inserts or replaces the given buckets.
	UpsertDailyStats(ctx context.Context, buckets []DailyBucket) error
}

// DerivedCache caches the freshest derived value per (name, symbol, interval).
type DerivedCache interface {
	// SetLatestBatch writes the given points in a single pipeline.
	SetLatestBatch(ctx context.Context, points []DerivedPoint)

	// Close releases underlying resources.
	Close() error
}
