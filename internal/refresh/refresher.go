// Package refresh periodically recomputes derived data for every stored
// candle series: daily aggregates are materialized back into SQLite and the
// freshest valid indicator values are pushed into the Redis latest cache.
package refresh

import (
	"context"
	"log/slog"
	"time"

	"candlecore/internal/aggregate"
	"candlecore/internal/indicator"
	"candlecore/internal/metrics"
	"candlecore/internal/model"
)

// Store is the SQLite surface a refresh cycle needs.
type Store interface {
	model.SeriesReader
	UpsertDailyStats(ctx context.Context, buckets []model.DailyBucket) error
}

// Cache receives the freshest derived points.
type Cache interface {
	SetLatestBatch(ctx context.Context, points []model.DerivedPoint)
}

// Refresher drives the periodic recompute loop.
type Refresher struct {
	store    Store
	cache    Cache
	set      *indicator.Set
	interval time.Duration
	prom     *metrics.Metrics
	health   *metrics.HealthStatus
	log      *slog.Logger
}

// New wires a refresher. cache, prom and health may be nil; the refresher
// then skips the corresponding step.
func New(store Store, cache Cache, set *indicator.Set, interval time.Duration, prom *metrics.Metrics, health *metrics.HealthStatus, log *slog.Logger) *Refresher {
	if log == nil {
		log = slog.Default()
	}
	return &Refresher{
		store:    store,
		cache:    cache,
		set:      set,
		interval: interval,
		prom:     prom,
		health:   health,
		log:      log,
	}
}

// Run refreshes immediately, then on every tick until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	r.RefreshAll(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RefreshAll(ctx)
		}
	}
}

// RefreshAll runs one full cycle over every stored series. Per-series errors
// are logged and counted; one broken series never blocks the rest.
func (r *Refresher) RefreshAll(ctx context.Context) {
	start := time.Now()

	keys, err := r.store.ListSeriesKeys(ctx)
	if err != nil {
		r.log.Error("list series keys failed", "err", err)
		if r.prom != nil {
			r.prom.RefreshErrors.Inc()
		}
		return
	}

	for _, key := range keys {
		if ctx.Err() != nil {
			return
		}
		if err := r.refreshSeries(ctx, key); err != nil {
			r.log.Error("series refresh failed", "series", key.String(), "err", err)
			if r.prom != nil {
				r.prom.RefreshErrors.Inc()
			}
		}
	}

	if r.prom != nil {
		r.prom.RefreshRunsTotal.Inc()
		r.prom.RefreshDur.Observe(time.Since(start).Seconds())
	}
	if r.health != nil {
		r.health.SetLastRefreshAt(time.Now())
	}
	r.log.Info("refresh cycle done", "series", len(keys), "took", time.Since(start).String())
}

func (r *Refresher) refreshSeries(ctx context.Context, key model.SeriesKey) error {
	candles, err := r.store.FetchSeries(ctx, key.Symbol, key.Interval, time.Time{}, time.Time{})
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		return nil
	}

	buckets, err := aggregate.Daily(candles)
	if err != nil {
		return err
	}
	upsertStart := time.Now()
	if err := r.store.UpsertDailyStats(ctx, buckets); err != nil {
		return err
	}
	if r.prom != nil {
		r.prom.SQLiteCommitDur.Observe(time.Since(upsertStart).Seconds())
		r.prom.DailyBucketsTotal.Add(float64(len(buckets)))
	}

	computeStart := time.Now()
	points, err := r.set.Compute(candles)
	if err != nil {
		if r.prom != nil {
			r.prom.UnorderedSeries.Inc()
		}
		return err
	}
	if r.prom != nil {
		r.prom.IndicatorComputeDur.Observe(time.Since(computeStart).Seconds())
	}

	if r.cache != nil {
		latest := latestValid(points)
		writeStart := time.Now()
		r.cache.SetLatestBatch(ctx, latest)
		if r.prom != nil {
			r.prom.RedisWriteDur.Observe(time.Since(writeStart).Seconds())
			for _, p := range latest {
				r.prom.IndicatorPointsTotal.WithLabelValues(kindOf(p.Name)).Inc()
			}
		}
	}
	return nil
}

// latestValid keeps only the newest valid point per derived series name.
// Points arrive grouped by name in ascending time order, so the last valid
// one per name wins.
func latestValid(points []model.DerivedPoint) []model.DerivedPoint {
	byName := make(map[string]model.DerivedPoint)
	order := make([]string, 0)
	for _, p := range points {
		if !p.Valid {
			continue
		}
		if _, seen := byName[p.Name]; !seen {
			order = append(order, p.Name)
		}
		byName[p.Name] = p
	}
	out := make([]model.DerivedPoint, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out
}

// kindOf extracts the indicator family from a derived series name, e.g.
// "SMA_20" -> "SMA", "BBANDS_20_UP" -> "BBANDS".
func kindOf(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '_' {
			return name[:i]
		}
	}
	return name
}
