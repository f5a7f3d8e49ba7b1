// Package service wires the candle engine together: SQLite store, Redis
// latest cache, indicator set, refresh scheduler, HTTP query API, and the
// metrics server.
package service

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"candlecore/config"
	"candlecore/internal/indicator"
	"candlecore/internal/metrics"
	"candlecore/internal/model"
	"candlecore/internal/refresh"
	redisstore "candlecore/internal/store/redis"
	sqlitestore "candlecore/internal/store/sqlite"
)

// Service is the top-level orchestrator. It wires all dependencies, manages
// lifecycle, and coordinates goroutines.
type Service struct {
	cfg *config.Config
	log *slog.Logger

	set       *indicator.Set
	sqlReader *sqlitestore.Reader
	sqlWriter *sqlitestore.Writer
	cache     *redisstore.Cache
	refresher *refresh.Refresher

	prom    *metrics.Metrics
	health  *metrics.HealthStatus
	promSrv *metrics.Server
	apiSrv  *http.Server
}

// New creates a Service from the given config. It validates the indicator
// set, opens SQLite, and connects to Redis. A Redis failure degrades to
// store-only mode rather than aborting.
func New(cfg *config.Config, log *slog.Logger) (*Service, error) {
	set, err := indicator.NewSet(cfg.Indicators)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		cfg:    cfg,
		log:    log,
		set:    set,
		prom:   metrics.NewMetrics(),
		health: metrics.NewHealthStatus(),
	}

	os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755)
	svc.sqlWriter, err = sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		return nil, err
	}
	svc.sqlReader, err = sqlitestore.NewReader(cfg.SQLitePath)
	if err != nil {
		svc.sqlWriter.Close()
		return nil, err
	}
	svc.health.SetSQLiteOK(true)

	svc.cache, err = redisstore.New(redisstore.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warn("redis unavailable, running store-only", "err", err)
		svc.cache = nil
	} else {
		svc.health.SetRedisConnected(true)
	}

	var cache refresh.Cache
	if svc.cache != nil {
		cache = svc.cache
	}
	svc.refresher = refresh.New(
		&storeAdapter{reader: svc.sqlReader, writer: svc.sqlWriter},
		cache,
		set,
		time.Duration(cfg.RefreshIntervalS)*time.Second,
		svc.prom,
		svc.health,
		log,
	)

	return svc, nil
}

// storeAdapter joins the read and write halves into the refresher's Store.
type storeAdapter struct {
	reader *sqlitestore.Reader
	writer *sqlitestore.Writer
}

func (s *storeAdapter) FetchSeries(ctx context.Context, symbol string, interval model.Interval, from, to time.Time) ([]model.Candle, error) {
	return s.reader.FetchSeries(ctx, symbol, interval, from, to)
}

func (s *storeAdapter) ListSeriesKeys(ctx context.Context) ([]model.SeriesKey, error) {
	return s.reader.ListSeriesKeys(ctx)
}

func (s *storeAdapter) UpsertDailyStats(ctx context.Context, buckets []model.DailyBucket) error {
	return s.writer.UpsertDailyStats(ctx, buckets)
}

// Run starts all subsystems and blocks until ctx is cancelled.
func (svc *Service) Run(ctx context.Context) error {
	svc.log.Info("starting candle engine",
		"sqlite", svc.cfg.SQLitePath,
		"redis", svc.cfg.RedisAddr,
		"refresh_interval_s", svc.cfg.RefreshIntervalS,
		"indicators", len(svc.set.Configs()),
	)

	// metrics + health server
	svc.promSrv = metrics.NewServer(svc.cfg.MetricsAddr, svc.health)
	svc.promSrv.Start()
	var rdb *goredis.Client
	if svc.cache != nil {
		rdb = svc.cache.Client()
	}
	svc.health.StartLivenessChecker(ctx, rdb, svc.sqlWriter.DB(), 15*time.Second)

	// refresh scheduler
	go svc.refresher.Run(ctx)

	// retention pruning, daily
	if svc.cfg.RetentionDays > 0 {
		go svc.pruneLoop(ctx)
	}

	// query API
	svc.startAPI(ctx)

	<-ctx.Done()
	svc.shutdown()
	return nil
}

func (svc *Service) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		cutoff := time.Now().UTC().AddDate(0, 0, -svc.cfg.RetentionDays)
		if _, err := svc.sqlWriter.DeleteOldCandles(ctx, cutoff); err != nil {
			svc.log.Error("retention prune failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (svc *Service) shutdown() {
	svc.log.Info("shutdown signal received")

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if svc.apiSrv != nil {
		svc.apiSrv.Shutdown(shutCtx)
	}
	if svc.promSrv != nil {
		svc.promSrv.Stop(shutCtx)
	}
	if svc.cache != nil {
		svc.cache.Close()
	}
	svc.sqlReader.Close()
	svc.sqlWriter.Close()

	svc.log.Info("shutdown complete")
}
