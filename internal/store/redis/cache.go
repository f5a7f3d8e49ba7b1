// Package redis caches the freshest derived point per indicator series so
// dashboards read one GET instead of recomputing.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"candlecore/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const defaultLatestTTL = 30 * time.Minute

// Config configures the Redis cache.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Cache writes latest derived values to Redis with a TTL and publishes each
// update for live subscribers.
type Cache struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (c *Cache) Client() *goredis.Client { return c.client }

// New creates a new Cache and pings the server.
func New(cfg Config) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Cache{client: client}, nil
}

// SetLatestBatch writes the given points in a single pipeline: SET with TTL
// on each point's latest key plus a PUBLISH for live subscribers. Errors are
// logged, not returned; the cache is best-effort and never blocks a refresh.
func (c *Cache) SetLatestBatch(ctx context.Context, points []model.DerivedPoint) {
	if len(points) == 0 {
		return
	}

	pipe := c.client.Pipeline()
	for i := range points {
		p := &points[i]
		jsonData := string(p.JSON())
		key := p.LatestKey()
		pipe.Set(ctx, key, jsonData, defaultLatestTTL)
		pipe.Publish(ctx, "pub:"+key, jsonData)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[redis] latest batch pipeline error (%d points): %v", len(points), err)
	}
}

// GetLatest reads the freshest cached value for one derived series. Returns
// nil with no error when the key is absent or expired.
func (c *Cache) GetLatest(ctx context.Context, name, symbol string, interval model.Interval) (*model.DerivedPoint, error) {
	p := model.DerivedPoint{Name: name, Symbol: symbol, Interval: interval}
	data, err := c.client.Get(ctx, p.LatestKey()).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis GET %s: %w", p.LatestKey(), err)
	}

	var out model.DerivedPoint
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal cached point: %w", err)
	}
	return &out, nil
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
