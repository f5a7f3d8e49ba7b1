// Package config loads application configuration from a YAML file with
// environment-variable overrides. Env vars win so deployments can tweak a
// shared file without editing it.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"candlecore/internal/indicator"
)

// Config holds all application configuration.
type Config struct {
	// Infrastructure
	SQLitePath    string `yaml:"sqlite_path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// Servers
	HTTPAddr    string `yaml:"http_addr"`
	MetricsAddr string `yaml:"metrics_addr"`

	// Refresh scheduler
	RefreshIntervalS int `yaml:"refresh_interval_s"`
	RetentionDays    int `yaml:"retention_days"` // 0 disables pruning

	// Logging
	LogLevel string `yaml:"log_level"`

	// Indicator instances computed on every refresh.
	Indicators []indicator.Config `yaml:"indicators"`
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist), applies environment overrides, and fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			log.Printf("[config] %s not found, using env and defaults", path)
		default:
			return nil, fmt.Errorf("config read %s: %w", path, err)
		}
	}

	cfg.SQLitePath = getEnv("SQLITE_PATH", def(cfg.SQLitePath, "data/candles.db"))
	cfg.RedisAddr = getEnv("REDIS_ADDR", def(cfg.RedisAddr, "localhost:6379"))
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvInt("REDIS_DB", cfg.RedisDB)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", def(cfg.HTTPAddr, ":8080"))
	cfg.MetricsAddr = getEnv("METRICS_ADDR", def(cfg.MetricsAddr, ":9090"))
	cfg.RefreshIntervalS = getEnvInt("REFRESH_INTERVAL_S", cfg.RefreshIntervalS)
	if cfg.RefreshIntervalS <= 0 {
		cfg.RefreshIntervalS = 60
	}
	cfg.RetentionDays = getEnvInt("RETENTION_DAYS", cfg.RetentionDays)
	cfg.LogLevel = getEnv("LOG_LEVEL", def(cfg.LogLevel, "info"))

	if len(cfg.Indicators) == 0 {
		cfg.Indicators = []indicator.Config{
			{Kind: indicator.KindSMA, Period: 20},
			{Kind: indicator.KindEMA, Period: 20},
			{Kind: indicator.KindRSI, Period: 14},
			{Kind: indicator.KindBollinger},
			{Kind: indicator.KindChange},
		}
	}

	return cfg, nil
}

func def(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] ignoring invalid %s=%q", key, v)
		return fallback
	}
	return n
}
