package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/templategenius/revenue-intel-backend/internal/platform/logger"
	"github.com/templategenius/revenue-intel-backend/internal/utils"
)

type Config struct {
	Port string

	WebhookSecret    string
	WebhookTolerance time.Duration

	// Snapshots older than this are flagged stale during correlation but
	// still recorded.
	SnapshotMaxAge time.Duration

	// Edits without a non-trivial hypothesis are rejected.
	MinHypothesisLength int

	WorkerConcurrency  int
	WorkerMaxAttempts  int
	WorkerRetryDelay   time.Duration
	WorkerStaleRunning time.Duration

	RedisAddr       string
	MetricsCacheTTL time.Duration
}

// fileConfig is the optional YAML overlay (CONFIG_FILE). Env vars win over
// file values; file values win over defaults.
type fileConfig struct {
	Port                string `yaml:"port"`
	WebhookSecret       string `yaml:"webhook_secret"`
	WebhookToleranceSec int    `yaml:"webhook_tolerance_seconds"`
	SnapshotMaxAgeDays  int    `yaml:"snapshot_max_age_days"`
	MinHypothesisLength int    `yaml:"min_hypothesis_length"`
	WorkerConcurrency   int    `yaml:"worker_concurrency"`
	WorkerMaxAttempts   int    `yaml:"worker_max_attempts"`
	WorkerRetryDelaySec int    `yaml:"worker_retry_delay_seconds"`
	RedisAddr           string `yaml:"redis_addr"`
	MetricsCacheTTLSec  int    `yaml:"metrics_cache_ttl_seconds"`
}

func LoadConfig(log *logger.Logger) (Config, error) {
	var fc fileConfig
	if path := utils.GetEnv("CONFIG_FILE", "", log); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg := Config{
		Port:                utils.GetEnv("PORT", orString(fc.Port, "8080"), log),
		WebhookSecret:       utils.GetEnv("WEBHOOK_SECRET", fc.WebhookSecret, log),
		WebhookTolerance:    time.Duration(utils.GetEnvAsInt("WEBHOOK_TOLERANCE_SECONDS", orInt(fc.WebhookToleranceSec, 300), log)) * time.Second,
		SnapshotMaxAge:      time.Duration(utils.GetEnvAsInt("SNAPSHOT_MAX_AGE_DAYS", orInt(fc.SnapshotMaxAgeDays, 30), log)) * 24 * time.Hour,
		MinHypothesisLength: utils.GetEnvAsInt("MIN_HYPOTHESIS_LENGTH", orInt(fc.MinHypothesisLength, 10), log),
		WorkerConcurrency:   utils.GetEnvAsInt("WORKER_CONCURRENCY", orInt(fc.WorkerConcurrency, 4), log),
		WorkerMaxAttempts:   utils.GetEnvAsInt("WORKER_MAX_ATTEMPTS", orInt(fc.WorkerMaxAttempts, 5), log),
		WorkerRetryDelay:    time.Duration(utils.GetEnvAsInt("WORKER_RETRY_DELAY_SECONDS", orInt(fc.WorkerRetryDelaySec, 30), log)) * time.Second,
		WorkerStaleRunning:  time.Duration(utils.GetEnvAsInt("WORKER_STALE_RUNNING_MINUTES", 30, log)) * time.Minute,
		RedisAddr:           utils.GetEnv("REDIS_ADDR", fc.RedisAddr, log),
		MetricsCacheTTL:     time.Duration(utils.GetEnvAsInt("METRICS_CACHE_TTL_SECONDS", orInt(fc.MetricsCacheTTLSec, 60), log)) * time.Second,
	}
	if cfg.WebhookSecret == "" {
		log.Warn("WEBHOOK_SECRET not configured, webhook ingestion will reject all deliveries")
	}
	return cfg, nil
}

func orString(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}
