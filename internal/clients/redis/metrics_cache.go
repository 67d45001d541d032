package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/templategenius/revenue-intel-backend/internal/platform/logger"
)

// MetricsCache holds serialized dashboard aggregates. The cache is an
// optimization only: every operation degrades to a miss on failure so the
// dashboard can always fall back to direct DB reads.
type MetricsCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
	// InvalidateMetrics drops all dashboard aggregate keys. Called after
	// correlation and outcome writes; aggregates are derived, never the
	// source of truth.
	InvalidateMetrics(ctx context.Context)
	Close() error
}

const metricsKeyPrefix = "dashboard:metrics:"

// MetricsKey builds the cache key for one period's aggregate.
func MetricsKey(period string) string { return metricsKeyPrefix + period }

type metricsCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewMetricsCache(log *logger.Logger, addr string, ttl time.Duration) (MetricsCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &metricsCache{
		log: log.With("service", "RedisMetricsCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func (c *metricsCache) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("Cache read failed, treating as miss", "key", key, "error", err)
		}
		return nil, false
	}
	return raw, true
}

func (c *metricsCache) Set(ctx context.Context, key string, val []byte) {
	if err := c.rdb.Set(ctx, key, val, c.ttl).Err(); err != nil {
		c.log.Warn("Cache write failed", "key", key, "error", err)
	}
}

func (c *metricsCache) InvalidateMetrics(ctx context.Context) {
	iter := c.rdb.Scan(ctx, 0, metricsKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("Cache invalidation scan failed", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("Cache invalidation failed", "error", err)
	}
}

func (c *metricsCache) Close() error { return c.rdb.Close() }

// NoopMetricsCache serves deployments without Redis: always a miss.
type NoopMetricsCache struct{}

func (NoopMetricsCache) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (NoopMetricsCache) Set(context.Context, string, []byte)        {}
func (NoopMetricsCache) InvalidateMetrics(context.Context)          {}
func (NoopMetricsCache) Close() error                               { return nil }
