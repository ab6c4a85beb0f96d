package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"orderpro/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	dashboardGenerationKey = "orderpro:dashboard:generation"
	dashboardMetricsPrefix = "orderpro:dashboard:metrics:"
	DefaultMetricsTTL      = 30 * time.Second
)

// MetricsCache holds the last computed dashboard metrics. Every mutation
// of orders, products or customers invalidates it.
type MetricsCache interface {
	// Get returns the entry of the current generation. The generation is
	// returned on a miss too and is negative when it is unknown.
	Get(ctx context.Context) (metrics *models.DashboardMetrics, generation int64, ok bool)
	// Set stores metrics computed while generation was current. Entries of
	// a generation that has since been invalidated are never served.
	Set(ctx context.Context, generation int64, metrics *models.DashboardMetrics)
	Invalidate(ctx context.Context)
}

// RedisMetricsCache stores the metrics as JSON under a key scoped to a
// generation counter with a TTL. Invalidate advances the counter, so a
// computation that finishes after a mutation writes a key nobody reads.
// Redis failures degrade to a cache miss.
type RedisMetricsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisMetricsCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisMetricsCache {
	if ttl <= 0 {
		ttl = DefaultMetricsTTL
	}
	return &RedisMetricsCache{client: client, ttl: ttl, logger: logger}
}

func metricsKey(generation int64) string {
	return dashboardMetricsPrefix + strconv.FormatInt(generation, 10)
}

func (c *RedisMetricsCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, dashboardGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisMetricsCache) Get(ctx context.Context) (*models.DashboardMetrics, int64, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Warn("dashboard cache generation read failed", zap.Error(err))
		return nil, -1, false
	}

	raw, err := c.client.Get(ctx, metricsKey(gen)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		return nil, gen, false
	}
	var m models.DashboardMetrics
	if err := json.Unmarshal(raw, &m); err != nil {
		c.logger.Warn("dashboard cache entry is corrupt", zap.Error(err))
		return nil, gen, false
	}
	return &m, gen, true
}

func (c *RedisMetricsCache) Set(ctx context.Context, generation int64, metrics *models.DashboardMetrics) {
	if generation < 0 {
		return
	}
	raw, err := json.Marshal(metrics)
	if err != nil {
		c.logger.Warn("failed to encode dashboard metrics", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, metricsKey(generation), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
}

func (c *RedisMetricsCache) Invalidate(ctx context.Context) {
	gen, err := c.client.Incr(ctx, dashboardGenerationKey).Result()
	if err != nil {
		c.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
		return
	}
	// The previous entry can no longer be served; drop it early.
	if err := c.client.Del(ctx, metricsKey(gen-1)).Err(); err != nil {
		c.logger.Debug("stale dashboard cache entry not removed", zap.Error(err))
	}
}

type noopCache struct{}

func (noopCache) Get(context.Context) (*models.DashboardMetrics, int64, bool) { return nil, -1, false }
func (noopCache) Set(context.Context, int64, *models.DashboardMetrics)         {}
func (noopCache) Invalidate(context.Context)                                   {}
