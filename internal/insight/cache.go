// internal/insight/cache.go
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"borehole-analytics/internal/common/database"
	"borehole-analytics/internal/models"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "bhea:insight:"

// Cache stores generated reports keyed by dataset fingerprint.
type Cache interface {
	Get(ctx context.Context, fingerprint string) (*models.InsightReport, bool, error)
	Set(ctx context.Context, fingerprint string, report *models.InsightReport) error
}

// ==========================
// Redis Cache
// ==========================

// RedisCache keeps reports in Redis with a TTL so repeated dashboard loads
// of the same dataset do not re-bill the model.
type RedisCache struct {
	client *database.RedisClient
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed report cache.
func NewRedisCache(client *database.RedisClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached report for a fingerprint, if present.
func (c *RedisCache) Get(ctx context.Context, fingerprint string) (*models.InsightReport, bool, error) {
	raw, err := c.client.Get(ctx, cacheKeyPrefix+fingerprint)
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var report models.InsightReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		// A corrupt entry is treated as a miss; it will be overwritten.
		return nil, false, nil
	}
	report.Cached = true
	return &report, true, nil
}

// Set stores the report under the fingerprint key.
func (c *RedisCache) Set(ctx context.Context, fingerprint string, report *models.InsightReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+fingerprint, data, c.ttl); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// ==========================
// No-op Cache
// ==========================

// NoOpCache is used when caching is disabled in config.
type NoOpCache struct{}

func (NoOpCache) Get(ctx context.Context, fingerprint string) (*models.InsightReport, bool, error) {
	return nil, false, nil
}

func (NoOpCache) Set(ctx context.Context, fingerprint string, report *models.InsightReport) error {
	return nil
}
