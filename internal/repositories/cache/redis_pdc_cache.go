package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/rentably/pdc_engine/internal/core/domain"
	portsrepo "github.com/rentably/pdc_engine/internal/core/ports/repositories"
	"github.com/redis/go-redis/v9"
)

const pdcCacheKeyPrefix = "pdc:cache:"

// RedisPDCCache shares cached cheque reads across process instances.
// Cache failures degrade to repository reads; they are logged, never surfaced.
type RedisPDCCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ portsrepo.PDCCache = (*RedisPDCCache)(nil)

// NewRedisPDCCache creates a cache on an existing Redis client.
func NewRedisPDCCache(client *redis.Client, ttl time.Duration) *RedisPDCCache {
	return &RedisPDCCache{client: client, ttl: ttl}
}

func (c *RedisPDCCache) Get(ctx context.Context, pdcID string) (*domain.PDC, bool) {
	data, err := c.client.Get(ctx, pdcCacheKeyPrefix+pdcID).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("Redis cache read failed", slog.String("pdc_id", pdcID), slog.String("error", err.Error()))
		}
		return nil, false
	}
	var pdc domain.PDC
	if err := json.Unmarshal(data, &pdc); err != nil {
		slog.Warn("Failed to decode cached cheque", slog.String("pdc_id", pdcID), slog.String("error", err.Error()))
		return nil, false
	}
	return &pdc, true
}

func (c *RedisPDCCache) Set(ctx context.Context, pdc domain.PDC) {
	data, err := json.Marshal(pdc)
	if err != nil {
		slog.Warn("Failed to encode cheque for cache", slog.String("pdc_id", pdc.PDCID), slog.String("error", err.Error()))
		return
	}
	if err := c.client.Set(ctx, pdcCacheKeyPrefix+pdc.PDCID, data, c.ttl).Err(); err != nil {
		slog.Warn("Redis cache write failed", slog.String("pdc_id", pdc.PDCID), slog.String("error", err.Error()))
	}
}

func (c *RedisPDCCache) Invalidate(ctx context.Context, pdcID string) {
	if err := c.client.Del(ctx, pdcCacheKeyPrefix+pdcID).Err(); err != nil {
		slog.Warn("Redis cache invalidation failed", slog.String("pdc_id", pdcID), slog.String("error", err.Error()))
	}
}
