package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/goldlink/internal/goldrate/domain"
	"github.com/tair/goldlink/pkg/logger"
)

const latestKey = "goldrate:latest"

// RedisLatestCache stores the latest quotes as one JSON value.
// Cache failures are logged and treated as misses.
type RedisLatestCache struct {
	client redis.UniversalClient
	maxTTL time.Duration
}

// NewRedisLatestCache creates a cache whose entries expire after at most maxTTL
func NewRedisLatestCache(client redis.UniversalClient, maxTTL time.Duration) *RedisLatestCache {
	return &RedisLatestCache{client: client, maxTTL: maxTTL}
}

func (c *RedisLatestCache) Get(ctx context.Context) ([]domain.GoldRate, bool) {
	data, err := c.client.Get(ctx, latestKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn(ctx).Err(err).Msg("Gold rate cache read failed")
		}
		return nil, false
	}
	var rates []domain.GoldRate
	if err := json.Unmarshal(data, &rates); err != nil {
		logger.Warn(ctx).Err(err).Msg("Discarding undecodable gold rate cache entry")
		return nil, false
	}
	return rates, true
}

func (c *RedisLatestCache) Set(ctx context.Context, rates []domain.GoldRate, ttl time.Duration) {
	if ttl > c.maxTTL {
		ttl = c.maxTTL
	}
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(rates)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, latestKey, data, ttl).Err(); err != nil {
		logger.Warn(ctx).Err(err).Msg("Gold rate cache write failed")
	}
}

func (c *RedisLatestCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, latestKey).Err(); err != nil {
		logger.Warn(ctx).Err(err).Msg("Gold rate cache invalidation failed")
	}
}

// NopCache is used when Redis is not configured
type NopCache struct{}

func (NopCache) Get(context.Context) ([]domain.GoldRate, bool) { return nil, false }
func (NopCache) Set(context.Context, []domain.GoldRate, time.Duration) {}
func (NopCache) Invalidate(context.Context) {}
