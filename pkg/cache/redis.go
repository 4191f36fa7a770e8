package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/goldlink/pkg/logger"
)

// NewRedisClient connects to Redis. It returns nil when addr is empty or the
// server is unreachable; callers treat a nil client as "no cache".
func NewRedisClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		logger.Logger.Info().Msg("Redis not configured, caching disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Logger.Warn().
			Err(err).
			Str("redis_addr", addr).
			Msg("Redis unavailable, caching disabled")
		client.Close()
		return nil
	}

	logger.Logger.Info().
		Str("redis_addr", addr).
		Msg("Connected to Redis")
	return client
}
