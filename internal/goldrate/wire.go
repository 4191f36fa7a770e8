//go:build wireinject
// +build wireinject

package goldrate

import (
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tair/goldlink/internal/goldrate/domain"
	"github.com/tair/goldlink/internal/goldrate/handler"
	"github.com/tair/goldlink/internal/goldrate/provider"
	"github.com/tair/goldlink/internal/goldrate/repository"
	"github.com/tair/goldlink/internal/goldrate/usecase/command"
	"github.com/tair/goldlink/internal/goldrate/usecase/query"
	"github.com/tair/goldlink/pkg/metrics"
)

// CacheTTL bounds how long a latest answer is served from Redis
const CacheTTL = 5 * time.Minute

// ProvideRateRepository provides the rate repository
func ProvideRateRepository(db *gorm.DB) domain.RateRepository {
	return repository.NewGormRateRepository(db)
}

// ProvideLatestCache uses Redis when a client is available
func ProvideLatestCache(client *redis.Client) domain.LatestCache {
	if client == nil {
		return repository.NopCache{}
	}
	return repository.NewRedisLatestCache(client, CacheTTL)
}

// ProvideProvider provides the price source
func ProvideProvider() domain.Provider {
	return provider.NewSyntheticProvider()
}

// ProvideRefresher exposes the refresh command to the latest query
func ProvideRefresher(h *command.RefreshRatesHandler) query.Refresher {
	return h
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideRateRepository,
	ProvideLatestCache,
	ProvideProvider,
)

var HandlerSet = wire.NewSet(
	command.NewRefreshRatesHandler,
	ProvideRefresher,
	query.NewLatestRatesHandler,
)

// InitializeHTTPHandler initializes HTTP handler with all dependencies
func InitializeHTTPHandler(db *gorm.DB, client *redis.Client, httpMetrics *metrics.HTTPMetrics, opts handler.Options) (*handler.GoldRateHandler, error) {
	wire.Build(
		RepositorySet,
		HandlerSet,
		handler.NewGoldRateHandler,
	)
	return nil, nil
}

// InitializeRefreshRates initializes the refresh command used by the admin CLI
func InitializeRefreshRates(db *gorm.DB, client *redis.Client) (*command.RefreshRatesHandler, error) {
	wire.Build(
		RepositorySet,
		command.NewRefreshRatesHandler,
	)
	return nil, nil
}
