package query

import (
	"context"
	"time"

	"github.com/tair/goldlink/internal/goldrate/domain"
	"github.com/tair/goldlink/pkg/apperror"
	"github.com/tair/goldlink/pkg/logger"
)

// Refresher stores fresh quotes
type Refresher interface {
	Handle(ctx context.Context) ([]domain.GoldRate, error)
}

// LatestRatesHandler returns the current quote per karat
type LatestRatesHandler struct {
	repo      domain.RateRepository
	cache     domain.LatestCache
	refresher Refresher
	now       func() time.Time
}

// NewLatestRatesHandler creates a new latest rates handler
func NewLatestRatesHandler(repo domain.RateRepository, cache domain.LatestCache, refresher Refresher) *LatestRatesHandler {
	return &LatestRatesHandler{repo: repo, cache: cache, refresher: refresher, now: utcNow}
}

func utcNow() time.Time { return time.Now().UTC() }

// Handle reads fresh quotes; when none exist it refreshes once and reads once more
func (h *LatestRatesHandler) Handle(ctx context.Context) ([]domain.GoldRate, error) {
	if rates, ok := h.cache.Get(ctx); ok {
		return rates, nil
	}

	rates, err := h.read(ctx)
	if err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		logger.Debug(ctx).Msg("No fresh gold rates, refreshing")
		if _, err := h.refresher.Handle(ctx); err != nil {
			return nil, err
		}
		if rates, err = h.read(ctx); err != nil {
			return nil, err
		}
	}

	if ttl := h.freshFor(rates); ttl > 0 {
		h.cache.Set(ctx, rates, ttl)
	}
	return rates, nil
}

// freshFor is how long the answer stays inside the freshness window,
// bounded by its oldest quote
func (h *LatestRatesHandler) freshFor(rates []domain.GoldRate) time.Duration {
	if len(rates) == 0 {
		return 0
	}
	oldest := rates[0].FetchedAt
	for _, r := range rates[1:] {
		if r.FetchedAt.Before(oldest) {
			oldest = r.FetchedAt
		}
	}
	return oldest.Add(domain.FreshnessWindow).Sub(h.now())
}

func (h *LatestRatesHandler) read(ctx context.Context) ([]domain.GoldRate, error) {
	since := h.now().Add(-domain.FreshnessWindow)
	rates, err := h.repo.LatestSince(ctx, since, domain.MaxLatest)
	if err != nil {
		return nil, apperror.Internal("failed to load gold rates", err)
	}
	return rates, nil
}
