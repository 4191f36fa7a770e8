package command

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tair/goldlink/internal/goldrate/domain"
	"github.com/tair/goldlink/pkg/apperror"
	"github.com/tair/goldlink/pkg/logger"
)

var tracer = otel.Tracer("goldrate-usecase")

// RefreshRatesHandler fetches quotes from the provider and appends them
type RefreshRatesHandler struct {
	provider domain.Provider
	repo     domain.RateRepository
	cache    domain.LatestCache
	now      func() time.Time
}

// NewRefreshRatesHandler creates a new refresh rates handler
func NewRefreshRatesHandler(provider domain.Provider, repo domain.RateRepository, cache domain.LatestCache) *RefreshRatesHandler {
	return &RefreshRatesHandler{
		provider: provider,
		repo:     repo,
		cache:    cache,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Handle stores one quote per karat and drops the cached latest answer
func (h *RefreshRatesHandler) Handle(ctx context.Context) (rates []domain.GoldRate, err error) {
	ctx, span := tracer.Start(ctx, "command.RefreshRates")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	quotes, err := h.provider.Fetch(ctx)
	if err != nil {
		return nil, apperror.Upstream("failed to fetch gold rates", err)
	}

	now := h.now()
	rates = make([]domain.GoldRate, 0, len(quotes))
	for _, q := range quotes {
		rates = append(rates, domain.GoldRate{
			ID:           uuid.NewString(),
			Karat:        q.Karat,
			PricePerGram: q.PricePerGram,
			Source:       h.provider.Source(),
			FetchedAt:    now,
		})
	}
	if err := h.repo.Append(ctx, rates); err != nil {
		return nil, apperror.Internal("failed to store gold rates", err)
	}
	h.cache.Invalidate(ctx)

	span.SetAttributes(attribute.Int("rates.count", len(rates)))
	logger.Info(ctx).Int("count", len(rates)).Msg("Gold rates refreshed")
	return rates, nil
}
