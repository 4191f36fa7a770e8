package command

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/goldlink/internal/lending/domain"
	"github.com/tair/goldlink/kafka"
	"github.com/tair/goldlink/pkg/apperror"
	"github.com/tair/goldlink/pkg/logger"
)

var tracer = otel.Tracer("lending-usecase")

// EventPublisher receives lending events after commit
type EventPublisher interface {
	Publish(ctx context.Context, event kafka.LendingEvent) error
}

// NopPublisher drops events; used when Kafka is not configured
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, kafka.LendingEvent) error { return nil }

// publish never fails the caller: the state change has already committed
func publish(ctx context.Context, pub EventPublisher, event kafka.LendingEvent) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, event); err != nil {
		logger.Error(ctx).
			Err(err).
			Str("event_type", event.EventType).
			Str("settlement_id", event.SettlementID).
			Msg("Failed to publish lending event")
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// finishSpan records err on span and ends it
func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// storeError maps repository sentinels to the error taxonomy
func storeError(err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound):
		return apperror.NotFound(notFoundMsg)
	default:
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			return err
		}
		return apperror.Internal("storage failure", err)
	}
}
