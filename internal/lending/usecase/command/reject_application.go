package command

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tair/goldlink/internal/audit"
	"github.com/tair/goldlink/internal/lending/domain"
	"github.com/tair/goldlink/kafka"
	"github.com/tair/goldlink/pkg/apperror"
	"github.com/tair/goldlink/pkg/database"
	"github.com/tair/goldlink/pkg/logger"
)

// MaxReasonLength bounds the stored rejection reason
const MaxReasonLength = 1000

// RejectApplicationCommand represents an owner's rejection
type RejectApplicationCommand struct {
	ApplicationID string
	ActingOwnerID string
	Reason        string
}

// RejectApplicationHandler handles reject application command
type RejectApplicationHandler struct {
	apps   domain.ApplicationRepository
	tx     database.Transactor
	audit  *audit.Recorder
	events EventPublisher
	now    func() time.Time
}

// NewRejectApplicationHandler creates a new reject application handler
func NewRejectApplicationHandler(apps domain.ApplicationRepository, tx database.Transactor, recorder *audit.Recorder, events EventPublisher) *RejectApplicationHandler {
	return &RejectApplicationHandler{apps: apps, tx: tx, audit: recorder, events: events, now: utcNow}
}

// Handle transitions the application to REJECTED together with its audit entry
func (h *RejectApplicationHandler) Handle(ctx context.Context, cmd RejectApplicationCommand) (app *domain.Application, err error) {
	ctx, span := tracer.Start(ctx, "command.RejectApplication")
	span.SetAttributes(attribute.String("application.id", cmd.ApplicationID))
	defer func() { finishSpan(span, err) }()

	reason := strings.TrimSpace(cmd.Reason)
	if len(reason) > MaxReasonLength {
		return nil, apperror.Validation("reason is too long")
	}

	err = h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		found, err := h.apps.FindByID(ctx, cmd.ApplicationID)
		if err != nil {
			return storeError(err, "application not found")
		}
		if err := found.CheckDecision(cmd.ActingOwnerID); err != nil {
			return err
		}

		now := h.now()
		if err := h.apps.TransitionStatus(ctx, found.ID, domain.ApplicationRejected, reason, now); err != nil {
			if errors.Is(err, domain.ErrStaleVersion) {
				return apperror.Conflict("application was decided concurrently")
			}
			return apperror.Internal("failed to reject application", err)
		}
		found.Status = domain.ApplicationRejected
		found.RejectionReason = reason
		found.DecidedAt = &now
		found.UpdatedAt = now

		meta := audit.RejectApplicationMeta{Reason: reason}
		if err := h.audit.Record(ctx, cmd.ActingOwnerID, audit.EntityApplication, found.ID, meta); err != nil {
			return apperror.Internal("failed to write audit entry", err)
		}
		app = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Str("application_id", app.ID).
		Str("owner_id", app.OwnerID).
		Msg("Application rejected")

	publish(ctx, h.events, kafka.LendingEvent{
		EventType:     kafka.EventTypeApplicationRejected,
		ApplicationID: app.ID,
		CustomerID:    app.CustomerID,
		OwnerID:       app.OwnerID,
		Reason:        reason,
	})
	return app, nil
}
