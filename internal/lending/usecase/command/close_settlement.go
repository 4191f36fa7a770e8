package command

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tair/goldlink/internal/audit"
	"github.com/tair/goldlink/internal/lending/domain"
	"github.com/tair/goldlink/kafka"
	"github.com/tair/goldlink/pkg/apperror"
	"github.com/tair/goldlink/pkg/database"
	"github.com/tair/goldlink/pkg/logger"
)

// CloseSettlementCommand represents the owner closing a settlement
type CloseSettlementCommand struct {
	SettlementID  string
	ActingOwnerID string
}

// CloseSettlementHandler handles close settlement command
type CloseSettlementHandler struct {
	settlements domain.SettlementRepository
	tx          database.Transactor
	audit       *audit.Recorder
	events      EventPublisher
	now         func() time.Time
}

// NewCloseSettlementHandler creates a new close settlement handler
func NewCloseSettlementHandler(settlements domain.SettlementRepository, tx database.Transactor, recorder *audit.Recorder, events EventPublisher) *CloseSettlementHandler {
	return &CloseSettlementHandler{settlements: settlements, tx: tx, audit: recorder, events: events, now: utcNow}
}

// Handle moves an ACTIVE settlement to CLOSED with a CLOSE_SETTLEMENT entry
func (h *CloseSettlementHandler) Handle(ctx context.Context, cmd CloseSettlementCommand) (settlement *domain.Settlement, err error) {
	ctx, span := tracer.Start(ctx, "command.CloseSettlement")
	span.SetAttributes(attribute.String("settlement.id", cmd.SettlementID))
	defer func() { finishSpan(span, err) }()

	err = h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		s, err := h.settlements.FindByID(ctx, cmd.SettlementID)
		if err != nil {
			return storeError(err, "settlement not found")
		}
		if s.OwnerID != cmd.ActingOwnerID {
			return apperror.Authorization("settlement belongs to another owner")
		}

		now := h.now()
		if err := s.Close(now); err != nil {
			return err
		}
		if err := h.settlements.Close(ctx, s.ID, now); err != nil {
			if errors.Is(err, domain.ErrStaleVersion) {
				return apperror.Conflict("settlement is already closed")
			}
			return apperror.Internal("failed to close settlement", err)
		}

		if err := h.audit.Record(ctx, cmd.ActingOwnerID, audit.EntitySettlement, s.ID, audit.CloseSettlementMeta{ClosedAt: now}); err != nil {
			return apperror.Internal("failed to write audit entry", err)
		}
		settlement = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Str("settlement_id", settlement.ID).
		Str("owner_id", settlement.OwnerID).
		Msg("Settlement closed")

	publish(ctx, h.events, kafka.LendingEvent{
		EventType:     kafka.EventTypeSettlementClosed,
		ApplicationID: settlement.ApplicationID,
		SettlementID:  settlement.ID,
		CustomerID:    settlement.CustomerID,
		OwnerID:       settlement.OwnerID,
	})
	return settlement, nil
}
