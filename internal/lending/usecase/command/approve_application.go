package command

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tair/goldlink/internal/audit"
	"github.com/tair/goldlink/internal/lending/domain"
	"github.com/tair/goldlink/kafka"
	"github.com/tair/goldlink/pkg/apperror"
	"github.com/tair/goldlink/pkg/database"
	"github.com/tair/goldlink/pkg/logger"
)

// ApproveApplicationCommand represents an owner's approval with loan terms
type ApproveApplicationCommand struct {
	ApplicationID   string
	ActingOwnerID   string
	PrincipalAmount decimal.Decimal
	MonthlyRatePct  decimal.Decimal
}

// ApprovalResult is the approved application and its new settlement
type ApprovalResult struct {
	Application *domain.Application `json:"application"`
	Settlement  *domain.Settlement  `json:"settlement"`
}

// ApproveApplicationHandler handles approve application command
type ApproveApplicationHandler struct {
	apps        domain.ApplicationRepository
	settlements domain.SettlementRepository
	tx          database.Transactor
	audit       *audit.Recorder
	events      EventPublisher
	now         func() time.Time
}

// NewApproveApplicationHandler creates a new approve application handler
func NewApproveApplicationHandler(
	apps domain.ApplicationRepository,
	settlements domain.SettlementRepository,
	tx database.Transactor,
	recorder *audit.Recorder,
	events EventPublisher,
) *ApproveApplicationHandler {
	return &ApproveApplicationHandler{
		apps:        apps,
		settlements: settlements,
		tx:          tx,
		audit:       recorder,
		events:      events,
		now:         utcNow,
	}
}

// Handle transitions the application to APPROVED, creates its settlement and
// writes APPROVE_APPLICATION in one transaction
func (h *ApproveApplicationHandler) Handle(ctx context.Context, cmd ApproveApplicationCommand) (result *ApprovalResult, err error) {
	ctx, span := tracer.Start(ctx, "command.ApproveApplication")
	span.SetAttributes(attribute.String("application.id", cmd.ApplicationID))
	defer func() { finishSpan(span, err) }()

	if err := domain.ValidateTerms(cmd.PrincipalAmount, cmd.MonthlyRatePct); err != nil {
		return nil, err
	}

	err = h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		app, err := h.apps.FindByID(ctx, cmd.ApplicationID)
		if err != nil {
			return storeError(err, "application not found")
		}
		if err := app.CheckDecision(cmd.ActingOwnerID); err != nil {
			return err
		}

		now := h.now()
		if err := h.apps.TransitionStatus(ctx, app.ID, domain.ApplicationApproved, "", now); err != nil {
			if errors.Is(err, domain.ErrStaleVersion) {
				return apperror.Conflict("application was decided concurrently")
			}
			return apperror.Internal("failed to approve application", err)
		}
		app.Status = domain.ApplicationApproved
		app.DecidedAt = &now
		app.UpdatedAt = now

		settlement := domain.NewSettlement(uuid.NewString(), app, cmd.PrincipalAmount, cmd.MonthlyRatePct, now)
		if err := h.settlements.Create(ctx, settlement); err != nil {
			return apperror.Internal("failed to create settlement", err)
		}

		meta := audit.ApproveApplicationMeta{
			SettlementID:           settlement.ID,
			PrincipalAmount:        settlement.PrincipalAmount,
			InterestRateMonthlyPct: settlement.MonthlyRatePct,
			NextDueDate:            settlement.NextDueDate,
		}
		if err := h.audit.Record(ctx, cmd.ActingOwnerID, audit.EntityApplication, app.ID, meta); err != nil {
			return apperror.Internal("failed to write audit entry", err)
		}

		result = &ApprovalResult{Application: app, Settlement: settlement}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s := result.Settlement
	span.SetAttributes(attribute.String("settlement.id", s.ID))
	logger.Info(ctx).
		Str("application_id", result.Application.ID).
		Str("settlement_id", s.ID).
		Str("principal", s.PrincipalAmount.String()).
		Str("rate_pct", s.MonthlyRatePct.String()).
		Time("next_due_date", s.NextDueDate).
		Msg("Application approved")

	publish(ctx, h.events, kafka.LendingEvent{
		EventType:     kafka.EventTypeSettlementCreated,
		ApplicationID: s.ApplicationID,
		SettlementID:  s.ID,
		CustomerID:    s.CustomerID,
		OwnerID:       s.OwnerID,
		Amount:        s.PrincipalAmount.StringFixed(2),
		Currency:      domain.CurrencyINR,
		NextDueDate:   &s.NextDueDate,
	})
	return result, nil
}
