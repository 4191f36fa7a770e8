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

// EventPaymentCaptured is the only gateway event that settles a payment
const EventPaymentCaptured = "payment.captured"

// maxConfirmAttempts bounds retries when another confirmation moved the settlement
const maxConfirmAttempts = 3

// Outcome describes what a webhook delivery did. Everything except
// OutcomeApplied is a no-op acknowledged to the gateway.
type Outcome string

const (
	OutcomeApplied          Outcome = "applied"
	OutcomeDuplicate        Outcome = "duplicate"
	OutcomeIgnoredEvent     Outcome = "ignored_event"
	OutcomeUnmatched        Outcome = "unmatched"
	OutcomeAmountMismatch   Outcome = "amount_mismatch"
	OutcomeSettlementClosed Outcome = "settlement_closed"
)

// ConfirmPaymentCommand carries a signature-verified gateway event
type ConfirmPaymentCommand struct {
	Event            string
	GatewayPaymentID string
	OrderID          string
	AmountMinor      int64
	Receipt          string
}

// ConfirmPaymentHandler applies gateway confirmations exactly once
type ConfirmPaymentHandler struct {
	settlements domain.SettlementRepository
	payments    domain.PaymentRepository
	tx          database.Transactor
	audit       *audit.Recorder
	events      EventPublisher
	gateway     domain.PaymentGateway
	now         func() time.Time
}

// NewConfirmPaymentHandler creates a new confirm payment handler.
// gateway is only used to recover context for orders no payment references; it may be nil.
func NewConfirmPaymentHandler(
	settlements domain.SettlementRepository,
	payments domain.PaymentRepository,
	tx database.Transactor,
	recorder *audit.Recorder,
	events EventPublisher,
	gateway domain.PaymentGateway,
) *ConfirmPaymentHandler {
	return &ConfirmPaymentHandler{
		settlements: settlements,
		payments:    payments,
		tx:          tx,
		audit:       recorder,
		events:      events,
		gateway:     gateway,
		now:         utcNow,
	}
}

// errNoop aborts the transaction without surfacing an error to the gateway
type errNoop struct{ outcome Outcome }

func (e errNoop) Error() string { return string(e.outcome) }

// Handle returns the outcome and an error only for failures worth a gateway retry
func (h *ConfirmPaymentHandler) Handle(ctx context.Context, cmd ConfirmPaymentCommand) (outcome Outcome, err error) {
	ctx, span := tracer.Start(ctx, "command.ConfirmPayment")
	span.SetAttributes(
		attribute.String("gateway.event", cmd.Event),
		attribute.String("gateway.order_id", cmd.OrderID),
	)
	defer func() {
		span.SetAttributes(attribute.String("webhook.outcome", string(outcome)))
		finishSpan(span, err)
	}()

	if cmd.Event != EventPaymentCaptured {
		return OutcomeIgnoredEvent, nil
	}
	if cmd.OrderID == "" {
		return h.noop(ctx, cmd, OutcomeUnmatched, "Captured payment without order id"), nil
	}

	payment, err := h.locate(ctx, cmd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return h.noop(ctx, cmd, OutcomeUnmatched, "No payment matches gateway order"), nil
		}
		return "", err
	}
	if payment.IsSettled() {
		return h.noop(ctx, cmd, OutcomeDuplicate, "Payment already confirmed"), nil
	}
	if cmd.AmountMinor > 0 && cmd.AmountMinor != payment.Amount.Shift(2).IntPart() {
		return h.noop(ctx, cmd, OutcomeAmountMismatch, "Captured amount differs from payment amount"), nil
	}

	var settlement *domain.Settlement
	for attempt := 1; attempt <= maxConfirmAttempts; attempt++ {
		settlement, err = h.apply(ctx, payment, cmd)
		if !errors.Is(err, domain.ErrStaleVersion) {
			break
		}
		logger.Warn(ctx).
			Int("attempt", attempt).
			Str("settlement_id", payment.SettlementID).
			Msg("Settlement changed during confirmation, retrying")
	}

	var noop errNoop
	if errors.As(err, &noop) {
		return h.noop(ctx, cmd, noop.outcome, "Confirmation not applied"), nil
	}
	if err != nil {
		return "", apperror.Internal("failed to apply payment confirmation", err)
	}

	logger.Info(ctx).
		Str("payment_id", payment.ID).
		Str("settlement_id", settlement.ID).
		Str("gateway_payment_id", cmd.GatewayPaymentID).
		Time("next_due_date", settlement.NextDueDate).
		Msg("Payment confirmed")

	publish(ctx, h.events, kafka.LendingEvent{
		EventType:    kafka.EventTypePaymentSucceeded,
		SettlementID: settlement.ID,
		PaymentID:    payment.ID,
		CustomerID:   settlement.CustomerID,
		OwnerID:      settlement.OwnerID,
		Amount:       payment.Amount.StringFixed(2),
		Currency:     payment.Currency,
		Gateway:      payment.Gateway,
		NextDueDate:  &settlement.NextDueDate,
	})
	return OutcomeApplied, nil
}

// apply runs the PENDING -> SUCCESS transition, the due-date advance and the
// audit entry atomically
func (h *ConfirmPaymentHandler) apply(ctx context.Context, payment *domain.Payment, cmd ConfirmPaymentCommand) (*domain.Settlement, error) {
	var settlement *domain.Settlement
	err := h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		s, err := h.settlements.FindByID(ctx, payment.SettlementID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errNoop{OutcomeUnmatched}
			}
			return err
		}
		if !s.IsActive() {
			return errNoop{OutcomeSettlementClosed}
		}

		now := h.now()
		receipt := cmd.Receipt
		if receipt == "" {
			receipt = payment.ID
		}
		confirmation := domain.Confirmation{
			GatewayPaymentID: cmd.GatewayPaymentID,
			ReceiptRef:       receipt,
			PaidAt:           now,
		}
		if err := h.payments.MarkSucceeded(ctx, payment.ID, confirmation); err != nil {
			if errors.Is(err, domain.ErrStaleVersion) {
				return errNoop{OutcomeDuplicate}
			}
			return err
		}

		version := s.Version
		if err := s.AdvanceDueDate(now); err != nil {
			return errNoop{OutcomeSettlementClosed}
		}
		if err := h.settlements.UpdateDueDate(ctx, s.ID, version, s.NextDueDate); err != nil {
			return err
		}

		customerID := s.CustomerID
		meta := audit.PaymentSuccessMeta{
			SettlementID:     s.ID,
			Amount:           payment.Amount,
			Gateway:          payment.Gateway,
			GatewayPaymentID: cmd.GatewayPaymentID,
			OrderID:          cmd.OrderID,
			NextDueDate:      s.NextDueDate,
		}
		if err := h.audit.Record(ctx, customerID, audit.EntityPayment, payment.ID, meta); err != nil {
			return err
		}

		payment.Status = domain.PaymentSuccess
		payment.GatewayPaymentID = &confirmation.GatewayPaymentID
		payment.PaidAt = &now
		payment.ReceiptRef = &receipt
		settlement = s
		return nil
	})
	return settlement, err
}

// locate finds the payment by stored order id, falling back to the order's
// receipt and notes fetched from the gateway
func (h *ConfirmPaymentHandler) locate(ctx context.Context, cmd ConfirmPaymentCommand) (*domain.Payment, error) {
	payment, err := h.payments.FindByGatewayOrderID(ctx, cmd.OrderID)
	if err == nil || !errors.Is(err, domain.ErrNotFound) {
		return payment, err
	}
	if h.gateway == nil {
		return nil, domain.ErrNotFound
	}

	order, err := h.gateway.FetchOrder(ctx, cmd.OrderID)
	if err != nil {
		logger.Warn(ctx).Err(err).Str("order_id", cmd.OrderID).Msg("Failed to fetch gateway order")
		return nil, apperror.Upstream("failed to fetch gateway order", err)
	}

	paymentID := order.Notes[domain.NotePaymentID]
	if paymentID == "" {
		paymentID = order.Receipt
	}
	if paymentID == "" {
		return nil, domain.ErrNotFound
	}

	payment, err = h.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if sid := order.Notes[domain.NoteSettlementID]; sid != "" && sid != payment.SettlementID {
		return nil, domain.ErrNotFound
	}
	if payment.GatewayOrderID != nil && *payment.GatewayOrderID != cmd.OrderID {
		return nil, domain.ErrNotFound
	}
	return payment, nil
}

func (h *ConfirmPaymentHandler) noop(ctx context.Context, cmd ConfirmPaymentCommand, outcome Outcome, msg string) Outcome {
	logger.Warn(ctx).
		Str("outcome", string(outcome)).
		Str("order_id", cmd.OrderID).
		Str("gateway_payment_id", cmd.GatewayPaymentID).
		Msg(msg)
	return outcome
}
