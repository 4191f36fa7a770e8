package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tair/goldlink/internal/audit"
	"github.com/tair/goldlink/internal/lending/domain"
	"github.com/tair/goldlink/kafka"
	"github.com/tair/goldlink/pkg/apperror"
	"github.com/tair/goldlink/pkg/circuitbreaker"
	"github.com/tair/goldlink/pkg/database"
	"github.com/tair/goldlink/pkg/logger"
)

// Payment intent modes
const (
	ModeMock    = "mock"
	ModeGateway = "gateway"
)

// DefaultGatewayTimeout bounds a single order-creation call
const DefaultGatewayTimeout = 10 * time.Second

// InitiatePaymentCommand represents a customer paying this month's interest
type InitiatePaymentCommand struct {
	SettlementID     string
	ActingCustomerID string
}

// PaymentIntent is returned to the customer. In mock mode the payment has
// already succeeded; in gateway mode the client completes checkout with the order.
type PaymentIntent struct {
	Mode        string          `json:"mode"`
	PaymentID   string          `json:"paymentId"`
	Amount      string          `json:"amount"`
	AmountMinor int64           `json:"amountMinor"`
	Currency    string          `json:"currency"`
	OrderID     string          `json:"orderId,omitempty"`
	Key         string          `json:"key,omitempty"`
	NextDueDate *time.Time      `json:"nextDueDate,omitempty"`
	Payment     *domain.Payment `json:"payment"`
}

// InitiatePaymentHandler handles initiate payment command.
// A nil gateway selects mock mode.
type InitiatePaymentHandler struct {
	settlements domain.SettlementRepository
	payments    domain.PaymentRepository
	tx          database.Transactor
	audit       *audit.Recorder
	events      EventPublisher
	gateway     domain.PaymentGateway
	breaker     *circuitbreaker.Breaker
	timeout     time.Duration
	now         func() time.Time
}

// NewInitiatePaymentHandler creates a new initiate payment handler
func NewInitiatePaymentHandler(
	settlements domain.SettlementRepository,
	payments domain.PaymentRepository,
	tx database.Transactor,
	recorder *audit.Recorder,
	events EventPublisher,
	gateway domain.PaymentGateway,
	breaker *circuitbreaker.Breaker,
	timeout time.Duration,
) *InitiatePaymentHandler {
	if timeout <= 0 {
		timeout = DefaultGatewayTimeout
	}
	if breaker == nil {
		breaker = circuitbreaker.New("payment-gateway", 5, 30*time.Second)
	}
	return &InitiatePaymentHandler{
		settlements: settlements,
		payments:    payments,
		tx:          tx,
		audit:       recorder,
		events:      events,
		gateway:     gateway,
		breaker:     breaker,
		timeout:     timeout,
		now:         utcNow,
	}
}

// MockMode reports whether payments bypass the gateway
func (h *InitiatePaymentHandler) MockMode() bool {
	return h.gateway == nil
}

// Handle creates a payment for the settlement's current monthly interest
func (h *InitiatePaymentHandler) Handle(ctx context.Context, cmd InitiatePaymentCommand) (intent *PaymentIntent, err error) {
	ctx, span := tracer.Start(ctx, "command.InitiatePayment")
	span.SetAttributes(
		attribute.String("settlement.id", cmd.SettlementID),
		attribute.Bool("payment.mock", h.MockMode()),
	)
	defer func() { finishSpan(span, err) }()

	settlement, err := h.settlements.FindByID(ctx, cmd.SettlementID)
	if err != nil {
		return nil, storeError(err, "settlement not found")
	}
	if err := checkPayable(settlement, cmd.ActingCustomerID); err != nil {
		return nil, err
	}

	if h.MockMode() {
		return h.payMock(ctx, cmd)
	}
	return h.payViaGateway(ctx, settlement, cmd)
}

func checkPayable(s *domain.Settlement, customerID string) error {
	if s.CustomerID != customerID {
		return apperror.Authorization("settlement belongs to another customer")
	}
	if !s.IsActive() {
		return apperror.Conflict("settlement is closed")
	}
	return nil
}

// payMock records a successful payment and advances the due date in one transaction
func (h *InitiatePaymentHandler) payMock(ctx context.Context, cmd InitiatePaymentCommand) (*PaymentIntent, error) {
	var (
		payment    *domain.Payment
		settlement *domain.Settlement
		due        domain.InterestDue
	)

	err := h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		s, err := h.settlements.FindByID(ctx, cmd.SettlementID)
		if err != nil {
			return storeError(err, "settlement not found")
		}
		if err := checkPayable(s, cmd.ActingCustomerID); err != nil {
			return err
		}

		now := h.now()
		due = s.MonthlyInterestDue()
		gatewayPaymentID := fmt.Sprintf("mock_%d", now.UnixNano())
		p := &domain.Payment{
			ID:               uuid.NewString(),
			SettlementID:     s.ID,
			Amount:           due.Rounded,
			Currency:         domain.CurrencyINR,
			Gateway:          domain.GatewayMock,
			GatewayPaymentID: &gatewayPaymentID,
			Status:           domain.PaymentSuccess,
			PaidAt:           &now,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		p.ReceiptRef = &p.ID
		if err := h.payments.Create(ctx, p); err != nil {
			return apperror.Internal("failed to store payment", err)
		}

		version := s.Version
		if err := s.AdvanceDueDate(now); err != nil {
			return err
		}
		if err := h.settlements.UpdateDueDate(ctx, s.ID, version, s.NextDueDate); err != nil {
			if errors.Is(err, domain.ErrStaleVersion) {
				return apperror.Conflict("settlement changed concurrently, please retry")
			}
			return apperror.Internal("failed to advance due date", err)
		}

		meta := audit.PaymentSuccessMeta{
			SettlementID:     s.ID,
			Amount:           p.Amount,
			Gateway:          p.Gateway,
			GatewayPaymentID: gatewayPaymentID,
			NextDueDate:      s.NextDueDate,
		}
		if err := h.audit.Record(ctx, cmd.ActingCustomerID, audit.EntityPayment, p.ID, meta); err != nil {
			return apperror.Internal("failed to write audit entry", err)
		}

		payment, settlement = p, s
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Str("payment_id", payment.ID).
		Str("settlement_id", settlement.ID).
		Str("amount", payment.Amount.StringFixed(2)).
		Time("next_due_date", settlement.NextDueDate).
		Msg("Mock payment recorded")

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

	return &PaymentIntent{
		Mode:        ModeMock,
		PaymentID:   payment.ID,
		Amount:      due.Rounded.StringFixed(2),
		AmountMinor: due.Minor,
		Currency:    domain.CurrencyINR,
		NextDueDate: &settlement.NextDueDate,
		Payment:     payment,
	}, nil
}

// payViaGateway opens the order first and persists the PENDING payment only
// once the gateway has answered, so a failed call leaves nothing behind
func (h *InitiatePaymentHandler) payViaGateway(ctx context.Context, s *domain.Settlement, cmd InitiatePaymentCommand) (*PaymentIntent, error) {
	due := s.MonthlyInterestDue()
	if due.Minor <= 0 {
		return nil, apperror.Validation("interest due is below the smallest chargeable amount")
	}
	paymentID := uuid.NewString()

	var order *domain.Order
	callErr := h.breaker.Call(func() error {
		callCtx, cancel := context.WithTimeout(ctx, h.timeout)
		defer cancel()

		var err error
		order, err = h.gateway.CreateOrder(callCtx, domain.OrderRequest{
			AmountMinor: due.Minor,
			Currency:    domain.CurrencyINR,
			Receipt:     paymentID,
			Notes: map[string]string{
				domain.NoteSettlementID: s.ID,
				domain.NoteCustomerID:   cmd.ActingCustomerID,
				domain.NotePaymentID:    paymentID,
				domain.NoteType:         domain.NoteTypeInterest,
			},
		})
		return err
	})
	if callErr != nil {
		logger.Error(ctx).
			Err(callErr).
			Str("settlement_id", s.ID).
			Str("breaker_state", string(h.breaker.State())).
			Msg("Gateway order creation failed")
		return nil, apperror.Upstream("payment gateway unavailable, please retry", callErr)
	}

	var payment *domain.Payment
	err := h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := h.settlements.FindByID(ctx, s.ID)
		if err != nil {
			return storeError(err, "settlement not found")
		}
		if err := checkPayable(current, cmd.ActingCustomerID); err != nil {
			return err
		}

		now := h.now()
		orderID := order.ID
		p := &domain.Payment{
			ID:             paymentID,
			SettlementID:   s.ID,
			Amount:         due.Rounded,
			Currency:       domain.CurrencyINR,
			Gateway:        domain.GatewayRazorpay,
			GatewayOrderID: &orderID,
			Status:         domain.PaymentPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := h.payments.Create(ctx, p); err != nil {
			return apperror.Internal("failed to store payment", err)
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Str("payment_id", payment.ID).
		Str("settlement_id", s.ID).
		Str("order_id", order.ID).
		Int64("amount_minor", due.Minor).
		Msg("Gateway order opened")

	return &PaymentIntent{
		Mode:        ModeGateway,
		PaymentID:   payment.ID,
		Amount:      due.Rounded.StringFixed(2),
		AmountMinor: due.Minor,
		Currency:    domain.CurrencyINR,
		OrderID:     order.ID,
		Key:         h.gateway.KeyID(),
		Payment:     payment,
	}, nil
}
