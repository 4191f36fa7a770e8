package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tair/goldlink/internal/audit"
	"github.com/tair/goldlink/internal/lending/domain"
	"github.com/tair/goldlink/kafka"
	"github.com/tair/goldlink/pkg/apperror"
)

func sameInstant(a, b time.Time) bool {
	d := a.Sub(b)
	return d > -time.Millisecond && d < time.Millisecond
}

func (f *fixture) activeSettlement(t *testing.T) *domain.Settlement {
	t.Helper()
	app := f.submit(t)
	return f.approve(t, app.ID, "50000", "0.8").Settlement
}

func TestMockPaymentEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.activeSettlement(t)

	h := f.payHandler(nil)
	if !h.MockMode() {
		t.Fatal("nil gateway should select mock mode")
	}
	intent, err := h.Handle(ctx, InitiatePaymentCommand{SettlementID: s.ID, ActingCustomerID: f.customer.ID})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if intent.Mode != ModeMock || intent.Amount != "400.00" || intent.AmountMinor != 40000 {
		t.Fatalf("intent = %+v", intent)
	}
	if intent.Payment.Status != domain.PaymentSuccess || intent.Payment.Gateway != domain.GatewayMock {
		t.Errorf("payment = %+v", intent.Payment)
	}
	if intent.Payment.ReceiptRef == nil || *intent.Payment.ReceiptRef != intent.Payment.ID {
		t.Errorf("receipt ref = %v, want payment id", intent.Payment.ReceiptRef)
	}

	stored, err := f.settlements.FindByID(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if want := s.NextDueDate.Add(domain.BillingPeriod); !sameInstant(stored.NextDueDate, want) {
		t.Errorf("next due = %s, want %s", stored.NextDueDate, want)
	}

	payments, err := f.payments.ListBySettlement(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(payments) != 1 || !payments[0].Amount.Equal(dec("400")) {
		t.Errorf("payments = %+v", payments)
	}
	if n := f.auditCount(t, audit.ActionPaymentSuccess); n != 1 {
		t.Errorf("payment audit entries = %d, want 1", n)
	}
	if got := f.events.types(); got[len(got)-1] != kafka.EventTypePaymentSucceeded {
		t.Errorf("events = %v", got)
	}
}

func TestInitiatePaymentRejectsOtherCustomer(t *testing.T) {
	f := newFixture(t)
	s := f.activeSettlement(t)

	_, err := f.payHandler(nil).Handle(context.Background(), InitiatePaymentCommand{SettlementID: s.ID, ActingCustomerID: f.owner.ID})
	if !apperror.Is(err, apperror.KindAuthorization) {
		t.Fatalf("err = %v, want authorization", err)
	}
}

func TestGatewayPaymentPersistsPendingOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.activeSettlement(t)

	var got domain.OrderRequest
	gw := echoGateway()
	create := gw.createOrderFn
	gw.createOrderFn = func(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
		got = req
		return create(ctx, req)
	}

	intent, err := f.payHandler(gw).Handle(ctx, InitiatePaymentCommand{SettlementID: s.ID, ActingCustomerID: f.customer.ID})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if intent.Mode != ModeGateway || intent.Key != "rzp_test_key" || intent.OrderID == "" {
		t.Fatalf("intent = %+v", intent)
	}
	if got.AmountMinor != 40000 || got.Currency != domain.CurrencyINR || got.Receipt != intent.PaymentID {
		t.Errorf("order request = %+v", got)
	}
	if got.Notes[domain.NoteSettlementID] != s.ID || got.Notes[domain.NoteType] != domain.NoteTypeInterest {
		t.Errorf("notes = %v", got.Notes)
	}

	p, err := f.payments.FindByGatewayOrderID(ctx, intent.OrderID)
	if err != nil {
		t.Fatalf("find by order: %v", err)
	}
	if p.Status != domain.PaymentPending || p.Gateway != domain.GatewayRazorpay {
		t.Errorf("payment = %+v", p)
	}

	stored, _ := f.settlements.FindByID(ctx, s.ID)
	if !sameInstant(stored.NextDueDate, s.NextDueDate) {
		t.Errorf("due date moved before confirmation")
	}
}

func TestGatewayFailurePersistsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.activeSettlement(t)

	gw := &fakeGateway{createOrderFn: func(context.Context, domain.OrderRequest) (*domain.Order, error) {
		return nil, errors.New("connection reset")
	}}
	_, err := f.payHandler(gw).Handle(ctx, InitiatePaymentCommand{SettlementID: s.ID, ActingCustomerID: f.customer.ID})
	if !apperror.Is(err, apperror.KindUpstream) {
		t.Fatalf("err = %v, want upstream", err)
	}

	payments, err := f.payments.ListBySettlement(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(payments) != 0 {
		t.Errorf("payments = %d, want 0", len(payments))
	}
}

func TestConfirmPaymentAppliesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.activeSettlement(t)
	gw := echoGateway()

	intent, err := f.payHandler(gw).Handle(ctx, InitiatePaymentCommand{SettlementID: s.ID, ActingCustomerID: f.customer.ID})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}

	cmd := ConfirmPaymentCommand{
		Event:            EventPaymentCaptured,
		GatewayPaymentID: "pay_123",
		OrderID:          intent.OrderID,
		AmountMinor:      intent.AmountMinor,
	}
	confirm := f.confirmHandler(gw)

	outcome, err := confirm.Handle(ctx, cmd)
	if err != nil || outcome != OutcomeApplied {
		t.Fatalf("first delivery = %s, %v", outcome, err)
	}
	after, _ := f.settlements.FindByID(ctx, s.ID)
	if want := s.NextDueDate.Add(domain.BillingPeriod); !sameInstant(after.NextDueDate, want) {
		t.Errorf("next due = %s, want %s", after.NextDueDate, want)
	}

	outcome, err = confirm.Handle(ctx, cmd)
	if err != nil || outcome != OutcomeDuplicate {
		t.Fatalf("second delivery = %s, %v", outcome, err)
	}
	again, _ := f.settlements.FindByID(ctx, s.ID)
	if !sameInstant(again.NextDueDate, after.NextDueDate) {
		t.Errorf("duplicate delivery moved due date to %s", again.NextDueDate)
	}

	p, _ := f.payments.FindByID(ctx, intent.PaymentID)
	if p.Status != domain.PaymentSuccess || p.GatewayPaymentID == nil || *p.GatewayPaymentID != "pay_123" {
		t.Errorf("payment = %+v", p)
	}
	if p.ReceiptRef == nil || *p.ReceiptRef != p.ID {
		t.Errorf("receipt ref = %v", p.ReceiptRef)
	}
	if n := f.auditCount(t, audit.ActionPaymentSuccess); n != 1 {
		t.Errorf("payment audit entries = %d, want 1", n)
	}
}

func TestConfirmPaymentNoops(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.activeSettlement(t)
	gw := echoGateway()

	intent, err := f.payHandler(gw).Handle(ctx, InitiatePaymentCommand{SettlementID: s.ID, ActingCustomerID: f.customer.ID})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}

	tests := []struct {
		name string
		cmd  ConfirmPaymentCommand
		want Outcome
	}{
		{"other event", ConfirmPaymentCommand{Event: "payment.failed", OrderID: intent.OrderID}, OutcomeIgnoredEvent},
		{"no order id", ConfirmPaymentCommand{Event: EventPaymentCaptured}, OutcomeUnmatched},
		{"unknown order", ConfirmPaymentCommand{Event: EventPaymentCaptured, OrderID: "order_unknown"}, OutcomeUnmatched},
		{"amount mismatch", ConfirmPaymentCommand{Event: EventPaymentCaptured, OrderID: intent.OrderID, AmountMinor: 100}, OutcomeAmountMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// unknown orders are looked up at the gateway, which has no receipt
			h := f.confirmHandler(&fakeGateway{fetchOrderFn: func(_ context.Context, id string) (*domain.Order, error) {
				return &domain.Order{ID: id}, nil
			}})
			got, err := h.Handle(ctx, tt.cmd)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if got != tt.want {
				t.Errorf("outcome = %s, want %s", got, tt.want)
			}
		})
	}

	p, _ := f.payments.FindByID(ctx, intent.PaymentID)
	if p.Status != domain.PaymentPending {
		t.Errorf("payment status = %s, want PENDING", p.Status)
	}
}

func TestConfirmPaymentFallsBackToOrderReceipt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.activeSettlement(t)

	now := time.Now().UTC()
	p := &domain.Payment{
		ID:           "7d0f5b54-2c4b-4f8e-9b51-3f3c5e0a1b2c",
		SettlementID: s.ID,
		Amount:       dec("400"),
		Currency:     domain.CurrencyINR,
		Gateway:      domain.GatewayRazorpay,
		Status:       domain.PaymentPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := f.payments.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	gw := &fakeGateway{fetchOrderFn: func(_ context.Context, id string) (*domain.Order, error) {
		return &domain.Order{
			ID:      id,
			Receipt: p.ID,
			Notes:   map[string]string{domain.NoteSettlementID: s.ID},
		}, nil
	}}
	outcome, err := f.confirmHandler(gw).Handle(ctx, ConfirmPaymentCommand{
		Event:            EventPaymentCaptured,
		GatewayPaymentID: "pay_fallback",
		OrderID:          "order_lost",
		AmountMinor:      40000,
	})
	if err != nil || outcome != OutcomeApplied {
		t.Fatalf("outcome = %s, %v", outcome, err)
	}
}

func TestConfirmPaymentGatewayLookupFailure(t *testing.T) {
	f := newFixture(t)
	gw := &fakeGateway{fetchOrderFn: func(context.Context, string) (*domain.Order, error) {
		return nil, errors.New("timeout")
	}}

	_, err := f.confirmHandler(gw).Handle(context.Background(), ConfirmPaymentCommand{
		Event:   EventPaymentCaptured,
		OrderID: "order_x",
	})
	if !apperror.Is(err, apperror.KindUpstream) {
		t.Fatalf("err = %v, want upstream so the gateway retries", err)
	}
}

func TestCloseSettlement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.activeSettlement(t)
	gw := echoGateway()

	intent, err := f.payHandler(gw).Handle(ctx, InitiatePaymentCommand{SettlementID: s.ID, ActingCustomerID: f.customer.ID})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}

	_, err = f.closeHandler().Handle(ctx, CloseSettlementCommand{SettlementID: s.ID, ActingOwnerID: f.customer.ID})
	if !apperror.Is(err, apperror.KindAuthorization) {
		t.Fatalf("customer close err = %v, want authorization", err)
	}

	closed, err := f.closeHandler().Handle(ctx, CloseSettlementCommand{SettlementID: s.ID, ActingOwnerID: f.owner.ID})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status != domain.SettlementClosed || closed.ClosedAt == nil {
		t.Errorf("closed = %+v", closed)
	}

	_, err = f.closeHandler().Handle(ctx, CloseSettlementCommand{SettlementID: s.ID, ActingOwnerID: f.owner.ID})
	if !apperror.Is(err, apperror.KindConflict) {
		t.Fatalf("second close err = %v, want conflict", err)
	}

	_, err = f.payHandler(nil).Handle(ctx, InitiatePaymentCommand{SettlementID: s.ID, ActingCustomerID: f.customer.ID})
	if !apperror.Is(err, apperror.KindConflict) {
		t.Fatalf("pay after close err = %v, want conflict", err)
	}

	outcome, err := f.confirmHandler(gw).Handle(ctx, ConfirmPaymentCommand{
		Event:            EventPaymentCaptured,
		GatewayPaymentID: "pay_late",
		OrderID:          intent.OrderID,
		AmountMinor:      intent.AmountMinor,
	})
	if err != nil || outcome != OutcomeSettlementClosed {
		t.Fatalf("late confirmation = %s, %v", outcome, err)
	}
	p, _ := f.payments.FindByID(ctx, intent.PaymentID)
	if p.Status != domain.PaymentPending {
		t.Errorf("payment status = %s, want PENDING", p.Status)
	}
	if n := f.auditCount(t, audit.ActionCloseSettlement); n != 1 {
		t.Errorf("close audit entries = %d, want 1", n)
	}
}
