package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/goldlink/internal/lending/domain"
	userdomain "github.com/tair/goldlink/internal/user/domain"
	"github.com/tair/goldlink/pkg/apperror"
)

type stubApplications struct {
	domain.ApplicationRepository
	lastFilter domain.ApplicationFilter
}

func (s *stubApplications) List(_ context.Context, filter domain.ApplicationFilter) ([]domain.Application, error) {
	s.lastFilter = filter
	return []domain.Application{{ID: "app-1"}}, nil
}

type stubSettlements struct {
	domain.SettlementRepository
	byID       map[string]*domain.Settlement
	lastFilter domain.SettlementFilter
}

func (s *stubSettlements) FindByID(_ context.Context, id string) (*domain.Settlement, error) {
	if st, ok := s.byID[id]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubSettlements) List(_ context.Context, filter domain.SettlementFilter) ([]domain.Settlement, error) {
	s.lastFilter = filter
	out := make([]domain.Settlement, 0, len(s.byID))
	for _, st := range s.byID {
		out = append(out, *st)
	}
	return out, nil
}

type stubPayments struct {
	domain.PaymentRepository
	err error
}

func (s *stubPayments) ListBySettlement(_ context.Context, settlementID string) ([]domain.Payment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Payment{{ID: "p-2", SettlementID: settlementID}, {ID: "p-1", SettlementID: settlementID}}, nil
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func settlementFixture() *domain.Settlement {
	return &domain.Settlement{
		ID:              "s-1",
		CustomerID:      "cust",
		OwnerID:         "owner",
		PrincipalAmount: decimal.RequireFromString("50000"),
		MonthlyRatePct:  decimal.RequireFromString("0.8"),
		NextDueDate:     fixedNow.Add(-time.Hour),
		Status:          domain.SettlementActive,
	}
}

func TestListApplicationsScopesByRole(t *testing.T) {
	repo := &stubApplications{}
	h := NewListApplicationsHandler(repo)
	ctx := context.Background()

	if _, err := h.Handle(ctx, ListApplicationsQuery{UserID: "cust", Role: userdomain.RoleCustomer}); err != nil {
		t.Fatal(err)
	}
	if repo.lastFilter.CustomerID != "cust" || repo.lastFilter.OwnerID != "" {
		t.Errorf("customer filter = %+v", repo.lastFilter)
	}

	if _, err := h.Handle(ctx, ListApplicationsQuery{UserID: "owner", Role: userdomain.RoleOwner, Status: domain.ApplicationPending}); err != nil {
		t.Fatal(err)
	}
	if repo.lastFilter.OwnerID != "owner" || repo.lastFilter.CustomerID != "" || repo.lastFilter.Status != domain.ApplicationPending {
		t.Errorf("owner filter = %+v", repo.lastFilter)
	}

	_, err := h.Handle(ctx, ListApplicationsQuery{UserID: "x", Role: "ADMIN"})
	if !apperror.Is(err, apperror.KindAuthorization) {
		t.Errorf("err = %v, want authorization", err)
	}
}

func TestListSettlementsDerivesObligation(t *testing.T) {
	repo := &stubSettlements{byID: map[string]*domain.Settlement{"s-1": settlementFixture()}}
	h := NewListSettlementsHandler(repo)
	h.now = func() time.Time { return fixedNow }

	views, err := h.Handle(context.Background(), ListSettlementsQuery{UserID: "owner", Role: userdomain.RoleOwner})
	if err != nil {
		t.Fatal(err)
	}
	if repo.lastFilter.OwnerID != "owner" {
		t.Errorf("filter = %+v", repo.lastFilter)
	}
	if len(views) != 1 {
		t.Fatalf("views = %d", len(views))
	}
	if !views[0].InterestDue.Rounded.Equal(decimal.RequireFromString("400")) {
		t.Errorf("interest = %s", views[0].InterestDue.Rounded)
	}
	if !views[0].Overdue {
		t.Error("expected overdue settlement")
	}
}

func TestClosedSettlementIsNeverOverdue(t *testing.T) {
	s := settlementFixture()
	s.Status = domain.SettlementClosed
	view := newSettlementView(s, fixedNow)
	if view.Overdue {
		t.Error("closed settlement reported overdue")
	}
}

func TestGetSettlement(t *testing.T) {
	settlements := &stubSettlements{byID: map[string]*domain.Settlement{"s-1": settlementFixture()}}
	payments := &stubPayments{}
	h := NewGetSettlementHandler(settlements, payments)
	h.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	view, err := h.Handle(ctx, GetSettlementQuery{SettlementID: "s-1", UserID: "cust"})
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Payments) != 2 || view.Payments[0].ID != "p-2" {
		t.Errorf("payments = %+v", view.Payments)
	}

	tests := []struct {
		name string
		q    GetSettlementQuery
		kind apperror.Kind
	}{
		{"stranger", GetSettlementQuery{SettlementID: "s-1", UserID: "someone"}, apperror.KindAuthorization},
		{"missing", GetSettlementQuery{SettlementID: "nope", UserID: "cust"}, apperror.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Handle(ctx, tt.q)
			if !apperror.Is(err, tt.kind) {
				t.Errorf("err = %v, want %s", err, tt.kind)
			}
		})
	}

	payments.err = errors.New("disk full")
	_, err = h.Handle(ctx, GetSettlementQuery{SettlementID: "s-1", UserID: "owner"})
	if !apperror.Is(err, apperror.KindInternal) {
		t.Errorf("err = %v, want internal", err)
	}
}
