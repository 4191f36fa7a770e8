package command

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tair/goldlink/internal/audit"
	"github.com/tair/goldlink/internal/lending/domain"
	"github.com/tair/goldlink/internal/lending/repository"
	userdomain "github.com/tair/goldlink/internal/user/domain"
	userrepo "github.com/tair/goldlink/internal/user/repository"
	"github.com/tair/goldlink/kafka"
	"github.com/tair/goldlink/pkg/database"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.LendingEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, event kafka.LendingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

type fakeGateway struct {
	createOrderFn func(ctx context.Context, req domain.OrderRequest) (*domain.Order, error)
	fetchOrderFn  func(ctx context.Context, orderID string) (*domain.Order, error)
}

func (g *fakeGateway) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	return g.createOrderFn(ctx, req)
}

func (g *fakeGateway) FetchOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if g.fetchOrderFn == nil {
		return nil, errors.New("not implemented")
	}
	return g.fetchOrderFn(ctx, orderID)
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

// echoGateway opens orders named after the receipt
func echoGateway() *fakeGateway {
	return &fakeGateway{
		createOrderFn: func(_ context.Context, req domain.OrderRequest) (*domain.Order, error) {
			return &domain.Order{
				ID:          "order_" + req.Receipt[:8],
				AmountMinor: req.AmountMinor,
				Currency:    req.Currency,
				Receipt:     req.Receipt,
				Notes:       req.Notes,
			}, nil
		},
	}
}

type fixture struct {
	apps        *repository.GormApplicationRepository
	settlements *repository.GormSettlementRepository
	payments    *repository.GormPaymentRepository
	users       *userrepo.GormUserRepository
	auditRepo   *audit.GormRepository
	recorder    *audit.Recorder
	tx          *database.GormTransactor
	events      *fakePublisher

	customer *userdomain.User
	owner    *userdomain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewSQLiteConnection(filepath.Join(t.TempDir(), "lending.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	users := userrepo.NewGormUserRepository(db)
	auditRepo := audit.NewGormRepository(db)
	if err := users.AutoMigrate(); err != nil {
		t.Fatalf("migrate users: %v", err)
	}
	if err := auditRepo.AutoMigrate(); err != nil {
		t.Fatalf("migrate audit: %v", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("migrate lending: %v", err)
	}

	f := &fixture{
		apps:        repository.NewGormApplicationRepository(db),
		settlements: repository.NewGormSettlementRepository(db),
		payments:    repository.NewGormPaymentRepository(db),
		users:       users,
		auditRepo:   auditRepo,
		recorder:    audit.NewRecorder(auditRepo),
		tx:          database.NewGormTransactor(db),
		events:      &fakePublisher{},
	}
	f.customer = f.createUser(t, userdomain.RoleCustomer, "customer@example.com")
	f.owner = f.createUser(t, userdomain.RoleOwner, "owner@example.com")
	return f
}

func (f *fixture) createUser(t *testing.T, role userdomain.Role, email string) *userdomain.User {
	t.Helper()
	now := time.Now().UTC()
	u := &userdomain.User{
		ID:           uuid.NewString(),
		Name:         string(role),
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := f.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (f *fixture) submitHandler() *SubmitApplicationHandler {
	return NewSubmitApplicationHandler(f.apps, f.users, f.tx, f.recorder)
}

func (f *fixture) approveHandler() *ApproveApplicationHandler {
	return NewApproveApplicationHandler(f.apps, f.settlements, f.tx, f.recorder, f.events)
}

func (f *fixture) rejectHandler() *RejectApplicationHandler {
	return NewRejectApplicationHandler(f.apps, f.tx, f.recorder, f.events)
}

func (f *fixture) payHandler(gw domain.PaymentGateway) *InitiatePaymentHandler {
	return NewInitiatePaymentHandler(f.settlements, f.payments, f.tx, f.recorder, f.events, gw, nil, time.Second)
}

func (f *fixture) confirmHandler(gw domain.PaymentGateway) *ConfirmPaymentHandler {
	return NewConfirmPaymentHandler(f.settlements, f.payments, f.tx, f.recorder, f.events, gw)
}

func (f *fixture) closeHandler() *CloseSettlementHandler {
	return NewCloseSettlementHandler(f.settlements, f.tx, f.recorder, f.events)
}

func (f *fixture) submit(t *testing.T) *domain.Application {
	t.Helper()
	app, err := f.submitHandler().Handle(context.Background(), SubmitApplicationCommand{
		CustomerID:  f.customer.ID,
		OwnerID:     f.owner.ID,
		Karat:       domain.Karat22,
		WeightGrams: 10,
		Photos:      []string{"https://cdn.example.com/ring.jpg"},
		Notes:       "family heirloom",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return app
}

func (f *fixture) approve(t *testing.T, appID, principal, rate string) *ApprovalResult {
	t.Helper()
	res, err := f.approveHandler().Handle(context.Background(), ApproveApplicationCommand{
		ApplicationID:   appID,
		ActingOwnerID:   f.owner.ID,
		PrincipalAmount: decimal.RequireFromString(principal),
		MonthlyRatePct:  decimal.RequireFromString(rate),
	})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	return res
}

func (f *fixture) auditCount(t *testing.T, action audit.Action) int {
	t.Helper()
	entries, err := f.auditRepo.ListByAction(context.Background(), action, 500)
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
