package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors returned by repositories
var (
	ErrNotFound     = errors.New("record not found")
	ErrStaleVersion = errors.New("record changed concurrently")
)

// ApplicationFilter scopes listings to one party
type ApplicationFilter struct {
	CustomerID string
	OwnerID    string
	Status     ApplicationStatus
}

// ApplicationRepository defines the contract for application data access
type ApplicationRepository interface {
	Create(ctx context.Context, app *Application) error
	FindByID(ctx context.Context, id string) (*Application, error)
	List(ctx context.Context, filter ApplicationFilter) ([]Application, error)
	// TransitionStatus moves a PENDING application to status and returns
	// ErrStaleVersion when it was no longer PENDING
	TransitionStatus(ctx context.Context, id string, status ApplicationStatus, reason string, at time.Time) error
}

// SettlementFilter scopes listings to one party
type SettlementFilter struct {
	CustomerID string
	OwnerID    string
	Status     SettlementStatus
}

// SettlementRepository defines the contract for settlement data access
type SettlementRepository interface {
	Create(ctx context.Context, s *Settlement) error
	FindByID(ctx context.Context, id string) (*Settlement, error)
	FindByApplicationID(ctx context.Context, applicationID string) (*Settlement, error)
	List(ctx context.Context, filter SettlementFilter) ([]Settlement, error)
	// UpdateDueDate sets next_due_date and bumps the version only if the
	// settlement is ACTIVE and still at version; otherwise ErrStaleVersion
	UpdateDueDate(ctx context.Context, id string, version int64, next time.Time) error
	// Close marks an ACTIVE settlement CLOSED; otherwise ErrStaleVersion
	Close(ctx context.Context, id string, at time.Time) error
}

// PaymentRepository defines the contract for payment data access
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	FindByID(ctx context.Context, id string) (*Payment, error)
	FindByGatewayOrderID(ctx context.Context, orderID string) (*Payment, error)
	// ListBySettlement returns payments newest first
	ListBySettlement(ctx context.Context, settlementID string) ([]Payment, error)
	// MarkSucceeded moves a PENDING payment to SUCCESS; ErrStaleVersion when it was not PENDING
	MarkSucceeded(ctx context.Context, id string, c Confirmation) error
}
