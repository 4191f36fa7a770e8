package query

import (
	"context"
	"time"

	"github.com/tair/goldlink/internal/lending/domain"
	userdomain "github.com/tair/goldlink/internal/user/domain"
	"github.com/tair/goldlink/pkg/apperror"
)

// ListSettlementsQuery scopes settlements to the caller
type ListSettlementsQuery struct {
	UserID string
	Role   userdomain.Role
	Status domain.SettlementStatus
}

// ListSettlementsHandler handles list settlements query
type ListSettlementsHandler struct {
	repo domain.SettlementRepository
	now  func() time.Time
}

// NewListSettlementsHandler creates a new list settlements handler
func NewListSettlementsHandler(repo domain.SettlementRepository) *ListSettlementsHandler {
	return &ListSettlementsHandler{repo: repo, now: time.Now}
}

// Handle executes the list settlements query
func (h *ListSettlementsHandler) Handle(ctx context.Context, q ListSettlementsQuery) ([]SettlementView, error) {
	filter := domain.SettlementFilter{Status: q.Status}
	switch q.Role {
	case userdomain.RoleCustomer:
		filter.CustomerID = q.UserID
	case userdomain.RoleOwner:
		filter.OwnerID = q.UserID
	default:
		return nil, apperror.Authorization("unknown role")
	}

	settlements, err := h.repo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal("failed to list settlements", err)
	}

	now := h.now()
	views := make([]SettlementView, 0, len(settlements))
	for i := range settlements {
		views = append(views, newSettlementView(&settlements[i], now))
	}
	return views, nil
}
