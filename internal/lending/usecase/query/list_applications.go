package query

import (
	"context"

	"github.com/tair/goldlink/internal/lending/domain"
	userdomain "github.com/tair/goldlink/internal/user/domain"
	"github.com/tair/goldlink/pkg/apperror"
)

// ListApplicationsQuery scopes applications to the caller
type ListApplicationsQuery struct {
	UserID string
	Role   userdomain.Role
	Status domain.ApplicationStatus
}

// ListApplicationsHandler handles list applications query
type ListApplicationsHandler struct {
	repo domain.ApplicationRepository
}

// NewListApplicationsHandler creates a new list applications handler
func NewListApplicationsHandler(repo domain.ApplicationRepository) *ListApplicationsHandler {
	return &ListApplicationsHandler{repo: repo}
}

// Handle returns a customer's own applications or those addressed to an owner
func (h *ListApplicationsHandler) Handle(ctx context.Context, q ListApplicationsQuery) ([]domain.Application, error) {
	filter := domain.ApplicationFilter{Status: q.Status}
	switch q.Role {
	case userdomain.RoleCustomer:
		filter.CustomerID = q.UserID
	case userdomain.RoleOwner:
		filter.OwnerID = q.UserID
	default:
		return nil, apperror.Authorization("unknown role")
	}

	apps, err := h.repo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal("failed to list applications", err)
	}
	return apps, nil
}
