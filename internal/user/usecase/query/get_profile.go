package query

import (
	"context"
	"errors"

	"github.com/tair/goldlink/internal/user/domain"
	"github.com/tair/goldlink/pkg/apperror"
)

// GetProfileQuery represents the query to load a user's own profile
type GetProfileQuery struct {
	UserID string
}

// GetProfileHandler handles get profile query
type GetProfileHandler struct {
	repo domain.UserRepository
}

// NewGetProfileHandler creates a new get profile handler
func NewGetProfileHandler(repo domain.UserRepository) *GetProfileHandler {
	return &GetProfileHandler{repo: repo}
}

// Handle executes the get profile query
func (h *GetProfileHandler) Handle(ctx context.Context, q GetProfileQuery) (*domain.User, error) {
	user, err := h.repo.FindByID(ctx, q.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Internal("failed to load user", err)
	}
	return user, nil
}
