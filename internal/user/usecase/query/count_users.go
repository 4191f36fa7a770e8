package query

import (
	"context"

	"github.com/tair/goldlink/internal/user/domain"
)

// CountUsersHandler reports the number of registered users for health checks
type CountUsersHandler struct {
	repo domain.UserRepository
}

func NewCountUsersHandler(repo domain.UserRepository) *CountUsersHandler {
	return &CountUsersHandler{repo: repo}
}

func (h *CountUsersHandler) Handle(ctx context.Context) (int64, error) {
	return h.repo.Count(ctx)
}
