package command

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tair/goldlink/internal/user/domain"
	"github.com/tair/goldlink/pkg/apperror"
)

// UpdateProfileCommand carries the owner-editable profile fields
type UpdateProfileCommand struct {
	UserID         string
	Name           string
	Phone          string
	CompanyName    string
	CompanyAddress string
	CompanyRanks   string
	Quality        string
	Achievements   string
}

// UpdateProfileHandler handles owner profile updates
type UpdateProfileHandler struct {
	repo domain.UserRepository
	now  func() time.Time
}

// NewUpdateProfileHandler creates a new update profile handler
func NewUpdateProfileHandler(repo domain.UserRepository) *UpdateProfileHandler {
	return &UpdateProfileHandler{repo: repo, now: time.Now}
}

// Handle executes the update profile command
func (h *UpdateProfileHandler) Handle(ctx context.Context, cmd UpdateProfileCommand) (*domain.User, error) {
	user, err := h.repo.FindByID(ctx, cmd.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Internal("failed to load user", err)
	}
	if !user.IsOwner() {
		return nil, apperror.Authorization("only owners have a company profile")
	}

	if name := strings.TrimSpace(cmd.Name); name != "" {
		user.Name = name
	}
	user.Phone = strings.TrimSpace(cmd.Phone)
	user.CompanyName = strings.TrimSpace(cmd.CompanyName)
	user.CompanyAddress = strings.TrimSpace(cmd.CompanyAddress)
	user.CompanyRanks = strings.TrimSpace(cmd.CompanyRanks)
	user.Quality = strings.TrimSpace(cmd.Quality)
	user.Achievements = strings.TrimSpace(cmd.Achievements)
	user.UpdatedAt = h.now()

	if err := h.repo.UpdateProfile(ctx, user); err != nil {
		return nil, apperror.Internal("failed to update profile", err)
	}
	return user, nil
}
