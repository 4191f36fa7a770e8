package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/tair/goldlink/internal/user/domain"
	"github.com/tair/goldlink/pkg/apperror"
	"github.com/tair/goldlink/pkg/auth"
	"github.com/tair/goldlink/pkg/logger"
)

// ChangePasswordCommand represents the command to rotate a user's password
type ChangePasswordCommand struct {
	UserID          string
	CurrentPassword string
	NewPassword     string
}

// ChangePasswordHandler handles change password command
type ChangePasswordHandler struct {
	repo domain.UserRepository
}

// NewChangePasswordHandler creates a new change password handler
func NewChangePasswordHandler(repo domain.UserRepository) *ChangePasswordHandler {
	return &ChangePasswordHandler{repo: repo}
}

// Handle executes the change password command
func (h *ChangePasswordHandler) Handle(ctx context.Context, cmd ChangePasswordCommand) error {
	if cmd.CurrentPassword == "" {
		return apperror.Validation("current password is required")
	}
	if len(cmd.NewPassword) < auth.MinPasswordLength {
		return apperror.Validation(fmt.Sprintf("new password must be at least %d characters", auth.MinPasswordLength))
	}

	user, err := h.repo.FindByID(ctx, cmd.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return apperror.NotFound("user not found")
		}
		return apperror.Internal("failed to load user", err)
	}

	if !auth.CheckPassword(user.PasswordHash, cmd.CurrentPassword) {
		return apperror.Validation("current password is incorrect")
	}

	hash, err := auth.HashPassword(cmd.NewPassword)
	if err != nil {
		return apperror.Internal("failed to hash password", err)
	}

	if err := h.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return apperror.Internal("failed to update password", err)
	}

	logger.Info(ctx).Str("user_id", user.ID).Msg("Password changed")
	return nil
}
