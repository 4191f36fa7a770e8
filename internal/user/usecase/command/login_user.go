package command

import (
	"context"
	"errors"

	"github.com/tair/goldlink/internal/user/domain"
	"github.com/tair/goldlink/pkg/apperror"
	"github.com/tair/goldlink/pkg/auth"
)

// LoginUserCommand represents the command to login a user
type LoginUserCommand struct {
	Email    string
	Password string
}

// LoginResponse represents the response after successful login
type LoginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// LoginUserHandler handles user login command
type LoginUserHandler struct {
	repo     domain.UserRepository
	sessions *auth.SessionManager
}

// NewLoginUserHandler creates a new login user handler
func NewLoginUserHandler(repo domain.UserRepository, sessions *auth.SessionManager) *LoginUserHandler {
	return &LoginUserHandler{repo: repo, sessions: sessions}
}

// Handle executes the login user command
func (h *LoginUserHandler) Handle(ctx context.Context, cmd LoginUserCommand) (*LoginResponse, error) {
	if cmd.Email == "" || cmd.Password == "" {
		return nil, apperror.Validation("email and password are required")
	}

	user, err := h.repo.FindByEmail(ctx, cmd.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, apperror.Authentication("invalid credentials")
		}
		return nil, apperror.Internal("failed to load user", err)
	}

	if !auth.CheckPassword(user.PasswordHash, cmd.Password) {
		return nil, apperror.Authentication("invalid credentials")
	}

	token, err := h.sessions.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, apperror.Internal("failed to issue session", err)
	}

	return &LoginResponse{
		Token: token,
		User:  user,
	}, nil
}
