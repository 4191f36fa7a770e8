package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tair/goldlink/internal/user/domain"
	"github.com/tair/goldlink/pkg/apperror"
	"github.com/tair/goldlink/pkg/auth"
	"github.com/tair/goldlink/pkg/logger"
)

// RegisterUserCommand represents a public customer sign-up
type RegisterUserCommand struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// RegisterUserHandler handles user registration command.
// Public registration only ever creates customers.
type RegisterUserHandler struct {
	repo domain.UserRepository
	now  func() time.Time
}

// NewRegisterUserHandler creates a new register user handler
func NewRegisterUserHandler(repo domain.UserRepository) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo, now: time.Now}
}

// Handle executes the register user command
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (*domain.User, error) {
	user, err := newUser(ctx, h.repo, cmd.Name, cmd.Email, cmd.Password, cmd.Phone, domain.RoleCustomer, h.now())
	if err != nil {
		return nil, err
	}

	if err := h.repo.Create(ctx, user); err != nil {
		return nil, apperror.Internal("failed to create user", err)
	}

	logger.Info(ctx).
		Str("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("User registered")
	return user, nil
}

// newUser validates input and builds an unsaved user with a hashed password
func newUser(ctx context.Context, repo domain.UserRepository, name, email, password, phone string, role domain.Role, now time.Time) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = domain.NormalizeEmail(email)

	if name == "" {
		return nil, apperror.Validation("name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.Validation("a valid email is required")
	}
	if len(password) < auth.MinPasswordLength {
		return nil, apperror.Validation(fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}

	existing, err := repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, apperror.Internal("failed to check email", err)
	}
	if existing != nil {
		return nil, apperror.Conflict("email already registered")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}

	return &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(phone),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
