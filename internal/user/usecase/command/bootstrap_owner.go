package command

import (
	"context"
	"time"

	"github.com/tair/goldlink/internal/audit"
	"github.com/tair/goldlink/internal/user/domain"
	"github.com/tair/goldlink/pkg/apperror"
	"github.com/tair/goldlink/pkg/database"
	"github.com/tair/goldlink/pkg/logger"
)

// BootstrapOwnerCommand provisions an owner account from the operator CLI
type BootstrapOwnerCommand struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Operator string
}

// BootstrapOwnerHandler creates owners. It is reachable only from the admin
// binary; no HTTP route creates privileged accounts.
type BootstrapOwnerHandler struct {
	repo  domain.UserRepository
	tx    database.Transactor
	audit *audit.Recorder
	now   func() time.Time
}

// NewBootstrapOwnerHandler creates a new bootstrap owner handler
func NewBootstrapOwnerHandler(repo domain.UserRepository, tx database.Transactor, recorder *audit.Recorder) *BootstrapOwnerHandler {
	return &BootstrapOwnerHandler{repo: repo, tx: tx, audit: recorder, now: time.Now}
}

// Handle creates the owner and its BOOTSTRAP_OWNER audit entry atomically
func (h *BootstrapOwnerHandler) Handle(ctx context.Context, cmd BootstrapOwnerCommand) (*domain.User, error) {
	var owner *domain.User
	err := h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		user, err := newUser(ctx, h.repo, cmd.Name, cmd.Email, cmd.Password, cmd.Phone, domain.RoleOwner, h.now())
		if err != nil {
			return err
		}
		if err := h.repo.Create(ctx, user); err != nil {
			return apperror.Internal("failed to create owner", err)
		}
		meta := audit.BootstrapOwnerMeta{Email: user.Email, Operator: cmd.Operator}
		if err := h.audit.Record(ctx, user.ID, audit.EntityUser, user.ID, meta); err != nil {
			return apperror.Internal("failed to write audit entry", err)
		}
		owner = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Str("user_id", owner.ID).
		Str("operator", cmd.Operator).
		Msg("Owner account bootstrapped")
	return owner, nil
}
