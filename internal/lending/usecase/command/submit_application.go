package command

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tair/goldlink/internal/audit"
	"github.com/tair/goldlink/internal/lending/domain"
	userdomain "github.com/tair/goldlink/internal/user/domain"
	"github.com/tair/goldlink/pkg/apperror"
	"github.com/tair/goldlink/pkg/database"
	"github.com/tair/goldlink/pkg/logger"
)

// UserFinder resolves the owner an application is addressed to
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*userdomain.User, error)
}

// SubmitApplicationCommand represents a customer's pledge request
type SubmitApplicationCommand struct {
	CustomerID  string
	OwnerID     string
	Karat       domain.Karat
	WeightGrams float64
	Photos      []string
	Notes       string
}

// SubmitApplicationHandler handles submit application command
type SubmitApplicationHandler struct {
	apps  domain.ApplicationRepository
	users UserFinder
	tx    database.Transactor
	audit *audit.Recorder
	now   func() time.Time
}

// NewSubmitApplicationHandler creates a new submit application handler
func NewSubmitApplicationHandler(apps domain.ApplicationRepository, users UserFinder, tx database.Transactor, recorder *audit.Recorder) *SubmitApplicationHandler {
	return &SubmitApplicationHandler{apps: apps, users: users, tx: tx, audit: recorder, now: utcNow}
}

// Handle validates and stores a PENDING application with its CREATE_APPLICATION entry
func (h *SubmitApplicationHandler) Handle(ctx context.Context, cmd SubmitApplicationCommand) (app *domain.Application, err error) {
	ctx, span := tracer.Start(ctx, "command.SubmitApplication")
	defer func() { finishSpan(span, err) }()

	if err := domain.ValidateSubmission(cmd.OwnerID, cmd.Karat, cmd.WeightGrams, cmd.Photos); err != nil {
		return nil, err
	}

	owner, err := h.users.FindByID(ctx, cmd.OwnerID)
	if err != nil {
		if errors.Is(err, userdomain.ErrUserNotFound) {
			return nil, apperror.Validation("ownerId does not reference an owner")
		}
		return nil, apperror.Internal("failed to load owner", err)
	}
	if !owner.IsOwner() {
		return nil, apperror.Validation("ownerId does not reference an owner")
	}

	photos := make([]string, len(cmd.Photos))
	for i, p := range cmd.Photos {
		photos[i] = strings.TrimSpace(p)
	}

	now := h.now()
	app = &domain.Application{
		ID:          uuid.NewString(),
		CustomerID:  cmd.CustomerID,
		OwnerID:     cmd.OwnerID,
		Karat:       cmd.Karat,
		WeightGrams: cmd.WeightGrams,
		Photos:      photos,
		Notes:       strings.TrimSpace(cmd.Notes),
		Status:      domain.ApplicationPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := h.apps.Create(ctx, app); err != nil {
			return apperror.Internal("failed to store application", err)
		}
		meta := audit.CreateApplicationMeta{
			OwnerID:     app.OwnerID,
			Karat:       string(app.Karat),
			WeightGrams: app.WeightGrams,
			PhotoCount:  len(app.Photos),
		}
		if err := h.audit.Record(ctx, cmd.CustomerID, audit.EntityApplication, app.ID, meta); err != nil {
			return apperror.Internal("failed to write audit entry", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("application.id", app.ID))
	logger.Info(ctx).
		Str("application_id", app.ID).
		Str("customer_id", app.CustomerID).
		Str("owner_id", app.OwnerID).
		Msg("Application submitted")
	return app, nil
}
