package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/goldlink/internal/user/domain"
)

var tracer = otel.Tracer("user-repository")

// TracingUserRepository wraps a UserRepository with spans
type TracingUserRepository struct {
	next domain.UserRepository
}

// NewTracingUserRepository creates a new repository with tracing
func NewTracingUserRepository(next domain.UserRepository) *TracingUserRepository {
	return &TracingUserRepository{next: next}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (r *TracingUserRepository) Create(ctx context.Context, user *domain.User) (err error) {
	ctx, span := tracer.Start(ctx, "repository.Create",
		trace.WithAttributes(
			attribute.String("user.email", user.Email),
			attribute.String("user.role", string(user.Role)),
		),
	)
	defer func() { endSpan(span, err) }()

	err = r.next.Create(ctx, user)
	if err == nil {
		span.SetAttributes(attribute.String("user.id", user.ID))
	}
	return err
}

func (r *TracingUserRepository) FindByID(ctx context.Context, id string) (user *domain.User, err error) {
	ctx, span := tracer.Start(ctx, "repository.FindByID",
		trace.WithAttributes(attribute.String("user.id", id)),
	)
	defer func() { endSpan(span, err) }()

	return r.next.FindByID(ctx, id)
}

func (r *TracingUserRepository) FindByEmail(ctx context.Context, email string) (user *domain.User, err error) {
	ctx, span := tracer.Start(ctx, "repository.FindByEmail")
	defer func() { endSpan(span, err) }()

	user, err = r.next.FindByEmail(ctx, email)
	if err == nil {
		span.SetAttributes(attribute.String("user.id", user.ID))
	}
	return user, err
}

func (r *TracingUserRepository) FindByRole(ctx context.Context, role domain.Role) (users []domain.User, err error) {
	ctx, span := tracer.Start(ctx, "repository.FindByRole",
		trace.WithAttributes(attribute.String("user.role", string(role))),
	)
	defer func() { endSpan(span, err) }()

	users, err = r.next.FindByRole(ctx, role)
	span.SetAttributes(attribute.Int("result.count", len(users)))
	return users, err
}

func (r *TracingUserRepository) UpdateProfile(ctx context.Context, user *domain.User) (err error) {
	ctx, span := tracer.Start(ctx, "repository.UpdateProfile",
		trace.WithAttributes(attribute.String("user.id", user.ID)),
	)
	defer func() { endSpan(span, err) }()

	return r.next.UpdateProfile(ctx, user)
}

func (r *TracingUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) (err error) {
	ctx, span := tracer.Start(ctx, "repository.UpdatePassword",
		trace.WithAttributes(attribute.String("user.id", id)),
	)
	defer func() { endSpan(span, err) }()

	return r.next.UpdatePassword(ctx, id, passwordHash)
}

func (r *TracingUserRepository) Count(ctx context.Context) (count int64, err error) {
	ctx, span := tracer.Start(ctx, "repository.Count")
	defer func() { endSpan(span, err) }()

	return r.next.Count(ctx)
}
