//go:build wireinject
// +build wireinject

package user

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/tair/goldlink/internal/audit"
	"github.com/tair/goldlink/internal/user/delivery/http"
	"github.com/tair/goldlink/internal/user/domain"
	"github.com/tair/goldlink/internal/user/repository"
	"github.com/tair/goldlink/internal/user/usecase/command"
	"github.com/tair/goldlink/internal/user/usecase/query"
	"github.com/tair/goldlink/pkg/auth"
	"github.com/tair/goldlink/pkg/database"
	"github.com/tair/goldlink/pkg/metrics"
)

// ProvideUserRepository provides the traced user repository
func ProvideUserRepository(db *gorm.DB) domain.UserRepository {
	return repository.NewTracingUserRepository(repository.NewGormUserRepository(db))
}

// ProvideTransactor provides the gorm transactor
func ProvideTransactor(db *gorm.DB) database.Transactor {
	return database.NewGormTransactor(db)
}

// ProvideAuditRecorder provides the audit recorder
func ProvideAuditRecorder(db *gorm.DB) *audit.Recorder {
	return audit.NewRecorder(audit.NewGormRepository(db))
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideUserRepository,
)

var CommandHandlerSet = wire.NewSet(
	command.NewRegisterUserHandler,
	command.NewLoginUserHandler,
	command.NewChangePasswordHandler,
	command.NewUpdateProfileHandler,
)

var QueryHandlerSet = wire.NewSet(
	query.NewGetProfileHandler,
	query.NewListOwnersHandler,
)

var AllHandlersSet = wire.NewSet(
	RepositorySet,
	CommandHandlerSet,
	QueryHandlerSet,
)

// InitializeHTTPHandler initializes HTTP handler with all dependencies
func InitializeHTTPHandler(db *gorm.DB, sessions *auth.SessionManager, httpMetrics *metrics.HTTPMetrics, opts http.Options) (*http.UserHandler, error) {
	wire.Build(
		AllHandlersSet,
		http.NewUserHandler,
	)
	return nil, nil
}

// InitializeBootstrapOwner initializes the owner bootstrap command used by the admin CLI
func InitializeBootstrapOwner(db *gorm.DB) (*command.BootstrapOwnerHandler, error) {
	wire.Build(
		RepositorySet,
		ProvideTransactor,
		ProvideAuditRecorder,
		command.NewBootstrapOwnerHandler,
	)
	return nil, nil
}

// InitializeCountUsers initializes the user counter used by health checks
func InitializeCountUsers(db *gorm.DB) (*query.CountUsersHandler, error) {
	wire.Build(
		RepositorySet,
		query.NewCountUsersHandler,
	)
	return nil, nil
}
