//go:build wireinject
// +build wireinject

package lending

import (
	"time"

	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/tair/goldlink/internal/audit"
	"github.com/tair/goldlink/internal/lending/domain"
	"github.com/tair/goldlink/internal/lending/handler"
	"github.com/tair/goldlink/internal/lending/repository"
	"github.com/tair/goldlink/internal/lending/usecase/command"
	"github.com/tair/goldlink/internal/lending/usecase/query"
	userrepo "github.com/tair/goldlink/internal/user/repository"
	"github.com/tair/goldlink/pkg/auth"
	"github.com/tair/goldlink/pkg/circuitbreaker"
	"github.com/tair/goldlink/pkg/database"
	"github.com/tair/goldlink/pkg/metrics"
)

// PaymentConfig tunes outbound gateway calls
type PaymentConfig struct {
	Timeout time.Duration
}

// ProvideApplicationRepository provides the application repository
func ProvideApplicationRepository(db *gorm.DB) domain.ApplicationRepository {
	return repository.NewGormApplicationRepository(db)
}

// ProvideSettlementRepository provides the settlement repository
func ProvideSettlementRepository(db *gorm.DB) domain.SettlementRepository {
	return repository.NewGormSettlementRepository(db)
}

// ProvidePaymentRepository provides the payment repository
func ProvidePaymentRepository(db *gorm.DB) domain.PaymentRepository {
	return repository.NewGormPaymentRepository(db)
}

// ProvideUserFinder resolves target owners through the user repository
func ProvideUserFinder(db *gorm.DB) command.UserFinder {
	return userrepo.NewTracingUserRepository(userrepo.NewGormUserRepository(db))
}

// ProvideTransactor provides the gorm transactor
func ProvideTransactor(db *gorm.DB) database.Transactor {
	return database.NewGormTransactor(db)
}

// ProvideAuditRecorder provides the audit recorder
func ProvideAuditRecorder(db *gorm.DB) *audit.Recorder {
	return audit.NewRecorder(audit.NewGormRepository(db))
}

// ProvideInitiatePaymentHandler guards gateway calls with a dedicated breaker
func ProvideInitiatePaymentHandler(
	settlements domain.SettlementRepository,
	payments domain.PaymentRepository,
	tx database.Transactor,
	recorder *audit.Recorder,
	events command.EventPublisher,
	gateway domain.PaymentGateway,
	cfg PaymentConfig,
) *command.InitiatePaymentHandler {
	breaker := circuitbreaker.New("razorpay-orders", 5, 30*time.Second)
	return command.NewInitiatePaymentHandler(settlements, payments, tx, recorder, events, gateway, breaker, cfg.Timeout)
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideApplicationRepository,
	ProvideSettlementRepository,
	ProvidePaymentRepository,
	ProvideUserFinder,
	ProvideTransactor,
	ProvideAuditRecorder,
)

var CommandHandlerSet = wire.NewSet(
	command.NewSubmitApplicationHandler,
	command.NewApproveApplicationHandler,
	command.NewRejectApplicationHandler,
	ProvideInitiatePaymentHandler,
	command.NewConfirmPaymentHandler,
	command.NewCloseSettlementHandler,
)

var QueryHandlerSet = wire.NewSet(
	query.NewListApplicationsHandler,
	query.NewListSettlementsHandler,
	query.NewGetSettlementHandler,
)

var AllHandlersSet = wire.NewSet(
	RepositorySet,
	CommandHandlerSet,
	QueryHandlerSet,
)

// InitializeHTTPHandler initializes HTTP handler with all dependencies.
// A nil gateway selects mock payments.
func InitializeHTTPHandler(
	db *gorm.DB,
	sessions *auth.SessionManager,
	httpMetrics *metrics.HTTPMetrics,
	lendingMetrics *handler.LendingMetrics,
	events command.EventPublisher,
	gateway domain.PaymentGateway,
	cfg PaymentConfig,
	opts handler.Options,
) (*handler.LendingHandler, error) {
	wire.Build(
		AllHandlersSet,
		handler.NewLendingHandler,
	)
	return nil, nil
}
