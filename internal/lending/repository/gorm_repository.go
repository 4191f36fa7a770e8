package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tair/goldlink/internal/lending/domain"
	"github.com/tair/goldlink/pkg/database"
)

// AutoMigrate creates the lending tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Application{}, &domain.Settlement{}, &domain.Payment{})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// GormApplicationRepository implements ApplicationRepository using GORM
type GormApplicationRepository struct {
	db *gorm.DB
}

func NewGormApplicationRepository(db *gorm.DB) *GormApplicationRepository {
	return &GormApplicationRepository{db: db}
}

func (r *GormApplicationRepository) Create(ctx context.Context, app *domain.Application) error {
	if err := database.Conn(ctx, r.db).Omit("Customer", "Owner", "Settlement").Create(app).Error; err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

func (r *GormApplicationRepository) FindByID(ctx context.Context, id string) (*domain.Application, error) {
	var app domain.Application
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&app).Error; err != nil {
		return nil, notFound(err)
	}
	return &app, nil
}

func (r *GormApplicationRepository) List(ctx context.Context, filter domain.ApplicationFilter) ([]domain.Application, error) {
	query := database.Conn(ctx, r.db).
		Preload("Customer").
		Preload("Owner").
		Preload("Settlement").
		Order("created_at DESC")

	if filter.CustomerID != "" {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.OwnerID != "" {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var apps []domain.Application
	if err := query.Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

func (r *GormApplicationRepository) TransitionStatus(ctx context.Context, id string, status domain.ApplicationStatus, reason string, at time.Time) error {
	result := database.Conn(ctx, r.db).
		Model(&domain.Application{}).
		Where("id = ? AND status = ?", id, domain.ApplicationPending).
		Updates(map[string]interface{}{
			"status":           status,
			"rejection_reason": reason,
			"decided_at":       at,
			"updated_at":       at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update application status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrStaleVersion
	}
	return nil
}

// GormSettlementRepository implements SettlementRepository using GORM
type GormSettlementRepository struct {
	db *gorm.DB
}

func NewGormSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

func (r *GormSettlementRepository) Create(ctx context.Context, s *domain.Settlement) error {
	if err := database.Conn(ctx, r.db).Omit("Payments").Create(s).Error; err != nil {
		return fmt.Errorf("failed to create settlement: %w", err)
	}
	return nil
}

func (r *GormSettlementRepository) FindByID(ctx context.Context, id string) (*domain.Settlement, error) {
	var s domain.Settlement
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *GormSettlementRepository) FindByApplicationID(ctx context.Context, applicationID string) (*domain.Settlement, error) {
	var s domain.Settlement
	if err := database.Conn(ctx, r.db).Where("application_id = ?", applicationID).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *GormSettlementRepository) List(ctx context.Context, filter domain.SettlementFilter) ([]domain.Settlement, error) {
	query := database.Conn(ctx, r.db).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Order("created_at DESC")

	if filter.CustomerID != "" {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.OwnerID != "" {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var settlements []domain.Settlement
	if err := query.Find(&settlements).Error; err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	return settlements, nil
}

func (r *GormSettlementRepository) UpdateDueDate(ctx context.Context, id string, version int64, next time.Time) error {
	result := database.Conn(ctx, r.db).
		Model(&domain.Settlement{}).
		Where("id = ? AND status = ? AND version = ?", id, domain.SettlementActive, version).
		Updates(map[string]interface{}{
			"next_due_date": next,
			"version":       gorm.Expr("version + 1"),
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update due date: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrStaleVersion
	}
	return nil
}

func (r *GormSettlementRepository) Close(ctx context.Context, id string, at time.Time) error {
	result := database.Conn(ctx, r.db).
		Model(&domain.Settlement{}).
		Where("id = ? AND status = ?", id, domain.SettlementActive).
		Updates(map[string]interface{}{
			"status":     domain.SettlementClosed,
			"closed_at":  at,
			"version":    gorm.Expr("version + 1"),
			"updated_at": at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to close settlement: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrStaleVersion
	}
	return nil
}

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	if err := database.Conn(ctx, r.db).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *GormPaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	var p domain.Payment
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *GormPaymentRepository) FindByGatewayOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	var p domain.Payment
	if err := database.Conn(ctx, r.db).Where("gateway_order_id = ?", orderID).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *GormPaymentRepository) ListBySettlement(ctx context.Context, settlementID string) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := database.Conn(ctx, r.db).
		Where("settlement_id = ?", settlementID).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (r *GormPaymentRepository) MarkSucceeded(ctx context.Context, id string, c domain.Confirmation) error {
	updates := map[string]interface{}{
		"status":             domain.PaymentSuccess,
		"gateway_payment_id": c.GatewayPaymentID,
		"paid_at":            c.PaidAt,
		"updated_at":         c.PaidAt,
	}
	if c.ReceiptRef != "" {
		updates["receipt_ref"] = c.ReceiptRef
	}

	result := database.Conn(ctx, r.db).
		Model(&domain.Payment{}).
		Where("id = ? AND status = ?", id, domain.PaymentPending).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to mark payment succeeded: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrStaleVersion
	}
	return nil
}
