package audit

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tair/goldlink/pkg/database"
)

// Repository stores audit entries. It has no update or delete.
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]Entry, error)
	ListByAction(ctx context.Context, action Action, limit int) ([]Entry, error)
}

// GormRepository implements Repository using GORM
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// AutoMigrate runs database migrations
func (r *GormRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&Entry{})
}

func (r *GormRepository) Append(ctx context.Context, entry *Entry) error {
	if err := database.Conn(ctx, r.db).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (r *GormRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]Entry, error) {
	var entries []Entry
	err := database.Conn(ctx, r.db).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}

func (r *GormRepository) ListByAction(ctx context.Context, action Action, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []Entry
	err := database.Conn(ctx, r.db).
		Where("action = ?", action).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}
