package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tair/goldlink/internal/goldrate/domain"
	"github.com/tair/goldlink/pkg/database"
)

// GormRateRepository implements RateRepository using GORM
type GormRateRepository struct {
	db *gorm.DB
}

// NewGormRateRepository creates a new GORM rate repository
func NewGormRateRepository(db *gorm.DB) *GormRateRepository {
	return &GormRateRepository{db: db}
}

// AutoMigrate runs auto migration for the rate table
func (r *GormRateRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.GoldRate{})
}

func (r *GormRateRepository) Append(ctx context.Context, rates []domain.GoldRate) error {
	if len(rates) == 0 {
		return nil
	}
	for i := range rates {
		rates[i].FetchedAt = rates[i].FetchedAt.UTC()
	}
	return database.Conn(ctx, r.db).WithContext(ctx).Create(&rates).Error
}

func (r *GormRateRepository) LatestSince(ctx context.Context, since time.Time, limit int) ([]domain.GoldRate, error) {
	var recent []domain.GoldRate
	err := database.Conn(ctx, r.db).WithContext(ctx).
		Where("fetched_at >= ?", since.UTC()).
		Order("fetched_at DESC").
		Find(&recent).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, limit)
	latest := make([]domain.GoldRate, 0, limit)
	for _, rate := range recent {
		if seen[rate.Karat] {
			continue
		}
		seen[rate.Karat] = true
		latest = append(latest, rate)
		if len(latest) == limit {
			break
		}
	}
	return latest, nil
}
