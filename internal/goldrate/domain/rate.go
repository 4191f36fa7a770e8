package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// FreshnessWindow is how long a quote counts as current
	FreshnessWindow = 5 * time.Minute
	// MaxLatest bounds the latest listing to one quote per grade
	MaxLatest = 2

	SourceSynthetic = "API"
)

// GoldRate is an informational price quote. Nothing in settlement math reads it.
type GoldRate struct {
	ID           string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Karat        string          `json:"karat" gorm:"type:varchar(8);not null;index"`
	PricePerGram decimal.Decimal `json:"pricePerGram" gorm:"type:numeric(12,2);not null"`
	Source       string          `json:"source" gorm:"type:varchar(32);not null"`
	FetchedAt    time.Time       `json:"fetchedAt" gorm:"not null;index"`
}

func (GoldRate) TableName() string {
	return "gold_rates"
}

// Quote is a provider price before it is stored
type Quote struct {
	Karat        string
	PricePerGram decimal.Decimal
}

// Provider fetches current prices
type Provider interface {
	Fetch(ctx context.Context) ([]Quote, error)
	Source() string
}

// RateRepository is append-only
type RateRepository interface {
	Append(ctx context.Context, rates []GoldRate) error
	// LatestSince returns the newest quote per karat fetched at or after since,
	// newest first, at most limit
	LatestSince(ctx context.Context, since time.Time, limit int) ([]GoldRate, error)
}

// LatestCache holds the last latest-quotes answer
type LatestCache interface {
	Get(ctx context.Context) ([]GoldRate, bool)
	// Set keeps rates for at most ttl
	Set(ctx context.Context, rates []GoldRate, ttl time.Duration)
	Invalidate(ctx context.Context)
}
