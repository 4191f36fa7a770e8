package provider

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/goldlink/internal/goldrate/domain"
)

var (
	base24K     = decimal.NewFromInt(6500)
	purity22K   = decimal.RequireFromString("0.916")
	jitterRange = 100.0
)

// SyntheticProvider produces plausible INR prices around a fixed base
type SyntheticProvider struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSyntheticProvider seeds from the clock
func NewSyntheticProvider() *SyntheticProvider {
	return NewSyntheticProviderWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewSyntheticProviderWithSource makes the jitter reproducible
func NewSyntheticProviderWithSource(src rand.Source) *SyntheticProvider {
	return &SyntheticProvider{rnd: rand.New(src)}
}

func (p *SyntheticProvider) Source() string {
	return domain.SourceSynthetic
}

// Fetch returns 24K and 22K quotes, each within ±50 of its base
func (p *SyntheticProvider) Fetch(_ context.Context) ([]domain.Quote, error) {
	return []domain.Quote{
		{Karat: "24K", PricePerGram: base24K.Add(p.jitter()).Round(2)},
		{Karat: "22K", PricePerGram: base24K.Mul(purity22K).Add(p.jitter()).Round(2)},
	}, nil
}

func (p *SyntheticProvider) jitter() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return decimal.NewFromFloat(p.rnd.Float64()*jitterRange - jitterRange/2)
}
