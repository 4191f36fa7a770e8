package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tair/goldlink/internal/goldrate/domain"
	"github.com/tair/goldlink/pkg/apperror"
)

type scriptedRepo struct {
	domain.RateRepository
	answers [][]domain.GoldRate
	reads   int
	since   time.Time
}

func (r *scriptedRepo) LatestSince(_ context.Context, since time.Time, limit int) ([]domain.GoldRate, error) {
	r.since = since
	i := r.reads
	r.reads++
	if i >= len(r.answers) {
		return nil, nil
	}
	return r.answers[i], nil
}

type countingRefresher struct {
	calls int
	err   error
}

func (r *countingRefresher) Handle(context.Context) ([]domain.GoldRate, error) {
	r.calls++
	return nil, r.err
}

type mapCache struct {
	rates []domain.GoldRate
	hit   bool
	ttl   time.Duration
}

func (c *mapCache) Get(context.Context) ([]domain.GoldRate, bool) { return c.rates, c.hit }
func (c *mapCache) Set(_ context.Context, rates []domain.GoldRate, ttl time.Duration) {
	c.rates, c.hit, c.ttl = rates, true, ttl
}
func (c *mapCache) Invalidate(context.Context) { c.rates, c.hit = nil, false }

var sample = []domain.GoldRate{{ID: "r1", Karat: "24K"}, {ID: "r2", Karat: "22K"}}

func TestLatestRatesFreshHit(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	fresh := []domain.GoldRate{
		{ID: "r1", Karat: "24K", FetchedAt: now.Add(-time.Minute)},
		{ID: "r2", Karat: "22K", FetchedAt: now.Add(-time.Minute)},
	}
	repo := &scriptedRepo{answers: [][]domain.GoldRate{fresh}}
	refresher := &countingRefresher{}
	cache := &mapCache{}
	h := NewLatestRatesHandler(repo, cache, refresher)
	h.now = func() time.Time { return now }

	rates, err := h.Handle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rates) != 2 || refresher.calls != 0 {
		t.Errorf("rates = %d, refreshes = %d", len(rates), refresher.calls)
	}
	if want := now.Add(-domain.FreshnessWindow); !repo.since.Equal(want) {
		t.Errorf("since = %s, want %s", repo.since, want)
	}
	if !cache.hit {
		t.Error("result was not cached")
	}

	if _, err := h.Handle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if repo.reads != 1 {
		t.Errorf("reads = %d, want 1 after cache hit", repo.reads)
	}
}

func TestLatestRatesCacheExpiresWithOldestQuote(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		fetched []time.Duration
		wantTTL time.Duration
	}{
		{"just fetched", []time.Duration{0, 0}, domain.FreshnessWindow},
		{"bounded by oldest", []time.Duration{-time.Minute, -4 * time.Minute}, time.Minute},
		{"already stale", []time.Duration{-domain.FreshnessWindow, -domain.FreshnessWindow}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rates := make([]domain.GoldRate, len(tt.fetched))
			for i, age := range tt.fetched {
				rates[i] = domain.GoldRate{ID: tt.name, Karat: sample[i].Karat, FetchedAt: now.Add(age)}
			}
			cache := &mapCache{}
			h := NewLatestRatesHandler(&scriptedRepo{answers: [][]domain.GoldRate{rates}}, cache, &countingRefresher{})
			h.now = func() time.Time { return now }

			if _, err := h.Handle(context.Background()); err != nil {
				t.Fatal(err)
			}
			if tt.wantTTL == 0 {
				if cache.hit {
					t.Errorf("stale answer cached for %s", cache.ttl)
				}
				return
			}
			if !cache.hit || cache.ttl != tt.wantTTL {
				t.Errorf("cached = %v, ttl = %s, want %s", cache.hit, cache.ttl, tt.wantTTL)
			}
		})
	}
}

func TestLatestRatesClockIsUTC(t *testing.T) {
	h := NewLatestRatesHandler(&scriptedRepo{}, &mapCache{}, &countingRefresher{})
	if loc := h.now().Location(); loc != time.UTC {
		t.Errorf("clock location = %s, want UTC", loc)
	}
}

func TestLatestRatesRefreshesOnceWhenEmpty(t *testing.T) {
	repo := &scriptedRepo{answers: [][]domain.GoldRate{nil, sample}}
	refresher := &countingRefresher{}
	h := NewLatestRatesHandler(repo, &mapCache{}, refresher)

	rates, err := h.Handle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if refresher.calls != 1 || repo.reads != 2 || len(rates) != 2 {
		t.Errorf("refreshes = %d, reads = %d, rates = %d", refresher.calls, repo.reads, len(rates))
	}
}

func TestLatestRatesBoundedWhenStillEmpty(t *testing.T) {
	repo := &scriptedRepo{}
	refresher := &countingRefresher{}
	cache := &mapCache{}
	h := NewLatestRatesHandler(repo, cache, refresher)

	rates, err := h.Handle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rates) != 0 || refresher.calls != 1 || repo.reads != 2 {
		t.Errorf("rates = %d, refreshes = %d, reads = %d", len(rates), refresher.calls, repo.reads)
	}
	if cache.hit {
		t.Error("empty answer should not be cached")
	}
}

func TestLatestRatesRefreshFailure(t *testing.T) {
	refresher := &countingRefresher{err: apperror.Upstream("provider down", errors.New("eof"))}
	h := NewLatestRatesHandler(&scriptedRepo{}, &mapCache{}, refresher)

	_, err := h.Handle(context.Background())
	if !apperror.Is(err, apperror.KindUpstream) {
		t.Fatalf("err = %v, want upstream", err)
	}
}
