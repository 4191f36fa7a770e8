package audit

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tair/goldlink/pkg/database"
)

func newTestRepository(t *testing.T) *GormRepository {
	t.Helper()
	db, err := database.NewSQLiteConnection(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	repo := NewGormRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	rec := NewRecorder(repo)

	t.Run("action comes from the metadata variant", func(t *testing.T) {
		meta := ApproveApplicationMeta{
			SettlementID:           "set-1",
			PrincipalAmount:        decimal.NewFromInt(50000),
			InterestRateMonthlyPct: decimal.RequireFromString("0.8"),
		}
		if err := rec.Record(ctx, "owner-1", EntityApplication, "app-1", meta); err != nil {
			t.Fatalf("Record failed: %v", err)
		}

		entries, err := repo.ListByEntity(ctx, EntityApplication, "app-1")
		if err != nil {
			t.Fatalf("ListByEntity failed: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("entries = %d, want 1", len(entries))
		}
		got := entries[0]
		if got.Action != ActionApproveApplication || got.ActorUserID != "owner-1" {
			t.Errorf("entry = %+v", got)
		}

		var decoded ApproveApplicationMeta
		if err := json.Unmarshal([]byte(got.Meta), &decoded); err != nil {
			t.Fatalf("meta is not JSON: %v", err)
		}
		if !decoded.PrincipalAmount.Equal(decimal.NewFromInt(50000)) {
			t.Errorf("principal = %s", decoded.PrincipalAmount)
		}
	})

	t.Run("nil metadata is rejected", func(t *testing.T) {
		if err := rec.Record(ctx, "owner-1", EntityApplication, "app-2", nil); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("ListByAction filters", func(t *testing.T) {
		if err := rec.Record(ctx, "owner-1", EntityApplication, "app-3", RejectApplicationMeta{Reason: "quality concerns"}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		entries, err := repo.ListByAction(ctx, ActionRejectApplication, 10)
		if err != nil {
			t.Fatalf("ListByAction failed: %v", err)
		}
		if len(entries) != 1 || entries[0].EntityID != "app-3" {
			t.Errorf("entries = %+v", entries)
		}
	})
}

type failingRepository struct{ Repository }

func (failingRepository) Append(context.Context, *Entry) error {
	return errors.New("disk full")
}

func TestRecorderPropagatesWriteFailure(t *testing.T) {
	rec := NewRecorder(failingRepository{})
	err := rec.Record(context.Background(), "u", EntityPayment, "p", PaymentSuccessMeta{})
	if err == nil {
		t.Fatal("audit write failure must surface to the caller")
	}
}
