package sqlite_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/artpar/duetgate/adapters/sqlite"
	"github.com/artpar/duetgate/domain/subscription"
	"github.com/artpar/duetgate/domain/tier"
	"github.com/artpar/duetgate/domain/usage"
	"github.com/artpar/duetgate/ports"
)

func setupTestDB(t *testing.T) (*sqlite.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "duetgate-test-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	path := f.Name()
	f.Close()

	db, err := sqlite.Open(path)
	if err != nil {
		os.Remove(path)
		t.Fatalf("open database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		os.Remove(path)
		t.Fatalf("migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(path)
	}

	return db, cleanup
}

func TestMigrate_Idempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if err := db.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

// -----------------------------------------------------------------------------
// SubscriptionStore Tests
// -----------------------------------------------------------------------------

func TestSubscriptionStore_PutAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewSubscriptionStore(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if _, err := store.Get(ctx, "u1"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("Get on empty store: %v", err)
	}

	r := subscription.NewRecord("u1", now)
	r.Tier = tier.BYOK
	r.V0APIKey = "v0-key"
	r.ClaudeAPIKey = "claude-key"
	r.HasDualAI = true
	r.SubscriptionStart = now
	r.SubscriptionEnd = now.Add(30 * 24 * time.Hour)

	if err := store.Put(ctx, r); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Tier != tier.BYOK || !got.HasDualAI {
		t.Errorf("round trip: %+v", got)
	}
	if got.V0APIKey != "v0-key" || got.ClaudeAPIKey != "claude-key" {
		t.Errorf("keys: %+v", got)
	}
	if !got.SubscriptionEnd.Equal(r.SubscriptionEnd) {
		t.Errorf("SubscriptionEnd = %v, want %v", got.SubscriptionEnd, r.SubscriptionEnd)
	}
}

func TestSubscriptionStore_PutReplaces(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewSubscriptionStore(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	r := subscription.NewRecord("u1", now)
	if err := store.Put(ctx, r); err != nil {
		t.Fatal(err)
	}

	r.CreditsRemaining = 2.5
	r.CompletionsUsed = 7
	if err := store.Put(ctx, r); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.CreditsRemaining != 2.5 || got.CompletionsUsed != 7 {
		t.Errorf("after upsert: %+v", got)
	}
}

func TestSubscriptionStore_ListAndDelete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewSubscriptionStore(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, id := range []string{"u2", "u1"} {
		if err := store.Put(ctx, subscription.NewRecord(id, now)); err != nil {
			t.Fatal(err)
		}
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].UserID != "u1" || list[1].UserID != "u2" {
		t.Errorf("List = %+v", list)
	}

	if err := store.Delete(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, "u1"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("Get after delete: %v", err)
	}
}

// -----------------------------------------------------------------------------
// UsageStore Tests
// -----------------------------------------------------------------------------

func TestUsageStore_RecordAndSummarize(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUsageStore(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	events := []usage.Event{
		{ID: "e1", UserID: "u1", Mode: usage.ModeDual, Provider: "dual", StatusCode: 200, LatencyMs: 100, Completions: 1, Timestamp: base.Add(time.Hour)},
		{ID: "e2", UserID: "u1", Mode: usage.ModeSingle, Provider: "v0", StatusCode: 500, LatencyMs: 300, CreditsUsed: 1, Timestamp: base.Add(2 * time.Hour)},
		{ID: "e3", UserID: "u2", Mode: usage.ModeSingle, Provider: "v0", StatusCode: 200, LatencyMs: 50, Timestamp: base.Add(time.Hour)},
		{ID: "e4", UserID: "u1", Mode: usage.ModeSingle, Provider: "v0", StatusCode: 200, LatencyMs: 10, Timestamp: base.AddDate(0, 2, 0)},
	}
	if err := store.RecordBatch(ctx, events); err != nil {
		t.Fatalf("RecordBatch: %v", err)
	}

	sum, err := store.GetSummary(ctx, "u1", base, base.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if sum.RequestCount != 2 || sum.DualCount != 1 || sum.ErrorCount != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.CreditsUsed != 1 || sum.Completions != 1 {
		t.Errorf("spend = %+v", sum)
	}
	if sum.AvgLatencyMs != 200 {
		t.Errorf("AvgLatencyMs = %d, want 200", sum.AvgLatencyMs)
	}
}

func TestUsageStore_GetRecent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUsageStore(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	var events []usage.Event
	for i := 0; i < 5; i++ {
		events = append(events, usage.Event{
			ID:        "e" + string(rune('1'+i)),
			UserID:    "u1",
			Mode:      usage.ModeSingle,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		})
	}
	if err := store.RecordBatch(ctx, events); err != nil {
		t.Fatal(err)
	}

	recent, err := store.GetRecent(ctx, "u1", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 3 {
		t.Fatalf("len = %d", len(recent))
	}
	if recent[0].ID != "e5" || recent[2].ID != "e3" {
		t.Errorf("order: %s, %s, %s", recent[0].ID, recent[1].ID, recent[2].ID)
	}
}

func TestUsageStore_EmptyBatch(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUsageStore(db)
	if err := store.RecordBatch(context.Background(), nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
}
