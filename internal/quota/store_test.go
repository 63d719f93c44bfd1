package quota

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newStoreDB(t *testing.T) Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&RateLimitState{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewGormStore(db)
}

func TestGormStoreRoundTrip(t *testing.T) {
	store := newStoreDB(t)

	last, err := store.LastCall("u1")
	if err != nil {
		t.Fatalf("LastCall: %v", err)
	}
	if last != nil {
		t.Fatalf("expected no recorded call, got %v", last)
	}

	first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	if err := store.SetLastCall("u1", first); err != nil {
		t.Fatalf("SetLastCall: %v", err)
	}

	// Overwrite for the same user, a second user stays independent.
	second := first.Add(20 * time.Minute)
	if err := store.SetLastCall("u1", second); err != nil {
		t.Fatalf("SetLastCall overwrite: %v", err)
	}
	if err := store.SetLastCall("u2", first); err != nil {
		t.Fatalf("SetLastCall u2: %v", err)
	}

	got, err := store.LastCall("u1")
	if err != nil {
		t.Fatalf("LastCall: %v", err)
	}
	if got == nil || !got.Equal(second) {
		t.Errorf("u1 last call = %v, want %v", got, second)
	}
	got, err = store.LastCall("u2")
	if err != nil {
		t.Fatalf("LastCall u2: %v", err)
	}
	if got == nil || !got.Equal(first) {
		t.Errorf("u2 last call = %v, want %v", got, first)
	}
}
