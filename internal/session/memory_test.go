package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playvault/playvault/internal/session"
)

func TestMemoryStore_roundTrip(t *testing.T) {
	store := session.NewMemoryStore()
	defer store.Stop()

	id, err := session.GenerateID()
	if err != nil {
		t.Fatalf("GenerateID: %v", err)
	}
	uid := uuid.New()
	s := session.Session{ID: id, UserID: uid, ExpiresAt: time.Now().Add(time.Hour)}

	if err := store.Set(context.Background(), s); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected a session")
	}
	if got.UserID != uid {
		t.Errorf("user id mismatch: %s", got.UserID)
	}
}

func TestMemoryStore_unknownIDIsNilNil(t *testing.T) {
	store := session.NewMemoryStore()
	defer store.Stop()

	got, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil session, got %+v", got)
	}
}

func TestMemoryStore_destroy(t *testing.T) {
	store := session.NewMemoryStore()
	defer store.Stop()

	s := session.Session{ID: "sid", UserID: uuid.New(), ExpiresAt: time.Now().Add(time.Hour)}
	if err := store.Set(context.Background(), s); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := store.Destroy(context.Background(), "sid"); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	got, err := store.Get(context.Background(), "sid")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Error("expected session to be gone")
	}

	// Destroying again is a no-op.
	if err := store.Destroy(context.Background(), "sid"); err != nil {
		t.Errorf("second Destroy: %v", err)
	}
}

func TestMemoryStore_expiryIsFixedNotSliding(t *testing.T) {
	store := session.NewMemoryStore()
	defer store.Stop()

	s := session.Session{ID: "sid", UserID: uuid.New(), ExpiresAt: time.Now().Add(150 * time.Millisecond)}
	if err := store.Set(context.Background(), s); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Read continuously through the lifetime; reads must not extend it.
	deadline := s.ExpiresAt.Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		if _, err := store.Get(context.Background(), "sid"); err != nil {
			t.Fatalf("Get: %v", err)
		}
		time.Sleep(25 * time.Millisecond)
	}

	got, err := store.Get(context.Background(), "sid")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Error("session should be gone at its fixed deadline despite repeated reads")
	}
}

func TestMemoryStore_rejectsPastExpiry(t *testing.T) {
	store := session.NewMemoryStore()
	defer store.Stop()

	s := session.Session{ID: "sid", UserID: uuid.New(), ExpiresAt: time.Now().Add(-time.Minute)}
	if err := store.Set(context.Background(), s); err == nil {
		t.Error("expected error for expiry in the past")
	}
}

func TestGenerateID_unique(t *testing.T) {
	a, err := session.GenerateID()
	if err != nil {
		t.Fatalf("GenerateID: %v", err)
	}
	b, err := session.GenerateID()
	if err != nil {
		t.Fatalf("GenerateID: %v", err)
	}
	if a == b {
		t.Error("expected distinct ids")
	}
	if len(a) < 32 {
		t.Errorf("id too short: %d chars", len(a))
	}
}
