package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/tracknotes/internal/docstore"
)

func TestSessionCreate(t *testing.T) {
	ss := NewSessionStore(setupTestDB(t))

	before := time.Now().UTC()
	sess, err := ss.Create(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 { // 32 bytes hex-encoded
		t.Errorf("token length = %d, want 64", len(sess.Token))
	}
	if sess.UserID != "user-1" {
		t.Errorf("user_id = %q, want %q", sess.UserID, "user-1")
	}
	if sess.ExpiresAt.Before(before.Add(SessionTTL)) || sess.ExpiresAt.After(time.Now().UTC().Add(SessionTTL)) {
		t.Errorf("expires_at = %v, want about %v from now", sess.ExpiresAt, SessionTTL)
	}
}

func TestSessionTokensAreUnique(t *testing.T) {
	ctx := context.Background()
	ss := NewSessionStore(setupTestDB(t))

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		sess, err := ss.Create(ctx, "user-1")
		if err != nil {
			t.Fatalf("create session: %v", err)
		}
		if seen[sess.Token] {
			t.Fatalf("duplicate token %q", sess.Token)
		}
		seen[sess.Token] = true
	}
}

func TestSessionFindByToken(t *testing.T) {
	ctx := context.Background()
	ss := NewSessionStore(setupTestDB(t))

	created, _ := ss.Create(ctx, "user-1")

	sess, err := ss.FindByToken(ctx, docstore.Eq(created.Token))
	if err != nil {
		t.Fatalf("find by token: %v", err)
	}
	if sess == nil || sess.ID != created.ID {
		t.Fatalf("got %+v, want %+v", sess, created)
	}

	sess, err = ss.FindByToken(ctx, docstore.Eq("nonexistent"))
	if err != nil {
		t.Fatalf("find by token: %v", err)
	}
	if sess != nil {
		t.Error("expected nil for unknown token")
	}
}

func TestSessionFindExpired(t *testing.T) {
	ctx := context.Background()
	ss := NewSessionStore(setupTestDB(t))

	created, err := ss.CreateWithExpiry(ctx, "user-1", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	sess, err := ss.FindByToken(ctx, docstore.Eq(created.Token))
	if err != nil {
		t.Fatalf("find by token: %v", err)
	}
	if sess == nil {
		t.Fatal("expected expired session to be returned")
	}
	if !sess.Expired(time.Now()) {
		t.Error("expected session to be expired")
	}
}

func TestSessionDelete(t *testing.T) {
	ctx := context.Background()
	ss := NewSessionStore(setupTestDB(t))

	a, _ := ss.Create(ctx, "user-1")
	b, _ := ss.Create(ctx, "user-1")

	if err := ss.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if sess, _ := ss.FindByToken(ctx, docstore.Eq(a.Token)); sess != nil {
		t.Error("expected session a to be gone")
	}

	n, err := ss.DeleteByToken(ctx, docstore.Eq(b.Token))
	if err != nil {
		t.Fatalf("delete by token: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}

	n, err = ss.DeleteByToken(ctx, docstore.Eq(b.Token))
	if err != nil {
		t.Fatalf("delete by token again: %v", err)
	}
	if n != 0 {
		t.Errorf("deleted = %d, want 0", n)
	}
}
