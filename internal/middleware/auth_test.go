package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/tracknotes/internal/auth"
	"github.com/dukerupert/tracknotes/internal/database"
	"github.com/dukerupert/tracknotes/internal/docstore"
	"github.com/dukerupert/tracknotes/internal/model"
	"github.com/dukerupert/tracknotes/internal/store"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func setupAuthMiddlewareDB(t *testing.T) (*auth.Authenticator, *store.SessionStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	ss := store.NewSessionStore(docstore.New(db))
	return auth.NewAuthenticator(ss), ss
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body.Message
}

func unreachable(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	})
}

func TestRequireAuthNoHeader(t *testing.T) {
	authn, _ := setupAuthMiddlewareDB(t)

	handler := RequireAuth(authn, discard)(unreachable(t))

	req := httptest.NewRequest("GET", "/api/notes", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if msg := decodeMessage(t, rec); msg != "No authorization token provided" {
		t.Errorf("message = %q", msg)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	authn, _ := setupAuthMiddlewareDB(t)

	handler := RequireAuth(authn, discard)(unreachable(t))

	req := httptest.NewRequest("GET", "/api/notes", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if msg := decodeMessage(t, rec); msg != "Invalid or expired session" {
		t.Errorf("message = %q", msg)
	}
}

func TestRequireAuthValidSession(t *testing.T) {
	authn, ss := setupAuthMiddlewareDB(t)

	sess, err := ss.Create(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var gotAC auth.AuthContext
	handler := RequireAuth(authn, discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected AuthContext in request context")
		}
		gotAC = ac
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/notes", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotAC.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", gotAC.UserID, "user-1")
	}
	if gotAC.SessionID != sess.ID {
		t.Errorf("SessionID = %q, want %q", gotAC.SessionID, sess.ID)
	}
}

func TestRequireAuthQuery(t *testing.T) {
	authn, ss := setupAuthMiddlewareDB(t)

	sess, _ := ss.Create(context.Background(), "user-1")

	reached := false
	handler := RequireAuthQuery(authn, discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = auth.UserID(r.Context()) == "user-1"
	}))

	req := httptest.NewRequest("GET", "/api/events?token="+sess.Token, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if !reached {
		t.Fatalf("handler not reached, status = %d", rec.Code)
	}

	// The header is ignored on this gate.
	req = httptest.NewRequest("GET", "/api/events", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	rec = httptest.NewRecorder()
	RequireAuthQuery(authn, discard)(unreachable(t)).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

type brokenSessions struct{}

func (brokenSessions) FindByToken(context.Context, docstore.Value) (*model.Session, error) {
	return nil, errors.New("db closed")
}

func (brokenSessions) Delete(context.Context, string) error { return nil }

func TestRequireAuthStoreError(t *testing.T) {
	handler := RequireAuth(auth.NewAuthenticator(brokenSessions{}), discard)(unreachable(t))

	req := httptest.NewRequest("GET", "/api/notes", nil)
	req.Header.Set("Authorization", "Bearer x")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if msg := decodeMessage(t, rec); msg != "Internal server error" {
		t.Errorf("message = %q", msg)
	}
}
