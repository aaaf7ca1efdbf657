package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/tracknotes/internal/auth"
	"github.com/dukerupert/tracknotes/internal/database"
	"github.com/dukerupert/tracknotes/internal/docstore"
	"github.com/dukerupert/tracknotes/internal/middleware"
	"github.com/dukerupert/tracknotes/internal/store"
	"github.com/dukerupert/tracknotes/internal/websocket"
)

type testEnv struct {
	router   http.Handler
	users    *store.UserStore
	sessions *store.SessionStore
	notes    *store.NoteStore
	hub      *websocket.Hub
}

func setupEnv(t testing.TB) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err, "open test db")
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ds := docstore.New(db)
	env := &testEnv{
		users:    store.NewUserStore(ds),
		sessions: store.NewSessionStore(ds),
		notes:    store.NewNoteStore(ds),
		hub:      websocket.NewHub(logger),
	}

	authH := NewAuthHandler(env.users, env.sessions, logger)
	noteH := NewNoteHandler(env.notes, env.hub, logger)
	authn := auth.NewAuthenticator(env.sessions)

	r := chi.NewRouter()
	r.Post("/api/auth/signup", authH.Signup)
	r.Post("/api/auth/login", authH.Login)
	r.Post("/api/auth/logout", authH.Logout)
	r.Route("/api/notes", func(r chi.Router) {
		r.Use(middleware.RequireAuth(authn, logger))
		r.Get("/", noteH.List)
		r.Post("/", noteH.Create)
		r.Get("/{id}", noteH.Get)
		r.Put("/{id}", noteH.Update)
		r.Delete("/{id}", noteH.Delete)
	})
	env.router = r
	return env
}

// testingT is satisfied by *testing.T and *rapid.T.
type testingT interface {
	require.TestingT
	Helper()
}

type response struct {
	status int
	body   []byte
}

func (r response) message(t testingT) string {
	t.Helper()
	var m messageResponse
	require.NoError(t, json.Unmarshal(r.body, &m), "body %s", r.body)
	return m.Message
}

func (r response) object(t testingT) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(r.body, &m), "body %s", r.body)
	return m
}

func (r response) array(t testingT) []map[string]any {
	t.Helper()
	var m []map[string]any
	require.NoError(t, json.Unmarshal(r.body, &m), "body %s", r.body)
	return m
}

// do sends a JSON request. A nil body sends nothing.
func (e *testEnv) do(t testingT, method, path, token string, body any) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return response{status: rec.Code, body: rec.Body.Bytes()}
}

func (e *testEnv) doForm(t testingT, path string, form url.Values) response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return response{status: rec.Code, body: rec.Body.Bytes()}
}

func (e *testEnv) signup(t testingT, username, password string) {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{"username": username, "password": password})
	require.Equal(t, http.StatusCreated, resp.status, "signup %s: %s", username, resp.body)
}

func (e *testEnv) login(t testingT, username, password string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"username": username, "password": password})
	require.Equal(t, http.StatusOK, resp.status, "login %s: %s", username, resp.body)
	token, _ := resp.object(t)["token"].(string)
	require.Len(t, token, 64)
	return token
}

func (e *testEnv) createNote(t testingT, token, title, content string) map[string]any {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/notes", token, map[string]any{"title": title, "content": content})
	require.Equal(t, http.StatusCreated, resp.status, "create note: %s", resp.body)
	return resp.object(t)
}

func ctx() context.Context { return context.Background() }
