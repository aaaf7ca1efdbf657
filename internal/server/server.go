package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dukerupert/tracknotes/internal/auth"
	"github.com/dukerupert/tracknotes/internal/docstore"
	"github.com/dukerupert/tracknotes/internal/handler"
	"github.com/dukerupert/tracknotes/internal/middleware"
	"github.com/dukerupert/tracknotes/internal/store"
	ws "github.com/dukerupert/tracknotes/internal/websocket"
)

type Server struct {
	db        *sql.DB
	hub       *ws.Hub
	authH     *handler.AuthHandler
	noteH     *handler.NoteHandler
	authn     *auth.Authenticator
	staticDir string
	logger    *slog.Logger
}

// New wires stores and handlers over db. staticDir may be empty, in which
// case no frontend is served.
func New(db *sql.DB, staticDir string, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	ds := docstore.New(db)
	userStore := store.NewUserStore(ds)
	sessionStore := store.NewSessionStore(ds)
	noteStore := store.NewNoteStore(ds)

	return &Server{
		db:        db,
		hub:       hub,
		authH:     handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		noteH:     handler.NewNoteHandler(noteStore, hub, logger.With("component", "note")),
		authn:     auth.NewAuthenticator(sessionStore),
		staticDir: staticDir,
		logger:    logger,
	}
}

// Hub returns the live event hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE"},
		AllowedHeaders: []string{"*"},
	}))
	r.Use(middleware.RequestLogger(s.logger.With("component", "http")))

	r.Get("/health", s.healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.authH.Signup)
			r.Post("/login", s.authH.Login)
			r.Post("/logout", s.authH.Logout)
		})

		authLogger := s.logger.With("component", "authenticator")
		r.Route("/notes", func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.authn, authLogger))
			r.Get("/", s.noteH.List)
			r.Post("/", s.noteH.Create)
			r.Get("/{id}", s.noteH.Get)
			r.Put("/{id}", s.noteH.Update)
			r.Delete("/{id}", s.noteH.Delete)
		})

		r.With(middleware.RequireAuthQuery(s.authn, authLogger)).
			Get("/events", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
	})

	if s.staticDir != "" {
		r.Get("/*", s.frontendHandler())
	}

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// frontendHandler serves files from the static directory and falls back to
// index.html for paths that are not files, so client-side routes load.
func (s *Server) frontendHandler() http.HandlerFunc {
	files := http.FileServer(http.Dir(s.staticDir))
	index := filepath.Join(s.staticDir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		name := filepath.Join(s.staticDir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, index)
	}
}
