package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/tracknotes/internal/apperr"
	"github.com/dukerupert/tracknotes/internal/docstore"
	"github.com/dukerupert/tracknotes/internal/input"
	"github.com/dukerupert/tracknotes/internal/store"
)

type AuthHandler struct {
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	logger       *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userStore:    us,
		sessionStore: ss,
		logger:       logger,
	}
}

type loginResponse struct {
	Message  string `json:"message"`
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Signup registers a user. Passwords are stored as given.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	body, err := input.DecodeBody(r)
	if err != nil {
		writeError(w, r, h.logger, apperr.Invalid("Invalid request body"))
		return
	}

	username, password := body["username"], body["password"]
	if !input.Truthy(username) || !input.Truthy(password) {
		writeError(w, r, h.logger, apperr.Invalid("Username and password are required"))
		return
	}

	name, ok := username.(string)
	if !ok || input.Length(name) < 3 || input.Length(name) > 20 {
		writeError(w, r, h.logger, apperr.Invalid("Username must be 3-20 characters"))
		return
	}

	pw, ok := password.(string)
	if !ok || input.Length(pw) < 6 {
		writeError(w, r, h.logger, apperr.Invalid("Password must be at least 6 characters"))
		return
	}

	existing, err := h.userStore.FindByUsername(r.Context(), docstore.Loose(name))
	if err != nil {
		writeError(w, r, h.logger, apperr.Fail("An error occurred during signup", err))
		return
	}
	if existing != nil {
		writeError(w, r, h.logger, apperr.Duplicate("Username already exists"))
		return
	}

	if _, err := h.userStore.Create(r.Context(), name, pw); err != nil {
		if errors.Is(err, docstore.ErrDuplicateKey) {
			writeError(w, r, h.logger, apperr.Duplicate("Username already exists"))
			return
		}
		writeError(w, r, h.logger, apperr.Fail("An error occurred during signup", err))
		return
	}

	h.logger.Info("user registered", "username", name)
	writeMessage(w, http.StatusCreated, "Account created successfully")
}

// Login looks the user up with the submitted values as they arrived and
// starts a session on a match.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := input.DecodeBody(r)
	if err != nil {
		writeError(w, r, h.logger, apperr.Invalid("Invalid request body"))
		return
	}

	username, password := body["username"], body["password"]
	if !input.Truthy(username) || !input.Truthy(password) {
		writeError(w, r, h.logger, apperr.Invalid("Username and password are required"))
		return
	}

	user, err := h.userStore.FindByCredentials(r.Context(), docstore.Loose(username), docstore.Loose(password))
	if err != nil {
		writeError(w, r, h.logger, apperr.Fail("An error occurred during login", err))
		return
	}
	if user == nil {
		writeError(w, r, h.logger, apperr.Unauthorized("Invalid username or password"))
		return
	}

	sess, err := h.sessionStore.Create(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, h.logger, apperr.Fail("An error occurred during login", err))
		return
	}

	h.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusOK, loginResponse{
		Message:  "Login successful",
		Token:    sess.Token,
		Username: user.Username,
	})
}

// Logout deletes the session named by the Authorization header, if any.
// It succeeds whether or not a session matched.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if header := r.Header.Get("Authorization"); header != "" {
		token := input.LooseToken(input.BearerToken(header))
		if _, err := h.sessionStore.DeleteByToken(r.Context(), token); err != nil {
			writeError(w, r, h.logger, apperr.Fail("An error occurred during logout", err))
			return
		}
	}
	writeMessage(w, http.StatusOK, "Logged out successfully")
}
