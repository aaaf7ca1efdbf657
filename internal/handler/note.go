package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dukerupert/tracknotes/internal/apperr"
	"github.com/dukerupert/tracknotes/internal/auth"
	"github.com/dukerupert/tracknotes/internal/input"
	"github.com/dukerupert/tracknotes/internal/store"
	"github.com/dukerupert/tracknotes/internal/websocket"
)

type NoteHandler struct {
	noteStore *store.NoteStore
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewNoteHandler(ns *store.NoteStore, hub *websocket.Hub, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{noteStore: ns, hub: hub, logger: logger}
}

func (h *NoteHandler) publish(userID string, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Publish(userID, msg)
	}
}

// List returns the caller's notes. A truthy search query value is used as
// a case-insensitive pattern over title and content.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var pattern any
	if search := input.Query(r)["search"]; input.Truthy(search) {
		pattern = search
	}

	notes, err := h.noteStore.List(r.Context(), userID, pattern)
	if err != nil {
		writeError(w, r, h.logger, apperr.Fail("Error fetching notes", err))
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	note, err := h.noteStore.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, apperr.Fail("Error fetching note", err))
		return
	}
	if note == nil {
		writeError(w, r, h.logger, apperr.Missing("Note not found"))
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	body, err := input.DecodeBody(r)
	if err != nil {
		writeError(w, r, h.logger, apperr.Invalid("Invalid request body"))
		return
	}
	title, content := body["title"], body["content"]
	if !input.Truthy(title) || !input.Truthy(content) {
		writeError(w, r, h.logger, apperr.Invalid("Title and content are required"))
		return
	}

	note, err := h.noteStore.Create(r.Context(), userID, title, content)
	if err != nil {
		writeError(w, r, h.logger, apperr.Fail("Error creating note", err))
		return
	}

	h.publish(userID, websocket.NewMessage("note", "created", note.ID, note))
	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	body, err := input.DecodeBody(r)
	if err != nil {
		writeError(w, r, h.logger, apperr.Invalid("Invalid request body"))
		return
	}
	title, content := body["title"], body["content"]
	if !input.Truthy(title) || !input.Truthy(content) {
		writeError(w, r, h.logger, apperr.Invalid("Title and content are required"))
		return
	}

	note, err := h.noteStore.Update(r.Context(), userID, chi.URLParam(r, "id"), title, content)
	if err != nil {
		writeError(w, r, h.logger, apperr.Fail("Error updating note", err))
		return
	}
	if note == nil {
		writeError(w, r, h.logger, apperr.Missing("Note not found"))
		return
	}

	h.publish(userID, websocket.NewMessage("note", "updated", note.ID, note))
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id := chi.URLParam(r, "id")

	deleted, err := h.noteStore.Delete(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, h.logger, apperr.Fail("Error deleting note", err))
		return
	}
	if !deleted {
		writeError(w, r, h.logger, apperr.Missing("Note not found"))
		return
	}

	h.publish(userID, websocket.NewMessage("note", "deleted", id, nil))
	writeMessage(w, http.StatusOK, "Note deleted successfully")
}
