package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/tracknotes/internal/apperr"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// writeError sends the error's public message. Internal errors are logged
// with their cause; the cause never reaches the client.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	e := apperr.From(err)
	if e.Kind == apperr.Internal {
		logger.Error(e.Message, "error", e.Err, "method", r.Method, "path", r.URL.Path)
	}
	writeMessage(w, e.Kind.HTTPStatus(), e.Message)
}
