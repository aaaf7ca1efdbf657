package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			handler := chimw.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})))

			req := httptest.NewRequest("GET", "/api/notes", nil)
			req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
			handler.ServeHTTP(httptest.NewRecorder(), req)

			line := buf.String()
			for _, want := range []string{tt.level, "path=/api/notes", "remote=203.0.113.7", "request_id="} {
				if !strings.Contains(line, want) {
					t.Errorf("log line %q missing %q", line, want)
				}
			}
		})
	}
}

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	if got := RealIP(req); got != "192.0.2.1" {
		t.Errorf("RealIP = %q, want %q", got, "192.0.2.1")
	}

	req.Header.Set("CF-Connecting-IP", "198.51.100.2")
	if got := RealIP(req); got != "198.51.100.2" {
		t.Errorf("RealIP = %q, want %q", got, "198.51.100.2")
	}
}
