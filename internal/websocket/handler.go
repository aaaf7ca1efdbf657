package websocket

import (
	"log/slog"
	"net/http"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/tracknotes/internal/auth"
)

// HandleWebSocket returns an HTTP handler that upgrades authenticated
// requests and runs them as Hub clients of the request's user.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		if userID == "" {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}

		// Server-wide timeouts would otherwise cut long-lived connections.
		rc := http.NewResponseController(w)
		rc.SetReadDeadline(time.Time{})
		rc.SetWriteDeadline(time.Time{})

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // any origin, matching the CORS policy
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		logger.Debug("websocket connected", "user_id", userID)
		client := NewClient(hub, conn, userID)
		client.Run(r.Context())
		conn.CloseNow()
		logger.Debug("websocket disconnected", "user_id", userID)
	}
}
