package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/tracknotes/internal/apperr"
	"github.com/dukerupert/tracknotes/internal/auth"
)

// Authenticator resolves a raw Authorization value to an AuthContext.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (auth.AuthContext, error)
}

// RequireAuth validates the Authorization header and populates AuthContext.
// Rejections are written as {"message": ...} with the matching status.
func RequireAuth(authn Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return requireAuth(authn, logger, func(r *http.Request) string {
		return r.Header.Get("Authorization")
	})
}

// RequireAuthQuery is RequireAuth for clients that cannot set headers,
// such as browser WebSockets. The token comes from the "token" query
// parameter.
func RequireAuthQuery(authn Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return requireAuth(authn, logger, func(r *http.Request) string {
		return r.URL.Query().Get("token")
	})
}

func requireAuth(authn Authenticator, logger *slog.Logger, credential func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, err := authn.Authenticate(r.Context(), credential(r))
			if err != nil {
				e := apperr.From(err)
				if e.Kind == apperr.Internal {
					logger.Error("authenticate", "error", err, "path", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(e.Kind.HTTPStatus())
				json.NewEncoder(w).Encode(map[string]string{"message": e.Message})
				return
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
