package auth

import (
	"context"
	"time"

	"github.com/dukerupert/tracknotes/internal/apperr"
	"github.com/dukerupert/tracknotes/internal/docstore"
	"github.com/dukerupert/tracknotes/internal/input"
	"github.com/dukerupert/tracknotes/internal/model"
)

// SessionFinder is the part of the session store the authenticator needs.
type SessionFinder interface {
	FindByToken(ctx context.Context, token docstore.Value) (*model.Session, error)
	Delete(ctx context.Context, id string) error
}

// Authenticator resolves an Authorization header to the session's owner.
type Authenticator struct {
	sessions SessionFinder
	now      func() time.Time
}

func NewAuthenticator(sessions SessionFinder) *Authenticator {
	return &Authenticator{sessions: sessions, now: time.Now}
}

// Authenticate checks header and returns the owning user. Failures are
// *apperr.Error values. An expired session is deleted before it is
// rejected.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (AuthContext, error) {
	if header == "" {
		return AuthContext{}, apperr.Unauthorized("No authorization token provided")
	}

	token := input.LooseToken(input.BearerToken(header))
	sess, err := a.sessions.FindByToken(ctx, token)
	if err != nil {
		return AuthContext{}, apperr.Fail("Internal server error", err)
	}
	if sess == nil {
		return AuthContext{}, apperr.Unauthorized("Invalid or expired session")
	}

	if sess.Expired(a.now()) {
		if err := a.sessions.Delete(ctx, sess.ID); err != nil {
			return AuthContext{}, apperr.Fail("Internal server error", err)
		}
		return AuthContext{}, apperr.Unauthorized("Session expired")
	}

	return AuthContext{UserID: sess.UserID, SessionID: sess.ID}, nil
}
