package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/tracknotes/internal/docstore"
	"github.com/dukerupert/tracknotes/internal/model"
)

// SessionTTL is how long a session stays valid after login.
const SessionTTL = 24 * time.Hour

type SessionStore struct {
	sessions *docstore.Collection
}

func NewSessionStore(ds *docstore.Store) *SessionStore {
	return &SessionStore{sessions: ds.Collection(sessionsCollection)}
}

func docToSession(doc docstore.Document) *model.Session {
	return &model.Session{
		ID:        docString(doc, "_id"),
		UserID:    docString(doc, "userId"),
		Token:     docString(doc, "token"),
		ExpiresAt: docTime(doc, "expiresAt"),
		CreatedAt: docTime(doc, "createdAt"),
	}
}

// Create generates a new session with a crypto-random token that expires
// after SessionTTL.
func (s *SessionStore) Create(ctx context.Context, userID string) (*model.Session, error) {
	return s.CreateWithExpiry(ctx, userID, now().Add(SessionTTL))
}

func (s *SessionStore) CreateWithExpiry(ctx context.Context, userID string, expiresAt time.Time) (*model.Session, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(tokenBytes)

	doc, err := s.sessions.InsertOne(ctx, docstore.Document{
		"userId":    userID,
		"token":     token,
		"expiresAt": expiresAt.UTC(),
		"createdAt": now(),
	})
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return docToSession(doc), nil
}

// FindByToken returns the first session whose token matches. Expired
// sessions are returned too; callers decide what to do with them.
func (s *SessionStore) FindByToken(ctx context.Context, token docstore.Value) (*model.Session, error) {
	doc, err := s.sessions.FindOne(ctx, docstore.Where("token", token))
	if errors.Is(err, docstore.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	return docToSession(doc), nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.sessions.DeleteOne(ctx, docstore.Where("_id", docstore.Eq(id))); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteByToken removes the first session matching token. Deleting a token
// that does not exist is not an error.
func (s *SessionStore) DeleteByToken(ctx context.Context, token docstore.Value) (int64, error) {
	n, err := s.sessions.DeleteOne(ctx, docstore.Where("token", token))
	if err != nil {
		return 0, fmt.Errorf("delete session by token: %w", err)
	}
	return n, nil
}

func (s *SessionStore) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteMany(ctx, docstore.Filter{})
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	return n, nil
}
