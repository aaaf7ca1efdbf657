package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/tracknotes/internal/docstore"
	"github.com/dukerupert/tracknotes/internal/model"
)

type UserStore struct {
	users *docstore.Collection
}

func NewUserStore(ds *docstore.Store) *UserStore {
	return &UserStore{users: ds.Collection(usersCollection)}
}

func docToUser(doc docstore.Document) *model.User {
	return &model.User{
		ID:        docString(doc, "_id"),
		Username:  docString(doc, "username"),
		Password:  docString(doc, "password"),
		CreatedAt: docTime(doc, "createdAt"),
		UpdatedAt: docTime(doc, "updatedAt"),
	}
}

// Create stores a new user. The password is kept exactly as given. A taken
// username returns an error wrapping docstore.ErrDuplicateKey.
func (s *UserStore) Create(ctx context.Context, username, password string) (*model.User, error) {
	name, err := usernameField.cast(username)
	if err != nil {
		return nil, err
	}
	pw, err := passwordField.cast(password)
	if err != nil {
		return nil, err
	}

	ts := now()
	doc, err := s.users.InsertOne(ctx, docstore.Document{
		"username":  name,
		"password":  pw,
		"createdAt": ts,
		"updatedAt": ts,
	})
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return docToUser(doc), nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.findOne(ctx, docstore.Where("_id", docstore.Eq(id)))
}

// FindByUsername looks a user up by username. A literal string is trimmed
// like the stored value; an operator expression is evaluated as given.
func (s *UserStore) FindByUsername(ctx context.Context, username docstore.Value) (*model.User, error) {
	return s.findOne(ctx, docstore.Where("username", usernameField.query(username)))
}

// FindByCredentials returns the first user whose username and password both
// match the given values.
func (s *UserStore) FindByCredentials(ctx context.Context, username, password docstore.Value) (*model.User, error) {
	return s.findOne(ctx, docstore.Where("username", usernameField.query(username)).And("password", password))
}

// DeleteAll removes every user and returns how many were removed.
func (s *UserStore) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.users.DeleteMany(ctx, docstore.Filter{})
	if err != nil {
		return 0, fmt.Errorf("delete users: %w", err)
	}
	return n, nil
}

func (s *UserStore) findOne(ctx context.Context, f docstore.Filter) (*model.User, error) {
	doc, err := s.users.FindOne(ctx, f)
	if errors.Is(err, docstore.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return docToUser(doc), nil
}
