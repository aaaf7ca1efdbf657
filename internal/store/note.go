package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/tracknotes/internal/docstore"
	"github.com/dukerupert/tracknotes/internal/model"
)

type NoteStore struct {
	notes *docstore.Collection
}

func NewNoteStore(ds *docstore.Store) *NoteStore {
	return &NoteStore{notes: ds.Collection(notesCollection)}
}

func docToNote(doc docstore.Document) *model.Note {
	return &model.Note{
		ID:        docString(doc, "_id"),
		UserID:    docString(doc, "userId"),
		Title:     docString(doc, "title"),
		Content:   docString(doc, "content"),
		CreatedAt: docTime(doc, "createdAt"),
		UpdatedAt: docTime(doc, "updatedAt"),
	}
}

// noteFields casts title and content through the note schema.
func noteFields(title, content any) (string, string, error) {
	t, err := titleField.cast(title)
	if err != nil {
		return "", "", err
	}
	c, err := contentField.cast(content)
	if err != nil {
		return "", "", err
	}
	return t, c, nil
}

func ownedBy(ownerID, id string) docstore.Filter {
	return docstore.Where("_id", docstore.Eq(id)).And("userId", docstore.Eq(ownerID))
}

func (s *NoteStore) Create(ctx context.Context, ownerID string, title, content any) (*model.Note, error) {
	t, c, err := noteFields(title, content)
	if err != nil {
		return nil, err
	}

	ts := now()
	doc, err := s.notes.InsertOne(ctx, docstore.Document{
		"userId":    ownerID,
		"title":     t,
		"content":   c,
		"createdAt": ts,
		"updatedAt": ts,
	})
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return docToNote(doc), nil
}

// List returns the owner's notes, most recently updated first. A non-nil
// pattern is a case-insensitive regular expression matched against title
// or content; it is used as given, without escaping.
func (s *NoteStore) List(ctx context.Context, ownerID string, pattern any) ([]model.Note, error) {
	f := docstore.Where("userId", docstore.Eq(ownerID))
	if pattern != nil {
		re := docstore.Regex(pattern, "i")
		f = f.Or(docstore.Where("title", re), docstore.Where("content", re))
	}

	docs, err := s.notes.Find(ctx, f, docstore.FindOptions{
		Sort: []docstore.SortKey{{Field: "updatedAt", Desc: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	notes := make([]model.Note, 0, len(docs))
	for _, doc := range docs {
		notes = append(notes, *docToNote(doc))
	}
	return notes, nil
}

// Get returns the note only if ownerID owns it.
func (s *NoteStore) Get(ctx context.Context, ownerID, id string) (*model.Note, error) {
	doc, err := s.notes.FindOne(ctx, ownedBy(ownerID, id))
	if errors.Is(err, docstore.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return docToNote(doc), nil
}

// Update replaces title and content and bumps updatedAt. Values are cast
// and trimmed but length limits are not enforced. It returns nil when
// ownerID has no note with that id.
func (s *NoteStore) Update(ctx context.Context, ownerID, id string, title, content any) (*model.Note, error) {
	t, err := titleField.convert(title)
	if err != nil {
		return nil, err
	}
	c, err := contentField.convert(content)
	if err != nil {
		return nil, err
	}

	doc, err := s.notes.FindOneAndUpdate(ctx, ownedBy(ownerID, id), docstore.Document{
		"title":     t,
		"content":   c,
		"updatedAt": now(),
	})
	if errors.Is(err, docstore.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	return docToNote(doc), nil
}

// Delete reports whether a note owned by ownerID was removed.
func (s *NoteStore) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	_, err := s.notes.FindOneAndDelete(ctx, ownedBy(ownerID, id))
	if errors.Is(err, docstore.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete note: %w", err)
	}
	return true, nil
}

func (s *NoteStore) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.notes.DeleteMany(ctx, docstore.Filter{})
	if err != nil {
		return 0, fmt.Errorf("delete notes: %w", err)
	}
	return n, nil
}
