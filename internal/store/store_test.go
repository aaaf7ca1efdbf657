package store

import (
	"path/filepath"
	"testing"

	"github.com/dukerupert/tracknotes/internal/database"
	"github.com/dukerupert/tracknotes/internal/docstore"
)

func setupTestDB(t *testing.T) *docstore.Store {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return docstore.New(db)
}

func setupFileDB(t *testing.T) *docstore.Store {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "tracknotes.db"))
	if err != nil {
		t.Fatalf("open file db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return docstore.New(db)
}
