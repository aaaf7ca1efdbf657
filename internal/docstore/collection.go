// Package docstore is a schemaless, collection-oriented document store kept
// in a single SQLite table. Queries are filters whose terms are either
// literals or operator expressions; operator expressions are evaluated as
// predicates no matter where the operand came from.
package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNoDocuments  = errors.New("no documents in result")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidID    = errors.New("invalid document id")
	ErrBadQuery     = errors.New("bad query")
)

const idField = "_id"

// Store hands out collections backed by the documents table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Collection returns a handle to the named collection. Collections exist
// implicitly.
func (s *Store) Collection(name string) *Collection {
	return &Collection{db: s.db, name: name}
}

type Collection struct {
	db   *sql.DB
	name string
}

// SortKey orders results by a field.
type SortKey struct {
	Field string
	Desc  bool
}

type FindOptions struct {
	Sort  []SortKey
	Limit int
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// InsertOne stores a copy of doc, assigning a new _id when it has none, and
// returns the stored copy.
func (c *Collection) InsertOne(ctx context.Context, doc Document) (Document, error) {
	doc = clone(doc)
	if doc == nil {
		doc = Document{}
	}
	if doc[idField] == nil {
		doc[idField] = uuid.NewString()
	}
	id, err := castOperand(idField, doc[idField])
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", c.name, err)
	}
	doc[idField] = id

	data, err := encodeDocument(doc)
	if err != nil {
		return nil, err
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)`,
		c.name, id, string(data),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert %s: %w", c.name, ErrDuplicateKey)
		}
		return nil, fmt.Errorf("insert %s: %w", c.name, err)
	}
	return clone(doc), nil
}

// Find returns every matching document, in insertion order unless opts sort.
func (c *Collection) Find(ctx context.Context, f Filter, opts ...FindOptions) ([]Document, error) {
	p, err := f.compile()
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.name, err)
	}
	docs, err := c.scan(ctx, c.db, p)
	if err != nil {
		return nil, err
	}

	for _, o := range opts {
		if len(o.Sort) > 0 {
			sortDocuments(docs, o.Sort)
		}
		if o.Limit > 0 && len(docs) > o.Limit {
			docs = docs[:o.Limit]
		}
	}
	return docs, nil
}

// FindOne returns the first matching document in insertion order, or
// ErrNoDocuments.
func (c *Collection) FindOne(ctx context.Context, f Filter) (Document, error) {
	docs, err := c.Find(ctx, f, FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	return docs[0], nil
}

// FindOneAndUpdate sets the given top-level fields on the first matching
// document and returns the document after the update.
func (c *Collection) FindOneAndUpdate(ctx context.Context, f Filter, set Document) (Document, error) {
	p, err := f.compile()
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", c.name, err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update %s: %w", c.name, err)
	}
	defer tx.Rollback()

	docs, err := c.scan(ctx, tx, p)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	doc := docs[0]
	for k, v := range clone(set) {
		if k == idField {
			continue
		}
		doc[k] = v
	}
	data, err := encodeDocument(doc)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE documents SET body = ? WHERE collection = ? AND id = ?`,
		string(data), c.name, doc[idField],
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("update %s: %w", c.name, ErrDuplicateKey)
		}
		return nil, fmt.Errorf("update %s: %w", c.name, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update %s: %w", c.name, err)
	}
	return doc, nil
}

// FindOneAndDelete removes the first matching document and returns it.
func (c *Collection) FindOneAndDelete(ctx context.Context, f Filter) (Document, error) {
	deleted, err := c.delete(ctx, f, 1)
	if err != nil {
		return nil, err
	}
	if len(deleted) == 0 {
		return nil, ErrNoDocuments
	}
	return deleted[0], nil
}

// DeleteOne removes at most one matching document. Deleting nothing is not
// an error.
func (c *Collection) DeleteOne(ctx context.Context, f Filter) (int64, error) {
	deleted, err := c.delete(ctx, f, 1)
	return int64(len(deleted)), err
}

// DeleteMany removes every matching document.
func (c *Collection) DeleteMany(ctx context.Context, f Filter) (int64, error) {
	deleted, err := c.delete(ctx, f, 0)
	return int64(len(deleted)), err
}

func (c *Collection) delete(ctx context.Context, f Filter, limit int) ([]Document, error) {
	p, err := f.compile()
	if err != nil {
		return nil, fmt.Errorf("delete %s: %w", c.name, err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete %s: %w", c.name, err)
	}
	defer tx.Rollback()

	docs, err := c.scan(ctx, tx, p)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}

	for _, doc := range docs {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM documents WHERE collection = ? AND id = ?`,
			c.name, doc[idField],
		)
		if err != nil {
			return nil, fmt.Errorf("delete %s: %w", c.name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete %s: %w", c.name, err)
	}
	return docs, nil
}

// scan reads the collection in insertion order and keeps the documents the
// plan matches. A literal _id term narrows the read to one row.
func (c *Collection) scan(ctx context.Context, q queryer, p *plan) ([]Document, error) {
	query := `SELECT body FROM documents WHERE collection = ?`
	args := []any{c.name}
	if p.hasID {
		query += ` AND id = ?`
		args = append(args, p.id)
	}
	query += ` ORDER BY seq`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", c.name, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.name, err)
		}
		doc, err := decodeDocument([]byte(body))
		if err != nil {
			return nil, err
		}
		if p.match(doc) {
			docs = append(docs, doc)
		}
	}
	return docs, rows.Err()
}

func sortDocuments(docs []Document, keys []SortKey) {
	slices.SortStableFunc(docs, func(a, b Document) int {
		for _, k := range keys {
			av, _ := lookup(a, k.Field)
			bv, _ := lookup(b, k.Field)
			c := sortCompare(av, bv)
			if k.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
