package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/dukerupert/tracknotes/internal/docstore"
)

// ErrValidation is returned when a value does not satisfy a collection's
// schema.
var ErrValidation = errors.New("validation failed")

const (
	usersCollection    = "users"
	sessionsCollection = "sessions"
	notesCollection    = "notes"
)

// stringField describes a string schema path. Lengths count UTF-16 code
// units; zero means unbounded.
type stringField struct {
	name      string
	trim      bool
	minLength int
	maxLength int
}

var (
	usernameField = stringField{name: "username", trim: true, minLength: 3, maxLength: 20}
	passwordField = stringField{name: "password", minLength: 6}
	titleField    = stringField{name: "title", trim: true, maxLength: 100}
	contentField  = stringField{name: "content"}
)

// convert casts v to a string and applies trim. Strings pass through,
// numbers and booleans are formatted, anything else fails.
func (f stringField) convert(v any) (string, error) {
	var s string
	switch x := v.(type) {
	case nil:
		return "", fmt.Errorf("%w: path %q is required", ErrValidation, f.name)
	case string:
		s = x
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(x)
	default:
		return "", fmt.Errorf("%w: cast to string failed for path %q", ErrValidation, f.name)
	}

	if f.trim {
		s = strings.TrimSpace(s)
	}
	return s, nil
}

// cast converts v and runs the path's validators.
func (f stringField) cast(v any) (string, error) {
	s, err := f.convert(v)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("%w: path %q is required", ErrValidation, f.name)
	}
	n := len(utf16.Encode([]rune(s)))
	if f.minLength > 0 && n < f.minLength {
		return "", fmt.Errorf("%w: path %q is shorter than the minimum allowed length (%d)", ErrValidation, f.name, f.minLength)
	}
	if f.maxLength > 0 && n > f.maxLength {
		return "", fmt.Errorf("%w: path %q is longer than the maximum allowed length (%d)", ErrValidation, f.name, f.maxLength)
	}
	return s, nil
}

// query applies the path's setters to a literal string filter value.
// Operator expressions and other literals are left alone.
func (f stringField) query(v docstore.Value) docstore.Value {
	lit, ok := v.Literal()
	if !ok {
		return v
	}
	s, ok := lit.(string)
	if !ok || !f.trim {
		return v
	}
	return docstore.Eq(strings.TrimSpace(s))
}

func docString(doc docstore.Document, key string) string {
	s, _ := doc[key].(string)
	return s
}

func docTime(doc docstore.Document, key string) time.Time {
	t, _ := doc[key].(time.Time)
	return t
}

func now() time.Time {
	return time.Now().UTC()
}
