// Package input decodes untrusted request data into loosely typed values.
//
// Bodies and query strings keep their structure: JSON objects stay objects
// and bracketed form keys such as a[b]=c become nested maps. Callers decide
// how much of that structure to trust.
package input

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"unicode/utf16"

	"github.com/dukerupert/tracknotes/internal/docstore"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 100 << 10

// maxDepth is how many bracket levels a key may nest before the rest of the
// key is kept as one literal segment.
const maxDepth = 5

var ErrMalformedBody = errors.New("malformed request body")

// DecodeBody reads a JSON or urlencoded form body. Other content types and
// empty bodies yield an empty map.
func DecodeBody(r *http.Request) (map[string]any, error) {
	out := map[string]any{}
	if r.Body == nil {
		return out, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" && mediaType != "application/x-www-form-urlencoded" {
		return out, nil
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(raw) > MaxBodyBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrMalformedBody, MaxBodyBytes)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return out, nil
	}

	if mediaType == "application/x-www-form-urlencoded" {
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
		}
		return nest(values), nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	switch body := v.(type) {
	case map[string]any:
		return body, nil
	case []any:
		// An array body has no named fields.
		return out, nil
	default:
		return nil, fmt.Errorf("%w: top-level value must be an object or array", ErrMalformedBody)
	}
}

// Query parses the URL query string with the same bracket rules as form
// bodies. Unparseable pairs are skipped.
func Query(r *http.Request) map[string]any {
	values, _ := url.ParseQuery(r.URL.RawQuery)
	return nest(values)
}

// nest expands bracketed keys into nested maps. Repeated keys become
// arrays, and "a[]" always does.
func nest(values url.Values) map[string]any {
	out := map[string]any{}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		path := splitKey(key)
		vals := values[key]

		appendArray := len(path) > 1 && path[len(path)-1] == ""
		if appendArray {
			path = path[:len(path)-1]
		}

		var v any
		if appendArray || len(vals) > 1 {
			arr := make([]any, len(vals))
			for i, s := range vals {
				arr[i] = s
			}
			v = arr
		} else {
			v = vals[0]
		}
		set(out, path, v)
	}
	return out
}

// splitKey turns "a[b][c]" into ["a", "b", "c"].
func splitKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return []string{key}
	}

	path := []string{key[:open]}
	rest := key[open:]
	for len(rest) > 0 && rest[0] == '[' {
		if len(path) > maxDepth {
			path = append(path, rest)
			return path
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		path = append(path, rest[1:end])
		rest = rest[end+1:]
	}
	if rest != "" {
		// Trailing text after the brackets keeps the key literal.
		return []string{key}
	}
	return path
}

func set(m map[string]any, path []string, v any) {
	for _, seg := range path[:len(path)-1] {
		next, ok := m[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[seg] = next
		}
		m = next
	}
	m[path[len(path)-1]] = v
}

// Truthy reports whether v counts as present: nil, "", false, 0 and NaN
// do not.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case int:
		return x != 0
	}
	return true
}

// Length returns the length of s in UTF-16 code units.
func Length(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// BearerToken strips the first "Bearer " from an Authorization header
// value. Whatever remains is the token.
func BearerToken(header string) string {
	return strings.Replace(header, "Bearer ", "", 1)
}

// LooseToken converts a bearer token to a store value. A token that is a
// JSON object is decoded and may carry operators; anything else is matched
// literally.
func LooseToken(token string) docstore.Value {
	trimmed := strings.TrimSpace(token)
	if strings.HasPrefix(trimmed, "{") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
			return docstore.Loose(obj)
		}
	}
	return docstore.Eq(token)
}
