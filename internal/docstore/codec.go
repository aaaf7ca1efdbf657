package docstore

import (
	"encoding/json"
	"fmt"
	"time"
)

const dateKey = "$date"

// Document is a schemaless record. Values are strings, float64, bool, nil,
// time.Time, nested documents or []any.
type Document map[string]any

func encodeDocument(doc Document) ([]byte, error) {
	data, err := json.Marshal(encodeValue(doc))
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

func encodeValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return map[string]any{dateKey: x.UTC().Format(time.RFC3339Nano)}
	case []any:
		out := make([]any, len(x))
		for i, el := range x {
			out[i] = encodeValue(el)
		}
		return out
	}
	if m, ok := asMap(v); ok {
		out := make(map[string]any, len(m))
		for k, el := range m {
			out[k] = encodeValue(el)
		}
		return out
	}
	return v
}

func decodeDocument(data []byte) (Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	doc, _ := decodeValue(raw).(Document)
	return doc, nil
}

func decodeValue(v any) any {
	switch x := v.(type) {
	case []any:
		for i, el := range x {
			x[i] = decodeValue(el)
		}
		return x
	case map[string]any:
		if len(x) == 1 {
			if s, ok := x[dateKey].(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					return t
				}
			}
		}
		doc := make(Document, len(x))
		for k, el := range x {
			doc[k] = decodeValue(el)
		}
		return doc
	}
	return v
}

// clone returns a deep copy of doc so callers never share maps with the store.
func clone(doc Document) Document {
	out, _ := cloneValue(doc).(Document)
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, el := range x {
			out[i] = cloneValue(el)
		}
		return out
	}
	if m, ok := asMap(v); ok {
		out := make(Document, len(m))
		for k, el := range m {
			out[k] = cloneValue(el)
		}
		return out
	}
	return v
}
