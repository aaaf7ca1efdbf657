package docstore

import (
	"sort"
	"strings"
)

// Op is a single query operator and its operand, e.g. {"$gt": ""}.
type Op struct {
	Name string
	Arg  any
}

// Value is the operand of a filter term. It is either a literal matched by
// equality or an operator expression. The zero Value is the literal nil.
type Value struct {
	literal any
	ops     []Op
}

// Eq returns a literal value matched by equality.
func Eq(v any) Value {
	return Value{literal: v}
}

// Expr returns an operator expression. All operators must hold.
func Expr(ops ...Op) Value {
	if ops == nil {
		ops = []Op{}
	}
	return Value{ops: ops}
}

// Regex returns a {$regex, $options} expression.
func Regex(pattern any, options string) Value {
	ops := []Op{{Name: "$regex", Arg: pattern}}
	if options != "" {
		ops = append(ops, Op{Name: "$options", Arg: options})
	}
	return Value{ops: ops}
}

// Loose converts a value decoded from untrusted input without coercing it to
// a scalar. An object with any "$"-prefixed key becomes an operator
// expression; everything else is a literal.
func Loose(v any) Value {
	m, ok := asMap(v)
	if !ok || !hasOperatorKey(m) {
		return Value{literal: v}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ops := make([]Op, 0, len(keys))
	for _, k := range keys {
		ops = append(ops, Op{Name: k, Arg: m[k]})
	}
	return Value{ops: ops}
}

// IsExpr reports whether v is an operator expression.
func (v Value) IsExpr() bool {
	return v.ops != nil
}

// Literal returns the literal operand and true, or nil and false for an
// expression.
func (v Value) Literal() (any, bool) {
	if v.IsExpr() {
		return nil, false
	}
	return v.literal, true
}

// Ops returns the operators of an expression.
func (v Value) Ops() []Op {
	return v.ops
}

func hasOperatorKey(m map[string]any) bool {
	for k := range m {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Document:
		return m, true
	}
	return nil, false
}
