package docstore

import (
	"math"
	"regexp"
	"strings"
	"time"
)

func not(p predicate) predicate {
	return func(v any, present bool) bool { return !p(v, present) }
}

// equalMatch matches a missing field against nil, and an array field when the
// array itself or any of its elements equals arg.
func equalMatch(arg any) predicate {
	return func(v any, present bool) bool {
		if !present {
			return arg == nil
		}
		if equal(v, arg) {
			return true
		}
		if arr, ok := v.([]any); ok {
			for _, el := range arr {
				if equal(el, arg) {
					return true
				}
			}
		}
		return false
	}
}

func inMatch(list []any) predicate {
	preds := make([]predicate, len(list))
	for i, el := range list {
		preds[i] = equalMatch(el)
	}
	return func(v any, present bool) bool {
		for _, p := range preds {
			if p(v, present) {
				return true
			}
		}
		return false
	}
}

func compareMatch(arg any, ok func(int) bool) predicate {
	return func(v any, present bool) bool {
		if !present {
			return false
		}
		return anyElement(v, func(el any) bool {
			c, comparable := compare(el, arg)
			return comparable && ok(c)
		})
	}
}

func regexMatch(re *regexp.Regexp) predicate {
	return func(v any, present bool) bool {
		if !present {
			return false
		}
		return anyElement(v, func(el any) bool {
			s, ok := el.(string)
			return ok && re.MatchString(s)
		})
	}
}

func anyElement(v any, fn func(any) bool) bool {
	if arr, ok := v.([]any); ok {
		for _, el := range arr {
			if fn(el) {
				return true
			}
		}
		return false
	}
	return fn(v)
}

func lookup(doc Document, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

func equal(a, b any) bool {
	if an, ok := toFloat(a); ok {
		bn, ok := toFloat(b)
		return ok && an == bn
	}

	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equal(x[i], y[i]) {
				return false
			}
		}
		return true
	}

	xm, ok := asMap(a)
	if !ok {
		return false
	}
	ym, ok := asMap(b)
	if !ok || len(xm) != len(ym) {
		return false
	}
	for k, xv := range xm {
		yv, ok := ym[k]
		if !ok || !equal(xv, yv) {
			return false
		}
	}
	return true
}

// compare orders two values of the same type class. Values of different
// classes are not comparable.
func compare(a, b any) (int, bool) {
	if an, ok := toFloat(a); ok {
		bn, ok := toFloat(b)
		if !ok || math.IsNaN(an) || math.IsNaN(bn) {
			return 0, false
		}
		switch {
		case an < bn:
			return -1, true
		case an > bn:
			return 1, true
		}
		return 0, true
	}

	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func typeOrder(v any) int {
	if _, ok := toFloat(v); ok {
		return 1
	}
	switch v.(type) {
	case nil:
		return 0
	case string:
		return 2
	case []any:
		return 4
	case bool:
		return 5
	case time.Time:
		return 6
	}
	if _, ok := asMap(v); ok {
		return 3
	}
	return 7
}

// sortCompare orders any two field values, missing fields first.
func sortCompare(a, b any) int {
	ta, tb := typeOrder(a), typeOrder(b)
	if ta != tb {
		return ta - tb
	}
	c, _ := compare(a, b)
	return c
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return true
	}
	if n, ok := toFloat(v); ok {
		return n != 0
	}
	return true
}
