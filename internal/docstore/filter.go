package docstore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

type term struct {
	field string
	value Value
}

// Filter is a conjunction of field terms and $or groups. Build one with
// Where; the zero Filter matches every document.
type Filter struct {
	terms []term
	or    [][]Filter
}

// Where starts a filter with a single field term.
func Where(field string, v Value) Filter {
	return Filter{terms: []term{{field: field, value: v}}}
}

// And returns a copy of f with an additional field term.
func (f Filter) And(field string, v Value) Filter {
	terms := make([]term, len(f.terms), len(f.terms)+1)
	copy(terms, f.terms)
	f.terms = append(terms, term{field: field, value: v})
	return f
}

// Or returns a copy of f that additionally requires at least one of alts to
// match. Repeated calls add independent groups.
func (f Filter) Or(alts ...Filter) Filter {
	groups := make([][]Filter, len(f.or), len(f.or)+1)
	copy(groups, f.or)
	f.or = append(groups, alts)
	return f
}

// predicate tests a field value; present is false when the field is missing.
type predicate func(v any, present bool) bool

type matcher func(doc Document) bool

// plan is a compiled filter plus the literal _id it pins, if any.
type plan struct {
	match matcher
	id    string
	hasID bool
}

func (f Filter) compile() (*plan, error) {
	p := &plan{}

	type fieldPred struct {
		field string
		pred  predicate
	}
	preds := make([]fieldPred, 0, len(f.terms))
	for _, t := range f.terms {
		pred, err := compileValue(t.field, t.value)
		if err != nil {
			return nil, err
		}
		preds = append(preds, fieldPred{field: t.field, pred: pred})

		if t.field == idField && !p.hasID {
			if lit, ok := t.value.Literal(); ok {
				cast, _ := castOperand(idField, lit)
				if s, ok := cast.(string); ok {
					p.id, p.hasID = s, true
				}
			}
		}
	}

	groups := make([][]matcher, 0, len(f.or))
	for _, alts := range f.or {
		if len(alts) == 0 {
			return nil, fmt.Errorf("%w: $or requires at least one clause", ErrBadQuery)
		}
		ms := make([]matcher, 0, len(alts))
		for _, alt := range alts {
			sub, err := alt.compile()
			if err != nil {
				return nil, err
			}
			ms = append(ms, sub.match)
		}
		groups = append(groups, ms)
	}

	p.match = func(doc Document) bool {
		for _, fp := range preds {
			v, present := lookup(doc, fp.field)
			if !fp.pred(v, present) {
				return false
			}
		}
		for _, ms := range groups {
			matched := false
			for _, m := range ms {
				if m(doc) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
		return true
	}
	return p, nil
}

func compileValue(field string, v Value) (predicate, error) {
	if lit, ok := v.Literal(); ok {
		arg, err := castOperand(field, lit)
		if err != nil {
			return nil, err
		}
		return equalMatch(arg), nil
	}

	var options string
	var regexArg any
	hasRegex, hasOptions := false, false
	for _, op := range v.Ops() {
		switch op.Name {
		case "$regex":
			regexArg, hasRegex = op.Arg, true
		case "$options":
			s, ok := op.Arg.(string)
			if !ok {
				return nil, fmt.Errorf("%w: $options has to be a string", ErrBadQuery)
			}
			options, hasOptions = s, true
		}
	}
	if hasOptions && !hasRegex {
		return nil, fmt.Errorf("%w: $options needs a $regex", ErrBadQuery)
	}

	preds := make([]predicate, 0, len(v.Ops()))
	if len(v.Ops()) == 0 {
		// An empty expression is the literal empty document.
		return equalMatch(Document{}), nil
	}
	if hasRegex {
		re, err := compileRegex(regexArg, options)
		if err != nil {
			return nil, err
		}
		preds = append(preds, regexMatch(re))
	}

	for _, op := range v.Ops() {
		var pred predicate
		switch op.Name {
		case "$regex", "$options":
			continue
		case "$eq", "$ne":
			arg, err := castOperand(field, op.Arg)
			if err != nil {
				return nil, err
			}
			pred = equalMatch(arg)
			if op.Name == "$ne" {
				pred = not(pred)
			}
		case "$gt":
			pred = compareMatch(op.Arg, func(c int) bool { return c > 0 })
		case "$gte":
			pred = compareMatch(op.Arg, func(c int) bool { return c >= 0 })
		case "$lt":
			pred = compareMatch(op.Arg, func(c int) bool { return c < 0 })
		case "$lte":
			pred = compareMatch(op.Arg, func(c int) bool { return c <= 0 })
		case "$in", "$nin":
			list, ok := op.Arg.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: %s needs an array", ErrBadQuery, op.Name)
			}
			cast := make([]any, 0, len(list))
			for _, el := range list {
				arg, err := castOperand(field, el)
				if err != nil {
					return nil, err
				}
				cast = append(cast, arg)
			}
			pred = inMatch(cast)
			if op.Name == "$nin" {
				pred = not(pred)
			}
		case "$exists":
			want := truthy(op.Arg)
			pred = func(_ any, present bool) bool { return present == want }
		default:
			return nil, fmt.Errorf("%w: unknown operator %s", ErrBadQuery, op.Name)
		}
		preds = append(preds, pred)
	}

	return func(val any, present bool) bool {
		for _, p := range preds {
			if !p(val, present) {
				return false
			}
		}
		return true
	}, nil
}

// castOperand converts operands compared against _id, which holds UUIDs.
// Other fields take the operand as given.
func castOperand(field string, v any) (any, error) {
	if field != idField || v == nil {
		return v, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrInvalidID, v)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id.String(), nil
}

func compileRegex(pattern any, options string) (*regexp.Regexp, error) {
	s, ok := pattern.(string)
	if !ok {
		return nil, fmt.Errorf("%w: $regex has to be a string", ErrBadQuery)
	}

	var flags strings.Builder
	for _, o := range options {
		switch o {
		case 'i', 'm', 's':
			if !strings.ContainsRune(flags.String(), o) {
				flags.WriteRune(o)
			}
		default:
			return nil, fmt.Errorf("%w: invalid regex option %q", ErrBadQuery, o)
		}
	}
	if flags.Len() > 0 {
		s = "(?" + flags.String() + ")" + s
	}

	re, err := regexp.Compile(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadQuery, err)
	}
	return re, nil
}
