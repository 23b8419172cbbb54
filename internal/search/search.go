// Package search compiles the scoped-search expressions and order clauses
// accepted by the listing endpoints into SQL fragments. Fragments use `?`
// placeholders; adapters rebind them for their driver.
package search

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode"
)

var (
	ErrInvalidSearch = errors.New("invalid search")
	ErrInvalidOrder  = errors.New("invalid order")
)

// Fields maps the public field name to the SQL column expression it searches.
type Fields map[string]string

// Filter is a compiled WHERE fragment. An empty SQL means "match everything".
type Filter struct {
	SQL  string
	Args []any
}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokString
	tokOp
	tokAnd
	tokOr
	tokNot
)

type token struct {
	kind tokenKind
	text string
}

// Compile parses a search expression into a filter over the given fields.
func Compile(expr string, fields Fields) (Filter, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return Filter{}, err
	}
	if len(toks) == 0 {
		return Filter{}, nil
	}

	var (
		groups [][]string
		group  []string
		args   []any
	)
	expectTerm := true
	for i := 0; i < len(toks); {
		t := toks[i]
		switch t.kind {
		case tokAnd, tokOr:
			if expectTerm {
				return Filter{}, fmt.Errorf("%w: unexpected %q", ErrInvalidSearch, t.text)
			}
			if t.kind == tokOr {
				groups = append(groups, group)
				group = nil
			}
			expectTerm = true
			i++
			continue
		}

		negate := false
		if t.kind == tokNot {
			negate = true
			i++
			if i >= len(toks) {
				return Filter{}, fmt.Errorf("%w: dangling not", ErrInvalidSearch)
			}
			t = toks[i]
		}

		var clause string
		var clauseArgs []any
		if t.kind == tokWord && i+1 < len(toks) && toks[i+1].kind == tokOp {
			column, ok := fields[strings.ToLower(t.text)]
			if !ok {
				return Filter{}, fmt.Errorf("%w: unknown field %q", ErrInvalidSearch, t.text)
			}
			if i+2 >= len(toks) || (toks[i+2].kind != tokWord && toks[i+2].kind != tokString) {
				return Filter{}, fmt.Errorf("%w: missing value for %q", ErrInvalidSearch, t.text)
			}
			clause, clauseArgs = comparison(column, toks[i+1].text, toks[i+2].text)
			i += 3
		} else if t.kind == tokWord || t.kind == tokString {
			clause, clauseArgs = anyField(fields, t.text)
			i++
		} else {
			return Filter{}, fmt.Errorf("%w: unexpected %q", ErrInvalidSearch, t.text)
		}

		if negate {
			clause = "NOT (" + clause + ")"
		}
		group = append(group, clause)
		args = append(args, clauseArgs...)
		expectTerm = false
	}
	if expectTerm {
		return Filter{}, fmt.Errorf("%w: trailing operator", ErrInvalidSearch)
	}
	groups = append(groups, group)

	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		parts = append(parts, "("+strings.Join(g, " AND ")+")")
	}
	sql := strings.Join(parts, " OR ")
	if len(parts) > 1 {
		sql = "(" + sql + ")"
	}
	return Filter{SQL: sql, Args: args}, nil
}

func comparison(column, op, value string) (string, []any) {
	v := strings.ToLower(value)
	switch op {
	case "=":
		return "LOWER(" + column + ") = ?", []any{v}
	case "!=":
		return "LOWER(" + column + ") <> ?", []any{v}
	case "!~":
		return "LOWER(" + column + ") NOT LIKE ? ESCAPE '\\'", []any{likePattern(v)}
	default:
		return "LOWER(" + column + ") LIKE ? ESCAPE '\\'", []any{likePattern(v)}
	}
}

// anyField matches a bare value against every searchable field.
func anyField(fields Fields, value string) (string, []any) {
	names := slices.Sorted(maps.Keys(fields))
	ors := make([]string, 0, len(names))
	args := make([]any, 0, len(names))
	pattern := likePattern(strings.ToLower(value))
	for _, name := range names {
		ors = append(ors, "LOWER("+fields[name]+") LIKE ? ESCAPE '\\'")
		args = append(args, pattern)
	}
	return "(" + strings.Join(ors, " OR ") + ")", args
}

func likePattern(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(v) + "%"
}

func tokenize(expr string) ([]token, error) {
	var toks []token
	rs := []rune(expr)
	for i := 0; i < len(rs); {
		c := rs[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '"':
			j := i + 1
			var b strings.Builder
			for j < len(rs) && rs[j] != '"' {
				if rs[j] == '\\' && j+1 < len(rs) {
					j++
				}
				b.WriteRune(rs[j])
				j++
			}
			if j >= len(rs) {
				return nil, fmt.Errorf("%w: unterminated quote", ErrInvalidSearch)
			}
			toks = append(toks, token{kind: tokString, text: b.String()})
			i = j + 1
		case c == '=' || c == '~':
			toks = append(toks, token{kind: tokOp, text: string(c)})
			i++
		case c == '!' && i+1 < len(rs) && (rs[i+1] == '=' || rs[i+1] == '~'):
			toks = append(toks, token{kind: tokOp, text: string(rs[i : i+2])})
			i += 2
		default:
			j := i
			for j < len(rs) && !unicode.IsSpace(rs[j]) && rs[j] != '=' && rs[j] != '~' && rs[j] != '"' &&
				!(rs[j] == '!' && j+1 < len(rs) && (rs[j+1] == '=' || rs[j+1] == '~')) {
				j++
			}
			word := string(rs[i:j])
			switch strings.ToLower(word) {
			case "and", "&&":
				toks = append(toks, token{kind: tokAnd, text: word})
			case "or", "||":
				toks = append(toks, token{kind: tokOr, text: word})
			case "not":
				toks = append(toks, token{kind: tokNot, text: word})
			default:
				toks = append(toks, token{kind: tokWord, text: word})
			}
			i = j
		}
	}
	return toks, nil
}
