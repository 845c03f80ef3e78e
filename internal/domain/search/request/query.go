// Package request builds list and search query strings for knowledge graph collections.
package request

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Well-known query parameters.
const (
	ParamFullText   = "q"
	ParamFilter     = "filter"
	ParamContext    = "context"
	ParamFrom       = "from"
	ParamSize       = "size"
	ParamDeprecated = "deprecated"
	ParamFields     = "fields"
	ParamRevision   = "rev"

	// FieldsAll asks the service to embed full documents in search hits.
	FieldsAll = "all"
)

// Query is an ordered set of query clauses. Empty values are never emitted.
type Query struct {
	keys   []string
	values map[string]string
}

// NewQuery creates an empty query.
func NewQuery() *Query {
	return &Query{values: make(map[string]string)}
}

// Set adds or replaces a clause, keeping the position of an existing key.
// An empty value removes the clause.
func (q *Query) Set(key, value string) *Query {
	if key == "" {
		return q
	}
	if value == "" {
		q.Del(key)
		return q
	}
	if _, ok := q.values[key]; !ok {
		q.keys = append(q.keys, key)
	}
	q.values[key] = value
	return q
}

// SetInt adds a numeric clause; negative values are ignored.
func (q *Query) SetInt(key string, value int) *Query {
	if value < 0 {
		return q
	}
	return q.Set(key, strconv.Itoa(value))
}

// Del removes a clause.
func (q *Query) Del(key string) {
	if _, ok := q.values[key]; !ok {
		return
	}
	delete(q.values, key)
	for i, k := range q.keys {
		if k == key {
			q.keys = append(q.keys[:i], q.keys[i+1:]...)
			break
		}
	}
}

// Get returns the value of a clause.
func (q *Query) Get(key string) (string, bool) {
	v, ok := q.values[key]
	return v, ok
}

// Len returns the number of clauses.
func (q *Query) Len() int { return len(q.keys) }

// Resolved reports whether full documents were requested (fields=all).
func (q *Query) Resolved() bool {
	v, ok := q.values[ParamFields]
	return ok && v == FieldsAll
}

// Encode renders the clauses in insertion order with URL-encoded values.
func (q *Query) Encode() string {
	var sb strings.Builder
	for i, k := range q.keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(EscapeValue(k))
		sb.WriteByte('=')
		sb.WriteString(EscapeValue(q.values[k]))
	}
	return sb.String()
}

// EscapeValue percent-encodes a query key or value. Spaces become %20, so a literal '+' in a
// hand-written query keeps its meaning.
func EscapeValue(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// ParseQuery reads a raw query string, tolerating bare '&' separators and unencoded JSON values.
// Percent escapes are decoded; '+' is kept as is.
func ParseQuery(raw string) *Query {
	q := NewQuery()
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		if k, err := url.PathUnescape(key); err == nil {
			key = k
		}
		if v, err := url.PathUnescape(value); err == nil {
			value = v
		}
		q.Set(key, value)
	}
	return q
}

// SplitPath separates a path from its raw query string.
func SplitPath(fullPath string) (string, *Query) {
	path, raw, _ := strings.Cut(fullPath, "?")
	return path, ParseQuery(raw)
}

// JoinPath appends the encoded query to path, omitting '?' when there are no clauses.
func JoinPath(path string, q *Query) string {
	if q == nil || q.Len() == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// DecodeEscapes interprets backslash escape sequences (\", \n, \uXXXX) left in a path by JSON templates.
// Input without a backslash is returned unchanged, and so is the rest of the input after a malformed sequence.
func DecodeEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for len(s) > 0 {
		if s[0] != '\\' {
			r, size := utf8.DecodeRuneInString(s)
			sb.WriteRune(r)
			s = s[size:]
			continue
		}
		if len(s) > 1 && (s[1] == '\'' || s[1] == '/') {
			sb.WriteByte(s[1])
			s = s[2:]
			continue
		}
		r, _, tail, err := strconv.UnquoteChar(s, '"')
		if err != nil {
			sb.WriteString(s)
			break
		}
		sb.WriteRune(r)
		s = tail
	}
	return sb.String()
}
