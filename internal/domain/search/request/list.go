package request

import (
	"strings"

	"github.com/kailas-cloud/kgclient/internal/domain/search/filter"
	"github.com/kailas-cloud/kgclient/internal/domain/search/mode"
)

// List describes a collection listing or search.
// Zero-valued fields emit no clause; From and Size are only sent when positive.
type List struct {
	// Subpath narrows the collection, e.g. "org/dom/name/v1.0.0".
	Subpath  string
	FullText string
	Filter   *filter.Expression
	Context  string
	From     int
	Size     int
	// Deprecation defaults to excluding deprecated resources.
	Deprecation mode.Deprecation
	// Resolved asks for full documents (fields=all).
	Resolved bool
}

// Query renders the clauses in the fixed order q, filter, context, from, size, deprecated, fields.
func (l List) Query() (*Query, error) {
	q := NewQuery()
	q.Set(ParamFullText, l.FullText)
	if l.Filter != nil {
		f, err := l.Filter.Encode()
		if err != nil {
			return nil, err
		}
		q.Set(ParamFilter, f)
	}
	q.Set(ParamContext, l.Context)
	if l.From > 0 {
		q.SetInt(ParamFrom, l.From)
	}
	if l.Size > 0 {
		q.SetInt(ParamSize, l.Size)
	}
	ApplyDeprecation(q, l.Deprecation)
	if l.Resolved {
		q.Set(ParamFields, FieldsAll)
	}
	return q, nil
}

// Path renders rootPath[/subpath]/?query.
func (l List) Path(rootPath string) (string, error) {
	q, err := l.Query()
	if err != nil {
		return "", err
	}
	return JoinPath(CollectionPath(rootPath, l.Subpath), q), nil
}

// ApplyDeprecation sets or clears the deprecated clause.
func ApplyDeprecation(q *Query, d mode.Deprecation) {
	if v, ok := d.QueryValue(); ok {
		q.Set(ParamDeprecated, v)
		return
	}
	q.Del(ParamDeprecated)
}

// CollectionPath joins a root path and an optional subpath with a trailing slash,
// which the service reads as a listing request.
func CollectionPath(rootPath, subpath string) string {
	subpath = strings.Trim(subpath, "/")
	if subpath == "" {
		return rootPath + "/"
	}
	return rootPath + "/" + subpath + "/"
}
