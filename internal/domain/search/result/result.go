// Package result wraps the search envelope returned by knowledge graph listings.
package result

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/kgclient/internal/domain/entity"
)

// Link relations.
const (
	RelSelf     = "self"
	RelSchema   = "schema"
	RelNext     = "next"
	RelPrevious = "previous"
)

// Result is a single search hit.
type Result struct {
	id         string
	score      float64
	selfLink   string
	schemaLink string
	source     map[string]any
	entity     *entity.Entity
}

// New creates a search result.
func New(id string, score float64, selfLink, schemaLink string, source map[string]any) Result {
	return Result{id: id, score: score, selfLink: selfLink, schemaLink: schemaLink, source: source}
}

// ID returns the opaque result id (resultId), which is the resource IRI.
func (r *Result) ID() string { return r.id }

// Score returns the relevance score.
func (r *Result) Score() float64 { return r.score }

// SelfLink returns the canonical URL of the underlying resource.
func (r *Result) SelfLink() string { return r.selfLink }

// SchemaLink returns the schema URL, empty when not reported.
func (r *Result) SchemaLink() string { return r.schemaLink }

// Source returns the embedded document (fields=all), or nil.
func (r *Result) Source() map[string]any { return r.source }

// Entity returns the entity built from the embedded document, or nil for plain hits.
func (r *Result) Entity() *entity.Entity { return r.entity }

// SetEntity attaches the resolved entity.
func (r *Result) SetEntity(e *entity.Entity) { r.entity = e }

// List is one page of search hits.
type List struct {
	total   int
	results []Result
	links   map[string]string
}

// NewList creates a result page.
func NewList(total int, results []Result, links map[string]string) *List {
	if links == nil {
		links = map[string]string{}
	}
	return &List{total: total, results: results, links: links}
}

// Total returns the server-reported count, which may exceed the page length.
func (l *List) Total() int { return l.total }

// Results returns the hits in server order.
func (l *List) Results() []Result { return l.results }

// Len returns the number of hits on the page.
func (l *List) Len() int { return len(l.results) }

// Links returns relation name to URL.
func (l *List) Links() map[string]string { return l.links }

// NextLink returns the URL of the next page.
func (l *List) NextLink() (string, bool) {
	v, ok := l.links[RelNext]
	return v, ok && v != ""
}

// PreviousLink returns the URL of the previous page.
func (l *List) PreviousLink() (string, bool) {
	v, ok := l.links[RelPrevious]
	return v, ok && v != ""
}

// Entities returns the resolved entities attached to the hits, skipping plain hits.
func (l *List) Entities() []*entity.Entity {
	out := make([]*entity.Entity, 0, len(l.results))
	for i := range l.results {
		if e := l.results[i].entity; e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Parse reads the search envelope. A missing "results" member means there is no envelope: (nil, nil).
func Parse(raw map[string]any) (*List, error) {
	if raw == nil {
		return nil, nil
	}
	rawResults, ok := raw["results"]
	if !ok {
		return nil, nil
	}
	items, ok := rawResults.([]any)
	if !ok && rawResults != nil {
		return nil, fmt.Errorf("results: unexpected type %T", rawResults)
	}

	results := make([]Result, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("results[%d]: unexpected type %T", i, item)
		}
		results = append(results, parseResult(m))
	}

	total, _ := toInt(raw["total"])
	return NewList(total, results, parseLinks(raw["links"])), nil
}

func parseResult(m map[string]any) Result {
	id, _ := m["resultId"].(string)
	score, _ := toFloat(m["score"])
	source, _ := m["source"].(map[string]any)
	links := parseLinks(source["links"])
	self := links[RelSelf]
	if self == "" {
		self, _ = source["@id"].(string)
	}
	return New(id, score, self, links[RelSchema], source)
}

// parseLinks accepts both [{"rel":..,"href":..}] and {"rel": href} shapes.
func parseLinks(v any) map[string]string {
	out := map[string]string{}
	switch links := v.(type) {
	case []any:
		for _, l := range links {
			m, ok := l.(map[string]any)
			if !ok {
				continue
			}
			rel, _ := m["rel"].(string)
			href, _ := m["href"].(string)
			if rel != "" {
				out[rel] = href
			}
		}
	case map[string]any:
		for rel, href := range links {
			switch h := href.(type) {
			case string:
				out[rel] = h
			case map[string]any:
				out[rel], _ = h["href"].(string)
			}
		}
	}
	return out
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
