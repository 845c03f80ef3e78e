package fakekg

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/kailas-cloud/kgclient/internal/domain/entity"
)

var (
	errNotFound   = errors.New("resource not found")
	errConflict   = errors.New("incorrect revision provided")
	errExists     = errors.New("resource already exists")
	errDeprecated = errors.New("resource is deprecated")
	errBadRequest = errors.New("bad request")
)

// record is one stored resource with its full revision history.
type record struct {
	kind    entity.Kind
	id      string
	seq     int
	history []map[string]any
}

func (r *record) current() map[string]any { return r.history[len(r.history)-1] }

func (r *record) revision() int { return len(r.history) }

// store keeps every resource in memory, keyed by root path and identifier.
type store struct {
	mu      sync.Mutex
	records map[string]*record
	seq     int
}

func newStore() *store {
	return &store{records: make(map[string]*record)}
}

func key(kind entity.Kind, id string) string { return kind.RootPath() + "/" + id }

// get returns a copy of the document at revision, 0 meaning the latest.
func (s *store) get(kind entity.Kind, id string, revision int) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key(kind, id)]
	if !ok {
		return nil, errNotFound
	}
	if revision == 0 {
		return clone(rec.current()), nil
	}
	if revision < 0 || revision > rec.revision() {
		return nil, errNotFound
	}
	return clone(rec.history[revision-1]), nil
}

// create stores revision 1 of a new resource.
func (s *store) create(kind entity.Kind, id string, doc map[string]any) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(kind, id)
	if _, ok := s.records[k]; ok {
		return 0, errExists
	}
	s.seq++
	s.records[k] = &record{kind: kind, id: id, seq: s.seq, history: []map[string]any{clone(doc)}}
	return 1, nil
}

// mutate derives the next revision from the current one. revision must match the latest.
func (s *store) mutate(kind entity.Kind, id string, revision int, fn func(current map[string]any) (map[string]any, error)) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key(kind, id)]
	if !ok {
		return 0, errNotFound
	}
	if revision != rec.revision() {
		return 0, errConflict
	}
	next, err := fn(clone(rec.current()))
	if err != nil {
		return 0, err
	}
	rec.history = append(rec.history, next)
	return rec.revision(), nil
}

// list returns the latest documents of a kind whose identifier starts with the given segments,
// in creation order.
func (s *store) list(kind entity.Kind, prefix []string) []*record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*record
	for _, rec := range s.records {
		if rec.kind != kind || !hasSegments(rec.id, prefix) {
			continue
		}
		out = append(out, &record{kind: rec.kind, id: rec.id, seq: rec.seq, history: []map[string]any{clone(rec.current())}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func hasSegments(id string, prefix []string) bool {
	parts := strings.Split(id, "/")
	if len(prefix) > len(parts) {
		return false
	}
	for i, p := range prefix {
		if parts[i] != p {
			return false
		}
	}
	return true
}

func clone(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return clone(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
