// Package fakekg is an in-memory knowledge graph service speaking the revisioned REST
// protocol the client consumes. It backs end-to-end tests and local CLI dry runs.
package fakekg

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kgclient/internal/domain/entity"
	"github.com/kailas-cloud/kgclient/internal/domain/search/request"
)

// Document metadata keys maintained by the server.
const (
	keyID         = "@id"
	keyLinks      = "links"
	keyRevision   = entity.RevisionKey
	keyDeprecated = entity.DeprecatedKey
	keyPublished  = entity.PublishedKey
)

const defaultPageSize = 50

// errorHandler tries to handle a store error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Option configures the Server.
type Option func(*Server)

// WithPrefix sets the API prefix, "v0" by default.
func WithPrefix(prefix string) Option {
	return func(s *Server) { s.prefix = strings.Trim(prefix, "/") }
}

// WithTokens enables Bearer authentication.
func WithTokens(tokens ...string) Option {
	return func(s *Server) { s.tokens = tokens }
}

// WithVersion sets the version reported by the service description.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// Server is the fake knowledge graph service.
type Server struct {
	prefix  string
	version string
	tokens  []string
	logger  *zap.Logger
	store   *store

	mu    sync.Mutex
	calls map[string]int

	errorHandlers []errorHandler
}

// New creates a fake service.
func New(opts ...Option) *Server {
	s := &Server{
		prefix:  "v0",
		version: "0.9.8",
		logger:  zap.NewNop(),
		store:   newStore(),
		calls:   make(map[string]int),
	}
	for _, o := range opts {
		o(s)
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(errNotFound, http.StatusNotFound, "NotFound"),
		sentinelHandler(errConflict, http.StatusConflict, "IncorrectRevisionProvided"),
		sentinelHandler(errExists, http.StatusConflict, "ResourceAlreadyExists"),
		sentinelHandler(errDeprecated, http.StatusBadRequest, "ResourceIsDeprecated"),
		sentinelHandler(errBadRequest, http.StatusBadRequest, "IllegalParameter"),
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(bearerAuth(s.tokens))
	r.Use(s.count)
	r.Get("/", s.describe)
	r.Route("/"+s.prefix, func(r chi.Router) {
		r.Get("/*", s.get)
		r.Put("/*", s.put)
		r.Post("/*", s.post)
		r.Patch("/*", s.patch)
		r.Delete("/*", s.delete)
	})
	return r
}

// Calls returns how many requests with the given method were served.
func (s *Server) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// Writes returns how many mutating requests were served.
func (s *Server) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[http.MethodPut] + s.calls[http.MethodPost] + s.calls[http.MethodPatch] + s.calls[http.MethodDelete]
}

// ResetCalls clears the request counters.
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.Method]++
		s.mu.Unlock()
		s.logger.Debug("fake kg request", zap.String("method", r.Method), zap.String("uri", r.URL.RequestURI()))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) describe(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"name": "kg", "version": s.version, "env": "fake"})
}

// target is a parsed resource path.
type target struct {
	kind     entity.Kind
	segments []string
	listing  bool
	config   bool
}

func (t target) id() string { return strings.Join(t.segments, "/") }

func (s *Server) parse(r *http.Request) (target, error) {
	raw := chi.URLParam(r, "*")
	trailing := strings.HasSuffix(raw, "/")
	parts := strings.Split(strings.Trim(raw, "/"), "/")
	kind, ok := entity.KindForRootPath("/" + parts[0])
	if !ok {
		return target{}, fmt.Errorf("%w: unknown collection %q", errNotFound, parts[0])
	}
	t := target{kind: kind}
	for _, p := range parts[1:] {
		if p != "" {
			t.segments = append(t.segments, p)
		}
	}
	if n := len(t.segments); n == kind.Segments()+1 && t.segments[n-1] == "config" {
		t.config = true
		t.segments = t.segments[:n-1]
	}
	t.listing = trailing || len(t.segments) < kind.Segments()
	if len(t.segments) > kind.Segments() {
		return target{}, fmt.Errorf("%w: %s", errNotFound, raw)
	}
	return t, nil
}

func (s *Server) selfURL(r *http.Request, kind entity.Kind, id string) string {
	return "http://" + r.Host + "/" + s.prefix + kind.RootPath() + "/" + id
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	t, err := s.parse(r)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if t.listing {
		s.list(w, r, t)
		return
	}
	rev, err := revisionParam(r)
	if err != nil {
		s.handleError(w, err)
		return
	}
	doc, err := s.store.get(t.kind, t.id(), rev)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) put(w http.ResponseWriter, r *http.Request) {
	t, err := s.parse(r)
	if err != nil || t.listing || t.config {
		s.handleError(w, errors.Join(errBadRequest, err))
		return
	}
	body, err := decodeBody(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	id := t.id()
	if !r.URL.Query().Has("rev") {
		s.create(w, r, t.kind, id, body)
		return
	}
	rev, err := revisionParam(r)
	if err != nil {
		s.handleError(w, err)
		return
	}
	next, err := s.store.mutate(t.kind, id, rev, func(current map[string]any) (map[string]any, error) {
		if deprecated, _ := current[keyDeprecated].(bool); deprecated {
			return nil, errDeprecated
		}
		if published, _ := current[keyPublished].(bool); published {
			return nil, fmt.Errorf("%w: %s is published", errBadRequest, id)
		}
		doc := s.document(r, t.kind, id, body)
		doc[keyRevision] = rev + 1
		doc[keyDeprecated] = false
		if t.kind.Publishable() {
			doc[keyPublished] = false
		}
		return doc, nil
	})
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ack(r, t.kind, id, next))
}

func (s *Server) post(w http.ResponseWriter, r *http.Request) {
	t, err := s.parse(r)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if t.kind != entity.KindInstance || len(t.segments) != entity.KindInstance.Segments()-1 {
		s.handleError(w, fmt.Errorf("%w: POST is only supported on instance collections", errBadRequest))
		return
	}
	if _, err := s.store.get(entity.KindSchema, t.id(), 0); err != nil {
		s.handleError(w, fmt.Errorf("%w: schema %s does not exist", errBadRequest, t.id()))
		return
	}
	body, err := decodeBody(r)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.create(w, r, t.kind, t.id()+"/"+uuid.NewString(), body)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, kind entity.Kind, id string, body map[string]any) {
	doc := s.document(r, kind, id, body)
	doc[keyRevision] = 1
	doc[keyDeprecated] = false
	if kind.Publishable() {
		doc[keyPublished] = false
	}
	if _, err := s.store.create(kind, id, doc); err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.ack(r, kind, id, 1))
}

func (s *Server) patch(w http.ResponseWriter, r *http.Request) {
	t, err := s.parse(r)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if !t.config || !t.kind.Publishable() {
		s.handleError(w, fmt.Errorf("%w: only %s/config can be patched", errBadRequest, t.kind.RootPath()))
		return
	}
	rev, err := revisionParam(r)
	if err != nil {
		s.handleError(w, err)
		return
	}
	body, err := decodeBody(r)
	if err != nil {
		s.handleError(w, err)
		return
	}
	published, ok := body["published"].(bool)
	if !ok {
		s.handleError(w, fmt.Errorf("%w: published must be a boolean", errBadRequest))
		return
	}
	next, err := s.store.mutate(t.kind, t.id(), rev, func(current map[string]any) (map[string]any, error) {
		current[keyPublished] = published
		current[keyRevision] = rev + 1
		return current, nil
	})
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ack(r, t.kind, t.id(), next))
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	t, err := s.parse(r)
	if err != nil || t.listing {
		s.handleError(w, errors.Join(errBadRequest, err))
		return
	}
	rev, err := revisionParam(r)
	if err != nil {
		s.handleError(w, err)
		return
	}
	next, err := s.store.mutate(t.kind, t.id(), rev, func(current map[string]any) (map[string]any, error) {
		if deprecated, _ := current[keyDeprecated].(bool); deprecated {
			return nil, errDeprecated
		}
		current[keyDeprecated] = true
		current[keyRevision] = rev + 1
		return current, nil
	})
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ack(r, t.kind, t.id(), next))
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, t target) {
	query := r.URL.Query()

	var expr *expression
	if raw := query.Get(request.ParamFilter); raw != "" {
		var err error
		if expr, err = parseFilter(raw); err != nil {
			s.handleError(w, err)
			return
		}
	}
	from, err := intParam(r, request.ParamFrom, 0)
	if err != nil {
		s.handleError(w, err)
		return
	}
	size, err := intParam(r, request.ParamSize, defaultPageSize)
	if err != nil {
		s.handleError(w, err)
		return
	}
	deprecated := query.Get(request.ParamDeprecated)
	fullText := query.Get(request.ParamFullText)
	resolved := query.Get(request.ParamFields) == request.FieldsAll

	var matched []*record
	for _, rec := range s.store.list(t.kind, t.segments) {
		doc := rec.current()
		if deprecated != "" && fmt.Sprint(doc[keyDeprecated]) != deprecated {
			continue
		}
		if fullText != "" && !fullTextMatches(doc, fullText) {
			continue
		}
		if expr != nil {
			ok, err := expr.match(doc)
			if err != nil {
				s.handleError(w, err)
				return
			}
			if !ok {
				continue
			}
		}
		matched = append(matched, rec)
	}

	end := min(from+size, len(matched))
	page := matched[min(from, len(matched)):end]
	results := make([]map[string]any, 0, len(page))
	for _, rec := range page {
		self := s.selfURL(r, rec.kind, rec.id)
		source := map[string]any{keyID: self, keyLinks: s.links(r, rec.kind, rec.id)}
		if resolved {
			source = rec.current()
		}
		results = append(results, map[string]any{"resultId": self, "score": 1.0, "source": source})
	}

	links := map[string]any{"@context": "https://bbp-nexus.epfl.ch/v0/contexts/nexus/core/links/v0.2.0",
		"self": "http://" + r.Host + r.URL.RequestURI()}
	if end < len(matched) {
		next := r.URL.Query()
		next.Set(request.ParamFrom, strconv.Itoa(end))
		next.Set(request.ParamSize, strconv.Itoa(size))
		links["next"] = "http://" + r.Host + r.URL.Path + "?" + next.Encode()
	}
	if from > 0 {
		prev := r.URL.Query()
		prev.Set(request.ParamFrom, strconv.Itoa(max(from-size, 0)))
		prev.Set(request.ParamSize, strconv.Itoa(size))
		links["previous"] = "http://" + r.Host + r.URL.Path + "?" + prev.Encode()
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": len(matched), "results": results, "links": links})
}

// document strips server-maintained keys from a request body and adds identity and links.
func (s *Server) document(r *http.Request, kind entity.Kind, id string, body map[string]any) map[string]any {
	doc := clone(body)
	for _, k := range []string{keyRevision, keyDeprecated, keyPublished, "rev", "deprecated", "published", keyLinks} {
		delete(doc, k)
	}
	doc[keyID] = s.selfURL(r, kind, id)
	doc[keyLinks] = s.links(r, kind, id)
	return doc
}

func (s *Server) links(r *http.Request, kind entity.Kind, id string) []any {
	links := []any{map[string]any{"rel": "self", "href": s.selfURL(r, kind, id)}}
	if kind == entity.KindInstance {
		parts := strings.Split(id, "/")
		if len(parts) >= 4 {
			links = append(links, map[string]any{
				"rel":  "schema",
				"href": s.selfURL(r, entity.KindSchema, strings.Join(parts[:4], "/")),
			})
		}
	}
	return links
}

func (s *Server) ack(r *http.Request, kind entity.Kind, id string, rev int) map[string]any {
	return map[string]any{keyID: s.selfURL(r, kind, id), keyRevision: rev}
}

func (s *Server) handleError(w http.ResponseWriter, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "InternalError", "internal error")
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func decodeBody(r *http.Request) (map[string]any, error) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, nil
}

func revisionParam(r *http.Request) (int, error) {
	return intParam(r, request.ParamRevision, 0)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, name)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"code": code, "message": message})
}
