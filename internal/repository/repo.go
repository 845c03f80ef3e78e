// Package repository implements CRUD and search over the knowledge graph resource collections.
package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kgclient/internal/domain"
	"github.com/kailas-cloud/kgclient/internal/domain/entity"
	"github.com/kailas-cloud/kgclient/internal/domain/search/filter"
	"github.com/kailas-cloud/kgclient/internal/domain/search/mode"
	"github.com/kailas-cloud/kgclient/internal/domain/search/request"
	"github.com/kailas-cloud/kgclient/internal/domain/search/result"
)

// transport is the consumer interface for the knowledge graph HTTP client (ISP).
// A nil document with a nil error means HTTP 404.
type transport interface {
	Get(ctx context.Context, path string) (map[string]any, error)
	Put(ctx context.Context, path string, body any) (map[string]any, error)
	Post(ctx context.Context, path string, body any) (map[string]any, error)
	Patch(ctx context.Context, path string, body any) (map[string]any, error)
	Delete(ctx context.Context, path string) (map[string]any, error)
}

// Repo is the collection-generic part shared by every resource repository.
// Revision arguments use 0 for "not pinned".
type Repo struct {
	kind   entity.Kind
	client transport
	logger *zap.Logger
}

func newRepo(kind entity.Kind, client transport, logger *zap.Logger) Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Repo{kind: kind, client: client, logger: logger.With(zap.String("kind", kind.String()))}
}

// Kind returns the managed resource kind.
func (r *Repo) Kind() entity.Kind { return r.kind }

// RootPath returns the collection root.
func (r *Repo) RootPath() string { return r.kind.RootPath() }

// Create stores a new entity at its caller-chosen path and replaces its data with the server response.
func (r *Repo) Create(ctx context.Context, e *entity.Entity) (*entity.Entity, error) {
	if err := r.check(e); err != nil {
		return nil, err
	}
	r.logger.Debug("Creating entity", zap.String("path", e.Path()))
	doc, err := r.client.Put(ctx, e.Path(), e.Data())
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", e.Path(), err)
	}
	if doc == nil {
		return nil, fmt.Errorf("create %s: %w", e.Path(), domain.ErrNotCreated)
	}
	e.SetData(doc)
	r.logger.Info(title(r.kind)+" created", zap.String("path", e.Path()))
	return e, nil
}

// Update writes the entity data at the given revision, falling back to the entity revision
// and then to the latest stored revision. The entity is re-read at the new revision.
func (r *Repo) Update(ctx context.Context, e *entity.Entity, revision int) (*entity.Entity, error) {
	if err := r.check(e); err != nil {
		return nil, err
	}
	r.logger.Debug("Updating entity", zap.String("path", e.Path()))
	rev, err := r.revisionFor(ctx, e, revision)
	if err != nil {
		return nil, err
	}
	doc, err := r.client.Put(ctx, atRevision(e.Path(), rev), e.Data())
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", e.Path(), err)
	}
	if doc == nil {
		return nil, fmt.Errorf("update %s: %w", e.Path(), domain.ErrNotFound)
	}
	if err := r.refresh(ctx, e, doc, rev); err != nil {
		return nil, err
	}
	r.logger.Info(title(r.kind)+" updated", zap.String("path", e.Path()))
	return e, nil
}

// Delete deprecates the entity. Deleting an already deprecated entity is a no-op.
func (r *Repo) Delete(ctx context.Context, e *entity.Entity, revision int) (*entity.Entity, error) {
	if err := r.check(e); err != nil {
		return nil, err
	}
	if e.Deprecated() {
		return e, nil
	}
	r.logger.Debug("Deleting entity", zap.String("path", e.Path()))
	rev, err := r.revisionFor(ctx, e, revision)
	if err != nil {
		return nil, err
	}
	doc, err := r.client.Delete(ctx, atRevision(e.Path(), rev))
	if err != nil {
		return nil, fmt.Errorf("delete %s: %w", e.Path(), err)
	}
	if doc == nil {
		return nil, fmt.Errorf("delete %s: %w", e.Path(), domain.ErrNotFound)
	}
	if err := r.refresh(ctx, e, doc, rev); err != nil {
		return nil, err
	}
	r.logger.Info(title(r.kind)+" removed", zap.String("path", e.Path()))
	return e, nil
}

// ReadByID reads an entity by identifier. A missing entity yields (nil, nil).
func (r *Repo) ReadByID(ctx context.Context, id string, revision int) (*entity.Entity, error) {
	doc, err := r.read(ctx, id, revision)
	if err != nil || doc == nil {
		return nil, err
	}
	return entity.New(r.kind, id, doc), nil
}

// LastRevision returns the latest stored revision, 0 when the entity or its revision is missing.
func (r *Repo) LastRevision(ctx context.Context, id string) (int, error) {
	doc, err := r.read(ctx, id, 0)
	if err != nil {
		return 0, err
	}
	rev, _ := entity.RevisionOf(doc)
	return rev, nil
}

// List lists the collection.
func (r *Repo) List(ctx context.Context, opts request.List) (*result.List, error) {
	path, err := opts.Path(r.RootPath())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.RootPath(), err)
	}
	return r.ListByFullPath(ctx, path, opts.Deprecation)
}

// ListBySubpath lists rootPath + subpath, where subpath may carry its own raw query string.
func (r *Repo) ListBySubpath(ctx context.Context, subpath string, resolved bool, dep mode.Deprecation) (*result.List, error) {
	full := r.RootPath() + "/" + strings.TrimPrefix(subpath, "/")
	if resolved {
		path, q := request.SplitPath(full)
		q.Set(request.ParamFields, request.FieldsAll)
		full = request.JoinPath(path, q)
	}
	return r.ListByFullPath(ctx, full, dep)
}

// ListByFullPath lists a collection path. Escape sequences are decoded and the query is
// normalized; with fields=all every hit carries an entity built from its embedded document.
// A response without a result envelope yields (nil, nil).
func (r *Repo) ListByFullPath(ctx context.Context, fullPath string, dep mode.Deprecation) (*result.List, error) {
	path, q := request.SplitPath(request.DecodeEscapes(fullPath))
	request.ApplyDeprecation(q, dep)
	target := request.JoinPath(path, q)

	doc, err := r.client.Get(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", target, err)
	}
	list, err := result.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", target, err)
	}
	if list == nil || !q.Resolved() {
		return list, nil
	}

	hits := list.Results()
	for i := range hits {
		e, err := r.wrap(&hits[i])
		if err != nil {
			return nil, err
		}
		hits[i].SetEntity(e)
	}
	return list, nil
}

// FindByField lists entities whose field equals value.
func (r *Repo) FindByField(
	ctx context.Context, subpath, fieldPath string, value any, resolved bool, dep mode.Deprecation,
) (*result.List, error) {
	f := filter.Eq(fieldPath, value)
	return r.List(ctx, request.List{Subpath: subpath, Filter: &f, Resolved: resolved, Deprecation: dep})
}

// FindByIdentifier lists entities by http://schema.org/identifier.
func (r *Repo) FindByIdentifier(
	ctx context.Context, subpath string, value any, resolved bool, dep mode.Deprecation,
) (*result.List, error) {
	return r.FindByField(ctx, subpath, entity.IdentifierField, value, resolved, dep)
}

// FulltextSearch lists entities matching a full-text query.
func (r *Repo) FulltextSearch(
	ctx context.Context, value, subpath string, resolved bool, dep mode.Deprecation,
) (*result.List, error) {
	return r.List(ctx, request.List{Subpath: subpath, FullText: value, Resolved: resolved, Deprecation: dep})
}

// Resolve re-reads the entity behind a search hit. A vanished entity yields (nil, nil).
func (r *Repo) Resolve(ctx context.Context, hit *result.Result) (*entity.Entity, error) {
	id, err := entity.ExtractIDFromURL(hit.SelfLink(), r.RootPath())
	if err != nil {
		return nil, err
	}
	return r.ReadByID(ctx, id, 0)
}

// ResolveAll resolves every hit of a page, one read per hit, skipping vanished entities.
func (r *Repo) ResolveAll(ctx context.Context, list *result.List) ([]*entity.Entity, error) {
	if list == nil {
		return nil, nil
	}
	hits := list.Results()
	out := make([]*entity.Entity, 0, len(hits))
	for i := range hits {
		e, err := r.Resolve(ctx, &hits[i])
		if err != nil {
			return nil, err
		}
		if e != nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *Repo) read(ctx context.Context, id string, revision int) (map[string]any, error) {
	path := withRevision(r.RootPath()+"/"+id, revision)
	doc, err := r.client.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return doc, nil
}

// revisionFor picks the explicit revision, then the entity revision, then the latest stored one.
func (r *Repo) revisionFor(ctx context.Context, e *entity.Entity, revision int) (int, error) {
	if revision > 0 {
		return revision, nil
	}
	if rev, ok := e.Revision(); ok {
		return rev, nil
	}
	return r.LastRevision(ctx, e.ID())
}

// refresh replaces the entity data with the document stored at the revision echoed by a write.
func (r *Repo) refresh(ctx context.Context, e *entity.Entity, written map[string]any, previous int) error {
	rev, ok := entity.RevisionOf(written)
	if !ok {
		rev = previous + 1
	}
	doc, err := r.read(ctx, e.ID(), rev)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("re-read %s at revision %d: %w", e.Path(), rev, domain.ErrNotFound)
	}
	e.SetData(doc)
	return nil
}

func (r *Repo) wrap(hit *result.Result) (*entity.Entity, error) {
	if hit.Source() == nil {
		return nil, nil
	}
	id, err := entity.ExtractIDFromURL(hit.SelfLink(), r.RootPath())
	if err != nil {
		return nil, err
	}
	return entity.New(r.kind, id, hit.Source()), nil
}

func (r *Repo) check(e *entity.Entity) error {
	if e == nil {
		return fmt.Errorf("nil %s: %w", r.kind, domain.ErrInvalidArgument)
	}
	if e.Kind() != r.kind {
		return fmt.Errorf("%s passed to the %s repository: %w", e.Kind(), r.kind, domain.ErrInvalidArgument)
	}
	return nil
}

func withRevision(path string, revision int) string {
	if revision <= 0 {
		return path
	}
	return path + "?rev=" + strconv.Itoa(revision)
}

// atRevision always pins the revision; writes require one.
func atRevision(path string, revision int) string {
	return path + "?rev=" + strconv.Itoa(revision)
}

func title(k entity.Kind) string {
	s := k.String()
	return strings.ToUpper(s[:1]) + s[1:]
}
