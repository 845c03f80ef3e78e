package upload

import (
	"context"

	"github.com/kailas-cloud/kgclient/internal/domain/entity"
	"github.com/kailas-cloud/kgclient/internal/domain/search/mode"
	"github.com/kailas-cloud/kgclient/internal/domain/search/request"
	"github.com/kailas-cloud/kgclient/internal/domain/search/result"
)

// OrganizationStore reads and creates organizations.
type OrganizationStore interface {
	Read(ctx context.Context, name string, revision int) (*entity.Entity, error)
	Create(ctx context.Context, e *entity.Entity) (*entity.Entity, error)
}

// DomainStore reads and creates domains.
type DomainStore interface {
	Read(ctx context.Context, organization, dom string, revision int) (*entity.Entity, error)
	Create(ctx context.Context, e *entity.Entity) (*entity.Entity, error)
}

// VersionedStore manages schemas or contexts.
type VersionedStore interface {
	Read(ctx context.Context, organization, dom, name, version string, revision int) (*entity.Entity, error)
	Create(ctx context.Context, e *entity.Entity) (*entity.Entity, error)
	Update(ctx context.Context, e *entity.Entity, revision int) (*entity.Entity, error)
	Publish(ctx context.Context, e *entity.Entity, publish bool, revision int) (*entity.Entity, error)
}

// InstanceStore manages instances.
type InstanceStore interface {
	Create(ctx context.Context, e *entity.Entity) (*entity.Entity, error)
	Update(ctx context.Context, e *entity.Entity, revision int) (*entity.Entity, error)
	Delete(ctx context.Context, e *entity.Entity, revision int) (*entity.Entity, error)
	List(ctx context.Context, opts request.List) (*result.List, error)
	FindByIdentifier(
		ctx context.Context, subpath string, value any, resolved bool, dep mode.Deprecation,
	) (*result.List, error)
	ResolveAll(ctx context.Context, list *result.List) ([]*entity.Entity, error)
}

// Renderer turns a raw template into JSON text.
type Renderer interface {
	Render(ctx context.Context, tmpl string, failIfMissing bool) (string, error)
}

// Qualifier rewrites a JSON-LD document into its fully qualified form.
type Qualifier interface {
	FullyQualify(doc map[string]any) (map[string]any, error)
}

// Repositories groups the stores the service writes through.
type Repositories struct {
	Organizations OrganizationStore
	Domains       DomainStore
	Schemas       VersionedStore
	Contexts      VersionedStore
	Instances     InstanceStore
}
