package repository

import (
	"context"

	"github.com/kailas-cloud/kgclient/internal/domain/entity"
	"github.com/kailas-cloud/kgclient/internal/domain/search/mode"
	"github.com/kailas-cloud/kgclient/internal/domain/search/request"
	"github.com/kailas-cloud/kgclient/internal/domain/search/result"
)

// Readable reads single resources.
type Readable interface {
	ReadByID(ctx context.Context, id string, revision int) (*entity.Entity, error)
	LastRevision(ctx context.Context, id string) (int, error)
}

// Writable mutates resources with revision discipline.
type Writable interface {
	Create(ctx context.Context, e *entity.Entity) (*entity.Entity, error)
	Update(ctx context.Context, e *entity.Entity, revision int) (*entity.Entity, error)
	Delete(ctx context.Context, e *entity.Entity, revision int) (*entity.Entity, error)
}

// Searchable lists, searches and resolves hits back into entities.
type Searchable interface {
	List(ctx context.Context, opts request.List) (*result.List, error)
	ListBySubpath(ctx context.Context, subpath string, resolved bool, dep mode.Deprecation) (*result.List, error)
	ListByFullPath(ctx context.Context, fullPath string, dep mode.Deprecation) (*result.List, error)
	FindByField(
		ctx context.Context, subpath, fieldPath string, value any, resolved bool, dep mode.Deprecation,
	) (*result.List, error)
	FulltextSearch(ctx context.Context, value, subpath string, resolved bool, dep mode.Deprecation) (*result.List, error)
	Resolve(ctx context.Context, hit *result.Result) (*entity.Entity, error)
	ResolveAll(ctx context.Context, list *result.List) ([]*entity.Entity, error)
}

// Publishable toggles the published flag of schemas and contexts.
type Publishable interface {
	Publish(ctx context.Context, e *entity.Entity, publish bool, revision int) (*entity.Entity, error)
}

var (
	_ Readable    = (*OrganizationRepo)(nil)
	_ Writable    = (*OrganizationRepo)(nil)
	_ Searchable  = (*OrganizationRepo)(nil)
	_ Readable    = (*DomainRepo)(nil)
	_ Writable    = (*DomainRepo)(nil)
	_ Searchable  = (*DomainRepo)(nil)
	_ Readable    = (*VersionedRepo)(nil)
	_ Writable    = (*VersionedRepo)(nil)
	_ Searchable  = (*VersionedRepo)(nil)
	_ Publishable = (*VersionedRepo)(nil)
	_ Readable    = (*InstanceRepo)(nil)
	_ Writable    = (*InstanceRepo)(nil)
	_ Searchable  = (*InstanceRepo)(nil)
)
