package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kgclient/internal/domain"
	"github.com/kailas-cloud/kgclient/internal/domain/entity"
	"github.com/kailas-cloud/kgclient/internal/domain/search/request"
	"github.com/kailas-cloud/kgclient/internal/domain/search/result"
)

// OrganizationRepo manages /organizations.
type OrganizationRepo struct{ Repo }

// NewOrganizationRepo creates an organization repository.
func NewOrganizationRepo(client transport, logger *zap.Logger) *OrganizationRepo {
	return &OrganizationRepo{Repo: newRepo(entity.KindOrganization, client, logger)}
}

// Read reads an organization. A missing organization yields (nil, nil).
func (r *OrganizationRepo) Read(ctx context.Context, name string, revision int) (*entity.Entity, error) {
	return r.ReadByID(ctx, name, revision)
}

// DomainRepo manages /domains.
type DomainRepo struct{ Repo }

// NewDomainRepo creates a domain repository.
func NewDomainRepo(client transport, logger *zap.Logger) *DomainRepo {
	return &DomainRepo{Repo: newRepo(entity.KindDomain, client, logger)}
}

// Read reads a domain. A missing domain yields (nil, nil).
func (r *DomainRepo) Read(ctx context.Context, organization, dom string, revision int) (*entity.Entity, error) {
	return r.ReadByID(ctx, entity.DomainID(organization, dom), revision)
}

// VersionedRepo manages the publishable collections /schemas and /contexts.
type VersionedRepo struct{ Repo }

// NewSchemaRepo creates a schema repository.
func NewSchemaRepo(client transport, logger *zap.Logger) *VersionedRepo {
	return &VersionedRepo{Repo: newRepo(entity.KindSchema, client, logger)}
}

// NewContextRepo creates a context repository.
func NewContextRepo(client transport, logger *zap.Logger) *VersionedRepo {
	return &VersionedRepo{Repo: newRepo(entity.KindContext, client, logger)}
}

// Read reads a schema or context. A missing resource yields (nil, nil).
func (r *VersionedRepo) Read(
	ctx context.Context, organization, dom, name, version string, revision int,
) (*entity.Entity, error) {
	return r.ReadByID(ctx, entity.VersionedID(organization, dom, name, version), revision)
}

// Publish sets the published flag through PATCH {path}/config?rev=N and re-reads the entity.
func (r *VersionedRepo) Publish(ctx context.Context, e *entity.Entity, publish bool, revision int) (*entity.Entity, error) {
	if err := r.check(e); err != nil {
		return nil, err
	}
	rev := revision
	if rev <= 0 {
		var err error
		if rev, err = r.LastRevision(ctx, e.ID()); err != nil {
			return nil, err
		}
	}
	path := atRevision(e.Path()+"/config", rev)
	doc, err := r.client.Patch(ctx, path, map[string]any{"published": publish})
	if err != nil {
		return nil, fmt.Errorf("publish %s: %w", e.Path(), err)
	}
	if doc == nil {
		return nil, fmt.Errorf("publish %s: %w", e.Path(), domain.ErrNotFound)
	}
	if err := r.refresh(ctx, e, doc, rev); err != nil {
		return nil, err
	}
	r.logger.Info(title(r.kind)+" published", zap.String("path", e.Path()), zap.Bool("published", publish))
	return e, nil
}

// InstanceRepo manages /data.
type InstanceRepo struct{ Repo }

// NewInstanceRepo creates an instance repository.
func NewInstanceRepo(client transport, logger *zap.Logger) *InstanceRepo {
	return &InstanceRepo{Repo: newRepo(entity.KindInstance, client, logger)}
}

// Create posts the instance into its schema collection. The server-assigned @id
// becomes the instance identifier.
func (r *InstanceRepo) Create(ctx context.Context, e *entity.Entity) (*entity.Entity, error) {
	if err := r.check(e); err != nil {
		return nil, err
	}
	r.logger.Debug("Creating entity", zap.String("path", e.Path()))
	doc, err := r.client.Post(ctx, e.Path(), e.Data())
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", e.Path(), err)
	}
	if doc == nil {
		return nil, fmt.Errorf("create %s: %w", e.Path(), domain.ErrNotCreated)
	}
	atID, _ := doc["@id"].(string)
	id, err := entity.ExtractIDFromURL(atID, r.RootPath())
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", e.Path(), err)
	}
	e.SetData(doc)
	e.SetID(id)
	r.logger.Info("Instance created", zap.String("path", e.Path()))
	return e, nil
}

// Read reads an instance. A missing instance yields (nil, nil).
func (r *InstanceRepo) Read(
	ctx context.Context, organization, dom, schema, version, uuid string, revision int,
) (*entity.Entity, error) {
	return r.ReadByID(ctx, entity.VersionedID(organization, dom, schema, version)+"/"+uuid, revision)
}

// ReadByFullID reads an instance by its org/domain/schema/version/uuid identifier.
func (r *InstanceRepo) ReadByFullID(ctx context.Context, fullID string, revision int) (*entity.Entity, error) {
	return r.ReadByID(ctx, fullID, revision)
}

// ListBySchema lists the instances of one schema version. opts.Subpath is overridden.
func (r *InstanceRepo) ListBySchema(
	ctx context.Context, organization, dom, schema, version string, opts request.List,
) (*result.List, error) {
	opts.Subpath = entity.VersionedID(organization, dom, schema, version)
	return r.List(ctx, opts)
}
