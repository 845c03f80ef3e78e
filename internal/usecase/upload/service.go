// Package upload loads schemas, contexts and instances from template files, idempotently.
package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kgclient/internal/domain"
	"github.com/kailas-cloud/kgclient/internal/domain/entity"
	"github.com/kailas-cloud/kgclient/internal/domain/schemadata"
	"github.com/kailas-cloud/kgclient/internal/domain/search/mode"
	"github.com/kailas-cloud/kgclient/internal/logger"
	"github.com/kailas-cloud/kgclient/internal/metrics"
)

// Action is what an upload did to the remote resource.
type Action string

const (
	// ActionCreated means the resource did not exist and was created.
	ActionCreated Action = "created"
	// ActionUpdated means an existing resource was revised.
	ActionUpdated Action = "updated"
	// ActionSkipped means the resource already held the uploaded content.
	ActionSkipped Action = "skipped"
)

// SchemaOptions control schema and context uploads.
type SchemaOptions struct {
	// ForceDomainCreation creates a missing organization and domain first.
	ForceDomainCreation bool
	// UpdateIfExists revises an existing, unpublished resource.
	UpdateIfExists bool
	// Publish publishes the resource after the upload.
	Publish bool
}

// Result reports one instance upload.
type Result struct {
	Entity *entity.Entity
	Action Action
}

// Service is the upload orchestrator.
type Service struct {
	repos          Repositories
	renderer       Renderer
	qualifier      Qualifier
	fullyQualified bool
	checksumFiles  bool
	metrics        *metrics.Collectors
	logger         *zap.Logger
}

// New creates an upload service. Instance uploads are fully qualified by default.
func New(repos Repositories, renderer Renderer, qualifier Qualifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repos:          repos,
		renderer:       renderer,
		qualifier:      qualifier,
		fullyQualified: true,
		logger:         logger,
	}
}

// WithFullyQualified selects whether instances are uploaded in their fully qualified form.
// The checksum is always computed over the fully qualified form.
func (s *Service) WithFullyQualified(on bool) *Service {
	s.fullyQualified = on
	return s
}

// WithChecksumFiles records every uploaded instance file with a "<file>.<checksum>.chksum"
// marker and skips files whose marker already exists.
func (s *Service) WithChecksumFiles(on bool) *Service {
	s.checksumFiles = on
	return s
}

// WithMetrics records upload outcomes.
func (s *Service) WithMetrics(m *metrics.Collectors) *Service {
	s.metrics = m
	return s
}

// CreateSchemaByFile uploads the schema template at path.
func (s *Service) CreateSchemaByFile(ctx context.Context, path string, opts SchemaOptions) (*schemadata.Data, error) {
	data, _, err := s.createVersionedByFile(ctx, entity.KindSchema, path, opts)
	return data, err
}

// CreateContextByFile uploads the context template at path.
func (s *Service) CreateContextByFile(ctx context.Context, path string, opts SchemaOptions) (*schemadata.Data, error) {
	data, _, err := s.createVersionedByFile(ctx, entity.KindContext, path, opts)
	return data, err
}

// CreateSchemaOrContext creates, revises or publishes a schema or context and returns data
// annotated with the final revision. Updating a published resource fails with *domain.ConflictError.
func (s *Service) CreateSchemaOrContext(
	ctx context.Context, kind entity.Kind, data *schemadata.Data, opts SchemaOptions,
) (*schemadata.Data, error) {
	data, _, err := s.createSchemaOrContext(ctx, kind, data, opts)
	return data, err
}

func (s *Service) createVersionedByFile(
	ctx context.Context, kind entity.Kind, path string, opts SchemaOptions,
) (*schemadata.Data, Action, error) {
	doc, err := s.load(ctx, path, true)
	if err != nil {
		return nil, "", err
	}
	data, err := schemadata.ByFilepath(path, doc)
	if err != nil {
		return nil, "", err
	}
	return s.createSchemaOrContext(ctx, kind, data, opts)
}

func (s *Service) createSchemaOrContext(
	ctx context.Context, kind entity.Kind, data *schemadata.Data, opts SchemaOptions,
) (*schemadata.Data, Action, error) {
	repo, err := s.versioned(kind)
	if err != nil {
		return nil, "", err
	}

	current, err := repo.Read(ctx, data.Organization, data.Domain, data.Name, data.Version, 0)
	if err != nil {
		return nil, "", fmt.Errorf("request for %s %s has failed: %w", kind, data.Name, err)
	}

	action := ActionSkipped
	e := entity.New(kind, entity.VersionedID(data.Organization, data.Domain, data.Name, data.Version), data.Content)
	switch {
	case current == nil:
		if opts.ForceDomainCreation {
			if err := s.ensureDomain(ctx, kind, data); err != nil {
				return nil, "", err
			}
		}
		if current, err = repo.Create(ctx, e); err != nil {
			return nil, "", err
		}
		action = ActionCreated
	case opts.UpdateIfExists:
		if current.Published() {
			return nil, "", &domain.ConflictError{Kind: kind.String(), Name: data.Name}
		}
		rev, _ := current.Revision()
		if current, err = repo.Update(ctx, e, rev); err != nil {
			return nil, "", err
		}
		action = ActionUpdated
	}

	data.Revision, _ = current.Revision()
	if opts.Publish && data.Revision > 0 && !current.Published() {
		if current, err = repo.Publish(ctx, current, true, data.Revision); err != nil {
			return nil, "", err
		}
		data.Revision, _ = current.Revision()
	}

	s.metrics.UploadOutcome(kind.String(), string(action))
	return data, action, nil
}

func (s *Service) ensureDomain(ctx context.Context, kind entity.Kind, data *schemadata.Data) error {
	description := fmt.Sprintf("Created by %s %s", kind, data.Name)

	org, err := s.repos.Organizations.Read(ctx, data.Organization, 0)
	if err != nil {
		return err
	}
	if org == nil {
		if _, err := s.repos.Organizations.Create(ctx, entity.NewOrganization(data.Organization, description)); err != nil {
			return err
		}
	}

	dom, err := s.repos.Domains.Read(ctx, data.Organization, data.Domain, 0)
	if err != nil {
		return err
	}
	if dom == nil {
		if _, err := s.repos.Domains.Create(ctx, entity.NewDomain(data.Organization, data.Domain, description)); err != nil {
			return err
		}
	}
	return nil
}

// CreateInstanceByFile uploads the instance template at path. The target schema collection is
// derived from the path.
func (s *Service) CreateInstanceByFile(ctx context.Context, path string, failIfMissing bool) (*Result, error) {
	doc, err := s.load(ctx, path, failIfMissing)
	if err != nil {
		return nil, err
	}
	data, err := schemadata.ByFilepath(path, doc)
	if err != nil {
		return nil, err
	}

	if !s.checksumFiles {
		return s.CreateInstance(ctx, data)
	}

	marker, err := s.markerFor(path, doc)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(marker); err == nil {
		s.log(ctx).Debug("File unchanged, no upload required", zap.String("file", path))
		s.metrics.UploadOutcome(entity.KindInstance.String(), string(ActionSkipped))
		return &Result{Action: ActionSkipped}, nil
	}
	res, err := s.CreateInstance(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(marker, nil, 0o600); err != nil {
		return nil, fmt.Errorf("write checksum marker: %w", err)
	}
	return res, nil
}

// CreateInstance uploads data.Content into the schema collection named by data. An instance carrying
// http://schema.org/identifier replaces the existing instance with that identifier, unless its content
// checksum is unchanged, in which case nothing is written.
func (s *Service) CreateInstance(ctx context.Context, data *schemadata.Data) (*Result, error) {
	qualified, err := s.qualifier.FullyQualify(data.Content)
	if err != nil {
		return nil, err
	}
	body := maps.Clone(data.Content)
	if s.fullyQualified {
		body = qualified
	}

	checksum, ok := qualified[entity.ChecksumField].(string)
	if !ok {
		checksum = entity.ChecksumOf(qualified)
		qualified[entity.ChecksumField] = checksum
		body[entity.ChecksumField] = checksum
	}

	inst := entity.NewInstance(data.Organization, data.Domain, data.Name, data.Version, body)
	identifier, ok := entity.IdentifierOf(qualified)
	if ok {
		res, err := s.replaceByIdentifier(ctx, inst, identifier, checksum)
		if err != nil || res != nil {
			return res, err
		}
	}

	created, err := s.repos.Instances.Create(ctx, inst)
	if err != nil {
		return nil, err
	}
	return s.done(created, ActionCreated), nil
}

// replaceByIdentifier returns nil when no instance carries identifier.
func (s *Service) replaceByIdentifier(
	ctx context.Context, inst *entity.Entity, identifier any, checksum string,
) (*Result, error) {
	found, err := s.repos.Instances.FindByIdentifier(ctx, inst.ID(), identifier, true, mode.Active)
	if err != nil {
		return nil, err
	}
	if found == nil || found.Len() == 0 {
		return nil, nil
	}

	hit := found.Results()[0]
	id, err := entity.ExtractIDFromURL(hit.SelfLink(), inst.RootPath())
	if err != nil {
		return nil, err
	}
	inst.SetID(id)

	existing := hit.Entity()
	var existingSum string
	var revision int
	if existing != nil {
		existingSum, _ = existing.Data()[entity.ChecksumField].(string)
		revision, _ = existing.Revision()
	}

	if existingSum != "" && existingSum == checksum {
		s.log(ctx).Info("Skipping instance, it already exists", zap.String("path", inst.Path()))
		if existing == nil {
			existing = inst
		}
		return s.done(existing, ActionSkipped), nil
	}

	updated, err := s.repos.Instances.Update(ctx, inst, revision)
	if err != nil {
		return nil, err
	}
	return s.done(updated, ActionUpdated), nil
}

func (s *Service) done(e *entity.Entity, action Action) *Result {
	s.metrics.UploadOutcome(entity.KindInstance.String(), string(action))
	return &Result{Entity: e, Action: action}
}

// ClearAllInstances deprecates every active instance below subpath and returns how many were deprecated.
func (s *Service) ClearAllInstances(ctx context.Context, subpath string) (int, error) {
	list, err := s.repos.Instances.List(ctx, listAll(subpath))
	if err != nil {
		return 0, err
	}
	all, err := s.repos.Instances.ResolveAll(ctx, list)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, e := range all {
		if _, err := s.repos.Instances.Delete(ctx, e, 0); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (s *Service) load(ctx context.Context, path string, failIfMissing bool) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	rendered, err := s.renderer.Render(ctx, string(raw), failIfMissing)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", path, err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(rendered), &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

func (s *Service) versioned(kind entity.Kind) (VersionedStore, error) {
	switch kind {
	case entity.KindSchema:
		return s.repos.Schemas, nil
	case entity.KindContext:
		return s.repos.Contexts, nil
	default:
		return nil, fmt.Errorf("%s is not a schema or context: %w", kind, domain.ErrInvalidArgument)
	}
}
