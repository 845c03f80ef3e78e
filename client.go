package kgclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kgclient/internal/db"
	dbRedis "github.com/kailas-cloud/kgclient/internal/db/redis"
	"github.com/kailas-cloud/kgclient/internal/jsonld"
	"github.com/kailas-cloud/kgclient/internal/metrics"
	"github.com/kailas-cloud/kgclient/internal/placeholder"
	"github.com/kailas-cloud/kgclient/internal/repository"
	"github.com/kailas-cloud/kgclient/internal/resolver"
	"github.com/kailas-cloud/kgclient/internal/transport/kghttp"
	healthuc "github.com/kailas-cloud/kgclient/internal/usecase/health"
	"github.com/kailas-cloud/kgclient/internal/usecase/upload"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the knowledge graph SDK entry point.
type Client struct {
	store     db.Store
	transport *kghttp.Client
	namespace string

	orgs      *repository.OrganizationRepo
	domains   *repository.DomainRepo
	schemas   *repository.VersionedRepo
	contexts  *repository.VersionedRepo
	instances *repository.InstanceRepo

	resolver  *resolver.Resolver
	templates *placeholder.Engine
	uploadSvc *upload.Service
	healthSvc *healthuc.Service
	obs       *observer
}

// New creates a Client. The provided context is used for the shared cache readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{fullyQualified: true, cacheReadiness: defaultReadinessTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	cfg.endpoint = strings.TrimSuffix(cfg.endpoint, "/")
	cfg.prefix = strings.Trim(cfg.prefix, "/")
	if cfg.endpoint == "" {
		return nil, errors.New("kgclient: endpoint required (use WithEndpoint)")
	}
	if cfg.prefix == "" {
		return nil, errors.New("kgclient: prefix required (use WithPrefix)")
	}
	if cfg.namespace == "" {
		cfg.namespace = cfg.endpoint
	}

	var m *metrics.Collectors
	if cfg.metricsReg != nil {
		var err error
		m, err = metrics.New(cfg.metricsReg)
		if err != nil {
			return nil, err
		}
	}

	var store db.Store
	if len(cfg.redisAddrs) > 0 {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.redisAddrs,
			Username: cfg.redisUsername,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("kgclient: create redis store: %w", err)
		}
		if err := s.WaitForReady(ctx, cfg.cacheReadiness); err != nil {
			s.Close()
			return nil, fmt.Errorf("kgclient: cache not ready: %w", err)
		}
		store = s
	}

	return wireClient(cfg, store, m), nil
}

func wireClient(cfg *clientConfig, store db.Store, m *metrics.Collectors) *Client {
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := kghttp.New(&kghttp.Config{
		Endpoint:   cfg.endpoint,
		Prefix:     cfg.prefix,
		Token:      cfg.token,
		Timeout:    cfg.timeout,
		HTTPClient: cfg.httpClient,
		Metrics:    m,
		Logger:     logger,
	})

	orgs := repository.NewOrganizationRepo(transport, logger)
	domains := repository.NewDomainRepo(transport, logger)
	schemas := repository.NewSchemaRepo(transport, logger)
	contexts := repository.NewContextRepo(transport, logger)
	instances := repository.NewInstanceRepo(transport, logger)

	res := resolver.New(instances,
		resolver.WithSharedStore(store, cfg.redisKeyPrefix),
		resolver.WithTTL(cfg.cacheTTL),
		resolver.WithMetrics(m),
		resolver.WithLogger(logger),
	)

	templates := placeholder.New(res, placeholder.Config{
		Namespace: cfg.namespace,
		Prefix:    cfg.prefix,
		Endpoint:  cfg.endpoint,
	}, logger)

	uploadSvc := upload.New(upload.Repositories{
		Organizations: orgs,
		Domains:       domains,
		Schemas:       schemas,
		Contexts:      contexts,
		Instances:     instances,
	}, templates, jsonld.New(cfg.loader), logger).
		WithFullyQualified(cfg.fullyQualified).
		WithChecksumFiles(cfg.checksumFiles).
		WithMetrics(m)

	healthSvc := healthuc.New(transport, store).WithSupportedVersions(cfg.supportedVersions)

	return &Client{
		store:     store,
		transport: transport,
		namespace: cfg.namespace,
		orgs:      orgs,
		domains:   domains,
		schemas:   schemas,
		contexts:  contexts,
		instances: instances,
		resolver:  res,
		templates: templates,
		uploadSvc: uploadSvc,
		healthSvc: healthSvc,
		obs:       newObserver(logger, m),
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Organizations returns the organization repository.
func (c *Client) Organizations() *OrganizationRepository { return c.orgs }

// Domains returns the domain repository.
func (c *Client) Domains() *DomainRepository { return c.domains }

// Schemas returns the schema repository.
func (c *Client) Schemas() *VersionedRepository { return c.schemas }

// Contexts returns the context repository.
func (c *Client) Contexts() *VersionedRepository { return c.contexts }

// Instances returns the instance repository.
func (c *Client) Instances() *InstanceRepository { return c.instances }

// APIRoot returns endpoint/prefix.
func (c *Client) APIRoot() string { return c.transport.APIRoot() }

// FullPathFor returns the public IRI of e under the configured namespace.
func (c *Client) FullPathFor(e *Entity) string {
	return c.namespace + e.Path()
}

// VersionCheck verifies the service is a knowledge graph of a supported version
// and returns the reported version.
func (c *Client) VersionCheck(ctx context.Context) (v string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("version_check", start, err) }()

	return c.healthSvc.VersionCheck(ctx)
}

// Health checks the service and, when configured, the shared cache.
func (c *Client) Health(ctx context.Context) HealthReport {
	return c.healthSvc.Check(ctx)
}

// Resolve returns the id of the first active instance matching a "/org/dom/name/v1?filter=..." reference.
func (c *Client) Resolve(ctx context.Context, match string) (id string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("resolve", start, err) }()

	return c.resolver.Resolve(ctx, match)
}

// ResetResolutionCache forgets every memoized id, including the shared cache.
func (c *Client) ResetResolutionCache(ctx context.Context) error {
	return c.resolver.Reset(ctx)
}

// Render resolves references and fills endpoint tokens in a raw template.
func (c *Client) Render(ctx context.Context, tmpl string, failIfMissing bool) (out string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("render", start, err) }()

	return c.templates.Render(ctx, tmpl, failIfMissing)
}

// UploadSchema creates or revises the schema stored at path.
func (c *Client) UploadSchema(ctx context.Context, path string, opts SchemaOptions) (data *SchemaData, err error) {
	start := time.Now()
	defer func() { c.obs.observe("upload_schema", start, err) }()

	return c.uploadSvc.CreateSchemaByFile(ctx, path, opts)
}

// UploadContext creates or revises the context stored at path.
func (c *Client) UploadContext(ctx context.Context, path string, opts SchemaOptions) (data *SchemaData, err error) {
	start := time.Now()
	defer func() { c.obs.observe("upload_context", start, err) }()

	return c.uploadSvc.CreateContextByFile(ctx, path, opts)
}

// UploadInstance creates, updates or skips the instance stored at path.
func (c *Client) UploadInstance(ctx context.Context, path string, failIfMissing bool) (res *UploadResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("upload_instance", start, err) }()

	return c.uploadSvc.CreateInstanceByFile(ctx, path, failIfMissing)
}

// UploadDirectory uploads every matching file below dir as kind.
func (c *Client) UploadDirectory(
	ctx context.Context, kind Kind, dir string, opts DirectoryOptions,
) (outcomes []FileOutcome, err error) {
	start := time.Now()
	defer func() {
		failed := err
		if failed == nil {
			failed = upload.Failed(outcomes)
		}
		c.obs.observe("upload_directory", start, failed)
	}()

	return c.uploadSvc.UploadDirectory(ctx, kind, dir, opts)
}

// ClearAllInstances deletes every instance below subpath and returns how many were deleted.
func (c *Client) ClearAllInstances(ctx context.Context, subpath string) (n int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("clear_instances", start, err) }()

	return c.uploadSvc.ClearAllInstances(ctx, subpath)
}

// ClearAllChecksums removes checksum marker files below dir.
func ClearAllChecksums(dir string) (int, error) {
	return upload.ClearAllChecksums(dir)
}

// FailedUploads joins the errors of the failed files, nil when every file succeeded.
func FailedUploads(outcomes []FileOutcome) error {
	return upload.Failed(outcomes)
}
