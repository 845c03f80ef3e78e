package kgclient

import (
	"net/http"
	"time"

	"github.com/piprate/json-gold/ld"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	endpoint  string
	prefix    string
	namespace string
	token     string
	timeout   time.Duration

	httpClient *http.Client
	loader     ld.DocumentLoader

	redisAddrs     []string
	redisPassword  string
	redisKeyPrefix string
	redisUsername  string
	redisDB        int
	cacheReadiness time.Duration
	cacheTTL       time.Duration

	fullyQualified    bool
	checksumFiles     bool
	supportedVersions []string

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithEndpoint sets scheme://host[:port] of the knowledge graph service. Required.
func WithEndpoint(endpoint string) Option {
	return optionFunc(func(c *clientConfig) {
		c.endpoint = endpoint
	})
}

// WithPrefix sets the API version segment, e.g. "v0". Required.
func WithPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.prefix = prefix
	})
}

// WithNamespace sets the public base IRI written into uploaded documents.
// Defaults to the endpoint.
func WithNamespace(namespace string) Option {
	return optionFunc(func(c *clientConfig) {
		c.namespace = namespace
	})
}

// WithToken sends a Bearer token with every request.
func WithToken(token string) Option {
	return optionFunc(func(c *clientConfig) {
		c.token = token
	})
}

// WithTimeout bounds every HTTP request. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithHTTPClient sets the base HTTP client. Its transport is wrapped, not replaced.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithDocumentLoader sets how remote JSON-LD contexts are fetched during qualification.
func WithDocumentLoader(l ld.DocumentLoader) Option {
	return optionFunc(func(c *clientConfig) {
		c.loader = l
	})
}

// WithRedisCache shares resolved instance ids through Redis or Valkey.
// keyPrefix can be empty for the default.
func WithRedisCache(addrs []string, password, keyPrefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = addrs
		c.redisPassword = password
		c.redisKeyPrefix = keyPrefix
	})
}

// WithRedisDatabase selects the ACL user and logical database of the shared cache.
func WithRedisDatabase(username string, db int) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisUsername = username
		c.redisDB = db
	})
}

// WithCacheReadinessTimeout bounds the wait for the shared cache in New. Default: 10s.
func WithCacheReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheReadiness = d
	})
}

// WithCacheTTL bounds how long a resolved id is reused. Default: until ResetResolutionCache.
func WithCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithFullyQualifiedUploads controls whether instance bodies are sent fully qualified.
// Default: true. The checksum always covers the qualified form.
func WithFullyQualifiedUploads(on bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.fullyQualified = on
	})
}

// WithChecksumFiles writes a "<file>.<checksum>.chksum" marker next to each uploaded
// instance file and skips files whose marker exists.
func WithChecksumFiles(on bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.checksumFiles = on
	})
}

// WithSupportedVersions overrides the service versions accepted by VersionCheck.
func WithSupportedVersions(versions ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.supportedVersions = versions
	})
}

// WithLogger enables structured logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (requests, lookups, upload outcomes and
// operations) on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
