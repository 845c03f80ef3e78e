// Package resolver maps symbolic instance references to graph identifiers, memoized per batch.
package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kgclient/internal/db"
	"github.com/kailas-cloud/kgclient/internal/domain"
	"github.com/kailas-cloud/kgclient/internal/domain/search/mode"
	"github.com/kailas-cloud/kgclient/internal/domain/search/result"
	"github.com/kailas-cloud/kgclient/internal/metrics"
)

// DefaultKeyPrefix namespaces shared cache keys.
const DefaultKeyPrefix = "kgclient:resolve:"

// lister is the consumer interface over the instance repository (ISP).
type lister interface {
	ListBySubpath(ctx context.Context, subpath string, resolved bool, dep mode.Deprecation) (*result.List, error)
}

// store is the consumer interface over the optional shared cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSharedStore backs the in-process memo with a shared store so several uploaders reuse lookups.
func WithSharedStore(s store, keyPrefix string) Option {
	return func(r *Resolver) {
		r.shared = s
		if keyPrefix != "" {
			r.keyPrefix = keyPrefix
		}
	}
}

// WithTTL bounds how long a resolved id is reused. Zero keeps entries until Reset.
func WithTTL(ttl time.Duration) Option {
	return func(r *Resolver) { r.ttl = ttl }
}

// WithMetrics records lookup outcomes.
func WithMetrics(m *metrics.Collectors) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// Resolver is the identifier resolution cache.
type Resolver struct {
	instances lister
	local     *gocache.Cache
	shared    store
	keyPrefix string
	ttl       time.Duration
	metrics   *metrics.Collectors
	logger    *zap.Logger
}

// New creates a Resolver listing through instances.
func New(instances lister, opts ...Option) *Resolver {
	r := &Resolver{
		instances: instances,
		keyPrefix: DefaultKeyPrefix,
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}

	expiration := gocache.NoExpiration
	cleanup := time.Duration(0)
	if r.ttl > 0 {
		expiration = r.ttl
		cleanup = 2 * r.ttl
	}
	r.local = gocache.New(expiration, cleanup)
	return r
}

// Resolve returns the id of the first active instance matching match, a subpath below /data
// with an optional query ("/org/dom/name/v1?filter=..."). Zero matches yield a *domain.ResolveError.
func (r *Resolver) Resolve(ctx context.Context, match string) (string, error) {
	if v, ok := r.local.Get(match); ok {
		r.metrics.ResolverLookup(metrics.LookupHit)
		r.logger.Debug("Resolved from cache", zap.String("match", match))
		return v.(string), nil
	}

	if id, ok := r.fromShared(ctx, match); ok {
		r.metrics.ResolverLookup(metrics.LookupSharedHit)
		r.local.SetDefault(match, id)
		return id, nil
	}

	list, err := r.instances.ListBySubpath(ctx, match, false, mode.Active)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", match, err)
	}
	if list == nil || list.Len() == 0 {
		r.metrics.ResolverLookup(metrics.LookupUnresolved)
		return "", &domain.ResolveError{Path: match}
	}

	r.metrics.ResolverLookup(metrics.LookupMiss)
	if list.Total() > 1 {
		r.logger.Warn("Ambiguous reference, using first match",
			zap.String("match", match), zap.Int("total", list.Total()))
	}

	hits := list.Results()
	id := hits[0].ID()
	r.local.SetDefault(match, id)
	r.toShared(ctx, match, id)
	return id, nil
}

// Len returns the number of memoized references.
func (r *Resolver) Len() int { return r.local.ItemCount() }

// Reset forgets every memoized reference, including those in the shared store.
func (r *Resolver) Reset(ctx context.Context) error {
	r.local.Flush()
	if r.shared == nil {
		return nil
	}
	keys, err := r.shared.Scan(ctx, r.keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("reset resolver cache: %w", err)
	}
	for _, k := range keys {
		if err := r.shared.Del(ctx, k); err != nil {
			return fmt.Errorf("reset resolver cache: %w", err)
		}
	}
	return nil
}

func (r *Resolver) cacheKey(match string) string {
	h := sha256.Sum256([]byte(match))
	return r.keyPrefix + hex.EncodeToString(h[:])
}

func (r *Resolver) fromShared(ctx context.Context, match string) (string, bool) {
	if r.shared == nil {
		return "", false
	}
	key := r.cacheKey(match)
	data, err := r.shared.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			r.logger.Warn("Failed to read shared resolution", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func (r *Resolver) toShared(ctx context.Context, match, id string) {
	if r.shared == nil {
		return
	}
	key := r.cacheKey(match)
	if err := r.shared.SetWithTTL(ctx, key, []byte(id), r.ttl); err != nil {
		r.logger.Warn("Failed to store shared resolution", zap.String("key", key), zap.Error(err))
	}
}
