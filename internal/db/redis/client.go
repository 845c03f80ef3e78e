// Package redis keeps resolved instance ids in Redis or Valkey via rueidis, so that concurrent
// uploaders share lookups instead of each querying the knowledge graph.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/kgclient/internal/db"
)

// DefaultClientName is announced with CLIENT SETNAME when Config.ClientName is empty.
const DefaultClientName = "kgclient-resolver"

var _ db.Store = (*Store)(nil)

// Config locates the shared resolution cache.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	// ClientName shows up in CLIENT LIST on the cache server.
	ClientName string
}

// Store is the shared resolution cache. Entries are plain strings written by the resolver.
type Store struct {
	client rueidis.Client
}

// NewStore connects to the cache server. Server-assisted client-side caching stays off:
// the resolver already keeps its own in-process layer in front of the store.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("cache addrs are required")
	}

	client, err := rueidis.NewClient(clientOption(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect resolution cache: %w", err)
	}

	return &Store{client: client}, nil
}

func clientOption(cfg Config) rueidis.ClientOption {
	name := cfg.ClientName
	if name == "" {
		name = DefaultClientName
	}
	return rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		ClientName:   name,
		DisableCache: true,
	}
}

// Ping checks that the cache answers.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping resolution cache: %w", err)
	}
	return nil
}

// Close releases the connections.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings until the cache answers, giving up after timeout.
// The client refuses to start on a cache it was told to use but cannot reach.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for resolution cache: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}
