package resolver

import (
	"context"
	"time"

	"github.com/kailas-cloud/kgclient/internal/db"
	"github.com/kailas-cloud/kgclient/internal/domain/search/mode"
	"github.com/kailas-cloud/kgclient/internal/domain/search/result"
)

type listCall struct {
	subpath  string
	resolved bool
	dep      mode.Deprecation
}

type mockLister struct {
	listFn func(ctx context.Context, subpath string) (*result.List, error)
	calls  []listCall
}

func (m *mockLister) ListBySubpath(
	ctx context.Context, subpath string, resolved bool, dep mode.Deprecation,
) (*result.List, error) {
	m.calls = append(m.calls, listCall{subpath: subpath, resolved: resolved, dep: dep})
	if m.listFn != nil {
		return m.listFn(ctx, subpath)
	}
	return result.NewList(0, nil, nil), nil
}

// mockStore is an in-memory shared store.
type mockStore struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockStore) Scan(_ context.Context, _ string) ([]string, error) {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func hits(ids ...string) *result.List {
	results := make([]result.Result, 0, len(ids))
	for _, id := range ids {
		results = append(results, result.New(id, 1, id, "", nil))
	}
	return result.NewList(len(ids), results, nil)
}
