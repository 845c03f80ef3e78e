package repository

import (
	"context"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/kailas-cloud/kgclient/internal/domain/search/request"
	"github.com/kailas-cloud/kgclient/internal/fakekg"
	"github.com/kailas-cloud/kgclient/internal/transport/kghttp"
)

// mockTransport implements the consumer interface for tests.
type mockTransport struct {
	getFn    func(ctx context.Context, path string) (map[string]any, error)
	putFn    func(ctx context.Context, path string, body any) (map[string]any, error)
	postFn   func(ctx context.Context, path string, body any) (map[string]any, error)
	patchFn  func(ctx context.Context, path string, body any) (map[string]any, error)
	deleteFn func(ctx context.Context, path string) (map[string]any, error)

	paths []string
}

func (m *mockTransport) Get(ctx context.Context, path string) (map[string]any, error) {
	m.paths = append(m.paths, "GET "+path)
	if m.getFn != nil {
		return m.getFn(ctx, path)
	}
	return nil, nil
}

func (m *mockTransport) Put(ctx context.Context, path string, body any) (map[string]any, error) {
	m.paths = append(m.paths, "PUT "+path)
	if m.putFn != nil {
		return m.putFn(ctx, path, body)
	}
	return nil, nil
}

func (m *mockTransport) Post(ctx context.Context, path string, body any) (map[string]any, error) {
	m.paths = append(m.paths, "POST "+path)
	if m.postFn != nil {
		return m.postFn(ctx, path, body)
	}
	return nil, nil
}

func (m *mockTransport) Patch(ctx context.Context, path string, body any) (map[string]any, error) {
	m.paths = append(m.paths, "PATCH "+path)
	if m.patchFn != nil {
		return m.patchFn(ctx, path, body)
	}
	return nil, nil
}

func (m *mockTransport) Delete(ctx context.Context, path string) (map[string]any, error) {
	m.paths = append(m.paths, "DELETE "+path)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, path)
	}
	return nil, nil
}

// newFakeClient starts an in-memory knowledge graph and returns a transport pointed at it.
func newFakeClient(t *testing.T) (*fakekg.Server, *kghttp.Client) {
	t.Helper()
	fake := fakekg.New()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	return fake, kghttp.New(&kghttp.Config{Endpoint: srv.URL, Prefix: "v0"})
}

func decodeQuery(t *testing.T, raw string) map[string]string {
	t.Helper()
	values, err := url.ParseQuery(raw)
	if err != nil {
		t.Fatalf("parse query %q: %v", raw, err)
	}
	out := make(map[string]string, len(values))
	for k := range values {
		out[k] = values.Get(k)
	}
	return out
}

func listAll() request.List { return request.List{} }
