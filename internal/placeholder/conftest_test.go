package placeholder

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/kgclient/internal/domain"
	"github.com/kailas-cloud/kgclient/internal/fakekg"
	"github.com/kailas-cloud/kgclient/internal/transport/kghttp"
)

// mockResolver implements the consumer interface for tests.
type mockResolver struct {
	ids   map[string]string
	err   error
	calls []string
}

func (m *mockResolver) Resolve(_ context.Context, match string) (string, error) {
	m.calls = append(m.calls, match)
	if m.err != nil {
		return "", m.err
	}
	if id, ok := m.ids[match]; ok {
		return id, nil
	}
	return "", &domain.ResolveError{Path: match}
}

func newFakeClient(t *testing.T) *kghttp.Client {
	t.Helper()
	srv := httptest.NewServer(fakekg.New().Handler())
	t.Cleanup(srv.Close)
	return kghttp.New(&kghttp.Config{Endpoint: srv.URL, Prefix: "v0"})
}
