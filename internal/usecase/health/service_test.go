package health

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/kgclient/internal/domain"
)

// --- Mocks ---

type mockDescriber struct {
	desc map[string]any
	err  error
	url  string
}

func (m *mockDescriber) GetURL(_ context.Context, rawURL string) (map[string]any, error) {
	m.url = rawURL
	return m.desc, m.err
}

func (m *mockDescriber) Endpoint() string { return "http://kg.example.org" }

type mockCachePinger struct {
	err error
}

func (m *mockCachePinger) Ping(_ context.Context) error { return m.err }

func describer(name, version string) *mockDescriber {
	return &mockDescriber{desc: map[string]any{"name": name, "version": version}}
}

// --- Tests ---

func TestVersionCheck_Supported(t *testing.T) {
	kg := describer("kg", "0.9.8")
	v, err := New(kg, nil).VersionCheck(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "0.9.8" {
		t.Errorf("expected version 0.9.8, got %q", v)
	}
	if kg.url != "http://kg.example.org/" {
		t.Errorf("unexpected description url %q", kg.url)
	}
}

func TestVersionCheck_Rejects(t *testing.T) {
	tests := []struct {
		name string
		kg   *mockDescriber
	}{
		{"unsupported version", describer("kg", "1.0.0")},
		{"wrong service", describer("admin", "0.9.8")},
		{"empty description", &mockDescriber{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.kg, nil).VersionCheck(context.Background())
			if !errors.Is(err, domain.ErrUnsupportedVersion) {
				t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
			}
		})
	}
}

func TestVersionCheck_CustomVersions(t *testing.T) {
	svc := New(describer("kg", "1.0.0"), nil).WithSupportedVersions([]string{"1.0.0"})
	if _, err := svc.VersionCheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVersionCheck_TransportError(t *testing.T) {
	boom := errors.New("conn refused")
	_, err := New(&mockDescriber{err: boom}, nil).VersionCheck(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestCheck_AllHealthy(t *testing.T) {
	r := New(describer("kg", "0.9.5"), &mockCachePinger{}).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Version != "0.9.5" {
		t.Errorf("expected version 0.9.5, got %q", r.Version)
	}
	if r.Checks["kg"] != CheckOK || r.Checks["cache"] != CheckOK {
		t.Errorf("unexpected checks: %v", r.Checks)
	}
}

func TestCheck_NoCache(t *testing.T) {
	r := New(describer("kg", "0.9.5"), nil).Check(context.Background())
	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["cache"]; ok {
		t.Error("cache check must be skipped without a cache")
	}
}

func TestCheck_CacheError(t *testing.T) {
	r := New(describer("kg", "0.9.5"), &mockCachePinger{err: errors.New("down")}).Check(context.Background())
	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["cache"] != CheckError {
		t.Errorf("expected cache %q, got %q", CheckError, r.Checks["cache"])
	}
}

func TestCheck_KGError(t *testing.T) {
	r := New(&mockDescriber{err: errors.New("down")}, &mockCachePinger{}).Check(context.Background())
	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks["kg"] != CheckError {
		t.Errorf("expected kg %q, got %q", CheckError, r.Checks["kg"])
	}
}
