package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/kgclient/internal/domain"
	"github.com/kailas-cloud/kgclient/internal/domain/entity"
	"github.com/kailas-cloud/kgclient/internal/domain/search/mode"
)

func TestReadNotFoundIsNil(t *testing.T) {
	repo := NewSchemaRepo(&mockTransport{}, nil)
	got, err := repo.Read(context.Background(), "a", "b", "c", "v1.0.0", 0)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v; want nil, nil", got, err)
	}
}

func TestReadPinsRevision(t *testing.T) {
	m := &mockTransport{getFn: func(_ context.Context, path string) (map[string]any, error) {
		return map[string]any{"nxv:rev": float64(2)}, nil
	}}
	repo := NewDomainRepo(m, nil)
	got, err := repo.Read(context.Background(), "org", "dom", 2)
	if err != nil {
		t.Fatal(err)
	}
	if m.paths[0] != "GET /domains/org/dom?rev=2" {
		t.Fatalf("unexpected request %q", m.paths[0])
	}
	if got.Path() != "/domains/org/dom" {
		t.Fatalf("unexpected path %q", got.Path())
	}
}

func TestUpdate_FetchesLatestRevision(t *testing.T) {
	m := &mockTransport{
		getFn: func(_ context.Context, path string) (map[string]any, error) {
			switch path {
			case "/organizations/hbp":
				return map[string]any{"nxv:rev": float64(4)}, nil
			case "/organizations/hbp?rev=5":
				return map[string]any{"nxv:rev": float64(5), "schema:name": "new"}, nil
			}
			t.Fatalf("unexpected GET %s", path)
			return nil, nil
		},
		putFn: func(_ context.Context, path string, _ any) (map[string]any, error) {
			return map[string]any{"nxv:rev": float64(5)}, nil
		},
	}
	repo := NewOrganizationRepo(m, nil)
	e := entity.New(entity.KindOrganization, "hbp", map[string]any{"schema:name": "new"})

	got, err := repo.Update(context.Background(), e, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"GET /organizations/hbp", "PUT /organizations/hbp?rev=4", "GET /organizations/hbp?rev=5"}
	if strings.Join(m.paths, ",") != strings.Join(want, ",") {
		t.Fatalf("requests = %v, want %v", m.paths, want)
	}
	if rev, _ := got.Revision(); rev != 5 {
		t.Fatalf("revision = %d, want 5", rev)
	}
}

func TestUpdate_UsesEntityRevision(t *testing.T) {
	m := &mockTransport{
		getFn: func(context.Context, string) (map[string]any, error) { return map[string]any{"nxv:rev": float64(3)}, nil },
		putFn: func(context.Context, string, any) (map[string]any, error) { return map[string]any{"nxv:rev": float64(3)}, nil },
	}
	repo := NewOrganizationRepo(m, nil)
	e := entity.New(entity.KindOrganization, "hbp", map[string]any{"nxv:rev": float64(2)})
	if _, err := repo.Update(context.Background(), e, 0); err != nil {
		t.Fatal(err)
	}
	if m.paths[0] != "PUT /organizations/hbp?rev=2" {
		t.Fatalf("unexpected first request %q", m.paths[0])
	}
}

func TestUpdate_TransportErrorLeavesData(t *testing.T) {
	conflict := &domain.TransportError{Method: "PUT", StatusCode: 409, Reason: "Conflict"}
	m := &mockTransport{putFn: func(context.Context, string, any) (map[string]any, error) { return nil, conflict }}
	repo := NewOrganizationRepo(m, nil)
	data := map[string]any{"nxv:rev": float64(1), "schema:name": "x"}
	e := entity.New(entity.KindOrganization, "hbp", data)

	_, err := repo.Update(context.Background(), e, 0)
	if !errors.Is(err, domain.ErrRevisionConflict) {
		t.Fatalf("expected ErrRevisionConflict, got %v", err)
	}
	if e.Data()["schema:name"] != "x" {
		t.Fatal("failed update must not replace local data")
	}
}

func TestDelete_DeprecatedIsNoop(t *testing.T) {
	m := &mockTransport{}
	repo := NewOrganizationRepo(m, nil)
	e := entity.New(entity.KindOrganization, "hbp", map[string]any{"nxv:rev": float64(2), "nxv:deprecated": true})
	got, err := repo.Delete(context.Background(), e, 0)
	if err != nil || got != e {
		t.Fatalf("Delete() = %v, %v", got, err)
	}
	if len(m.paths) != 0 {
		t.Fatalf("expected no requests, got %v", m.paths)
	}
}

func TestCreate_WrongKind(t *testing.T) {
	repo := NewOrganizationRepo(&mockTransport{}, nil)
	_, err := repo.Create(context.Background(), entity.NewDomain("a", "b", ""))
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestCreate_NoDocument(t *testing.T) {
	repo := NewOrganizationRepo(&mockTransport{}, nil)
	_, err := repo.Create(context.Background(), entity.NewOrganization("a", ""))
	if !errors.Is(err, domain.ErrNotCreated) {
		t.Fatalf("expected ErrNotCreated, got %v", err)
	}
}

func TestFindByField_QuotesStrings(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "abc", `"value":"abc"`},
		{"number", 42, `"value":42`},
		{"bool", true, `"value":true`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			m := &mockTransport{getFn: func(_ context.Context, path string) (map[string]any, error) {
				got = path
				return map[string]any{"total": 0, "results": []any{}}, nil
			}}
			repo := NewInstanceRepo(m, nil)
			if _, err := repo.FindByField(context.Background(), "org/dom/s/v1", "http://schema.org/x", tc.value, false, mode.Active); err != nil {
				t.Fatal(err)
			}
			path, query, _ := strings.Cut(got, "?")
			if path != "/data/org/dom/s/v1/" {
				t.Fatalf("unexpected path %q", path)
			}
			decoded := decodeQuery(t, query)
			if !strings.Contains(decoded["filter"], tc.want) {
				t.Fatalf("filter %q does not contain %q", decoded["filter"], tc.want)
			}
			if decoded["deprecated"] != "false" {
				t.Fatalf("deprecated = %q", decoded["deprecated"])
			}
		})
	}
}

func TestListByFullPath_NoEnvelope(t *testing.T) {
	m := &mockTransport{getFn: func(context.Context, string) (map[string]any, error) {
		return map[string]any{"@id": "x"}, nil
	}}
	list, err := NewInstanceRepo(m, nil).ListByFullPath(context.Background(), "/data/a/", mode.Active)
	if err != nil || list != nil {
		t.Fatalf("ListByFullPath() = %v, %v; want nil, nil", list, err)
	}
}

func TestListByFullPath_DecodesEscapes(t *testing.T) {
	m := &mockTransport{getFn: func(context.Context, string) (map[string]any, error) {
		return map[string]any{"total": 0, "results": []any{}}, nil
	}}
	repo := NewInstanceRepo(m, nil)
	_, err := repo.ListByFullPath(context.Background(), `/data/a/b/c/v1/?filter={\"op\":\"eq\",\"path\":\"p\",\"value\":1}`, mode.All)
	if err != nil {
		t.Fatal(err)
	}
	_, query, _ := strings.Cut(strings.TrimPrefix(m.paths[0], "GET "), "?")
	decoded := decodeQuery(t, query)
	if decoded["filter"] != `{"op":"eq","path":"p","value":1}` {
		t.Fatalf("filter = %q", decoded["filter"])
	}
	if _, ok := decoded["deprecated"]; ok {
		t.Fatal("deprecated clause must be omitted for mode.All")
	}
}

func TestResolve_WrongRoot(t *testing.T) {
	m := &mockTransport{getFn: func(context.Context, string) (map[string]any, error) {
		return map[string]any{"total": 1, "results": []any{map[string]any{
			"resultId": "x",
			"source":   map[string]any{"links": []any{map[string]any{"rel": "self", "href": "http://h/v0/schemas/a/b/c/v1"}}},
		}}}, nil
	}}
	repo := NewOrganizationRepo(m, nil)
	list, err := repo.List(context.Background(), listAll())
	if err != nil {
		t.Fatal(err)
	}
	_, err = repo.Resolve(context.Background(), &list.Results()[0])
	if !errors.Is(err, domain.ErrMalformedReference) {
		t.Fatalf("expected ErrMalformedReference, got %v", err)
	}
}
