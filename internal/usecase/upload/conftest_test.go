package upload

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/kgclient/internal/fakekg"
	"github.com/kailas-cloud/kgclient/internal/jsonld"
	"github.com/kailas-cloud/kgclient/internal/placeholder"
	"github.com/kailas-cloud/kgclient/internal/repository"
	"github.com/kailas-cloud/kgclient/internal/resolver"
	"github.com/kailas-cloud/kgclient/internal/transport/kghttp"
)

type testEnv struct {
	svc       *Service
	fake      *fakekg.Server
	schemas   *repository.VersionedRepo
	instances *repository.InstanceRepo
	dir       string
}

// newTestEnv wires the service against an in-memory knowledge graph.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fake := fakekg.New()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	client := kghttp.New(&kghttp.Config{Endpoint: srv.URL, Prefix: "v0"})

	repos := Repositories{
		Organizations: repository.NewOrganizationRepo(client, nil),
		Domains:       repository.NewDomainRepo(client, nil),
		Schemas:       repository.NewSchemaRepo(client, nil),
		Contexts:      repository.NewContextRepo(client, nil),
		Instances:     repository.NewInstanceRepo(client, nil),
	}
	engine := placeholder.New(
		resolver.New(repos.Instances.(*repository.InstanceRepo)),
		placeholder.Config{Namespace: srv.URL, Prefix: "v0", Endpoint: srv.URL},
		nil,
	)
	return &testEnv{
		svc:       New(repos, engine, jsonld.New(nil), nil),
		fake:      fake,
		schemas:   repos.Schemas.(*repository.VersionedRepo),
		instances: repos.Instances.(*repository.InstanceRepo),
		dir:       t.TempDir(),
	}
}

// write stores a template below the env directory and returns its path.
func (e *testEnv) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// schema makes sure the person schema exists so instances can be posted.
func (e *testEnv) schema(t *testing.T) {
	t.Helper()
	path := e.write(t, "schemas/org/dom/person/v1.0.0.json", `{"@type": "owl:Ontology"}`)
	if _, err := e.svc.CreateSchemaByFile(context.Background(), path, SchemaOptions{ForceDomainCreation: true}); err != nil {
		t.Fatalf("create schema: %v", err)
	}
}

const personTemplate = `{
  "@context": {"schema": "http://schema.org/"},
  "@type": "schema:Person",
  "schema:identifier": "p-1",
  "schema:name": "%s"
}`
