package kgclient

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/kgclient/internal/fakekg"
)

func newTestClient(t *testing.T, fake *fakekg.Server, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	opts = append([]Option{WithEndpoint(srv.URL), WithPrefix("v0")}, opts...)
	c, err := New(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew_Validation(t *testing.T) {
	_, err := New(context.Background(), WithPrefix("v0"))
	assert.Error(t, err, "endpoint is required")

	_, err = New(context.Background(), WithEndpoint("http://localhost:8080"))
	assert.Error(t, err, "prefix is required")
}

func TestNew_UnreachableCache(t *testing.T) {
	_, err := New(context.Background(),
		WithEndpoint("http://localhost:8080"),
		WithPrefix("v0"),
		WithRedisCache([]string{"127.0.0.1:1"}, "", ""),
	)
	assert.Error(t, err)
}

func TestFullPathFor(t *testing.T) {
	c, err := New(context.Background(), WithEndpoint("http://kg.local/"), WithPrefix("/v0/"))
	require.NoError(t, err)
	assert.Equal(t, "http://kg.local/v0", c.APIRoot())

	schema := NewSchema("hbp", "core", "dataset", "v1.0.0", nil)
	assert.Equal(t, "http://kg.local/schemas/hbp/core/dataset/v1.0.0", c.FullPathFor(schema))

	c, err = New(context.Background(),
		WithEndpoint("http://kg.local"), WithPrefix("v0"), WithNamespace("https://public.kg"))
	require.NoError(t, err)
	assert.Equal(t, "https://public.kg/schemas/hbp/core/dataset/v1.0.0", c.FullPathFor(schema))
}

func TestClient_VersionCheck(t *testing.T) {
	c := newTestClient(t, fakekg.New())
	v, err := c.VersionCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.9.8", v)

	report := c.Health(context.Background())
	assert.Equal(t, "0.9.8", report.Version)
	assert.NotContains(t, report.Checks, "cache")
}

func TestClient_VersionCheck_Unsupported(t *testing.T) {
	c := newTestClient(t, fakekg.New(fakekg.WithVersion("2.0.0")))
	_, err := c.VersionCheck(context.Background())
	assert.True(t, errors.Is(err, ErrUnsupportedVersion), "got %v", err)

	c = newTestClient(t, fakekg.New(fakekg.WithVersion("2.0.0")), WithSupportedVersions("2.0.0"))
	_, err = c.VersionCheck(context.Background())
	assert.NoError(t, err)
}

func TestClient_Token(t *testing.T) {
	ctx := context.Background()
	fake := fakekg.New(fakekg.WithTokens("secret"))

	c := newTestClient(t, fake)
	_, err := c.Organizations().Read(ctx, "x", 0)
	var te *TransportError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Equal(t, 401, te.StatusCode)

	c = newTestClient(t, fake, WithToken("secret"))
	org, err := c.Organizations().Read(ctx, "x", 0)
	require.NoError(t, err)
	assert.Nil(t, org)
	_, err = c.VersionCheck(ctx)
	assert.NoError(t, err)
}

func TestClient_UploadRoundTrip(t *testing.T) {
	fake := fakekg.New()
	reg := prometheus.NewRegistry()
	c := newTestClient(t, fake, WithPrometheus(reg))
	ctx := context.Background()
	dir := t.TempDir()

	schemaPath := writeFile(t, dir, "schemas/hbp/core/person/v1.0.0.json", `{"@type": "owl:Ontology"}`)
	data, err := c.UploadSchema(ctx, schemaPath, SchemaOptions{ForceDomainCreation: true})
	require.NoError(t, err)
	assert.Equal(t, 1, data.Revision)

	org, err := c.Organizations().Read(ctx, "hbp", 0)
	require.NoError(t, err)
	require.NotNil(t, org)

	instPath := writeFile(t, dir, "data/hbp/core/person/v1.0.0/alice.json", `{
  "@context": {"schema": "http://schema.org/"},
  "schema:identifier": "alice",
  "schema:name": "Alice"
}`)
	res, err := c.UploadInstance(ctx, instPath, true)
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, res.Action)

	res, err = c.UploadInstance(ctx, instPath, true)
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, res.Action)

	id, err := c.Resolve(ctx, "/hbp/core/person/v1.0.0")
	require.NoError(t, err)
	assert.Contains(t, id, "/v0/data/hbp/core/person/v1.0.0/")

	n, err := c.ClearAllInstances(ctx, "hbp/core/person/v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := testutil.GatherAndCount(reg, "kgclient_sdk_operations_total")
	require.NoError(t, err)
	assert.Positive(t, count)
}

func TestClient_Render(t *testing.T) {
	c := newTestClient(t, fakekg.New(), WithNamespace("https://public.kg"))
	out, err := c.Render(context.Background(), `{"@id": "{{endpoint}}:{{port}}/{{prefix}}/data/x"}`, true)
	require.NoError(t, err)
	assert.Equal(t, `{"@id": "https://public.kg/v0/data/x"}`, out)

	_, err = c.Render(context.Background(), `{"knows": "{{resolve /hbp/core/person/v1.0.0}}"}`, true)
	assert.True(t, errors.Is(err, ErrUnresolved), "got %v", err)
}

func TestClient_UploadDirectory(t *testing.T) {
	c := newTestClient(t, fakekg.New())
	dir := t.TempDir()
	writeFile(t, dir, "hbp/core/person/v1.0.0/schema.json", `{"@type": "owl:Ontology"}`)
	writeFile(t, dir, "hbp/core/place/v1.0.0/schema.json", `not json`)

	outcomes, err := c.UploadDirectory(context.Background(), KindSchema, dir,
		DirectoryOptions{Schema: SchemaOptions{ForceDomainCreation: true}})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.NoError(t, outcomes[0].Err)
	assert.Error(t, outcomes[1].Err)
}
