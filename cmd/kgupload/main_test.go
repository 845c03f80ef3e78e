package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/kgclient/internal/fakekg"
	"github.com/kailas-cloud/kgclient/internal/version"
)

func serveFake(t *testing.T) *fakekg.Server {
	t.Helper()
	fake := fakekg.New()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	t.Setenv("NEXUS_ENDPOINT", srv.URL)
	t.Setenv("NEXUS_PREFIX", "v0")
	return fake
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version.String()+"\n", out)
}

func TestVersionCheckCommand(t *testing.T) {
	serveFake(t)
	out, err := run(t, "--from-env", "version-check")
	require.NoError(t, err)
	assert.Contains(t, out, "kg 0.9.8 supported")
}

func TestFromEnv_MissingEndpoint(t *testing.T) {
	t.Setenv("NEXUS_ENDPOINT", "")
	t.Setenv("NEXUS_PREFIX", "v0")
	_, err := run(t, "--from-env", "version-check")
	assert.ErrorContains(t, err, "nexus.endpoint is required")
}

func TestSchemasCommand(t *testing.T) {
	serveFake(t)
	dir := t.TempDir()
	writeFile(t, dir, "hbp/core/person/v1.0.0/schema.json", `{"@type": "owl:Ontology"}`)

	out, err := run(t, "--from-env", "schemas", dir, "--force-domain")
	require.NoError(t, err)
	assert.Contains(t, out, "(rev 1)")
	assert.Contains(t, out, "1 created, 0 updated, 0 skipped, 0 failed")

	out, err = run(t, "--from-env", "schemas", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "0 created, 0 updated, 1 skipped, 0 failed")
}

func TestInstancesCommand(t *testing.T) {
	serveFake(t)
	dir := t.TempDir()
	writeFile(t, dir, "schemas/hbp/core/person/v1.0.0.json", `{"@type": "owl:Ontology"}`)
	_, err := run(t, "--from-env", "schemas", filepath.Join(dir, "schemas"), "--force-domain")
	require.NoError(t, err)

	data := filepath.Join(dir, "data")
	writeFile(t, data, "hbp/core/person/v1.0.0/alice.json", `{
  "@context": {"schema": "http://schema.org/"},
  "schema:identifier": "alice",
  "schema:name": "Alice"
}`)
	writeFile(t, data, "hbp/core/person/v1.0.0/broken.json", `{"schema:name": `)

	out, err := run(t, "--from-env", "instances", data)
	require.Error(t, err, "a failed file fails the run")
	assert.Contains(t, out, "1 created, 0 updated, 0 skipped, 1 failed")
	assert.Contains(t, out, "broken.json")

	out, err = run(t, "--from-env", "clear-instances", "hbp/core/person/v1.0.0")
	require.NoError(t, err)
	assert.Contains(t, out, "1 instances deleted")
}

func TestClearChecksumsCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a/x.json", `{}`)
	writeFile(t, dir, "a/x.json.0011.chksum", ``)

	out, err := run(t, "clear-checksums", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 checksum files removed")
	assert.FileExists(t, filepath.Join(dir, "a", "x.json"))
}

func TestConfigFile(t *testing.T) {
	fake := fakekg.New()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	textfile := filepath.Join(dir, "kgupload.prom")
	cfg := writeFile(t, dir, "kgupload.yaml", "nexus:\n  endpoint: "+srv.URL+"\n  prefix: v0\n"+
		"metrics:\n  enabled: true\n  textfile: "+textfile+"\n")

	_, err := run(t, "--config", cfg, "version-check")
	require.NoError(t, err)

	metrics, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "kgclient_sdk_operations_total")
}
