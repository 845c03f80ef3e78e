package jsonld

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullyQualify(t *testing.T) {
	doc := map[string]any{
		"@context":    map[string]any{"schema": "http://schema.org/"},
		"@type":       "schema:Person",
		"schema:name": "Lisa",
	}

	got, err := New(nil).FullyQualify(doc)
	require.NoError(t, err)

	assert.Equal(t, "http://schema.org/Person", got["@type"])
	assert.Equal(t, "Lisa", got["http://schema.org/name"])
	assert.NotContains(t, got, "@context")
	assert.Contains(t, doc, "@context", "input must be left untouched")
}

func TestFullyQualify_AlreadyQualifiedIsStable(t *testing.T) {
	doc := map[string]any{
		"@type":                  "http://schema.org/Person",
		"http://schema.org/name": "Lisa",
	}

	q := New(nil)
	once, err := q.FullyQualify(doc)
	require.NoError(t, err)
	twice, err := q.FullyQualify(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
	assert.Equal(t, doc, once)
}
