package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/kgclient/internal/domain/search/filter"
	"github.com/kailas-cloud/kgclient/internal/domain/search/mode"
)

func TestQuery_SkipsEmptyClauses(t *testing.T) {
	q := NewQuery().Set("q", "").Set("size", "10").Set("context", "")
	assert.Equal(t, "size=10", q.Encode())
}

func TestQuery_KeepsOrderOnReplace(t *testing.T) {
	q := NewQuery().Set("a", "1").Set("b", "2").Set("a", "3")
	assert.Equal(t, "a=3&b=2", q.Encode())
}

func TestQuery_EncodesValues(t *testing.T) {
	q := NewQuery().Set(ParamFilter, `{"op":"eq","value":"a b"}`)
	assert.Equal(t, "filter=%7B%22op%22%3A%22eq%22%2C%22value%22%3A%22a%20b%22%7D", q.Encode())
}

func TestParseQuery_ToleratesBareSeparators(t *testing.T) {
	q := ParseQuery(`&filter={"op":"eq","path":"x","value":1}&&deprecated=false`)
	require.Equal(t, 2, q.Len())
	f, _ := q.Get(ParamFilter)
	assert.Equal(t, `{"op":"eq","path":"x","value":1}`, f)
	d, _ := q.Get(ParamDeprecated)
	assert.Equal(t, "false", d)
}

func TestParseQuery_KeepsLiteralPlus(t *testing.T) {
	q := ParseQuery(`q=C++&filter={"value":"a%20b"}`)
	v, _ := q.Get(ParamFullText)
	assert.Equal(t, "C++", v)
	f, _ := q.Get(ParamFilter)
	assert.Equal(t, `{"value":"a b"}`, f)
}

func TestQuery_RoundTrip(t *testing.T) {
	for _, v := range []string{"R&D", "C++", "a b", `{"value":"x=1&y=2"}`, "100%"} {
		q := ParseQuery(NewQuery().Set(ParamFilter, v).Encode())
		got, _ := q.Get(ParamFilter)
		assert.Equal(t, v, got)
	}
}

func TestSplitPath_Resolved(t *testing.T) {
	path, q := SplitPath("/data/org/dom/name/v1/?q=x&fields=all")
	assert.Equal(t, "/data/org/dom/name/v1/", path)
	assert.True(t, q.Resolved())

	_, q = SplitPath("/data/org/dom/name/v1")
	assert.False(t, q.Resolved())
	assert.Equal(t, 0, q.Len())
}

func TestDecodeEscapes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`plain`, `plain`},
		{`filter={\"op\":\"eq\"}`, `filter={"op":"eq"}`},
		{`a\/b`, `a/b`},
		{`café`, `café`},
		{`trailing\`, `trailing\`},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, DecodeEscapes(tc.in), tc.in)
	}
}

func TestList_Path(t *testing.T) {
	f := filter.Eq("http://schema.org/identifier", "abc")
	l := List{Subpath: "/org/dom/name/v1/", Filter: &f, Size: 5, Resolved: true}
	path, err := l.Path("/data")
	require.NoError(t, err)
	want := "/data/org/dom/name/v1/?filter=" +
		"%7B%22op%22%3A%22eq%22%2C%22path%22%3A%22http%3A%2F%2Fschema.org%2Fidentifier%22%2C%22value%22%3A%22abc%22%7D" +
		"&size=5&deprecated=false&fields=all"
	assert.Equal(t, want, path)
}

func TestList_DeprecationAll(t *testing.T) {
	path, err := List{Deprecation: mode.All}.Path("/organizations")
	require.NoError(t, err)
	assert.Equal(t, "/organizations/", path)
}
