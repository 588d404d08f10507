package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pgstar/internal/rdf"
	"github.com/roach88/pgstar/internal/schema"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "counter", cfg.BlankNodes)
	assert.Equal(t, "nquads", cfg.Output)
	assert.Equal(t, "", cfg.Trace)
	assert.True(t, cfg.Strict)
	assert.Empty(t, cfg.Prefixes)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
prefixes: ex: "http://example.org/"
output: "jsonld"
strict: false
`), "pgstar.cue")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"ex": "http://example.org/"}, cfg.Prefixes)
	assert.Equal(t, "jsonld", cfg.Output)
	assert.Equal(t, "counter", cfg.BlankNodes)
	assert.False(t, cfg.Strict)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown output", `output: "turtle"`},
		{"unknown field", `colour: "blue"`},
		{"wrong type", `strict: "yes"`},
		{"syntax", `output: `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.cue")
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{EnvOutput: "jsonld", EnvTrace: "trace.db"}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "jsonld", cfg.Output)
	assert.Equal(t, "trace.db", cfg.Trace)
	assert.Equal(t, "counter", cfg.BlankNodes)

	env[EnvBlankNodes] = "random"
	assert.Error(t, Default().ApplyEnv(lookup))
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.cue")
	require.NoError(t, os.WriteFile(path, []byte(`blankNodes: "uuid"`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "uuid", cfg.BlankNodes)
	assert.IsType(t, schema.UUIDBlankNodes{}, cfg.NewBlankNodeFactory())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.cue"))
	assert.Error(t, err)
}

func TestAllPrefixes(t *testing.T) {
	cfg := Default()
	cfg.Prefixes["ex"] = "http://example.org/"
	cfg.Prefixes["rdf"] = "http://override.example/"

	prefixes := cfg.AllPrefixes()

	assert.Equal(t, "http://example.org/", prefixes["ex"])
	assert.Equal(t, "http://override.example/", prefixes["rdf"])
	assert.Equal(t, rdf.PrecNamespace, prefixes["prec"])
}

func TestNewBlankNodeFactory_Counter(t *testing.T) {
	f := Default().NewBlankNodeFactory()

	assert.Equal(t, rdf.BlankNode("b1"), f.Next())
	assert.Equal(t, rdf.BlankNode("b2"), f.Next())
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := Parse([]byte("strict: true\noutput: \"turtle\"\n"), "pgstar.cue")
	require.Error(t, err)

	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "pgstar.cue", cfgErr.File)
	assert.Contains(t, err.Error(), "config ")
}
