package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pgstar/internal/pg"
)

func decode(t *testing.T, stdout string) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), stdout)
	return resp
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

func TestApply_NQuads(t *testing.T) {
	stdout, _, err := execute(t, "apply", peopleContext, peopleGraph, "--sorted")
	require.NoError(t, err)

	lines := nonEmptyLines(stdout)
	require.Len(t, lines, 5)
	assert.Equal(t, "_:b1 <http://example.org/knows> _:b2 .", lines[0])
	assert.Contains(t, stdout, `_:b2 <http://example.org/name> "Bob" .`)
}

func TestApply_JSON(t *testing.T) {
	stdout, _, err := execute(t, "apply", peopleContext, peopleGraph, "--format", "json")
	require.NoError(t, err)

	resp := decode(t, stdout)
	assert.Equal(t, "ok", resp["status"])
	data := resp["data"].(map[string]any)
	assert.EqualValues(t, 5, data["quads"])
	assert.Len(t, data["assignments"], 3)
	assert.Contains(t, data["rdf"], "<http://example.org/knows>")
}

func TestApply_JSONLD(t *testing.T) {
	stdout, _, err := execute(t, "apply", peopleContext, peopleGraph, "--rdf-format", "jsonld")
	require.NoError(t, err)

	assert.Contains(t, stdout, "http://example.org/name")
	assert.Contains(t, stdout, "@id")
}

func TestApply_InvalidRDFFormat(t *testing.T) {
	_, _, err := execute(t, "apply", peopleContext, peopleGraph, "--rdf-format", "turtle")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestApply_NoRule(t *testing.T) {
	dir := t.TempDir()
	graph := writeFile(t, dir, "movies.yaml", `
nodes:
  - id: m1
    labels: [Movie]
`)

	stdout, _, err := execute(t, "apply", peopleContext, graph)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "Error [NO_RULE]")
}

func TestApply_MissingContext(t *testing.T) {
	stdout, _, err := execute(t, "apply", "absent.nq", peopleGraph)

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E005]")
}

func TestApply_InvalidSchema(t *testing.T) {
	dir := t.TempDir()
	context := writeFile(t, dir, "broken.nq", `<http://example.org/R> <http://bruy.at/prec#label> "R" .
`)

	stdout, _, err := execute(t, "apply", context, peopleGraph)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E009]")
}

func TestApplyRevert_Files(t *testing.T) {
	dir := t.TempDir()
	rdfPath := filepath.Join(dir, "people.nq")
	graphPath := filepath.Join(dir, "people.yaml")

	stdout, _, err := execute(t, "apply", peopleContext, peopleGraph, "-o", rdfPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 elements converted, 5 quads written")

	stdout, _, err = execute(t, "revert", peopleContext, rdfPath, "-o", graphPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 nodes and 1 edges written")

	original, err := pg.Load(peopleGraph)
	require.NoError(t, err)
	reverted, err := pg.Load(graphPath)
	require.NoError(t, err)
	assert.True(t, pg.Isomorphic(original, reverted))
}

func TestRevert_PGOEncoding(t *testing.T) {
	dir := t.TempDir()
	rdfPath := filepath.Join(dir, "people.nq")
	graphPath := filepath.Join(dir, "graph.nq")

	_, _, err := execute(t, "apply", peopleContext, peopleGraph, "-o", rdfPath)
	require.NoError(t, err)
	_, _, err = execute(t, "revert", peopleContext, rdfPath, "-o", graphPath)
	require.NoError(t, err)

	written, err := os.ReadFile(graphPath)
	require.NoError(t, err)
	assert.Contains(t, string(written), "<http://ii.uwb.edu.pl/pgo#Node>")
	assert.Contains(t, string(written), "<http://ii.uwb.edu.pl/pgo#Edge>")
	assert.Contains(t, string(written), "<http://www.w3.org/1999/02/22-rdf-syntax-ns#subject>")
	assert.NotContains(t, string(written), `"nodes"`)

	original, err := pg.Load(peopleGraph)
	require.NoError(t, err)
	reverted, err := LoadGraph(graphPath)
	require.NoError(t, err)
	assert.True(t, pg.Isomorphic(original, reverted))

	stdout, _, err := execute(t, "apply", peopleContext, graphPath, "--format", "json")
	require.NoError(t, err)
	assert.EqualValues(t, 5, decode(t, stdout)["data"].(map[string]any)["quads"])
}

func TestRoundtrip_PGOInputAndOutput(t *testing.T) {
	dir := t.TempDir()
	encoded := filepath.Join(dir, "people.nq")
	reverted := filepath.Join(dir, "reverted.nq")

	_, _, err := execute(t, "roundtrip", peopleContext, peopleGraph, "-o", encoded)
	require.NoError(t, err)

	stdout, _, err := execute(t, "roundtrip", peopleContext, encoded, "-o", reverted, "--format", "json")
	require.NoError(t, err)
	data := decode(t, stdout)["data"].(map[string]any)
	assert.Equal(t, true, data["isomorphic"])
	assert.Equal(t, reverted, data["output"])

	original, err := pg.Load(peopleGraph)
	require.NoError(t, err)
	g, err := LoadGraph(reverted)
	require.NoError(t, err)
	assert.True(t, pg.Isomorphic(original, g))
}

func TestLoadGraph_InvalidPGOEncoding(t *testing.T) {
	path := writeFile(t, t.TempDir(), "dangling.nq", `_:e <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://ii.uwb.edu.pl/pgo#Edge> .
_:e <http://www.w3.org/1999/02/22-rdf-syntax-ns#subject> _:a .
_:e <http://www.w3.org/1999/02/22-rdf-syntax-ns#object> _:b .
`)

	_, err := LoadGraph(path)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeReadFailed, le.Code)
}

const prefixedContext = `<ex:PersonRule> <rdf:type> <prec:NodeRule> .
<ex:PersonRule> <prec:label> "Person" .
<ex:PersonRule> <prec:propertyName> "name" .
<ex:PersonRule> <prec:composedOf> << <pvar:self> <rdf:type> <ex:Person> >> .
<ex:PersonRule> <prec:composedOf> << <pvar:self> <ex:name> "name"^^<prec:valueOf> >> .
<ex:KnowsRule> <rdf:type> <prec:EdgeRule> .
<ex:KnowsRule> <prec:label> "KNOWS" .
<ex:KnowsRule> <prec:composedOf> << <pvar:source> <ex:knows> <pvar:destination> >> .
`

func TestConfiguredPrefixes(t *testing.T) {
	dir := t.TempDir()
	context := writeFile(t, dir, "people.nq", prefixedContext)
	config := writeFile(t, dir, "pgstar.cue", `prefixes: ex: "http://example.org/"`+"\n")
	db := filepath.Join(dir, "trace.db")

	stdout, _, err := execute(t, "apply", context, peopleGraph, "--sorted", "--config", config, "--trace", db)
	require.NoError(t, err)
	lines := nonEmptyLines(stdout)
	require.Len(t, lines, 5)
	assert.Equal(t, "_:b1 <http://example.org/knows> _:b2 .", lines[0])

	stdout, _, err = execute(t, "check", context, "-v", "--config", config)
	require.NoError(t, err)
	assert.Contains(t, stdout, "  ex:PersonRule (")
	assert.NotContains(t, stdout, "<http://example.org/PersonRule>")

	stdout, _, err = execute(t, "trace", "--db", db, "--usage", "--config", config)
	require.NoError(t, err)
	assert.Contains(t, stdout, "2  ex:PersonRule")
	assert.Contains(t, stdout, "1  ex:KnowsRule")

	// ex is not a built-in prefix
	stdout, _, err = execute(t, "apply", context, peopleGraph)
	require.NoError(t, err)
	assert.Contains(t, stdout, "<ex:knows>")
}

func TestRevert_JSON(t *testing.T) {
	dir := t.TempDir()
	rdfPath := filepath.Join(dir, "people.nq")
	_, _, err := execute(t, "apply", peopleContext, peopleGraph, "-o", rdfPath)
	require.NoError(t, err)

	stdout, _, err := execute(t, "revert", peopleContext, rdfPath, "--format", "json")
	require.NoError(t, err)

	data := decode(t, stdout)["data"].(map[string]any)
	assert.EqualValues(t, 2, data["nodes"])
	assert.EqualValues(t, 1, data["edges"])
	assert.NotNil(t, data["graph"])
}

func TestRevert_YAML(t *testing.T) {
	dir := t.TempDir()
	rdfPath := filepath.Join(dir, "people.nq")
	_, _, err := execute(t, "apply", peopleContext, peopleGraph, "-o", rdfPath)
	require.NoError(t, err)

	stdout, _, err := execute(t, "revert", peopleContext, rdfPath, "--yaml")
	require.NoError(t, err)

	assert.Contains(t, stdout, "nodes:")
	assert.Contains(t, stdout, "Ann")
}

func TestRevert_Strict(t *testing.T) {
	dir := t.TempDir()
	rdfPath := writeFile(t, dir, "things.nq", `_:x <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://example.org/Thing> .
`)

	stdout, _, err := execute(t, "revert", sharedContext, rdfPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "Error [W204]")
	assert.Contains(t, stdout, "strict: false")

	config := writeFile(t, dir, "lenient.cue", "strict: false\n")
	stdout, _, err = execute(t, "revert", sharedContext, rdfPath, "--config", config)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "Error [NO_SIGNATURE]")
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		exitCode int
		contains []string
	}{
		{"well-behaved", []string{peopleContext}, ExitSuccess, []string{"✓ " + peopleContext}},
		{"shared shape", []string{sharedContext}, ExitFailure, []string{"✗ " + sharedContext, "[W204]"}},
		{"verbose lists every rule", []string{peopleContext, "-v"}, ExitSuccess, []string{"edge-unique", "fully-identifiable"}},
		{"glob", []string{"../harness/testdata/contexts/*.nq"}, ExitFailure, []string{"✓ ", "✗ "}},
		{"no files", []string{"../harness/testdata/contexts/*.ttl"}, ExitCommandError, []string{"Error [E003]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, append([]string{"check"}, tt.args...)...)

			assert.Equal(t, tt.exitCode, GetExitCode(err))
			for _, want := range tt.contains {
				assert.Contains(t, stdout, want)
			}
		})
	}
}

func TestCheck_JSON(t *testing.T) {
	stdout, _, err := execute(t, "check", peopleContext, sharedContext, "--format", "json")
	require.Error(t, err)

	results := decode(t, stdout)["data"].([]any)
	require.Len(t, results, 2)
	assert.Equal(t, true, results[0].(map[string]any)["well_behaved"])
	assert.Equal(t, false, results[1].(map[string]any)["well_behaved"])
}

func TestRoundtrip(t *testing.T) {
	stdout, _, err := execute(t, "roundtrip", peopleContext, peopleGraph)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ 2 nodes and 1 edges survived the round trip through 5 quads")

	stdout, _, err = execute(t, "roundtrip", peopleContext, peopleGraph, "--format", "json")
	require.NoError(t, err)
	data := decode(t, stdout)["data"].(map[string]any)
	assert.Equal(t, true, data["isomorphic"])
	assert.Equal(t, true, data["well_behaved"])
}

func TestRoundtrip_StrictRejectsSharedShape(t *testing.T) {
	dir := t.TempDir()
	graph := writeFile(t, dir, "things.yaml", `
nodes:
  - id: x
    labels: [A]
`)

	_, _, err := execute(t, "roundtrip", sharedContext, graph)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestTrace(t *testing.T) {
	db := filepath.Join(t.TempDir(), "trace.db")

	_, _, err := execute(t, "roundtrip", peopleContext, peopleGraph, "--trace", db)
	require.NoError(t, err)
	// the same apply again is recorded once
	_, _, err = execute(t, "apply", peopleContext, peopleGraph, "--trace", db)
	require.NoError(t, err)

	stdout, _, err := execute(t, "trace", "--db", db, "--format", "json")
	require.NoError(t, err)
	runs := decode(t, stdout)["data"].(map[string]any)["runs"].([]any)
	require.Len(t, runs, 2)
	first := runs[0].(map[string]any)
	assert.Equal(t, "apply", first["direction"])
	assert.Equal(t, "revert", runs[1].(map[string]any)["direction"])

	stdout, _, err = execute(t, "trace", "--db", db, first["id"].(string))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Direction: apply")
	assert.Contains(t, stdout, "n1 -> <http://example.org/PersonRule> (2 quads)")
	assert.Contains(t, stdout, "Elements: 3")

	stdout, _, err = execute(t, "trace", "--db", db, "--usage")
	require.NoError(t, err)
	lines := nonEmptyLines(stdout)
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "4  <http://example.org/PersonRule>")
	assert.Contains(t, lines[2], "2  <http://example.org/KnowsRule>")

	stdout, _, err = execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "[1] apply")
	assert.Contains(t, stdout, "[2] revert")
}

func TestTrace_UUIDRunsAreDistinct(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "trace.db")
	config := writeFile(t, dir, "uuid.cue", `blankNodes: "uuid"`+"\n")

	for i := 0; i < 2; i++ {
		_, _, err := execute(t, "apply", peopleContext, peopleGraph, "--config", config, "--trace", db)
		require.NoError(t, err)
	}

	stdout, _, err := execute(t, "trace", "--db", db, "--format", "json")
	require.NoError(t, err)
	runs := decode(t, stdout)["data"].(map[string]any)["runs"].([]any)
	require.Len(t, runs, 2)
	first, second := runs[0].(map[string]any), runs[1].(map[string]any)
	assert.Equal(t, first["inputHash"], second["inputHash"])
	assert.NotEqual(t, first["outputHash"], second["outputHash"])
}

func TestTrace_Errors(t *testing.T) {
	_, _, err := execute(t, "trace")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(t, "trace", "--db", filepath.Join(t.TempDir(), "absent.db"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	db := filepath.Join(t.TempDir(), "trace.db")
	_, _, err = execute(t, "apply", peopleContext, peopleGraph, "--trace", db)
	require.NoError(t, err)
	_, _, err = execute(t, "trace", "--db", db, "unknown")
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestTest_Scenarios(t *testing.T) {
	stdout, _, err := execute(t, "test", scenariosDir)
	require.NoError(t, err)

	assert.Contains(t, stdout, "✓ people")
	assert.Contains(t, stdout, "✓ no_rule")
	assert.Contains(t, stdout, "Test Summary: 3 passed, 0 failed, 3 total")
}

func TestTest_FilterJSON(t *testing.T) {
	stdout, _, err := execute(t, "test", scenariosDir, "--filter", "people", "--format", "json")
	require.NoError(t, err)

	data := decode(t, stdout)["data"].(map[string]any)
	assert.EqualValues(t, 1, data["total"])
	assert.EqualValues(t, 1, data["passed"])
}

func TestTest_MissingDir(t *testing.T) {
	_, _, err := execute(t, "test", filepath.Join(t.TempDir(), "absent"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_EmptyDir(t *testing.T) {
	stdout, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stdout, "No scenarios found.")
}

func TestTest_Golden(t *testing.T) {
	dir := t.TempDir()
	context, err := filepath.Abs(peopleContext)
	require.NoError(t, err)
	graph, err := filepath.Abs(peopleGraph)
	require.NoError(t, err)
	writeFile(t, dir, "people.yaml", "name: people\ndescription: persons\ncontext: "+context+"\ngraphFile: "+graph+"\n")

	stdout, _, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ people (golden updated)")

	golden := filepath.Join(dir, "golden", "people.golden")
	snapshot, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(snapshot), "scenario: people")

	_, _, err = execute(t, "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte("scenario: stale\n"), 0o644))
	stdout, _, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "snapshot does not match golden file")
}

func TestScenarioPattern(t *testing.T) {
	assert.Equal(t, "", scenarioPattern(""))
	assert.Equal(t, "**/people*.{yaml,yml}", scenarioPattern("people*"))
	assert.Equal(t, "edges/*.yaml", scenarioPattern("edges/*.yaml"))
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "01234567...89abcdef", truncateID("0123456789abcdef0123456789abcdef"))
}
