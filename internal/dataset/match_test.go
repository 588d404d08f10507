package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pgstar/internal/rdf"
)

func TestMatchPattern_TwoBindings(t *testing.T) {
	a, b, c := iri("a"), iri("b"), iri("c")
	d := New(
		rdf.NewTriple(a, b, c),
		rdf.NewTriple(a, b, rdf.NewLiteral("d", "")),
	)

	matches := d.MatchPattern(rdf.NewTriple(rdf.Variable("s"), b, rdf.Variable("o")))

	require.Len(t, matches, 2)
	assert.Equal(t, map[string]rdf.Term{"s": a, "o": c}, matches[0].Vars)
	assert.Equal(t, map[string]rdf.Term{"s": a, "o": rdf.NewLiteral("d", "")}, matches[1].Vars)
	assert.Equal(t, rdf.NewTriple(a, b, c), matches[0].Quad)
}

func TestMatchPattern_RepeatedVariable(t *testing.T) {
	d := New(
		rdf.NewTriple(iri("a"), iri("p"), iri("a")),
		rdf.NewTriple(iri("a"), iri("p"), iri("b")),
	)

	matches := d.MatchPattern(rdf.NewTriple(rdf.Variable("x"), iri("p"), rdf.Variable("x")))

	require.Len(t, matches, 1)
	assert.Equal(t, iri("a"), matches[0].Vars["x"])
}

func TestMatchPattern_GraphVariable(t *testing.T) {
	d := New(
		rdf.NewQuad(iri("a"), iri("p"), iri("b"), iri("g1")),
		rdf.NewTriple(iri("a"), iri("p"), iri("c")),
	)

	named := d.MatchPattern(rdf.NewQuad(rdf.Variable("s"), iri("p"), rdf.Variable("o"), rdf.Variable("g")))
	require.Len(t, named, 2)
	assert.Equal(t, iri("g1"), named[0].Vars["g"])
	assert.Equal(t, rdf.DefaultGraph{}, named[1].Vars["g"])

	def := d.MatchPattern(rdf.NewTriple(rdf.Variable("s"), iri("p"), rdf.Variable("o")))
	require.Len(t, def, 1)
	assert.Equal(t, iri("c"), def[0].Vars["o"])
}

func TestMatchPattern_QuotedTriple(t *testing.T) {
	ss, so, starP := iri("ss"), iri("so"), iri("starP")
	d := New(
		rdf.NewTriple(ss, so, iri("plain")),
		rdf.NewTriple(rdf.NewTriple(ss, so, iri("x1")), starP, rdf.NewLiteral("one", "")),
		rdf.NewTriple(rdf.NewTriple(iri("other"), so, iri("x2")), starP, rdf.NewLiteral("two", "")),
		rdf.NewTriple(rdf.NewTriple(ss, iri("zz"), iri("x3")), starP, rdf.NewLiteral("three", "")),
	)

	pattern := rdf.NewTriple(rdf.NewTriple(ss, so, rdf.Variable("x")), starP, rdf.Variable("o"))
	matches := d.MatchPattern(pattern)

	require.Len(t, matches, 1)
	assert.Equal(t, iri("x1"), matches[0].Vars["x"])
	assert.Equal(t, rdf.NewLiteral("one", ""), matches[0].Vars["o"])
}

func TestMatchPattern_VariableBindsQuotedTriple(t *testing.T) {
	inner := rdf.NewTriple(iri("s"), iri("p"), iri("o"))
	d := New(rdf.NewTriple(inner, iri("q"), iri("v")))

	matches := d.MatchPattern(rdf.NewTriple(rdf.Variable("t"), iri("q"), rdf.Variable("v")))

	require.Len(t, matches, 1)
	assert.Equal(t, rdf.Term(inner), matches[0].Vars["t"])
}

func TestMatchPattern_NestedVariableAcrossLevels(t *testing.T) {
	d := New(
		rdf.NewTriple(rdf.NewTriple(iri("a"), iri("p"), iri("b")), iri("q"), iri("a")),
		rdf.NewTriple(rdf.NewTriple(iri("a"), iri("p"), iri("b")), iri("q"), iri("b")),
	)

	pattern := rdf.NewTriple(rdf.NewTriple(rdf.Variable("x"), iri("p"), rdf.Variable("y")), iri("q"), rdf.Variable("x"))
	matches := d.MatchPattern(pattern)

	require.Len(t, matches, 1)
	assert.Equal(t, iri("a"), matches[0].Vars["x"])
	assert.Equal(t, iri("b"), matches[0].Vars["y"])
}

func TestMatchAndBind_SharedVariable(t *testing.T) {
	d := New(
		rdf.NewTriple(iri("s1"), rdf.RDFType, iri("A")),
		rdf.NewTriple(iri("s2"), rdf.RDFType, iri("B")),
		rdf.NewTriple(iri("s1"), iri("name"), rdf.NewLiteral("one", "")),
		rdf.NewTriple(iri("s2"), iri("name"), rdf.NewLiteral("two", "")),
	)

	bindings := d.MatchAndBind([]rdf.Quad{
		rdf.NewTriple(rdf.Variable("x"), rdf.RDFType, iri("A")),
		rdf.NewTriple(rdf.Variable("x"), iri("name"), rdf.Variable("n")),
	})

	require.Len(t, bindings, 1)
	assert.Equal(t, iri("s1"), bindings[0].Vars["x"])
	n, ok := bindings[0].Get("n")
	require.True(t, ok)
	assert.Equal(t, rdf.NewLiteral("one", ""), n)
	_, ok = bindings[0].Get("missing")
	assert.False(t, ok)
	assert.Equal(t, []rdf.Quad{
		rdf.NewTriple(iri("s1"), rdf.RDFType, iri("A")),
		rdf.NewTriple(iri("s1"), iri("name"), rdf.NewLiteral("one", "")),
	}, bindings[0].Quads)
}

func TestMatchAndBind_EmptyPatternList(t *testing.T) {
	d := New(rdf.NewTriple(iri("a"), iri("b"), iri("c")))

	bindings := d.MatchAndBind(nil)

	require.Len(t, bindings, 1)
	assert.Empty(t, bindings[0].Vars)
	assert.Empty(t, bindings[0].Quads)
}

func TestMatchAndBind_NoSolution(t *testing.T) {
	d := New(rdf.NewTriple(iri("a"), iri("b"), iri("c")))

	bindings := d.MatchAndBind([]rdf.Quad{
		rdf.NewTriple(rdf.Variable("x"), iri("b"), rdf.Variable("y")),
		rdf.NewTriple(rdf.Variable("y"), iri("b"), rdf.Variable("z")),
	})

	assert.Empty(t, bindings)
}

func TestMatchAndBind_CrossProduct(t *testing.T) {
	d := New(
		rdf.NewTriple(iri("a1"), iri("p"), iri("x")),
		rdf.NewTriple(iri("a2"), iri("p"), iri("x")),
		rdf.NewTriple(iri("b1"), iri("q"), iri("y")),
		rdf.NewTriple(iri("b2"), iri("q"), iri("y")),
	)

	bindings := d.MatchAndBind([]rdf.Quad{
		rdf.NewTriple(rdf.Variable("a"), iri("p"), iri("x")),
		rdf.NewTriple(rdf.Variable("b"), iri("q"), iri("y")),
	})

	require.Len(t, bindings, 4)
	assert.Equal(t, iri("a1"), bindings[0].Vars["a"])
	assert.Equal(t, iri("b1"), bindings[0].Vars["b"])
	assert.Equal(t, iri("a2"), bindings[3].Vars["a"])
	assert.Equal(t, iri("b2"), bindings[3].Vars["b"])
}

func TestSubstitute_KeepsUnbound(t *testing.T) {
	q := rdf.NewTriple(rdf.NewTriple(rdf.Variable("a"), iri("p"), rdf.Variable("b")), iri("q"), rdf.Variable("a"))

	got := Substitute(q, map[string]rdf.Term{"a": iri("x")})

	want := rdf.NewTriple(rdf.NewTriple(iri("x"), iri("p"), rdf.Variable("b")), iri("q"), iri("x"))
	assert.Equal(t, want, got)
}
