package rdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ex = "http://example.org/"

func TestTermSealed(t *testing.T) {
	var _ Term = NamedNode(ex + "a")
	var _ Term = BlankNode("b0")
	var _ Term = NewLiteral("x", XSDString)
	var _ Term = Variable("v")
	var _ Term = DefaultGraph{}
	var _ Term = NewTriple(BlankNode("s"), NamedNode(ex+"p"), BlankNode("o"))
}

func TestQuadEquality_Recursive(t *testing.T) {
	inner := func() Quad {
		return NewTriple(NamedNode(ex+"s"), NamedNode(ex+"p"), NewLiteral("1", XSDInteger))
	}
	a := NewTriple(inner(), NamedNode(ex+"q"), BlankNode("x"))
	b := NewTriple(inner(), NamedNode(ex+"q"), BlankNode("x"))
	c := NewTriple(inner(), NamedNode(ex+"q"), BlankNode("y"))

	assert.True(t, a == b)
	assert.False(t, a == c)

	set := map[Term]bool{a: true}
	assert.True(t, set[b])
}

func TestLiteral_StringDatatypeCanonical(t *testing.T) {
	assert.Equal(t, NewLiteral("a", ""), NewLiteral("a", XSDString))
	assert.Equal(t, XSDString, NewLiteral("a", "").DatatypeIRI())
	assert.Equal(t, RDFLangString, NewLangLiteral("chat", "FR").DatatypeIRI())
	assert.Equal(t, "fr", NewLangLiteral("chat", "FR").Lang)
}

func TestTermString(t *testing.T) {
	tests := []struct {
		name string
		term Term
		want string
	}{
		{"iri", NamedNode(ex + "a"), "<http://example.org/a>"},
		{"blank", BlankNode("b1"), "_:b1"},
		{"plain literal", NewLiteral("hi \"there\"\n", ""), `"hi \"there\"\n"`},
		{"typed literal", NewLiteral("5", XSDInteger), `"5"^^<http://www.w3.org/2001/XMLSchema#integer>`},
		{"lang literal", NewLangLiteral("chat", "fr"), `"chat"@fr`},
		{"variable", Variable("x"), "?x"},
		{"quoted", NewTriple(BlankNode("a"), NamedNode(ex+"p"), BlankNode("b")), "<< _:a <http://example.org/p> _:b >>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.term.String())
		})
	}
}

func TestQuadStatement(t *testing.T) {
	q := NewQuad(BlankNode("a"), NamedNode(ex+"p"), BlankNode("b"), NamedNode(ex+"g"))
	assert.Equal(t, "_:a <http://example.org/p> _:b <http://example.org/g> .", q.Statement())

	q = q.InDefaultGraph()
	assert.Equal(t, "_:a <http://example.org/p> _:b .", q.Statement())
}

func TestFollow(t *testing.T) {
	inner := NewTriple(NamedNode(ex+"s"), NamedNode(ex+"p"), BlankNode("o"))
	outer := NewTriple(inner, NamedNode(ex+"q"), NewLiteral("v", ""))

	got, ok := Follow(outer, Path{Subject, Object})
	require.True(t, ok)
	assert.Equal(t, BlankNode("o"), got)

	got, ok = Follow(outer, Path{Predicate})
	require.True(t, ok)
	assert.Equal(t, NamedNode(ex+"q"), got)

	_, ok = Follow(outer, Path{Object, Subject})
	assert.False(t, ok, "literal has no positions")

	got, ok = Follow(outer, nil)
	require.True(t, ok)
	assert.Equal(t, Term(outer), got)
}

func TestPathAppend_DoesNotAlias(t *testing.T) {
	base := make(Path, 1, 8)
	base[0] = Subject
	a := base.Append(Object)
	b := base.Append(Predicate)

	assert.Equal(t, Path{Subject, Object}, a)
	assert.Equal(t, Path{Subject, Predicate}, b)
	assert.Equal(t, "subject.object", a.String())
}

func TestLeaves_DepthFirst(t *testing.T) {
	inner := NewTriple(BlankNode("s"), NamedNode(ex+"p"), BlankNode("o"))
	outer := NewTriple(inner, NamedNode(ex+"q"), BlankNode("s"))

	leaves := Leaves(outer)
	require.Len(t, leaves, 7)
	assert.Equal(t, Path{Subject, Subject}, leaves[0].Path)
	assert.Equal(t, Path{Subject, Graph}, leaves[3].Path)
	assert.Equal(t, Path{Graph}, leaves[6].Path)

	assert.Equal(t, []BlankNode{"s", "o"}, BlankNodes(outer))
	assert.Equal(t, []Path{{Subject, Subject}, {Object}}, PathsOf(outer, BlankNode("s")))
}

func TestMapLeaves(t *testing.T) {
	inner := NewTriple(Variable("x"), NamedNode(ex+"p"), Variable("y"))
	outer := NewTriple(inner, NamedNode(ex+"q"), Variable("x"))

	got := MapLeaves(outer, func(t Term) Term {
		if v, ok := t.(Variable); ok && v == "x" {
			return BlankNode("bx")
		}
		return t
	})

	want := NewTriple(
		NewTriple(BlankNode("bx"), NamedNode(ex+"p"), Variable("y")),
		NamedNode(ex+"q"),
		BlankNode("bx"),
	)
	assert.Equal(t, want, got)
	assert.False(t, got.IsGround())
	assert.True(t, got.HasQuotedTriple())
}

func TestCompact(t *testing.T) {
	prefixes := DefaultPrefixes()
	prefixes["ex"] = ex

	assert.Equal(t, "rdf:type", Compact(RDFType, prefixes))
	assert.Equal(t, "pvar:self", Compact(PvarSelf, prefixes))
	assert.Equal(t, `"name"^^prec:valueOf`, Compact(NewLiteral("name", PrecValueOf), prefixes))
	assert.Equal(t, "<< pvar:self ex:name _:b >>", Compact(NewTriple(PvarSelf, NamedNode(ex+"name"), BlankNode("b")), prefixes))
	assert.Equal(t, "<http://other.org/x>", Compact(NamedNode("http://other.org/x"), prefixes))
	assert.Equal(t, "<http://example.org/a/b>", Compact(NamedNode(ex+"a/b"), prefixes))
}

func TestExpand(t *testing.T) {
	prefixes := DefaultPrefixes()
	prefixes["ex"] = ex

	tests := []struct {
		name string
		in   Term
		want Term
	}{
		{"prefixed name", NamedNode("ex:Person"), NamedNode(ex + "Person")},
		{"built-in prefix", NamedNode("rdf:type"), RDFType},
		{"full IRI", NamedNode("http://other.org/x"), NamedNode("http://other.org/x")},
		{"unknown prefix", NamedNode("urn:isbn:123"), NamedNode("urn:isbn:123")},
		{"datatype", NewLiteral("name", "prec:valueOf"), NewLiteral("name", PrecValueOf)},
		{"plain literal", NewLiteral("ex:x", ""), NewLiteral("ex:x", "")},
		{"blank node", BlankNode("ex"), BlankNode("ex")},
		{
			"quoted triple",
			NewTriple(NamedNode("pvar:self"), NamedNode("ex:name"), BlankNode("b")),
			NewTriple(PvarSelf, NamedNode(ex+"name"), BlankNode("b")),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expand(tt.in, prefixes))
		})
	}
}

func TestExpandQuads(t *testing.T) {
	prefixes := map[string]string{"ex": ex}
	in := []Quad{NewTriple(NamedNode("ex:r"), NamedNode("ex:p"), NewTriple(BlankNode("s"), NamedNode("ex:q"), NamedNode("ex:o")))}

	out := ExpandQuads(in, prefixes)

	require.Len(t, out, 1)
	assert.Equal(t, NewTriple(NamedNode(ex+"r"), NamedNode(ex+"p"), NewTriple(BlankNode("s"), NamedNode(ex+"q"), NamedNode(ex+"o"))), out[0])
	assert.Equal(t, NamedNode("ex:r"), in[0].Subject, "input is not modified")
}
