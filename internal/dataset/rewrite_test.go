package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pgstar/internal/rdf"
)

func typedDataset() *Dataset {
	return New(
		rdf.NewTriple(iri("s"), iri("b"), iri("c")),
		rdf.NewTriple(iri("s"), rdf.RDFType, iri("typeA")),
	)
}

func TestFindFilterReplace_ConditionHolds(t *testing.T) {
	d := typedDataset()
	a := rdf.Variable("a")

	applied := d.FindFilterReplace(
		[]rdf.Quad{rdf.NewTriple(a, iri("b"), iri("c"))},
		[][]rdf.Quad{{rdf.NewTriple(a, rdf.RDFType, iri("typeA"))}},
		[]rdf.Quad{rdf.NewTriple(a, iri("b"), iri("d"))},
	)

	require.Len(t, applied, 1)
	assert.Equal(t, 2, d.Len())
	assert.True(t, d.Has(rdf.NewTriple(iri("s"), iri("b"), iri("d"))))
	assert.True(t, d.Has(rdf.NewTriple(iri("s"), rdf.RDFType, iri("typeA"))))
	assert.False(t, d.Has(rdf.NewTriple(iri("s"), iri("b"), iri("c"))))
}

func TestFindFilterReplace_ConditionFailsIsNoop(t *testing.T) {
	d := typedDataset()
	d.Add(rdf.NewTriple(iri("t"), iri("b"), iri("c")))
	before := d.Quads()
	a := rdf.Variable("a")

	applied := d.FindFilterReplace(
		[]rdf.Quad{rdf.NewTriple(a, iri("b"), iri("c"))},
		[][]rdf.Quad{{rdf.NewTriple(a, rdf.RDFType, iri("typeB"))}},
		[]rdf.Quad{rdf.NewTriple(a, iri("b"), iri("d"))},
	)

	assert.Empty(t, applied)
	assert.Equal(t, 3, d.Len())
	assert.Equal(t, before, d.Quads())
}

func TestFindFilterReplace_UnboundDestinationVariablePassesThrough(t *testing.T) {
	d := New(rdf.NewTriple(iri("s"), iri("p"), iri("o")))
	s := rdf.Variable("s")

	d.FindFilterReplace(
		[]rdf.Quad{rdf.NewTriple(s, iri("p"), iri("o"))},
		nil,
		[]rdf.Quad{rdf.NewTriple(s, iri("p"), rdf.Variable("fresh"))},
	)

	assert.Equal(t, []rdf.Quad{rdf.NewTriple(iri("s"), iri("p"), rdf.Variable("fresh"))}, d.Quads())
}

func TestFindFilterReplace_IndependentConditionGroups(t *testing.T) {
	d := New(
		rdf.NewTriple(iri("x"), iri("p"), iri("o")),
		rdf.NewTriple(iri("x"), iri("label"), rdf.NewLiteral("L", "")),
		rdf.NewTriple(iri("y"), iri("flag"), iri("on")),
	)
	x := rdf.Variable("x")

	applied := d.FindFilterReplace(
		[]rdf.Quad{rdf.NewTriple(x, iri("p"), iri("o"))},
		[][]rdf.Quad{
			{rdf.NewTriple(x, iri("label"), rdf.Variable("l"))},
			{rdf.NewTriple(rdf.Variable("l"), iri("flag"), iri("on"))},
		},
		[]rdf.Quad{rdf.NewTriple(x, iri("p"), iri("rewritten"))},
	)

	require.Len(t, applied, 1, "?l is local to each group")
	assert.True(t, d.Has(rdf.NewTriple(iri("x"), iri("p"), iri("rewritten"))))
}

func TestFindFilterReplace_TransitiveClosure(t *testing.T) {
	link := iri("link")
	d := New(
		rdf.NewTriple(iri("a"), link, iri("b")),
		rdf.NewTriple(iri("b"), link, iri("c")),
		rdf.NewTriple(iri("c"), link, iri("d")),
	)
	r, m, u := rdf.Variable("r"), rdf.Variable("m"), rdf.Variable("u")
	source := []rdf.Quad{rdf.NewTriple(r, link, m), rdf.NewTriple(m, link, u)}
	destination := []rdf.Quad{source[0], source[1], rdf.NewTriple(r, link, u)}

	for {
		before := d.Len()
		d.FindFilterReplace(source, nil, destination)
		if d.Len() == before {
			break
		}
	}

	assert.Equal(t, 6, d.Len())
	assert.True(t, d.Has(rdf.NewTriple(iri("a"), link, iri("d"))))
}

func TestFindFilterReplace_StarQuads(t *testing.T) {
	inner := rdf.NewTriple(iri("s"), iri("p"), iri("o"))
	d := New(rdf.NewTriple(inner, iri("certainty"), rdf.NewLiteral("0.5", rdf.XSDDouble)))
	x, v := rdf.Variable("x"), rdf.Variable("v")

	applied := d.FindFilterReplace(
		[]rdf.Quad{rdf.NewTriple(rdf.NewTriple(x, iri("p"), iri("o")), iri("certainty"), v)},
		nil,
		[]rdf.Quad{rdf.NewTriple(x, iri("certainty"), v)},
	)

	require.Len(t, applied, 1)
	assert.Equal(t, []rdf.Quad{rdf.NewTriple(iri("s"), iri("certainty"), rdf.NewLiteral("0.5", rdf.XSDDouble))}, d.Quads())
}
