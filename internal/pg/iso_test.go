package pg

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/pgstar/internal/rdf"
)

func triangle(ids [3]ID) *Graph {
	name := func(s string) Properties { return Properties{"name": rdf.NewLiteral(s, "")} }
	return &Graph{
		Nodes: []Node{
			{ID: ids[0], Labels: []string{"P"}, Properties: name("a")},
			{ID: ids[1], Labels: []string{"P"}, Properties: name("b")},
			{ID: ids[2], Labels: []string{"P"}},
		},
		Edges: []Edge{
			{ID: "x", Labels: []string{"knows"}, Source: ids[0], Destination: ids[1]},
			{ID: "y", Labels: []string{"knows"}, Source: ids[1], Destination: ids[2]},
			{ID: "z", Labels: []string{"knows"}, Source: ids[2], Destination: ids[2]},
		},
	}
}

func TestIsomorphic_Renaming(t *testing.T) {
	a := triangle([3]ID{"1", "2", "3"})
	b := triangle([3]ID{"c", "a", "b"})
	b.Nodes[0], b.Nodes[2] = b.Nodes[2], b.Nodes[0]

	assert.True(t, Isomorphic(a, b))
	assert.True(t, Isomorphic(b, a))
}

func TestIsomorphic_Differences(t *testing.T) {
	base := triangle([3]ID{"1", "2", "3"})

	tests := []struct {
		name   string
		mutate func(g *Graph)
	}{
		{"edge direction", func(g *Graph) { g.Edges[0].Source, g.Edges[0].Destination = g.Edges[0].Destination, g.Edges[0].Source }},
		{"label", func(g *Graph) { g.Nodes[2].Labels = []string{"Q"} }},
		{"property value", func(g *Graph) { g.Nodes[0].Properties = Properties{"name": rdf.NewLiteral("z", "")} }},
		{"property datatype", func(g *Graph) {
			g.Nodes[0].Properties = Properties{"name": rdf.NewLiteral("a", rdf.XSDNamespace+"token")}
		}},
		{"edge removed", func(g *Graph) { g.Edges = g.Edges[:2] }},
		{"edge retargeted", func(g *Graph) { g.Edges[1].Destination = "1" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := triangle([3]ID{"1", "2", "3"})
			tt.mutate(other)
			assert.False(t, Isomorphic(base, other))
		})
	}
}

func TestIsomorphic_ParallelEdgesCount(t *testing.T) {
	one := &Graph{
		Nodes: []Node{{ID: "a"}, {ID: "b"}},
		Edges: []Edge{{ID: "1", Labels: []string{"r"}, Source: "a", Destination: "b"}},
	}
	two := &Graph{
		Nodes: []Node{{ID: "a"}, {ID: "b"}},
		Edges: []Edge{
			{ID: "1", Labels: []string{"r"}, Source: "a", Destination: "b"},
			{ID: "2", Labels: []string{"r"}, Source: "a", Destination: "b"},
		},
	}
	assert.False(t, Isomorphic(one, two))
}

func TestIsomorphic_SymmetricNodes(t *testing.T) {
	// Same signatures everywhere: the search must backtrack.
	g := func(ids ...ID) *Graph {
		return &Graph{
			Nodes: []Node{{ID: ids[0]}, {ID: ids[1]}, {ID: ids[2]}, {ID: ids[3]}},
			Edges: []Edge{
				{ID: "1", Source: ids[0], Destination: ids[1]},
				{ID: "2", Source: ids[1], Destination: ids[2]},
				{ID: "3", Source: ids[2], Destination: ids[3]},
				{ID: "4", Source: ids[3], Destination: ids[0]},
			},
		}
	}
	assert.True(t, Isomorphic(g("a", "b", "c", "d"), g("w", "x", "y", "z")))
	assert.True(t, Isomorphic(g("a", "b", "c", "d"), g("x", "z", "w", "y")))
}
