package pg

import (
	"sort"
	"strings"
)

// Isomorphic reports whether a and b are the same property graph up to
// element identifiers. Parallel edges count with multiplicity.
func Isomorphic(a, b *Graph) bool {
	if len(a.Nodes) != len(b.Nodes) || len(a.Edges) != len(b.Edges) {
		return false
	}
	sigA, sigB := nodeSignatures(a), nodeSignatures(b)

	identity := make(map[ID]ID, len(b.Nodes))
	for _, n := range b.Nodes {
		identity[n.ID] = n.ID
	}
	want := edgeMultiset(b, identity)

	candidates := make([][]ID, len(a.Nodes))
	for i, n := range a.Nodes {
		for _, m := range b.Nodes {
			if sigA[n.ID] == sigB[m.ID] {
				candidates[i] = append(candidates[i], m.ID)
			}
		}
		if len(candidates[i]) == 0 {
			return false
		}
	}

	mapping := make(map[ID]ID, len(a.Nodes))
	used := make(map[ID]bool, len(b.Nodes))
	var try func(i int) bool
	try = func(i int) bool {
		if i == len(a.Nodes) {
			return sameMultiset(edgeMultiset(a, mapping), want)
		}
		for _, c := range candidates[i] {
			if used[c] {
				continue
			}
			used[c] = true
			mapping[a.Nodes[i].ID] = c
			if try(i + 1) {
				return true
			}
			used[c] = false
		}
		delete(mapping, a.Nodes[i].ID)
		return false
	}
	return try(0)
}

func elementKey(labels []string, props Properties) string {
	sorted := append([]string(nil), labels...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",") + props.Canonical()
}

// nodeSignatures summarizes each node with its own content and the content
// of its incident edges, which is invariant under renaming.
func nodeSignatures(g *Graph) map[ID]string {
	incident := make(map[ID][]string, len(g.Nodes))
	for _, e := range g.Edges {
		key := elementKey(e.Labels, e.Properties)
		if e.Source == e.Destination {
			incident[e.Source] = append(incident[e.Source], "loop:"+key)
			continue
		}
		incident[e.Source] = append(incident[e.Source], "out:"+key)
		incident[e.Destination] = append(incident[e.Destination], "in:"+key)
	}
	out := make(map[ID]string, len(g.Nodes))
	for _, n := range g.Nodes {
		edges := incident[n.ID]
		sort.Strings(edges)
		out[n.ID] = elementKey(n.Labels, n.Properties) + "|" + strings.Join(edges, ";")
	}
	return out
}

func edgeMultiset(g *Graph, mapping map[ID]ID) map[string]int {
	out := make(map[string]int, len(g.Edges))
	for _, e := range g.Edges {
		key := string(mapping[e.Source]) + "\x00" + string(mapping[e.Destination]) + "\x00" + elementKey(e.Labels, e.Properties)
		out[key]++
	}
	return out
}

func sameMultiset(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, n := range a {
		if b[k] != n {
			return false
		}
	}
	return true
}
