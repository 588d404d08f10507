package rdf

import "strings"

// Position is one of the four slots of a quad.
type Position uint8

const (
	Subject Position = iota
	Predicate
	Object
	Graph
)

// Positions lists every position in canonical order.
var Positions = [4]Position{Subject, Predicate, Object, Graph}

func (p Position) String() string {
	switch p {
	case Subject:
		return "subject"
	case Predicate:
		return "predicate"
	case Object:
		return "object"
	case Graph:
		return "graph"
	default:
		return "invalid"
	}
}

// Path locates a term inside nested quads, outermost position first.
type Path []Position

// Append returns a new path extended with pos. The receiver is not modified.
func (p Path) Append(pos Position) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = pos
	return out
}

// Equal reports whether both paths name the same location.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, pos := range p {
		parts[i] = pos.String()
	}
	return strings.Join(parts, ".")
}

// Follow walks path from t. It fails when an intermediate term is not a quad.
func Follow(t Term, path Path) (Term, bool) {
	for _, pos := range path {
		q, ok := t.(Quad)
		if !ok {
			return nil, false
		}
		t = q.At(pos)
	}
	return t, true
}

// PathsOf returns every path at which target occurs in q.
func PathsOf(q Quad, target Term) []Path {
	var paths []Path
	for _, leaf := range Leaves(q) {
		if leaf.Term == target {
			paths = append(paths, leaf.Path)
		}
	}
	return paths
}
