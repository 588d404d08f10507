package rdf

import "strings"

// Quad is a statement with four positions. A Quad is itself a Term: when it
// appears inside another quad it is a quoted triple, and its Graph is always
// DefaultGraph.
type Quad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

func (Quad) term()          {}
func (Quad) Kind() TermKind { return KindQuad }

// String renders the quad as a quoted triple term.
func (q Quad) String() string {
	return "<< " + q.Subject.String() + " " + q.Predicate.String() + " " + q.Object.String() + " >>"
}

// Statement renders the quad as an N-Quads-star statement without the
// trailing newline.
func (q Quad) Statement() string {
	var b strings.Builder
	b.WriteString(q.Subject.String())
	b.WriteByte(' ')
	b.WriteString(q.Predicate.String())
	b.WriteByte(' ')
	b.WriteString(q.Object.String())
	if _, ok := q.Graph.(DefaultGraph); !ok && q.Graph != nil {
		b.WriteByte(' ')
		b.WriteString(q.Graph.String())
	}
	b.WriteString(" .")
	return b.String()
}

// NewTriple builds a quad in the default graph.
func NewTriple(s, p, o Term) Quad {
	return Quad{Subject: s, Predicate: p, Object: o, Graph: DefaultGraph{}}
}

// NewQuad builds a quad. A nil graph means the default graph.
func NewQuad(s, p, o, g Term) Quad {
	if g == nil {
		g = DefaultGraph{}
	}
	return Quad{Subject: s, Predicate: p, Object: o, Graph: g}
}

// At returns the term in the given position.
func (q Quad) At(pos Position) Term {
	switch pos {
	case Subject:
		return q.Subject
	case Predicate:
		return q.Predicate
	case Object:
		return q.Object
	case Graph:
		return q.Graph
	default:
		panic("rdf: invalid position " + pos.String())
	}
}

// With returns a copy of q with the term in pos replaced.
func (q Quad) With(pos Position, t Term) Quad {
	switch pos {
	case Subject:
		q.Subject = t
	case Predicate:
		q.Predicate = t
	case Object:
		q.Object = t
	case Graph:
		q.Graph = t
	default:
		panic("rdf: invalid position " + pos.String())
	}
	return q
}

// InDefaultGraph returns q moved to the default graph.
func (q Quad) InDefaultGraph() Quad {
	q.Graph = DefaultGraph{}
	return q
}

// HasQuotedTriple reports whether any position of q holds a quad.
func (q Quad) HasQuotedTriple() bool {
	for _, pos := range Positions {
		if _, ok := q.At(pos).(Quad); ok {
			return true
		}
	}
	return false
}

// IsGround reports whether q contains no variables at any depth.
func (q Quad) IsGround() bool {
	return IsGround(q)
}

// MapLeaves rebuilds q by applying fn to every non-quad term, recursing into
// quoted triples.
func MapLeaves(q Quad, fn func(Term) Term) Quad {
	var out Quad
	for _, pos := range Positions {
		t := q.At(pos)
		if nested, ok := t.(Quad); ok {
			out = out.With(pos, MapLeaves(nested, fn))
			continue
		}
		out = out.With(pos, fn(t))
	}
	return out
}

// Leaf is a non-quad term together with its location in a quad.
type Leaf struct {
	Path Path
	Term Term
}

// Leaves lists every non-quad term of q in depth-first position order.
func Leaves(q Quad) []Leaf {
	return leavesUnder(q, nil)
}

func leavesUnder(q Quad, prefix Path) []Leaf {
	var leaves []Leaf
	for _, pos := range Positions {
		path := prefix.Append(pos)
		if nested, ok := q.At(pos).(Quad); ok {
			leaves = append(leaves, leavesUnder(nested, path)...)
			continue
		}
		leaves = append(leaves, Leaf{Path: path, Term: q.At(pos)})
	}
	return leaves
}

// BlankNodes returns the distinct blank nodes of q in order of appearance.
func BlankNodes(q Quad) []BlankNode {
	var out []BlankNode
	for _, leaf := range Leaves(q) {
		b, ok := leaf.Term.(BlankNode)
		if !ok {
			continue
		}
		seen := false
		for _, existing := range out {
			if existing == b {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, b)
		}
	}
	return out
}

// Contains reports whether t occurs anywhere in q.
func Contains(q Quad, t Term) bool {
	for _, leaf := range Leaves(q) {
		if leaf.Term == t {
			return true
		}
	}
	return false
}
