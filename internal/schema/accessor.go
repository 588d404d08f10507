package schema

import (
	"github.com/roach88/pgstar/internal/rdf"
)

// Slot is a placeholder together with where it sits in a template triple.
type Slot struct {
	Placeholder Placeholder
	Path        rdf.Path
}

// Accessor reads placeholder values back out of data triples produced from
// one template triple.
type Accessor struct {
	Rule             *Rule
	Template         rdf.Quad
	Characterization rdf.Quad
	Slots            []Slot

	// fixed holds the constant literals of the template. Characterization
	// erases them, so they are checked separately.
	fixed []rdf.Leaf
}

// Extraction maps each placeholder of an accessor to the data term found at
// its path.
type Extraction map[Placeholder]rdf.Term

// Self returns the extracted element identity.
func (e Extraction) Self() (rdf.Term, bool) {
	t, ok := e[Placeholder{Kind: PlaceholderSelf}]
	return t, ok
}

// Accessors builds one accessor per characterization-distinct template triple
// of rule. The first triple of each characterization is used.
func Accessors(rule *Rule) []Accessor {
	seen := make(map[rdf.Quad]bool)
	var out []Accessor
	for _, t := range rule.Template {
		c := Characterize(t)
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, newAccessor(rule, t, c))
	}
	return out
}

func newAccessor(rule *Rule, t, c rdf.Quad) Accessor {
	a := Accessor{Rule: rule, Template: t, Characterization: c}
	for _, leaf := range rdf.Leaves(t) {
		if p, ok := PlaceholderOf(leaf.Term); ok {
			a.Slots = append(a.Slots, Slot{Placeholder: p, Path: leaf.Path})
			continue
		}
		if _, ok := leaf.Term.(rdf.Literal); ok {
			a.fixed = append(a.fixed, leaf)
		}
	}
	return a
}

// Extract reads the placeholder values of q. It fails when q does not have
// the accessor's shape, when a constant literal differs, or when a
// placeholder repeated in the template meets different terms.
func (a Accessor) Extract(q rdf.Quad) (Extraction, bool) {
	if Characterize(q) != a.Characterization {
		return nil, false
	}
	for _, leaf := range a.fixed {
		t, ok := rdf.Follow(q, leaf.Path)
		if !ok || t != leaf.Term {
			return nil, false
		}
	}
	values := make(Extraction, len(a.Slots))
	for _, s := range a.Slots {
		t, ok := rdf.Follow(q, s.Path)
		if !ok {
			return nil, false
		}
		if prev, seen := values[s.Placeholder]; seen && prev != t {
			return nil, false
		}
		values[s.Placeholder] = t
	}
	return values, true
}

// Pattern turns the accessor's template triple into a match pattern. Each
// placeholder becomes a variable named after it, so repeated placeholders
// must match equal terms. Matches still need Extract to confirm the shape.
func (a Accessor) Pattern() rdf.Quad {
	return rdf.MapLeaves(a.Template, func(t rdf.Term) rdf.Term {
		if p, ok := PlaceholderOf(t); ok {
			return rdf.Variable(p.String())
		}
		return t
	})
}
