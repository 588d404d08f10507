package dataset

import (
	"github.com/roach88/pgstar/internal/rdf"
)

// Match is one way a single pattern matches a quad of the dataset.
type Match struct {
	// Vars maps variable names to the terms they matched.
	Vars map[string]rdf.Term

	// Quad is the dataset quad that was matched.
	Quad rdf.Quad
}

// Binding is a solution of a conjunction of patterns.
type Binding struct {
	Vars map[string]rdf.Term

	// Quads holds the matched quad of each pattern, in pattern order.
	Quads []rdf.Quad
}

// occurrence records that variable name appears at path.
type occurrence struct {
	name string
	path rdf.Path
}

// constraint requires the term at path to equal term.
type constraint struct {
	path rdf.Path
	term rdf.Term
}

// plan is a pattern split into an index shape for its top-level concrete
// terms, the variables it binds, and the concrete terms found inside
// quoted-triple positions.
type plan struct {
	shape       [4]rdf.Term
	vars        []occurrence
	constraints []constraint
	nested      bool
}

func compile(pattern rdf.Quad) plan {
	var p plan
	for _, pos := range rdf.Positions {
		path := rdf.Path{pos}
		switch t := pattern.At(pos).(type) {
		case rdf.Variable:
			p.vars = append(p.vars, occurrence{name: string(t), path: path})
		case rdf.Quad:
			p.nested = true
			vars, constraints := decompose(t, path)
			p.vars = append(p.vars, vars...)
			p.constraints = append(p.constraints, constraints...)
		case nil:
			p.shape[pos] = rdf.DefaultGraph{}
		default:
			p.shape[pos] = t
		}
	}
	return p
}

// decompose lists the variables and concrete terms of a quoted-triple pattern
// located at prefix.
func decompose(q rdf.Quad, prefix rdf.Path) ([]occurrence, []constraint) {
	var vars []occurrence
	var constraints []constraint
	for _, pos := range rdf.Positions {
		path := prefix.Append(pos)
		switch t := q.At(pos).(type) {
		case rdf.Variable:
			vars = append(vars, occurrence{name: string(t), path: path})
		case rdf.Quad:
			v, c := decompose(t, path)
			vars = append(vars, v...)
			constraints = append(constraints, c...)
		default:
			constraints = append(constraints, constraint{path: path, term: t})
		}
	}
	return vars, constraints
}

// bind checks q against the plan's nested constraints and variable
// occurrences. A variable seen twice must match equal terms.
func (p plan) bind(q rdf.Quad) (map[string]rdf.Term, bool) {
	for _, c := range p.constraints {
		t, ok := rdf.Follow(q, c.path)
		if !ok || t != c.term {
			return nil, false
		}
	}
	vars := make(map[string]rdf.Term, len(p.vars))
	for _, o := range p.vars {
		t, ok := rdf.Follow(q, o.path)
		if !ok {
			return nil, false
		}
		if prev, seen := vars[o.name]; seen && prev != t {
			return nil, false
		}
		vars[o.name] = t
	}
	return vars, true
}

// MatchPattern returns every quad matching pattern, with the variable
// assignments that make pattern equal to it.
//
// Results from the indexed partition come first in insertion order, followed
// by matches from quads containing quoted triples. A pattern with a quoted
// triple anywhere cannot match a plain quad, so the indexed partition is
// skipped for it.
func (d *Dataset) MatchPattern(pattern rdf.Quad) []Match {
	p := compile(pattern)

	var candidates []rdf.Quad
	if !p.nested {
		candidates = d.lookup(p.shape)
	}
	for _, q := range d.star {
		if fitsShape(q, p.shape) {
			candidates = append(candidates, q)
		}
	}

	var matches []Match
	for _, q := range candidates {
		if vars, ok := p.bind(q); ok {
			matches = append(matches, Match{Vars: vars, Quad: q})
		}
	}
	return matches
}

// MatchAndBind solves a conjunction of patterns by a left-to-right nested
// loop join. Each pattern is specialised with the bindings accumulated so
// far before it is matched.
//
// An empty pattern list yields exactly one empty binding.
func (d *Dataset) MatchAndBind(patterns []rdf.Quad) []Binding {
	bindings := []Binding{{Vars: map[string]rdf.Term{}}}
	for _, pattern := range patterns {
		var next []Binding
		for _, b := range bindings {
			for _, m := range d.MatchPattern(Substitute(pattern, b.Vars)) {
				next = append(next, b.extend(m))
			}
		}
		bindings = next
		if len(bindings) == 0 {
			return nil
		}
	}
	return bindings
}

// Get returns the term bound to the variable name.
func (b Binding) Get(name string) (rdf.Term, bool) {
	t, ok := b.Vars[name]
	return t, ok
}

func (b Binding) extend(m Match) Binding {
	vars := make(map[string]rdf.Term, len(b.Vars)+len(m.Vars))
	for k, v := range b.Vars {
		vars[k] = v
	}
	for k, v := range m.Vars {
		vars[k] = v
	}
	quads := make([]rdf.Quad, len(b.Quads), len(b.Quads)+1)
	copy(quads, b.Quads)
	return Binding{Vars: vars, Quads: append(quads, m.Quad)}
}

// Substitute replaces bound variables in q. Unbound variables are kept.
func Substitute(q rdf.Quad, vars map[string]rdf.Term) rdf.Quad {
	if len(vars) == 0 {
		return q
	}
	return rdf.MapLeaves(q, func(t rdf.Term) rdf.Term {
		if v, ok := t.(rdf.Variable); ok {
			if bound, ok := vars[string(v)]; ok {
				return bound
			}
		}
		return t
	})
}
