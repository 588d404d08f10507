package schema

import (
	"fmt"
	"sort"

	"github.com/roach88/pgstar/internal/rdf"
)

// Kind is the kind of property graph element a rule describes.
type Kind uint8

const (
	KindNode Kind = iota
	KindEdge
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindEdge:
		return "edge"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind parses "node" or "edge".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "node":
		return KindNode, nil
	case "edge":
		return KindEdge, nil
	default:
		return 0, fmt.Errorf("unknown element kind %q", s)
	}
}

// UnmarshalText decodes "node" or "edge".
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalText encodes the kind as "node" or "edge".
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// selfAliases returns the placeholders naming the element itself.
func (k Kind) selfAliases() []rdf.NamedNode {
	switch k {
	case KindNode:
		return []rdf.NamedNode{rdf.PvarSelf, rdf.PvarNode}
	case KindEdge:
		return []rdf.NamedNode{rdf.PvarSelf, rdf.PvarEdge}
	default:
		panic("schema: unknown rule kind " + k.String())
	}
}

// Rule describes how one kind of element, identified by its exact label and
// property-name sets, is materialised in RDF.
type Rule struct {
	// ID is the term naming the rule in the context graph.
	ID rdf.Term

	Kind Kind

	// Labels and Properties are sorted and free of duplicates.
	Labels     []string
	Properties []string

	// Template is the ordered, duplicate-free list of template triples.
	Template []rdf.Quad
}

// Name returns a printable identifier for the rule.
func (r *Rule) Name() string {
	return r.ID.String()
}

// HasProperty reports whether name is a declared property.
func (r *Rule) HasProperty(name string) bool {
	i := sort.SearchStrings(r.Properties, name)
	return i < len(r.Properties) && r.Properties[i] == name
}

// Identifies reports whether t carries the element's own identity.
func (r *Rule) Identifies(t rdf.Quad) bool {
	for _, alias := range r.Kind.selfAliases() {
		if rdf.Contains(t, alias) {
			return true
		}
	}
	return false
}

// Schema is the parsed, immutable set of rules of a context graph.
type Schema struct {
	// Rules are sorted by name.
	Rules []*Rule
}

// Rule returns the rule named id, or nil.
func (s *Schema) Rule(id rdf.Term) *Rule {
	for _, r := range s.Rules {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// RulesOf returns the rules of the given kind in schema order.
func (s *Schema) RulesOf(kind Kind) []*Rule {
	var out []*Rule
	for _, r := range s.Rules {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// PlaceholderKind distinguishes the placeholders a template can contain.
type PlaceholderKind uint8

const (
	// PlaceholderSelf is the element identity (pvar:self, pvar:node, pvar:edge).
	PlaceholderSelf PlaceholderKind = iota
	PlaceholderSource
	PlaceholderDestination
	// PlaceholderValue is a literal of datatype prec:valueOf.
	PlaceholderValue
	// PlaceholderBlank is a blank node of the template.
	PlaceholderBlank
)

func (k PlaceholderKind) String() string {
	switch k {
	case PlaceholderSelf:
		return "self"
	case PlaceholderSource:
		return "source"
	case PlaceholderDestination:
		return "destination"
	case PlaceholderValue:
		return "value"
	case PlaceholderBlank:
		return "blank"
	default:
		return fmt.Sprintf("PlaceholderKind(%d)", uint8(k))
	}
}

// Placeholder is a substitutable template term. Name holds the property name
// of a value placeholder and the label of a blank placeholder.
type Placeholder struct {
	Kind PlaceholderKind
	Name string
}

func (p Placeholder) String() string {
	switch p.Kind {
	case PlaceholderValue:
		return "value(" + p.Name + ")"
	case PlaceholderBlank:
		return "_:" + p.Name
	default:
		return p.Kind.String()
	}
}

// PlaceholderOf classifies a template leaf term.
func PlaceholderOf(t rdf.Term) (Placeholder, bool) {
	switch t := t.(type) {
	case rdf.NamedNode:
		switch t {
		case rdf.PvarSelf, rdf.PvarNode, rdf.PvarEdge:
			return Placeholder{Kind: PlaceholderSelf}, true
		case rdf.PvarSource:
			return Placeholder{Kind: PlaceholderSource}, true
		case rdf.PvarDestination:
			return Placeholder{Kind: PlaceholderDestination}, true
		}
	case rdf.Literal:
		if t.Datatype == rdf.PrecValueOf && t.Lang == "" {
			return Placeholder{Kind: PlaceholderValue, Name: t.Lexical}, true
		}
	case rdf.BlankNode:
		return Placeholder{Kind: PlaceholderBlank, Name: string(t)}, true
	}
	return Placeholder{}, false
}

// Placeholders lists the placeholders of t in leaf order, with repeats.
func Placeholders(t rdf.Quad) []Placeholder {
	var out []Placeholder
	for _, leaf := range rdf.Leaves(t) {
		if p, ok := PlaceholderOf(leaf.Term); ok {
			out = append(out, p)
		}
	}
	return out
}

func hasPlaceholder(t rdf.Quad, kind PlaceholderKind) bool {
	for _, p := range Placeholders(t) {
		if p.Kind == kind {
			return true
		}
	}
	return false
}
