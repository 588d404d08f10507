package rdf

import (
	"sort"
	"strings"
)

// Namespaces used by the converter.
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
	PrecNamespace = "http://bruy.at/prec#"
	PvarNamespace = "http://bruy.at/prec-trans#"
	PGONamespace  = "http://ii.uwb.edu.pl/pgo#"
)

const (
	RDFType       NamedNode = RDFNamespace + "type"
	RDFSubject    NamedNode = RDFNamespace + "subject"
	RDFPredicate  NamedNode = RDFNamespace + "predicate"
	RDFObject     NamedNode = RDFNamespace + "object"
	RDFLangString NamedNode = RDFNamespace + "langString"

	XSDString  NamedNode = XSDNamespace + "string"
	XSDInteger NamedNode = XSDNamespace + "integer"
	XSDDouble  NamedNode = XSDNamespace + "double"
	XSDBoolean NamedNode = XSDNamespace + "boolean"
)

// Schema vocabulary.
const (
	PrecNodeRule     NamedNode = PrecNamespace + "NodeRule"
	PrecEdgeRule     NamedNode = PrecNamespace + "EdgeRule"
	PrecLabel        NamedNode = PrecNamespace + "label"
	PrecPropertyName NamedNode = PrecNamespace + "propertyName"
	PrecComposedOf   NamedNode = PrecNamespace + "composedOf"

	// PrecValueOf is the datatype of a literal placeholder whose lexical
	// form names a property.
	PrecValueOf NamedNode = PrecNamespace + "valueOf"

	// Characterization markers.
	PrecLiteralMarker     NamedNode = PrecNamespace + "_Literal"
	PrecPlaceholderMarker NamedNode = PrecNamespace + "_Placeholder"
)

// Template placeholders. PvarNode and PvarEdge are kind-specific aliases of
// PvarSelf.
const (
	PvarSelf        NamedNode = PvarNamespace + "self"
	PvarNode        NamedNode = PvarNamespace + "node"
	PvarEdge        NamedNode = PvarNamespace + "edge"
	PvarSource      NamedNode = PvarNamespace + "source"
	PvarDestination NamedNode = PvarNamespace + "destination"
)

// Property graph ontology classes used by the direct encoding.
const (
	PGONode NamedNode = PGONamespace + "Node"
	PGOEdge NamedNode = PGONamespace + "Edge"
)

// DefaultPrefixes maps the prefixes used in human readable output.
func DefaultPrefixes() map[string]string {
	return map[string]string{
		"rdf":  RDFNamespace,
		"xsd":  XSDNamespace,
		"prec": PrecNamespace,
		"pvar": PvarNamespace,
		"pgo":  PGONamespace,
	}
}

// Compact renders t with IRIs shortened against prefixes. Terms with no
// matching namespace render as in N-Triples.
func Compact(t Term, prefixes map[string]string) string {
	switch t := t.(type) {
	case NamedNode:
		if name, ok := compactIRI(string(t), prefixes); ok {
			return name
		}
	case Literal:
		if t.Datatype != "" && t.Lang == "" {
			if name, ok := compactIRI(string(t.Datatype), prefixes); ok {
				return `"` + escapeLiteral(t.Lexical) + `"^^` + name
			}
		}
	case Quad:
		return "<< " + Compact(t.Subject, prefixes) + " " + Compact(t.Predicate, prefixes) + " " + Compact(t.Object, prefixes) + " >>"
	}
	return t.String()
}

func compactIRI(iri string, prefixes map[string]string) (string, bool) {
	// Longest namespace wins; ties break on prefix name.
	names := make([]string, 0, len(prefixes))
	for name := range prefixes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := prefixes[names[i]], prefixes[names[j]]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		ns := prefixes[name]
		if ns != "" && strings.HasPrefix(iri, ns) {
			local := iri[len(ns):]
			if strings.ContainsAny(local, "/#?") {
				continue
			}
			return name + ":" + local, true
		}
	}
	return "", false
}

// Expand rewrites an IRI written as prefix:local, with prefix a key of
// prefixes, into the full IRI. Literal datatypes are expanded too. Other
// terms are returned unchanged.
func Expand(t Term, prefixes map[string]string) Term {
	switch t := t.(type) {
	case NamedNode:
		if iri, ok := expandIRI(string(t), prefixes); ok {
			return NamedNode(iri)
		}
	case Literal:
		if iri, ok := expandIRI(string(t.Datatype), prefixes); ok {
			t.Datatype = NamedNode(iri)
			return t
		}
	case Quad:
		return MapLeaves(t, func(leaf Term) Term { return Expand(leaf, prefixes) })
	}
	return t
}

// ExpandQuads applies Expand to every term of quads.
func ExpandQuads(quads []Quad, prefixes map[string]string) []Quad {
	out := make([]Quad, len(quads))
	for i, q := range quads {
		out[i] = MapLeaves(q, func(leaf Term) Term { return Expand(leaf, prefixes) })
	}
	return out
}

func expandIRI(iri string, prefixes map[string]string) (string, bool) {
	name, local, ok := strings.Cut(iri, ":")
	if !ok || strings.HasPrefix(local, "//") {
		return "", false
	}
	ns, ok := prefixes[name]
	if !ok || ns == "" {
		return "", false
	}
	return ns + local, true
}
