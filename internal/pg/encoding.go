package pg

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/roach88/pgstar/internal/dataset"
	"github.com/roach88/pgstar/internal/rdf"
)

// Namespaces of the direct encoding.
const (
	LabelNamespace    = "http://bruy.at/prec/label/"
	PropertyNamespace = "http://bruy.at/prec/property/"
)

// LabelIRI returns the IRI standing for a label.
func LabelIRI(label string) rdf.NamedNode {
	return rdf.NamedNode(LabelNamespace + url.PathEscape(label))
}

// PropertyIRI returns the IRI standing for a property key.
func PropertyIRI(key string) rdf.NamedNode {
	return rdf.NamedNode(PropertyNamespace + url.PathEscape(key))
}

func localName(iri rdf.NamedNode, namespace string) (string, bool) {
	s := string(iri)
	if !strings.HasPrefix(s, namespace) {
		return "", false
	}
	name, err := url.PathUnescape(s[len(namespace):])
	if err != nil {
		return "", false
	}
	return name, true
}

// BlankNodeFor returns the blank node standing for an element id in the
// direct encoding.
func BlankNodeFor(id ID) rdf.BlankNode {
	s := string(id)
	valid := s != ""
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			valid = false
			break
		}
	}
	if valid {
		return rdf.BlankNode(s)
	}
	return rdf.BlankNode(fmt.Sprintf("x%x", s))
}

// ToQuads encodes g with the property graph ontology: each element is a blank
// node typed pgo:Node or pgo:Edge, labels are rdf:type (nodes) or
// rdf:predicate (edges) links to label IRIs, and endpoints are rdf:subject and
// rdf:object.
func ToQuads(g *Graph) []rdf.Quad {
	var out []rdf.Quad
	for _, n := range g.Nodes {
		self := BlankNodeFor(n.ID)
		out = append(out, rdf.NewTriple(self, rdf.RDFType, rdf.PGONode))
		for _, l := range n.Labels {
			out = append(out, rdf.NewTriple(self, rdf.RDFType, LabelIRI(l)))
		}
		out = append(out, propertyQuads(self, n.Properties)...)
	}
	for i, e := range g.Edges {
		id := e.ID
		if id == "" {
			id = ID(fmt.Sprintf("e%d", i))
		}
		self := BlankNodeFor("edge-" + id)
		out = append(out,
			rdf.NewTriple(self, rdf.RDFType, rdf.PGOEdge),
			rdf.NewTriple(self, rdf.RDFSubject, BlankNodeFor(e.Source)),
		)
		for _, l := range e.Labels {
			out = append(out, rdf.NewTriple(self, rdf.RDFPredicate, LabelIRI(l)))
		}
		out = append(out, rdf.NewTriple(self, rdf.RDFObject, BlankNodeFor(e.Destination)))
		out = append(out, propertyQuads(self, e.Properties)...)
	}
	return out
}

func propertyQuads(self rdf.Term, props Properties) []rdf.Quad {
	out := make([]rdf.Quad, 0, len(props))
	for _, k := range props.Names() {
		out = append(out, rdf.NewTriple(self, PropertyIRI(k), props[k]))
	}
	return out
}

var (
	varElement = rdf.Variable("element")
	varSource  = rdf.Variable("source")
	varDest    = rdf.Variable("destination")
	varLink    = rdf.Variable("link")
	varValue   = rdf.Variable("value")
)

// FromQuads decodes the encoding produced by ToQuads.
func FromQuads(ds *dataset.Dataset) (*Graph, error) {
	g := &Graph{Nodes: []Node{}, Edges: []Edge{}}

	for _, m := range ds.MatchPattern(rdf.NewTriple(varElement, rdf.RDFType, rdf.PGONode)) {
		self := m.Vars[string(varElement)]
		props, err := propertiesOf(ds, self)
		if err != nil {
			return nil, err
		}
		g.Nodes = append(g.Nodes, Node{
			ID:         idOf(self),
			Labels:     labelsOf(ds, self, rdf.RDFType),
			Properties: props,
		})
	}

	edges := ds.MatchAndBind([]rdf.Quad{
		rdf.NewTriple(varElement, rdf.RDFType, rdf.PGOEdge),
		rdf.NewTriple(varElement, rdf.RDFSubject, varSource),
		rdf.NewTriple(varElement, rdf.RDFObject, varDest),
	})
	for _, b := range edges {
		self := b.Vars[string(varElement)]
		props, err := propertiesOf(ds, self)
		if err != nil {
			return nil, err
		}
		g.Edges = append(g.Edges, Edge{
			ID:          idOf(self),
			Labels:      labelsOf(ds, self, rdf.RDFPredicate),
			Properties:  props,
			Source:      idOf(b.Vars[string(varSource)]),
			Destination: idOf(b.Vars[string(varDest)]),
		})
	}
	return g, nil
}

func idOf(t rdf.Term) ID {
	switch t := t.(type) {
	case rdf.BlankNode:
		return ID(t)
	case rdf.NamedNode:
		return ID(t)
	default:
		return ID(t.String())
	}
}

func labelsOf(ds *dataset.Dataset, self rdf.Term, predicate rdf.NamedNode) []string {
	labels := []string{}
	for _, m := range ds.MatchPattern(rdf.NewTriple(self, predicate, varLink)) {
		iri, ok := m.Vars[string(varLink)].(rdf.NamedNode)
		if !ok {
			continue
		}
		if l, ok := localName(iri, LabelNamespace); ok {
			labels = append(labels, l)
		}
	}
	sort.Strings(labels)
	return labels
}

func propertiesOf(ds *dataset.Dataset, self rdf.Term) (Properties, error) {
	props := Properties{}
	for _, m := range ds.MatchPattern(rdf.NewTriple(self, varLink, varValue)) {
		iri, ok := m.Vars[string(varLink)].(rdf.NamedNode)
		if !ok {
			continue
		}
		key, ok := localName(iri, PropertyNamespace)
		if !ok {
			continue
		}
		lit, ok := m.Vars[string(varValue)].(rdf.Literal)
		if !ok {
			return nil, fmt.Errorf("property %q of %s is not a literal", key, self)
		}
		if _, dup := props[key]; dup {
			return nil, fmt.Errorf("property %q of %s has several values", key, self)
		}
		props[key] = lit
	}
	return props, nil
}
