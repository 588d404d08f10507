package codec

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/piprate/json-gold/ld"

	"github.com/roach88/pgstar/internal/rdf"
)

const defaultGraphName = "@default"

// ReadJSONLD expands a JSON-LD document into quads. Graphs come out in name
// order, the default graph first.
func ReadJSONLD(r io.Reader) ([]rdf.Quad, error) {
	var doc any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("jsonld: %w", err)
	}

	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")
	res, err := proc.ToRDF(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("jsonld: %w", err)
	}
	dataset, ok := res.(*ld.RDFDataset)
	if !ok {
		return nil, fmt.Errorf("jsonld: unexpected result %T", res)
	}

	names := make([]string, 0, len(dataset.Graphs))
	for name := range dataset.Graphs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i] == defaultGraphName || names[j] == defaultGraphName {
			return names[i] == defaultGraphName && names[j] != defaultGraphName
		}
		return names[i] < names[j]
	})

	var out []rdf.Quad
	for _, name := range names {
		graph := graphTerm(name)
		for _, q := range dataset.Graphs[name] {
			s, err := fromLD(q.Subject)
			if err != nil {
				return nil, err
			}
			p, err := fromLD(q.Predicate)
			if err != nil {
				return nil, err
			}
			o, err := fromLD(q.Object)
			if err != nil {
				return nil, err
			}
			out = append(out, rdf.NewQuad(s, p, o, graph))
		}
	}
	return out, nil
}

func graphTerm(name string) rdf.Term {
	switch {
	case name == defaultGraphName || name == "":
		return rdf.DefaultGraph{}
	case strings.HasPrefix(name, "_:"):
		return rdf.BlankNode(strings.TrimPrefix(name, "_:"))
	default:
		return rdf.NamedNode(name)
	}
}

func fromLD(n ld.Node) (rdf.Term, error) {
	switch n := n.(type) {
	case *ld.IRI:
		return rdf.NamedNode(n.Value), nil
	case *ld.BlankNode:
		return rdf.BlankNode(strings.TrimPrefix(n.Attribute, "_:")), nil
	case *ld.Literal:
		if n.Language != "" {
			return rdf.NewLangLiteral(n.Value, n.Language), nil
		}
		return rdf.NewLiteral(n.Value, rdf.NamedNode(n.Datatype)), nil
	default:
		return nil, fmt.Errorf("jsonld: unsupported node %T", n)
	}
}

func toLD(t rdf.Term) (ld.Node, error) {
	switch t := t.(type) {
	case rdf.NamedNode:
		return ld.NewIRI(string(t)), nil
	case rdf.BlankNode:
		return ld.NewBlankNode("_:" + string(t)), nil
	case rdf.Literal:
		if t.Lang != "" {
			return ld.NewLiteral(t.Lexical, ld.RDFLangString, t.Lang), nil
		}
		return ld.NewLiteral(t.Lexical, string(t.DatatypeIRI()), ""), nil
	case rdf.Quad:
		return nil, fmt.Errorf("jsonld: quoted triple %s has no JSON-LD form", t)
	default:
		return nil, fmt.Errorf("jsonld: cannot write %s", t)
	}
}

// WriteJSONLD writes quads as expanded JSON-LD. Quads with quoted triples
// are rejected.
func WriteJSONLD(w io.Writer, quads []rdf.Quad) error {
	dataset := ld.NewRDFDataset()
	for _, q := range quads {
		s, err := toLD(q.Subject)
		if err != nil {
			return err
		}
		p, err := toLD(q.Predicate)
		if err != nil {
			return err
		}
		o, err := toLD(q.Object)
		if err != nil {
			return err
		}
		name := defaultGraphName
		switch g := q.Graph.(type) {
		case rdf.NamedNode:
			name = string(g)
		case rdf.BlankNode:
			name = "_:" + string(g)
		}
		dataset.Graphs[name] = append(dataset.Graphs[name], ld.NewQuad(s, p, o, name))
	}

	opts := ld.NewJsonLdOptions("")
	doc, err := ld.NewJsonLdApi().FromRDF(dataset, opts)
	if err != nil {
		return fmt.Errorf("jsonld: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
