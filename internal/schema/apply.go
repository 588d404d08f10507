package schema

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/roach88/pgstar/internal/dataset"
	"github.com/roach88/pgstar/internal/pg"
	"github.com/roach88/pgstar/internal/rdf"
)

// Assignment records which rule converted an element and how many template
// triples it wrote or claimed.
type Assignment struct {
	Element string `json:"element"`
	Kind    Kind   `json:"kind"`
	Rule    string `json:"rule"`
	Quads   int    `json:"quads"`
}

// ApplyOption configures Apply.
type ApplyOption func(*applyConfig)

type applyConfig struct {
	bnodes BlankNodeFactory
}

// WithBlankNodes sets the factory minting element identities and template
// blank nodes.
func WithBlankNodes(f BlankNodeFactory) ApplyOption {
	return func(c *applyConfig) {
		c.bnodes = f
	}
}

// Select returns the only rule of kind whose label set and property-name set
// equal the given ones.
func (s *Schema) Select(kind Kind, labels, properties []string) (*Rule, error) {
	labels, properties = sortedSet(labels), sortedSet(properties)

	var found []*Rule
	for _, r := range s.Rules {
		if r.Kind == kind && slices.Equal(r.Labels, labels) && slices.Equal(r.Properties, properties) {
			found = append(found, r)
		}
	}

	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		msg := fmt.Sprintf("no %s rule for labels %v and properties %v", kind, labels, properties)
		if closest := s.closest(kind, labels, properties); closest != nil {
			msg += fmt.Sprintf("; closest is %s with labels %v and properties %v", closest.Name(), closest.Labels, closest.Properties)
		}
		return nil, &ConversionError{Code: ErrCodeNoRule, Message: msg}
	default:
		names := make([]string, len(found))
		for i, r := range found {
			names[i] = r.Name()
		}
		return nil, &ConversionError{
			Code:    ErrCodeAmbiguousRule,
			Message: fmt.Sprintf("%d %s rules match labels %v and properties %v: %s", len(found), kind, labels, properties, strings.Join(names, ", ")),
		}
	}
}

// closest finds the rule of kind with the smallest edit distance between its
// label and property lists and the given ones.
func (s *Schema) closest(kind Kind, labels, properties []string) *Rule {
	want := strings.Join(labels, ",") + "|" + strings.Join(properties, ",")
	var best *Rule
	bestDistance := 0
	for _, r := range s.RulesOf(kind) {
		d := levenshtein.Distance(want, strings.Join(r.Labels, ",")+"|"+strings.Join(r.Properties, ","), nil)
		if best == nil || d < bestDistance {
			best, bestDistance = r, d
		}
	}
	return best
}

func sortedSet(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// Apply converts a property graph to RDF with the rules of s.
//
// Every node and every edge gets a fresh blank node as identity and is
// materialised with the rule selected for its labels and property names. The
// first failure aborts the conversion.
func Apply(s *Schema, g *pg.Graph, opts ...ApplyOption) (*dataset.Dataset, []Assignment, error) {
	cfg := applyConfig{bnodes: NewCounterBlankNodes("b")}
	for _, opt := range opts {
		opt(&cfg)
	}

	out := dataset.New()
	var assignments []Assignment
	identities := make(map[pg.ID]rdf.BlankNode, len(g.Nodes))

	for _, n := range g.Nodes {
		rule, err := s.Select(KindNode, n.Labels, n.PropertyNames())
		if err != nil {
			return nil, nil, withElement(err, string(n.ID))
		}
		self := cfg.bnodes.Next()
		identities[n.ID] = self

		written, err := rule.Produce(out, Instance{Self: self, Properties: n.Properties}, cfg.bnodes)
		if err != nil {
			return nil, nil, withElement(err, string(n.ID))
		}
		slog.Debug("applied rule", "element", n.ID, "kind", KindNode, "rule", rule.Name())
		assignments = append(assignments, Assignment{Element: string(n.ID), Kind: KindNode, Rule: rule.Name(), Quads: written})
	}

	for _, e := range g.Edges {
		src, ok := identities[e.Source]
		if !ok {
			return nil, nil, NewConversionError(ErrCodeDanglingEndpoint, string(e.ID), "", "source %q is not a node", e.Source)
		}
		dst, ok := identities[e.Destination]
		if !ok {
			return nil, nil, NewConversionError(ErrCodeDanglingEndpoint, string(e.ID), "", "destination %q is not a node", e.Destination)
		}
		rule, err := s.Select(KindEdge, e.Labels, e.PropertyNames())
		if err != nil {
			return nil, nil, withElement(err, string(e.ID))
		}

		inst := Instance{Self: cfg.bnodes.Next(), Properties: e.Properties, Source: src, Destination: dst}
		written, err := rule.Produce(out, inst, cfg.bnodes)
		if err != nil {
			return nil, nil, withElement(err, string(e.ID))
		}
		slog.Debug("applied rule", "element", e.ID, "kind", KindEdge, "rule", rule.Name())
		assignments = append(assignments, Assignment{Element: string(e.ID), Kind: KindEdge, Rule: rule.Name(), Quads: written})
	}

	slog.Info("applied schema", "nodes", len(g.Nodes), "edges", len(g.Edges), "quads", out.Len())
	return out, assignments, nil
}

func withElement(err error, element string) error {
	var ce *ConversionError
	if errors.As(err, &ce) {
		copied := *ce
		copied.Element = element
		return &copied
	}
	return err
}
