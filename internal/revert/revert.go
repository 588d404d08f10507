package revert

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strconv"

	"github.com/roach88/pgstar/internal/dataset"
	"github.com/roach88/pgstar/internal/pg"
	"github.com/roach88/pgstar/internal/rdf"
	"github.com/roach88/pgstar/internal/schema"
)

// MonoedgePrefix starts the identifiers of edges recovered from edge-unique
// rules. Such edges own no blank node, so their id is synthesized.
const MonoedgePrefix = "monoedge"

// Result is a reverted property graph together with the rule chosen for each
// element.
type Result struct {
	Graph       *pg.Graph
	Assignments []schema.Assignment
}

// element is a property graph element being reconstructed.
type element struct {
	id     string
	rule   *schema.Rule
	values map[schema.Placeholder]rdf.Term
	quads  int
}

func (e *element) absorb(values schema.Extraction) error {
	for p, v := range values {
		if p.Kind == schema.PlaceholderSelf || p.Kind == schema.PlaceholderBlank {
			continue
		}
		if prev, ok := e.values[p]; ok && prev != v {
			return schema.NewConversionError(schema.ErrCodeConflictingValue, e.id, e.rule.Name(),
				"%s is both %s and %s", p, prev, v)
		}
		e.values[p] = v
	}
	e.quads++
	return nil
}

// reverter holds the state of one Revert call.
type reverter struct {
	schema *schema.Schema
	ds     *dataset.Dataset
	quads  []rdf.Quad

	signatures map[*schema.Rule]schema.Signature

	// elements maps element blank nodes to their element; order keeps
	// discovery order.
	elements map[rdf.BlankNode]*element
	order    []rdf.BlankNode

	monoedges     map[monoedgeKey]*element
	monoedgeOrder []*element

	explained []bool
}

type monoedgeKey struct {
	rule        *schema.Rule
	source      rdf.Term
	destination rdf.Term
}

// Revert rebuilds the property graph that s would have produced as ds.
//
// Every blank node of ds must be recognisable as a node or an edge through
// the signature of exactly one rule, and every quad must be explained by a
// template triple. Edges of rules identified only by their endpoints are
// recovered from their quads; parallel edges of such a rule between the same
// endpoints collapse into one.
func Revert(s *schema.Schema, ds *dataset.Dataset) (*Result, error) {
	signatures, missing := s.Signatures()
	if len(missing) > 0 {
		return nil, schema.NewConversionError(schema.ErrCodeNoSignature, "", missing[0].Name(),
			"no template triple of the rule has a shape that is unique to it")
	}

	r := &reverter{
		schema:     s,
		ds:         ds,
		quads:      ds.Quads(),
		signatures: signatures,
		elements:   make(map[rdf.BlankNode]*element),
		monoedges:  make(map[monoedgeKey]*element),
	}
	r.explained = make([]bool, len(r.quads))

	steps := []func() error{r.inferTypes, r.attribute, r.recoverMonoedges, r.explainConstants}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	res, err := r.build()
	if err != nil {
		return nil, err
	}
	slog.Info("reverted graph", "quads", len(r.quads), "nodes", len(res.Graph.Nodes), "edges", len(res.Graph.Edges))
	return res, nil
}

// inferTypes assigns a rule to every blank node of the dataset from the
// quads matching full signatures. Node rules take precedence: the endpoints
// of a reified edge appear in the edge's signature quads too.
func (r *reverter) inferTypes() error {
	candidates := make(map[rdf.BlankNode][]*schema.Rule)
	for _, rule := range r.schema.Rules {
		sig := r.signatures[rule]
		if sig.Mode != schema.FullSignature {
			continue
		}
		for _, m := range r.ds.MatchPattern(schema.CharacterizationPattern(sig.Triple)) {
			if schema.Characterize(m.Quad) != sig.Characterization {
				continue
			}
			for _, b := range rdf.BlankNodes(m.Quad) {
				if !slices.Contains(candidates[b], rule) {
					candidates[b] = append(candidates[b], rule)
				}
			}
		}
	}

	for _, q := range r.quads {
		for _, b := range rdf.BlankNodes(q) {
			if _, seen := r.elements[b]; seen {
				continue
			}
			rule, err := chooseType(b, candidates[b])
			if err != nil {
				return err
			}
			r.elements[b] = &element{id: string(b), rule: rule, values: make(map[schema.Placeholder]rdf.Term)}
			r.order = append(r.order, b)
			slog.Debug("typed blank node", "blank", b, "rule", rule.Name())
		}
	}
	return nil
}

func chooseType(b rdf.BlankNode, candidates []*schema.Rule) (*schema.Rule, error) {
	var nodes, edges []*schema.Rule
	for _, rule := range candidates {
		switch rule.Kind {
		case schema.KindNode:
			nodes = append(nodes, rule)
		case schema.KindEdge:
			edges = append(edges, rule)
		}
	}
	for _, group := range [][]*schema.Rule{nodes, edges} {
		switch len(group) {
		case 0:
			continue
		case 1:
			return group[0], nil
		default:
			return nil, schema.NewConversionError(schema.ErrCodeAmbiguousNode, b.String(), "",
				"blank node matches the signatures of %s", ruleNames(group))
		}
	}
	return nil, schema.NewConversionError(schema.ErrCodeUntypedBlankNode, b.String(), "",
		"blank node matches no rule signature")
}

// accessorIndex groups accessors by the characterization they read.
type accessorIndex map[rdf.Quad][]schema.Accessor

func (r *reverter) index(mode schema.SignatureMode) accessorIndex {
	idx := make(accessorIndex)
	for _, rule := range r.schema.Rules {
		if r.signatures[rule].Mode != mode {
			continue
		}
		for _, a := range schema.Accessors(rule) {
			idx[a.Characterization] = append(idx[a.Characterization], a)
		}
	}
	return idx
}

// attribute assigns quads to the typed elements whose rule can produce
// them. A quad can belong to several elements.
func (r *reverter) attribute() error {
	idx := r.index(schema.FullSignature)
	for i, q := range r.quads {
		for _, a := range idx[schema.Characterize(q)] {
			values, ok := a.Extract(q)
			if !ok {
				continue
			}
			self, ok := values.Self()
			if !ok {
				continue
			}
			b, ok := self.(rdf.BlankNode)
			if !ok {
				continue
			}
			el := r.elements[b]
			if el == nil || el.rule != a.Rule {
				continue
			}
			if err := el.absorb(values); err != nil {
				return err
			}
			r.explained[i] = true
		}
	}
	return nil
}

// recoverMonoedges explains the remaining quads that link one or two node
// elements through the template of an edge-unique rule. Matches for the same
// rule and endpoints form a single edge.
func (r *reverter) recoverMonoedges() error {
	idx := r.index(schema.EdgeUniqueSignature)
	if len(idx) == 0 {
		return nil
	}

	for i, q := range r.quads {
		if r.explained[i] || !r.onlyLinksNodes(q) {
			continue
		}

		type hit struct {
			key    monoedgeKey
			values schema.Extraction
		}
		var hits []hit
		var rules []*schema.Rule
		for _, a := range idx[schema.Characterize(q)] {
			values, ok := a.Extract(q)
			if !ok {
				continue
			}
			src, hasSrc := values[schema.Placeholder{Kind: schema.PlaceholderSource}]
			dst, hasDst := values[schema.Placeholder{Kind: schema.PlaceholderDestination}]
			if !hasSrc || !hasDst || !r.isNode(src) || !r.isNode(dst) {
				continue
			}
			hits = append(hits, hit{key: monoedgeKey{rule: a.Rule, source: src, destination: dst}, values: values})
			if !slices.Contains(rules, a.Rule) {
				rules = append(rules, a.Rule)
			}
		}
		if len(rules) > 1 {
			return schema.NewConversionError(schema.ErrCodeAmbiguousQuad, q.Statement(), "",
				"quad fits the templates of %s", ruleNames(rules))
		}

		for _, h := range hits {
			el := r.monoedges[h.key]
			if el == nil {
				el = &element{
					id:     MonoedgePrefix + strconv.Itoa(len(r.monoedgeOrder)+1),
					rule:   h.key.rule,
					values: make(map[schema.Placeholder]rdf.Term),
				}
				r.monoedges[h.key] = el
				r.monoedgeOrder = append(r.monoedgeOrder, el)
			}
			if err := el.absorb(h.values); err != nil {
				return err
			}
			r.explained[i] = true
		}
	}
	return nil
}

// onlyLinksNodes reports whether the blank nodes of q are one or two node
// elements.
func (r *reverter) onlyLinksNodes(q rdf.Quad) bool {
	bnodes := rdf.BlankNodes(q)
	if len(bnodes) == 0 || len(bnodes) > 2 {
		return false
	}
	for _, b := range bnodes {
		if !r.isNode(b) {
			return false
		}
	}
	return true
}

func (r *reverter) isNode(t rdf.Term) bool {
	b, ok := t.(rdf.BlankNode)
	if !ok {
		return false
	}
	el := r.elements[b]
	return el != nil && el.rule.Kind == schema.KindNode
}

// explainConstants accepts leftover quads that a template writes verbatim
// and rejects everything else.
func (r *reverter) explainConstants() error {
	constants := make(map[rdf.Quad]bool)
	for _, rule := range r.schema.Rules {
		for _, t := range rule.Template {
			if len(schema.Placeholders(t)) == 0 && t.IsGround() {
				constants[t] = true
			}
		}
	}
	for i, q := range r.quads {
		if r.explained[i] {
			continue
		}
		if !constants[q] {
			return schema.NewConversionError(schema.ErrCodeUnexplainedQuad, q.Statement(), "",
				"no template triple of the schema produces this quad")
		}
		r.explained[i] = true
	}
	return nil
}

func (r *reverter) build() (*Result, error) {
	g := &pg.Graph{}
	var assignments []schema.Assignment
	assign := func(el *element) {
		assignments = append(assignments, schema.Assignment{Element: el.id, Kind: el.rule.Kind, Rule: el.rule.Name(), Quads: el.quads})
	}

	var edges []*element
	for _, b := range r.order {
		el := r.elements[b]
		switch el.rule.Kind {
		case schema.KindNode:
			props, err := properties(el)
			if err != nil {
				return nil, err
			}
			g.Nodes = append(g.Nodes, pg.Node{ID: pg.ID(el.id), Labels: slices.Clone(el.rule.Labels), Properties: props})
			assign(el)
		case schema.KindEdge:
			edges = append(edges, el)
		}
	}
	edges = append(edges, r.monoedgeOrder...)

	for _, el := range edges {
		props, err := properties(el)
		if err != nil {
			return nil, err
		}
		src, err := r.endpoint(el, schema.PlaceholderSource)
		if err != nil {
			return nil, err
		}
		dst, err := r.endpoint(el, schema.PlaceholderDestination)
		if err != nil {
			return nil, err
		}
		g.Edges = append(g.Edges, pg.Edge{
			ID:          pg.ID(el.id),
			Labels:      slices.Clone(el.rule.Labels),
			Properties:  props,
			Source:      src,
			Destination: dst,
		})
		assign(el)
	}
	return &Result{Graph: g, Assignments: assignments}, nil
}

// properties collects the property values of el and checks that their names
// are exactly the ones its rule declares.
func properties(el *element) (pg.Properties, error) {
	props := make(pg.Properties)
	for p, v := range el.values {
		if p.Kind != schema.PlaceholderValue {
			continue
		}
		lit, ok := v.(rdf.Literal)
		if !ok {
			return nil, schema.NewConversionError(schema.ErrCodeInvalidValue, el.id, el.rule.Name(),
				"property %q holds %s, which is not a literal", p.Name, v)
		}
		props[p.Name] = lit
	}

	got := props.Names()
	if !slices.Equal(got, el.rule.Properties) {
		missing, extra := difference(el.rule.Properties, got), difference(got, el.rule.Properties)
		return nil, schema.NewConversionError(schema.ErrCodePropertyMismatch, el.id, el.rule.Name(),
			"reconstructed properties %v, rule declares %v (missing %v, extra %v)", got, el.rule.Properties, missing, extra)
	}
	return props, nil
}

func (r *reverter) endpoint(el *element, kind schema.PlaceholderKind) (pg.ID, error) {
	t, ok := el.values[schema.Placeholder{Kind: kind}]
	if !ok {
		return "", schema.NewConversionError(schema.ErrCodeMissingEndpoint, el.id, el.rule.Name(),
			"no quad gives the %s of the edge", kind)
	}
	if !r.isNode(t) {
		return "", schema.NewConversionError(schema.ErrCodeInvalidEndpoint, el.id, el.rule.Name(),
			"%s %s is not a node", kind, t)
	}
	return pg.ID(t.(rdf.BlankNode)), nil
}

// difference returns the sorted elements of a missing from b.
func difference(a, b []string) []string {
	out := []string{}
	for _, v := range a {
		if !slices.Contains(b, v) {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func ruleNames(rules []*schema.Rule) string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name()
	}
	sort.Strings(names)
	return fmt.Sprint(names)
}
