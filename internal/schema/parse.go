package schema

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/pgstar/internal/dataset"
	"github.com/roach88/pgstar/internal/rdf"
)

var (
	varRule   = rdf.Variable("rule")
	varValue  = rdf.Variable("value")
	varTarget = rdf.Variable("target")
)

// Parse reads the rules declared in a context graph.
//
// A rule is any resource typed prec:NodeRule or prec:EdgeRule, or carrying a
// prec:label or prec:propertyName. Rules with defects are reported as
// violations and left out of the returned schema. The context graph is not
// modified.
func Parse(context *dataset.Dataset) (*Schema, []Violation) {
	ds := context.Clone()
	closeComposedOf(ds)

	var violations []Violation
	s := &Schema{}
	for _, id := range ruleIDs(ds) {
		rule, vs := parseRule(ds, id)
		violations = append(violations, vs...)
		if len(vs) == 0 {
			s.Rules = append(s.Rules, rule)
		}
	}

	slog.Debug("parsed schema", "rules", len(s.Rules), "violations", len(violations))
	return s, violations
}

// closeComposedOf saturates prec:composedOf transitively so that a rule
// reaches every template reachable through intermediate resources.
func closeComposedOf(ds *dataset.Dataset) {
	r, mid, t := rdf.Variable("r"), rdf.Variable("mid"), rdf.Variable("t")
	source := []rdf.Quad{
		rdf.NewTriple(r, rdf.PrecComposedOf, mid),
		rdf.NewTriple(mid, rdf.PrecComposedOf, t),
	}
	destination := []rdf.Quad{
		source[0],
		source[1],
		rdf.NewTriple(r, rdf.PrecComposedOf, t),
	}
	for {
		before := ds.Len()
		ds.FindFilterReplace(source, nil, destination)
		if ds.Len() == before {
			return
		}
	}
}

// ruleIDs lists declared rule identities sorted by their printed form.
func ruleIDs(ds *dataset.Dataset) []rdf.Term {
	seen := make(map[rdf.Term]bool)
	var ids []rdf.Term
	add := func(pattern rdf.Quad) {
		for _, m := range ds.MatchPattern(pattern) {
			id := m.Vars[string(varRule)]
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	add(rdf.NewTriple(varRule, rdf.RDFType, rdf.PrecNodeRule))
	add(rdf.NewTriple(varRule, rdf.RDFType, rdf.PrecEdgeRule))
	add(rdf.NewTriple(varRule, rdf.PrecLabel, varValue))
	add(rdf.NewTriple(varRule, rdf.PrecPropertyName, varValue))

	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func parseRule(ds *dataset.Dataset, id rdf.Term) (*Rule, []Violation) {
	rule := &Rule{ID: id}
	var violations []Violation
	violate := func(code, format string, args ...any) {
		violations = append(violations, Violation{Code: code, Rule: rule.Name(), Message: fmt.Sprintf(format, args...)})
	}

	var kinds []Kind
	if len(ds.MatchAndBind([]rdf.Quad{rdf.NewTriple(id, rdf.RDFType, rdf.PrecNodeRule)})) > 0 {
		kinds = append(kinds, KindNode)
	}
	if len(ds.MatchAndBind([]rdf.Quad{rdf.NewTriple(id, rdf.RDFType, rdf.PrecEdgeRule)})) > 0 {
		kinds = append(kinds, KindEdge)
	}
	switch len(kinds) {
	case 0:
		violate(CodeNoType, "rule has no type; expected prec:NodeRule or prec:EdgeRule")
		return nil, violations
	case 1:
		rule.Kind = kinds[0]
	default:
		violate(CodeManyTypes, "rule is both a node rule and an edge rule")
		return nil, violations
	}

	var err error
	if rule.Labels, err = names(ds, id, rdf.PrecLabel); err != nil {
		violate(CodeBadName, "label %v", err)
	}
	if rule.Properties, err = names(ds, id, rdf.PrecPropertyName); err != nil {
		violate(CodeBadName, "property name %v", err)
	}

	template, bad := collectTemplate(ds, id)
	for _, t := range bad {
		violate(CodeBadTemplateRef, "prec:composedOf target %s is neither a quoted triple nor a graph name", t)
	}
	rule.Template = template

	for _, t := range rule.Template {
		for _, p := range Placeholders(t) {
			if p.Kind == PlaceholderValue && !rule.HasProperty(p.Name) {
				violate(CodeUndeclaredProperty, "template uses value of undeclared property %q in %s", p.Name, t)
			}
		}
		switch rule.Kind {
		case KindNode:
			for _, forbidden := range []rdf.NamedNode{rdf.PvarSource, rdf.PvarDestination, rdf.PvarEdge} {
				if rdf.Contains(t, forbidden) {
					violate(CodeNodeUsesEndpoint, "node template uses %s in %s", forbidden, t)
				}
			}
		case KindEdge:
			if rdf.Contains(t, rdf.PvarNode) {
				violate(CodeEdgeUsesNode, "edge template uses %s in %s", rdf.PvarNode, t)
			}
		}
	}

	if len(violations) > 0 {
		return nil, violations
	}
	return rule, nil
}

// names collects the literal objects of (id, predicate, ?value) as a sorted
// set of strings.
func names(ds *dataset.Dataset, id rdf.Term, predicate rdf.NamedNode) ([]string, error) {
	set := make(map[string]bool)
	out := []string{}
	for _, m := range ds.MatchPattern(rdf.NewTriple(id, predicate, varValue)) {
		lit, ok := m.Vars[string(varValue)].(rdf.Literal)
		if !ok {
			return nil, fmt.Errorf("%s is not a literal", m.Vars[string(varValue)])
		}
		if !set[lit.Lexical] {
			set[lit.Lexical] = true
			out = append(out, lit.Lexical)
		}
	}
	sort.Strings(out)
	return out, nil
}

// collectTemplate gathers the template of a rule from its prec:composedOf
// targets. A quoted triple target is itself a template triple; an IRI or
// blank node target contributes the quads of the graph it names. Duplicates
// are dropped, keeping first occurrence.
func collectTemplate(ds *dataset.Dataset, id rdf.Term) ([]rdf.Quad, []rdf.Term) {
	seen := make(map[rdf.Quad]bool)
	var template []rdf.Quad
	var bad []rdf.Term
	add := func(q rdf.Quad) {
		q = q.InDefaultGraph()
		if !seen[q] {
			seen[q] = true
			template = append(template, q)
		}
	}

	for _, m := range ds.MatchPattern(rdf.NewTriple(id, rdf.PrecComposedOf, varTarget)) {
		switch target := m.Vars[string(varTarget)].(type) {
		case rdf.Quad:
			add(target)
		case rdf.NamedNode, rdf.BlankNode:
			s, p, o := rdf.Variable("s"), rdf.Variable("p"), rdf.Variable("o")
			for _, gm := range ds.MatchPattern(rdf.NewQuad(s, p, o, target)) {
				add(gm.Quad)
			}
		default:
			bad = append(bad, target)
		}
	}
	return template, bad
}
