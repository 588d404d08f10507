package check

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/roach88/pgstar/internal/rdf"
	"github.com/roach88/pgstar/internal/schema"
)

// Well-behavedness warning codes (W200-W299)
const (
	WarnTemplateBlankNode = "W201" // template mints blank nodes of its own
	WarnNotIdentifiable   = "W202" // some triple carries no identity
	WarnValueLoss         = "W203" // a property or endpoint cannot be read back
	WarnNoSignature       = "W204" // no triple shape is unique to the rule
	WarnEdgeUniqueClash   = "W205" // edge-unique rule shares a triple shape
)

// Identification tells how the elements of a rule can be recognised in RDF.
type Identification uint8

const (
	// FullyIdentifiable rules write the element identity in every triple.
	FullyIdentifiable Identification = iota
	// EdgeUnique rules write both endpoints in every triple; the edge is
	// known by its endpoints and label only.
	EdgeUnique
	NotIdentifiable
)

func (i Identification) String() string {
	switch i {
	case FullyIdentifiable:
		return "fully-identifiable"
	case EdgeUnique:
		return "edge-unique"
	case NotIdentifiable:
		return "not-identifiable"
	default:
		return fmt.Sprintf("Identification(%d)", uint8(i))
	}
}

// MarshalText encodes the identification by name.
func (i Identification) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// RuleReport is the outcome of checking one rule.
type RuleReport struct {
	Rule           string             `json:"rule"`
	Kind           schema.Kind        `json:"kind"`
	Identification Identification     `json:"identification"`
	Violations     []schema.Violation `json:"violations,omitempty"`
}

// Report is the outcome of checking a schema, one entry per rule in schema
// order.
type Report struct {
	Rules []RuleReport `json:"rules"`
}

// WellBehaved reports whether no rule has a violation. Reverting the output
// of a well-behaved schema gives back the original property graph.
func (r Report) WellBehaved() bool {
	for _, rr := range r.Rules {
		if len(rr.Violations) > 0 {
			return false
		}
	}
	return true
}

// Violations lists every violation in rule order.
func (r Report) Violations() []schema.Violation {
	var out []schema.Violation
	for _, rr := range r.Rules {
		out = append(out, rr.Violations...)
	}
	return out
}

// Check decides, rule by rule, whether s is well-behaved. It collects every
// violation and never modifies s.
func Check(s *schema.Schema) Report {
	var report Report
	for _, rule := range s.Rules {
		report.Rules = append(report.Rules, checkRule(rule, s.Rules))
	}
	slog.Debug("checked schema", "rules", len(report.Rules), "violations", len(report.Violations()))
	return report
}

func checkRule(rule *schema.Rule, all []*schema.Rule) RuleReport {
	rr := RuleReport{Rule: rule.Name(), Kind: rule.Kind}
	warn := func(code, format string, args ...any) {
		rr.Violations = append(rr.Violations, schema.Violation{Code: code, Rule: rule.Name(), Message: fmt.Sprintf(format, args...)})
	}

	// W201, W202
	rr.Identification = identify(rule)
	if rr.Identification == NotIdentifiable {
		if t, ok := blankNodeTriple(rule); ok {
			warn(WarnTemplateBlankNode, "template triple %s contains a blank node", t)
		} else {
			warn(WarnNotIdentifiable, "template triple %s carries neither the element identity nor both endpoints", unidentified(rule))
		}
	}

	// W203
	missing, extra := valueLoss(rule)
	if len(missing) > 0 || len(extra) > 0 {
		warn(WarnValueLoss, "readable placeholders differ from the declared ones (missing %v, extra %v)", missing, extra)
	}

	// W204
	if _, ok := schema.FindSignature(rule, all); !ok {
		warn(WarnNoSignature, "every template triple shares its shape with another rule")
	}

	// W205
	if rr.Identification == EdgeUnique {
		for _, t := range rule.Template {
			if owner := sharedWith(rule, t, all); owner != nil {
				warn(WarnEdgeUniqueClash, "template triple %s has the same shape as a triple of %s", t, owner.Name())
			}
		}
	}
	return rr
}

func identify(rule *schema.Rule) Identification {
	if _, ok := blankNodeTriple(rule); ok {
		return NotIdentifiable
	}
	full, endpoints := true, rule.Kind == schema.KindEdge
	for _, t := range rule.Template {
		if !rule.Identifies(t) {
			full = false
		}
		if !rdf.Contains(t, rdf.PvarSource) || !rdf.Contains(t, rdf.PvarDestination) {
			endpoints = false
		}
	}
	switch {
	case full:
		return FullyIdentifiable
	case endpoints:
		return EdgeUnique
	default:
		return NotIdentifiable
	}
}

func blankNodeTriple(rule *schema.Rule) (rdf.Quad, bool) {
	for _, t := range rule.Template {
		if len(rdf.BlankNodes(t)) > 0 {
			return t, true
		}
	}
	return rdf.Quad{}, false
}

func unidentified(rule *schema.Rule) rdf.Quad {
	for _, t := range rule.Template {
		if !rule.Identifies(t) {
			return t
		}
	}
	return rdf.Quad{}
}

// valueLoss compares the placeholders reversion can read, one accessor per
// characterization, with the declared properties and, for edges, the
// endpoints.
func valueLoss(rule *schema.Rule) (missing, extra []string) {
	readable := make(map[string]bool)
	for _, a := range schema.Accessors(rule) {
		for _, slot := range a.Slots {
			switch slot.Placeholder.Kind {
			case schema.PlaceholderValue:
				readable[slot.Placeholder.Name] = true
			case schema.PlaceholderSource, schema.PlaceholderDestination:
				readable["@"+slot.Placeholder.Kind.String()] = true
			}
		}
	}

	want := slices.Clone(rule.Properties)
	if rule.Kind == schema.KindEdge {
		want = append(want, "@source", "@destination")
	}

	missing, extra = []string{}, []string{}
	for _, name := range want {
		if !readable[name] {
			missing = append(missing, name)
		}
	}
	for name := range readable {
		if !slices.Contains(want, name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return missing, extra
}

// sharedWith returns another rule with a template triple of the same
// characterization as t.
func sharedWith(rule *schema.Rule, t rdf.Quad, all []*schema.Rule) *schema.Rule {
	c := schema.Characterize(t)
	for _, other := range all {
		if other == rule {
			continue
		}
		for _, ot := range other.Template {
			if schema.Characterize(ot) == c {
				return other
			}
		}
	}
	return nil
}
