package schema

import (
	"github.com/roach88/pgstar/internal/rdf"
)

// SignatureMode tells how a signature identifies elements.
type SignatureMode uint8

const (
	// FullSignature contains the element identity placeholder.
	FullSignature SignatureMode = iota
	// EdgeUniqueSignature contains only the source and destination
	// placeholders. The edge owns no blank node.
	EdgeUniqueSignature
)

func (m SignatureMode) String() string {
	if m == EdgeUniqueSignature {
		return "edge-unique"
	}
	return "full"
}

// Signature is a template triple of a rule whose characterization no other
// rule can produce.
type Signature struct {
	Rule             *Rule
	Triple           rdf.Quad
	Characterization rdf.Quad
	Mode             SignatureMode
}

// FindSignature chooses the signature of rule among rules.
//
// A triple qualifies when no other rule's template has a triple of the same
// characterization. The first qualifying triple with the identity placeholder
// wins; failing that, for edge rules, the first qualifying triple with both
// endpoints whose same-shaped siblings place the endpoints consistently.
func FindSignature(rule *Rule, rules []*Rule) (Signature, bool) {
	foreign := foreignCharacterizations(rule, rules)

	var partial *Signature
	for _, t := range rule.Template {
		c := Characterize(t)
		if foreign[c] {
			continue
		}
		if rule.Identifies(t) {
			return Signature{Rule: rule, Triple: t, Characterization: c, Mode: FullSignature}, true
		}
		if partial == nil && rule.Kind == KindEdge &&
			hasPlaceholder(t, PlaceholderSource) && hasPlaceholder(t, PlaceholderDestination) &&
			isSrcDestCompatible(rule, c) {
			partial = &Signature{Rule: rule, Triple: t, Characterization: c, Mode: EdgeUniqueSignature}
		}
	}
	if partial != nil {
		return *partial, true
	}
	return Signature{}, false
}

// foreignCharacterizations collects the characterizations of every template
// triple of every rule except rule.
func foreignCharacterizations(rule *Rule, rules []*Rule) map[rdf.Quad]bool {
	out := make(map[rdf.Quad]bool)
	for _, other := range rules {
		if other == rule {
			continue
		}
		for _, t := range other.Template {
			out[Characterize(t)] = true
		}
	}
	return out
}

// isSrcDestCompatible reports whether every template triple of rule with
// characterization c puts the source and the destination at the same paths.
// Otherwise a matching data triple could not tell which endpoint is which.
func isSrcDestCompatible(rule *Rule, c rdf.Quad) bool {
	var src, dst []rdf.Path
	first := true
	for _, t := range rule.Template {
		if Characterize(t) != c {
			continue
		}
		s, d := rdf.PathsOf(t, rdf.PvarSource), rdf.PathsOf(t, rdf.PvarDestination)
		if first {
			src, dst, first = s, d, false
			continue
		}
		if !samePaths(src, s) || !samePaths(dst, d) {
			return false
		}
	}
	return true
}

func samePaths(a, b []rdf.Path) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Signatures computes the signature of every rule of s. Rules without one
// are returned separately.
func (s *Schema) Signatures() (map[*Rule]Signature, []*Rule) {
	found := make(map[*Rule]Signature, len(s.Rules))
	var missing []*Rule
	for _, r := range s.Rules {
		if sig, ok := FindSignature(r, s.Rules); ok {
			found[r] = sig
		} else {
			missing = append(missing, r)
		}
	}
	return found, missing
}
