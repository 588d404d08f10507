package schema

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/pgstar/internal/dataset"
	"github.com/roach88/pgstar/internal/rdf"
)

// BlankNodeFactory mints fresh blank nodes.
type BlankNodeFactory interface {
	Next() rdf.BlankNode
}

// CounterBlankNodes mints prefix1, prefix2, ... in order. It gives
// reproducible output and is the default.
type CounterBlankNodes struct {
	prefix string
	n      int
}

// NewCounterBlankNodes returns a counter factory using prefix.
func NewCounterBlankNodes(prefix string) *CounterBlankNodes {
	return &CounterBlankNodes{prefix: prefix}
}

func (c *CounterBlankNodes) Next() rdf.BlankNode {
	c.n++
	return rdf.BlankNode(c.prefix + strconv.Itoa(c.n))
}

// UUIDBlankNodes mints labels from random UUIDs, for output that is merged
// with graphs from other runs.
type UUIDBlankNodes struct{}

func (UUIDBlankNodes) Next() rdf.BlankNode {
	return rdf.BlankNode("u" + strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// Instance is a concrete element to materialise with a rule.
type Instance struct {
	Self       rdf.Term
	Properties map[string]rdf.Literal

	// Source and Destination are set for edges only.
	Source      rdf.Term
	Destination rdf.Term
}

// Instantiate rewrites the template of r for inst.
//
// Identity placeholders become inst.Self, endpoint placeholders the endpoints
// and value placeholders the property values. Each template blank node maps to
// one fresh blank node per call.
func (r *Rule) Instantiate(inst Instance, bnodes BlankNodeFactory) ([]rdf.Quad, error) {
	fresh := make(map[rdf.BlankNode]rdf.BlankNode)
	out := make([]rdf.Quad, 0, len(r.Template))
	var err error

	substitute := func(t rdf.Term) rdf.Term {
		p, ok := PlaceholderOf(t)
		if !ok || err != nil {
			return t
		}
		switch p.Kind {
		case PlaceholderSelf:
			return inst.Self
		case PlaceholderSource, PlaceholderDestination:
			end := inst.Source
			if p.Kind == PlaceholderDestination {
				end = inst.Destination
			}
			if r.Kind != KindEdge || end == nil {
				err = NewConversionError(ErrCodeMissingEndpoint, inst.Self.String(), r.Name(), "template needs the %s of the element", p.Kind)
				return t
			}
			return end
		case PlaceholderValue:
			v, ok := inst.Properties[p.Name]
			if !ok {
				err = NewConversionError(ErrCodeMissingProperty, inst.Self.String(), r.Name(), "element has no property %q", p.Name)
				return t
			}
			return v
		case PlaceholderBlank:
			b := t.(rdf.BlankNode)
			if _, ok := fresh[b]; !ok {
				fresh[b] = bnodes.Next()
			}
			return fresh[b]
		}
		return t
	}

	for _, t := range r.Template {
		q := rdf.MapLeaves(t, substitute)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// Produce instantiates r for inst and adds the result to out. Nothing is
// added when instantiation fails. It returns the number of template triples
// written.
func (r *Rule) Produce(out *dataset.Dataset, inst Instance, bnodes BlankNodeFactory) (int, error) {
	quads, err := r.Instantiate(inst, bnodes)
	if err != nil {
		return 0, err
	}
	out.AddAll(quads)
	return len(quads), nil
}
