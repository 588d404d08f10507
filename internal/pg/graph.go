package pg

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Graph is a property graph description: the interchange shape between the
// converter and property graph adapters.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Node is a property graph node.
type Node struct {
	ID         ID         `json:"id" yaml:"id"`
	Labels     []string   `json:"labels" yaml:"labels"`
	Properties Properties `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Edge is a directed property graph edge.
type Edge struct {
	ID          ID         `json:"id,omitempty" yaml:"id,omitempty"`
	Labels      []string   `json:"labels" yaml:"labels"`
	Properties  Properties `json:"properties,omitempty" yaml:"properties,omitempty"`
	Source      ID         `json:"source" yaml:"source"`
	Destination ID         `json:"destination" yaml:"destination"`
}

// ID identifies an element. Adapters emit numeric or string identifiers;
// both decode to the same textual form.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("element id must be a string or a number, got %s", data)
	}
	*id = ID(n.String())
	return nil
}

// UnmarshalYAML accepts any scalar.
func (id *ID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: element id must be a scalar", node.Line)
	}
	*id = ID(node.Value)
	return nil
}

// PropertyNames returns the sorted property keys of n.
func (n Node) PropertyNames() []string {
	return n.Properties.Names()
}

// PropertyNames returns the sorted property keys of e.
func (e Edge) PropertyNames() []string {
	return e.Properties.Names()
}

// Normalize puts labels and property keys in NFC, sorts and deduplicates
// labels, and numbers edges that have no identifier.
func (g *Graph) Normalize() {
	for i := range g.Nodes {
		g.Nodes[i].Labels = normalizeLabels(g.Nodes[i].Labels)
		g.Nodes[i].Properties = g.Nodes[i].Properties.normalized()
	}
	for i := range g.Edges {
		g.Edges[i].Labels = normalizeLabels(g.Edges[i].Labels)
		g.Edges[i].Properties = g.Edges[i].Properties.normalized()
		if g.Edges[i].ID == "" {
			g.Edges[i].ID = ID("e" + strconv.Itoa(i))
		}
	}
}

func normalizeLabels(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = norm.NFC.String(l)
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}

// Validate checks identifier uniqueness and that every edge endpoint names a
// node. All problems are reported in one error.
func (g *Graph) Validate() error {
	var problems []string
	nodes := make(map[ID]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			problems = append(problems, "node without id")
			continue
		}
		if nodes[n.ID] {
			problems = append(problems, fmt.Sprintf("duplicate node id %q", n.ID))
		}
		nodes[n.ID] = true
	}
	edges := make(map[ID]bool, len(g.Edges))
	for i, e := range g.Edges {
		name := string(e.ID)
		if name == "" {
			name = "#" + strconv.Itoa(i)
		}
		if e.ID != "" {
			if edges[e.ID] {
				problems = append(problems, fmt.Sprintf("duplicate edge id %q", e.ID))
			}
			edges[e.ID] = true
		}
		if !nodes[e.Source] {
			problems = append(problems, fmt.Sprintf("edge %s: unknown source %q", name, e.Source))
		}
		if !nodes[e.Destination] {
			problems = append(problems, fmt.Sprintf("edge %s: unknown destination %q", name, e.Destination))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return &InvalidGraphError{Problems: problems}
}

// InvalidGraphError lists the structural problems of a graph.
type InvalidGraphError struct {
	Problems []string
}

func (e *InvalidGraphError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid property graph: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid property graph: %s (and %d more)", e.Problems[0], len(e.Problems)-1)
}
