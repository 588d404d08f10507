package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pgstar/internal/pg"
	"github.com/roach88/pgstar/internal/rdf"
)

// Scenario defines a conversion scenario: a schema, a property graph, and the
// outcome of converting the graph to RDF and back.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Context is the path of the N-Quads-star context holding the schema.
	// Relative paths are resolved against the scenario file.
	Context string `yaml:"context"`

	// GraphFile is the path of a JSON or YAML property graph. Exactly one
	// of GraphFile and Graph must be set.
	GraphFile string `yaml:"graphFile,omitempty"`

	// Graph is an inline property graph.
	Graph *pg.Graph `yaml:"graph,omitempty"`

	// Prefixes extends the built-in prefixes usable as <prefix:name> in
	// assertions.
	Prefixes map[string]string `yaml:"prefixes,omitempty"`

	// Expect states the overall outcome.
	Expect Expect `yaml:"expect"`

	// Assertions validate the converted dataset and the checker report.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect is the expected outcome of a scenario.
type Expect struct {
	// WellBehaved, when set, is compared with the checker verdict.
	WellBehaved *bool `yaml:"wellBehaved,omitempty"`

	// Roundtrip requires the reverted graph to be isomorphic to the input.
	Roundtrip bool `yaml:"roundtrip,omitempty"`

	// ApplyError is the error code Apply must fail with. Revert is skipped.
	ApplyError string `yaml:"applyError,omitempty"`

	// RevertError is the error code Revert must fail with.
	RevertError string `yaml:"revertError,omitempty"`
}

// Assertion validates the result of a scenario.
type Assertion struct {
	// Type specifies the assertion type:
	// - "quad_count": the dataset has exactly Count quads
	// - "match": Pattern matches the dataset; Absent inverts the check
	// - "rule_count": Rule was assigned to exactly Count elements
	// - "violation": the schema or checker reported Code
	Type string `yaml:"type"`

	// Pattern is N-Quads-star text; blank nodes act as variables shared
	// across its statements (used by match).
	Pattern string `yaml:"pattern,omitempty"`

	// Absent requires Pattern to have no match (used by match).
	Absent bool `yaml:"absent,omitempty"`

	// Rule is a rule IRI in angle brackets (used by rule_count).
	Rule string `yaml:"rule,omitempty"`

	// Code is a violation code (used by violation).
	Code string `yaml:"code,omitempty"`

	// Count is the expected number (used by quad_count and rule_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertQuadCount = "quad_count"
	AssertMatch     = "match"
	AssertRuleCount = "rule_count"
	AssertViolation = "violation"
)

// LoadScenario reads and parses a scenario YAML file. Relative file
// references are resolved against the directory of path.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving file references relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields so that typos like "assertion:" fail loudly.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	scenario.Context = resolve(basePath, scenario.Context)
	scenario.GraphFile = resolve(basePath, scenario.GraphFile)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Context == "" {
		return fmt.Errorf("context is required")
	}
	if _, err := os.Stat(s.Context); os.IsNotExist(err) {
		return fmt.Errorf("context file not found: %s", s.Context)
	}

	switch {
	case s.GraphFile == "" && s.Graph == nil:
		return fmt.Errorf("one of graph and graphFile is required")
	case s.GraphFile != "" && s.Graph != nil:
		return fmt.Errorf("graph and graphFile are mutually exclusive")
	case s.GraphFile != "":
		if _, err := os.Stat(s.GraphFile); os.IsNotExist(err) {
			return fmt.Errorf("graph file not found: %s", s.GraphFile)
		}
	}

	if s.Expect.ApplyError != "" && (s.Expect.RevertError != "" || s.Expect.Roundtrip) {
		return fmt.Errorf("expect: applyError excludes revertError and roundtrip")
	}
	if s.Expect.RevertError != "" && s.Expect.Roundtrip {
		return fmt.Errorf("expect: revertError excludes roundtrip")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertQuadCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for quad_count", index)
		}
	case AssertMatch:
		if strings.TrimSpace(a.Pattern) == "" {
			return fmt.Errorf("assertions[%d]: pattern is required for match", index)
		}
	case AssertRuleCount:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for rule_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for rule_count", index)
		}
	case AssertViolation:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for violation", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// prefixes returns the built-in prefixes overlaid with the scenario ones.
func (s *Scenario) prefixes() map[string]string {
	out := rdf.DefaultPrefixes()
	for k, v := range s.Prefixes {
		out[k] = v
	}
	return out
}

// expand rewrites <prefix:name> into a full IRI.
func (s *Scenario) expand(text string) string {
	for prefix, ns := range s.prefixes() {
		text = strings.ReplaceAll(text, "<"+prefix+":", "<"+ns)
	}
	return text
}
