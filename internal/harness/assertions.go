package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/pgstar/internal/codec"
	"github.com/roach88/pgstar/internal/dataset"
	"github.com/roach88/pgstar/internal/rdf"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Dataset  []string // Converted dataset for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Dataset) > 0 {
		fmt.Fprintf(&buf, "\nDataset:\n")
		for _, line := range e.Dataset {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion of scenario and returns the
// failure messages. ds is the converted dataset, nil when apply did not run
// or failed.
func EvaluateAssertions(scenario *Scenario, result *Result, ds *dataset.Dataset) []string {
	var failures []string
	for i, a := range scenario.Assertions {
		var err error
		switch a.Type {
		case AssertQuadCount:
			err = assertQuadCount(ds, a)
		case AssertMatch:
			err = assertMatch(scenario, ds, a)
		case AssertRuleCount:
			err = assertRuleCount(scenario, result, a)
		case AssertViolation:
			err = assertViolation(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

// assertQuadCount checks the size of the converted dataset.
func assertQuadCount(ds *dataset.Dataset, a Assertion) error {
	if ds == nil {
		return errNoDataset(a)
	}
	if ds.Len() != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d quads", a.Count),
			Actual:   fmt.Sprintf("%d quads", ds.Len()),
			Dataset:  statements(ds.Quads()),
		}
	}
	return nil
}

// assertMatch checks that the pattern has at least one solution, or none
// when Absent is set. Blank nodes of the pattern are variables.
func assertMatch(scenario *Scenario, ds *dataset.Dataset, a Assertion) error {
	if ds == nil {
		return errNoDataset(a)
	}
	patterns, err := codec.ParseNQuads(scenario.expand(a.Pattern))
	if err != nil {
		return fmt.Errorf("match pattern: %w", err)
	}
	for i, p := range patterns {
		patterns[i] = rdf.MapLeaves(p, func(t rdf.Term) rdf.Term {
			if b, ok := t.(rdf.BlankNode); ok {
				return rdf.Variable(b)
			}
			return t
		})
	}

	bindings := ds.MatchAndBind(patterns)
	switch {
	case a.Absent && len(bindings) > 0:
		return &AssertionError{
			Type:     a.Type,
			Expected: "no match for " + strings.TrimSpace(a.Pattern),
			Actual:   fmt.Sprintf("%d matches", len(bindings)),
			Dataset:  statements(ds.Quads()),
		}
	case !a.Absent && len(bindings) == 0:
		return &AssertionError{
			Type:     a.Type,
			Expected: "a match for " + strings.TrimSpace(a.Pattern),
			Actual:   "no match",
			Dataset:  statements(ds.Quads()),
		}
	}
	return nil
}

// assertRuleCount checks how many elements the apply run assigned to a rule.
func assertRuleCount(scenario *Scenario, result *Result, a Assertion) error {
	rule := scenario.expand(a.Rule)
	count := 0
	for _, assignment := range result.Assignments {
		if assignment.Rule == rule {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d elements converted by %s", a.Count, rule),
			Actual:   fmt.Sprintf("%d elements", count),
		}
	}
	return nil
}

// assertViolation checks that the schema or checker reported a code.
func assertViolation(result *Result, a Assertion) error {
	var codes []string
	for _, v := range result.Violations {
		if v.Code == a.Code {
			return nil
		}
		codes = append(codes, v.Code)
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: "violation " + a.Code,
		Actual:   fmt.Sprintf("violations %v", codes),
	}
}

func errNoDataset(a Assertion) error {
	return &AssertionError{
		Type:     a.Type,
		Expected: "a converted dataset",
		Actual:   "apply did not produce one",
	}
}
