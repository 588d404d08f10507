package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders the deterministic part of a result: the checker verdict,
// the rule assignments and the converted dataset in sorted N-Quads.
func Snapshot(scenario *Scenario, result *Result) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "scenario: %s\n", scenario.Name)
	if result.Report != nil {
		fmt.Fprintf(&b, "well-behaved: %t\n", result.Report.WellBehaved())
		b.WriteString("rules:\n")
		for _, rr := range result.Report.Rules {
			fmt.Fprintf(&b, "  %s %s %s\n", rr.Rule, rr.Kind, rr.Identification)
		}
	}
	if len(result.Violations) > 0 {
		b.WriteString("violations:\n")
		for _, v := range result.Violations {
			fmt.Fprintf(&b, "  %s %s\n", v.Code, v.Rule)
		}
	}
	if result.ApplyError != nil {
		fmt.Fprintf(&b, "apply error: %v\n", result.ApplyError)
	}
	if len(result.Assignments) > 0 {
		b.WriteString("assignments:\n")
		for _, a := range result.Assignments {
			fmt.Fprintf(&b, "  %s %s %s %d\n", a.Element, a.Kind, a.Rule, a.Quads)
		}
	}
	if result.RevertError != nil {
		fmt.Fprintf(&b, "revert error: %v\n", result.RevertError)
	}
	if len(result.Quads) > 0 {
		b.WriteString("quads:\n")
		for _, line := range statements(result.Quads) {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot be executed. A snapshot mismatch
// fails the test through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario, result)
	return result, nil
}

// AssertGolden compares the snapshot of an existing result against its
// golden file without re-running the scenario.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, Snapshot(scenario, result))
}
