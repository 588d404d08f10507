package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pgstar/internal/harness"
)

// ErrCodeTestFailed is reported when at least one scenario fails.
const ErrCodeTestFailed = "E_TEST_FAILED"

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // rewrite golden files from the current output
	Filter string // scenario name or doublestar pattern
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult summarizes a test command run.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conversion scenarios",
		Long: `Run YAML conversion scenarios: apply each schema to its graph, revert the
output and check the expectations and assertions of the scenario.

A scenario with a golden file in <scenarios-dir>/golden/<name>.golden must
also reproduce its snapshot. --update rewrites the golden files instead.

Exit codes:
  0 - Every scenario passed
  1 - At least one scenario failed
  2 - Command error (missing directory, bad filter)

Examples:
  pgstar test ./scenarios
  pgstar test ./scenarios --filter "people*"
  pgstar test ./scenarios --filter "edges/**/*.yaml" --update
  pgstar test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "run only scenarios matching a name or glob pattern")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}
	files, err := harness.Discover(dir, scenarioPattern(opts.Filter))
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot list scenarios", err)
	}

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	if len(files) == 0 {
		if f.JSON() {
			return f.Success(result)
		}
		fmt.Fprintln(f.Writer, "No scenarios found.")
		return nil
	}

	r := scenarioRunner{goldenDir: filepath.Join(dir, "golden"), update: opts.Update}
	for _, path := range files {
		sr := r.run(path)
		if !f.JSON() {
			printScenario(f, sr, r.update)
		}
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, sr)
	}

	return reportTests(f, result)
}

// scenarioPattern turns a filter into a doublestar pattern. A bare name
// matches scenario files of that name at any depth.
func scenarioPattern(filter string) string {
	if filter == "" || filepath.Ext(filter) != "" || strings.Contains(filter, "/") {
		return filter
	}
	return "**/" + filter + ".{yaml,yml}"
}

// scenarioRunner runs scenario files and compares their snapshots with
// golden files.
type scenarioRunner struct {
	goldenDir string
	update    bool
}

func (r scenarioRunner) run(path string) ScenarioResult {
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return ScenarioResult{Name: filepath.Base(path), Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)}}
	}
	sr := ScenarioResult{Name: scenario.Name}

	result, err := harness.Run(scenario)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}

	if msg := r.golden(scenario.Name, harness.Snapshot(scenario, result)); msg != "" {
		sr.Errors = append(sr.Errors, msg)
	}
	sr.Errors = append(sr.Errors, result.Errors...)
	sr.Pass = len(sr.Errors) == 0
	return sr
}

// golden writes or compares the snapshot and returns a failure message. A
// scenario without a golden file is not compared.
func (r scenarioRunner) golden(name string, snapshot []byte) string {
	path := filepath.Join(r.goldenDir, name+".golden")
	if r.update {
		if err := os.MkdirAll(r.goldenDir, 0o755); err != nil {
			return fmt.Sprintf("failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(path, snapshot, 0o644); err != nil {
			return fmt.Sprintf("failed to update golden file: %v", err)
		}
		return ""
	}

	want, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ""
	case err != nil:
		return fmt.Sprintf("failed to read golden file: %v", err)
	case !bytes.Equal(want, snapshot):
		return "snapshot does not match golden file (run with --update to regenerate)"
	}
	return ""
}

func printScenario(f *OutputFormatter, sr ScenarioResult, updated bool) {
	switch {
	case !sr.Pass:
		fmt.Fprintf(f.Writer, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(f.Writer, "  %s\n", e)
		}
	case updated:
		fmt.Fprintf(f.Writer, "✓ %s (golden updated)\n", sr.Name)
	default:
		fmt.Fprintf(f.Writer, "✓ %s\n", sr.Name)
	}
}

func reportTests(f *OutputFormatter, result TestResult) error {
	var failure error
	if result.Failed > 0 {
		failure = NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	if f.JSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if failure != nil {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeTestFailed, Message: failure.Error()}
		}
		if err := f.encode(resp); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintf(f.Writer, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if failure == nil {
		fmt.Fprintln(f.Writer, "✓ All scenarios passed")
	}
	return failure
}
