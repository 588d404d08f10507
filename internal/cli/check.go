package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pgstar/internal/check"
	"github.com/roach88/pgstar/internal/schema"
)

// CheckResult is the outcome for one context file.
type CheckResult struct {
	Path        string             `json:"path"`
	WellBehaved bool               `json:"well_behaved"`
	Defects     []schema.Violation `json:"defects,omitempty"`
	Report      *check.Report      `json:"report,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <context>...",
		Short: "Check that schemas are well-behaved",
		Long: `Parse context files and decide, rule by rule, whether the output of the
schema can be converted back to the original property graph.

Arguments may be glob patterns; ** matches across directories.

Exit codes:
  0 - Every schema is well-behaved
  1 - A schema has rule defects or warnings
  2 - Command error (no files, unreadable file)

Examples:
  pgstar check schema.nq
  pgstar check 'schemas/**/*.nq' --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runCheck(opts *RootOptions, patterns []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	prefixes := opts.settings().AllPrefixes()

	files, err := ExpandPatterns(patterns)
	if err != nil {
		return loadError(f, err)
	}

	results := make([]CheckResult, 0, len(files))
	failed := 0
	for _, path := range files {
		loaded, err := LoadSchema(path, prefixes)
		if err != nil {
			return loadError(f, err)
		}
		result := CheckResult{Path: path, Defects: loaded.Violations}
		report := check.Check(loaded.Schema)
		result.Report = &report
		result.WellBehaved = len(loaded.Violations) == 0 && report.WellBehaved()
		if !result.WellBehaved {
			failed++
		}
		results = append(results, result)
	}

	if f.JSON() {
		if err := f.Success(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			printCheckResult(f, r, prefixes)
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d schema(s) not well-behaved", failed))
	}
	return nil
}

func printCheckResult(f *OutputFormatter, r CheckResult, prefixes map[string]string) {
	w := f.Writer
	if r.WellBehaved {
		fmt.Fprintf(w, "✓ %s\n", r.Path)
	} else {
		fmt.Fprintf(w, "✗ %s\n", r.Path)
	}
	for _, v := range r.Defects {
		fmt.Fprintf(w, "  %s\n", v)
	}
	for _, rr := range r.Report.Rules {
		if len(rr.Violations) == 0 && !f.Verbose {
			continue
		}
		fmt.Fprintf(w, "  %s (%s, %s)\n", compactRule(rr.Rule, prefixes), rr.Kind, rr.Identification)
		for _, v := range rr.Violations {
			fmt.Fprintf(w, "    [%s] %s\n", v.Code, v.Message)
		}
	}
}
