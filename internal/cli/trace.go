package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/pgstar/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Usage    bool // report how often each rule was used
}

// RuleCount is one line of the rule usage report.
type RuleCount struct {
	Rule  string `json:"rule"`
	Count int    `json:"count"`
}

// TraceResult holds the trace output.
type TraceResult struct {
	Runs  []store.Run `json:"runs,omitempty"`
	Run   *store.Run  `json:"run,omitempty"`
	Usage []RuleCount `json:"usage,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [run-id]",
		Short: "Inspect recorded conversion runs",
		Long: `Inspect the conversion runs recorded in a trace database.

Without a run ID every run is listed in the order it was recorded. With a run
ID the run is shown together with the rule assigned to each element.

The database defaults to the trace path of the configuration.

Examples:
  pgstar trace --db ./trace.db
  pgstar trace --db ./trace.db 4f1c2a...
  pgstar trace --db ./trace.db --usage --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runTrace(opts, runID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the trace database")
	cmd.Flags().BoolVar(&opts.Usage, "usage", false, "report rule usage across all runs")

	return cmd
}

func runTrace(opts *TraceOptions, runID string, cmd *cobra.Command) error {
	ctx := context.Background()

	path := traceDB(opts.Database, opts.settings().Trace)
	if path == "" {
		return NewExitError(ExitCommandError, "no trace database: pass --db or set trace in the configuration")
	}
	if _, err := os.Stat(path); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("trace database not found: %s", path), err)
	}

	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var result TraceResult
	switch {
	case opts.Usage:
		usage, err := st.RuleUsage(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read rule usage", err)
		}
		result.Usage = sortUsage(usage)
	case runID != "":
		run, err := st.ReadRun(ctx, runID)
		if errors.Is(err, store.ErrRunNotFound) {
			return WrapExitError(ExitFailure, fmt.Sprintf("run not found: %s", runID), err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		result.Run = &run
	default:
		runs, err := st.ReadRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read runs", err)
		}
		result.Runs = runs
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}
	return outputTraceText(cmd.OutOrStdout(), result, opts.Usage, opts.Verbose, opts.settings().AllPrefixes())
}

// sortUsage orders rules by descending count, then by name.
func sortUsage(usage map[string]int) []RuleCount {
	out := make([]RuleCount, 0, len(usage))
	for rule, n := range usage {
		out = append(out, RuleCount{Rule: rule, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Rule < out[j].Rule
	})
	return out
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputTraceText outputs the trace result as text. Rule names are
// compacted against prefixes.
func outputTraceText(w io.Writer, result TraceResult, usage, verbose bool, prefixes map[string]string) error {
	switch {
	case usage:
		fmt.Fprintln(w, "=== Rule Usage ===")
		if len(result.Usage) == 0 {
			fmt.Fprintln(w, "  (no assignments)")
		}
		for _, rc := range result.Usage {
			fmt.Fprintf(w, "  %6d  %s\n", rc.Count, compactRule(rc.Rule, prefixes))
		}

	case result.Run != nil:
		run := result.Run
		fmt.Fprintf(w, "Run: %s\n", run.ID)
		fmt.Fprintf(w, "Direction: %s\n", run.Direction)
		fmt.Fprintf(w, "Schema: %s\n", truncateID(run.SchemaHash))
		fmt.Fprintf(w, "Input:  %s\n", truncateID(run.InputHash))
		fmt.Fprintf(w, "Output: %s\n", truncateID(run.OutputHash))
		fmt.Fprintln(w)

		fmt.Fprintln(w, "=== Assignments ===")
		if len(run.Assignments) == 0 {
			fmt.Fprintln(w, "  (no elements)")
		}
		for _, a := range run.Assignments {
			fmt.Fprintf(w, "  %-4s %s -> %s (%d quads)\n", a.Kind, a.Element, compactRule(a.Rule, prefixes), a.Quads)
		}
		fmt.Fprintln(w)

		fmt.Fprintln(w, "=== Stats ===")
		fmt.Fprintf(w, "  Elements: %d\n", run.Elements)
		fmt.Fprintf(w, "  Quads:    %d\n", run.Quads)

	default:
		if len(result.Runs) == 0 {
			fmt.Fprintln(w, "No runs recorded.")
			return nil
		}
		for _, run := range result.Runs {
			id := truncateID(run.ID)
			if verbose {
				id = run.ID
			}
			fmt.Fprintf(w, "  [%d] %-6s %s  elements=%d quads=%d\n", run.Seq, run.Direction, id, run.Elements, run.Quads)
		}
	}
	return nil
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
