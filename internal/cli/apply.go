package cli

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/pgstar/internal/check"
	"github.com/roach88/pgstar/internal/codec"
	"github.com/roach88/pgstar/internal/pg"
	"github.com/roach88/pgstar/internal/schema"
	"github.com/roach88/pgstar/internal/store"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Output    string // output file; stdout when empty
	RDFFormat string // overrides the configured output format on stdout
	Sorted    bool
	Trace     string // overrides the configured trace database
}

// ApplyResult is the JSON payload of the apply command.
type ApplyResult struct {
	Quads       int                 `json:"quads"`
	Assignments []schema.Assignment `json:"assignments"`
	Output      string              `json:"output,omitempty"`
	RDF         string              `json:"rdf,omitempty"`
	RunID       string              `json:"run_id,omitempty"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <context> <graph>",
		Short: "Convert a property graph to RDF-star",
		Long: `Convert a JSON or YAML property graph to RDF-star with the rules of a
context file.

Every element is converted by the one rule whose labels and property names
equal its own. The first element without a rule stops the conversion.

Examples:
  pgstar apply schema.nq graph.yaml
  pgstar apply schema.nq graph.json -o out.nq.gz
  pgstar apply schema.nq graph.json --rdf-format jsonld --sorted`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (format and compression from extension)")
	cmd.Flags().StringVar(&opts.RDFFormat, "rdf-format", "", "RDF format on stdout (nquads|jsonld)")
	cmd.Flags().BoolVar(&opts.Sorted, "sorted", false, "sort output quads")
	cmd.Flags().StringVar(&opts.Trace, "trace", "", "record the run in this trace database")

	return cmd
}

func runApply(opts *ApplyOptions, contextPath, graphPath string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	cfg := opts.settings()

	format := codec.Format(cfg.Output)
	if opts.RDFFormat != "" {
		parsed, err := codec.ParseFormat(opts.RDFFormat)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --rdf-format", err)
		}
		format = parsed
	}

	loaded, err := LoadSchema(contextPath, cfg.AllPrefixes())
	if err != nil {
		return loadError(f, err)
	}
	if len(loaded.Violations) > 0 {
		return invalidSchema(f, loaded)
	}
	warnNotWellBehaved(loaded)

	g, err := LoadGraph(graphPath)
	if err != nil {
		return loadError(f, err)
	}

	out, assignments, err := schema.Apply(loaded.Schema, g, schema.WithBlankNodes(cfg.NewBlankNodeFactory()))
	if err != nil {
		return conversionError(f, "apply", err)
	}
	quads := out.Quads()
	if opts.Sorted {
		quads = codec.Sorted(quads)
	}

	run, err := recordRun(cmd.Context(), traceDB(opts.Trace, cfg.Trace), store.Run{
		Direction:   store.DirectionApply,
		SchemaHash:  loaded.Hash,
		InputHash:   store.Fingerprint(pg.ToQuads(g)),
		OutputHash:  store.Fingerprint(quads),
		Elements:    len(assignments),
		Quads:       len(quads),
		Assignments: assignments,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to record run", err)
	}

	result := ApplyResult{Quads: len(quads), Assignments: assignments, Output: opts.Output, RunID: run.ID}
	if opts.Output != "" {
		if err := codec.WriteFile(opts.Output, quads); err != nil {
			_ = f.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		f.VerboseLog("Wrote %d quads to %s", len(quads), opts.Output)
		if f.JSON() {
			return f.Success(result)
		}
		fmt.Fprintf(f.Writer, "✓ %d elements converted, %d quads written to %s\n", len(assignments), len(quads), opts.Output)
		return nil
	}

	if f.JSON() {
		var buf bytes.Buffer
		if err := codec.Write(&buf, quads, format); err != nil {
			return WrapExitError(ExitFailure, "failed to serialize output", err)
		}
		result.RDF = buf.String()
		return f.Success(result)
	}
	if err := codec.Write(f.Writer, quads, format); err != nil {
		return WrapExitError(ExitFailure, "failed to serialize output", err)
	}
	return nil
}

// warnNotWellBehaved logs checker warnings. Converting with such a schema
// works, reverting its output may not.
func warnNotWellBehaved(loaded *LoadedSchema) check.Report {
	report := check.Check(loaded.Schema)
	for _, v := range report.Violations() {
		slog.Warn("schema is not well-behaved", "code", v.Code, "rule", v.Rule, "message", v.Message)
	}
	return report
}

func traceDB(flag, configured string) string {
	if flag != "" {
		return flag
	}
	return configured
}
