package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pgstar/internal/check"
	"github.com/roach88/pgstar/internal/pg"
	"github.com/roach88/pgstar/internal/revert"
	"github.com/roach88/pgstar/internal/schema"
	"github.com/roach88/pgstar/internal/store"
)

// RevertOptions holds flags for the revert command.
type RevertOptions struct {
	*RootOptions
	Output string // graph file by extension (.json, .yaml, .nq); stdout when empty
	YAML   bool   // YAML on stdout instead of JSON
	Trace  string
}

// RevertResult is the JSON payload of the revert command.
type RevertResult struct {
	Nodes       int                 `json:"nodes"`
	Edges       int                 `json:"edges"`
	Assignments []schema.Assignment `json:"assignments"`
	Output      string              `json:"output,omitempty"`
	Graph       *pg.Graph           `json:"graph,omitempty"`
	RunID       string              `json:"run_id,omitempty"`
}

// NewRevertCommand creates the revert command.
func NewRevertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RevertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "revert <context> <rdf>",
		Short: "Convert RDF-star back to a property graph",
		Long: `Rebuild the property graph an RDF-star dataset was produced from, using
the rules of the context file.

With strict configuration (the default) the schema must be well-behaved;
see "pgstar check".

Examples:
  pgstar revert schema.nq data.nq
  pgstar revert schema.nq data.nq.zst -o graph.yaml
  pgstar revert schema.nq data.nq -o graph.nq`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRevert(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output graph file (.json, .yaml, or .nq/.nt/.jsonld for the pgo encoding)")
	cmd.Flags().BoolVar(&opts.YAML, "yaml", false, "write YAML on stdout")
	cmd.Flags().StringVar(&opts.Trace, "trace", "", "record the run in this trace database")

	return cmd
}

func runRevert(opts *RevertOptions, contextPath, rdfPath string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	cfg := opts.settings()

	loaded, err := LoadSchema(contextPath, cfg.AllPrefixes())
	if err != nil {
		return loadError(f, err)
	}
	if len(loaded.Violations) > 0 {
		return invalidSchema(f, loaded)
	}
	report := warnNotWellBehaved(loaded)
	if cfg.Strict && !report.WellBehaved() {
		return notWellBehaved(f, report)
	}

	ds, err := LoadDataset(rdfPath, cfg.AllPrefixes())
	if err != nil {
		return loadError(f, err)
	}

	result, err := revert.Revert(loaded.Schema, ds)
	if err != nil {
		return conversionError(f, "revert", err)
	}
	g := result.Graph

	run, err := recordRun(cmd.Context(), traceDB(opts.Trace, cfg.Trace), store.Run{
		Direction:   store.DirectionRevert,
		SchemaHash:  loaded.Hash,
		InputHash:   store.Fingerprint(ds.Quads()),
		OutputHash:  store.Fingerprint(pg.ToQuads(g)),
		Elements:    len(result.Assignments),
		Quads:       ds.Len(),
		Assignments: result.Assignments,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to record run", err)
	}

	payload := RevertResult{
		Nodes:       len(g.Nodes),
		Edges:       len(g.Edges),
		Assignments: result.Assignments,
		Output:      opts.Output,
		RunID:       run.ID,
	}

	if opts.Output != "" {
		if err := writeGraph(opts.Output, g); err != nil {
			_ = f.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		if f.JSON() {
			return f.Success(payload)
		}
		fmt.Fprintf(f.Writer, "✓ %d nodes and %d edges written to %s\n", len(g.Nodes), len(g.Edges), opts.Output)
		return nil
	}

	if f.JSON() {
		payload.Graph = g
		return f.Success(payload)
	}
	format := pg.FormatJSON
	if opts.YAML {
		format = pg.FormatYAML
	}
	return pg.Encode(f.Writer, g, format)
}

// notWellBehaved reports checker warnings that block a strict command.
func notWellBehaved(f *OutputFormatter, report check.Report) error {
	violations := report.Violations()
	codes := make([]string, len(violations))
	for i, v := range violations {
		codes[i] = v.Code
	}
	_ = f.Error(violations[0].Code, fmt.Sprintf("schema is not well-behaved (%s); set strict: false to convert anyway", strings.Join(codes, ", ")), violations)
	return NewExitError(ExitFailure, "schema is not well-behaved")
}
