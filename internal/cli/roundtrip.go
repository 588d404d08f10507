package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/pgstar/internal/pg"
	"github.com/roach88/pgstar/internal/revert"
	"github.com/roach88/pgstar/internal/schema"
	"github.com/roach88/pgstar/internal/store"
)

// RoundtripResult is the outcome of the roundtrip command.
type RoundtripResult struct {
	WellBehaved bool   `json:"well_behaved"`
	Quads       int    `json:"quads"`
	Nodes       int    `json:"nodes"`
	Edges       int    `json:"edges"`
	Isomorphic  bool   `json:"isomorphic"`
	Output      string `json:"output,omitempty"`
}

// RoundtripOptions holds flags for the roundtrip command.
type RoundtripOptions struct {
	*RootOptions
	Output string // reverted graph file, by extension
	Trace  string
}

// NewRoundtripCommand creates the roundtrip command.
func NewRoundtripCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RoundtripOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "roundtrip <context> <graph>",
		Short: "Convert a property graph to RDF-star and back",
		Long: `Apply a schema to a property graph, revert the output and compare the
result with the input up to element identifiers.

Exit codes:
  0 - The graph survived the round trip
  1 - A conversion failed or the graphs differ
  2 - Command error

Examples:
  pgstar roundtrip schema.nq graph.yaml
  pgstar roundtrip schema.nq graph.yaml --trace trace.db
  pgstar roundtrip schema.nq graph.nq -o reverted.nq`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoundtrip(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the reverted graph (.json, .yaml, or .nq/.nt/.jsonld for the pgo encoding)")
	cmd.Flags().StringVar(&opts.Trace, "trace", "", "record both runs in this trace database")

	return cmd
}

func runRoundtrip(opts *RoundtripOptions, contextPath, graphPath string, cmd *cobra.Command) error {
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

	g, err := LoadGraph(graphPath)
	if err != nil {
		return loadError(f, err)
	}

	out, assignments, err := schema.Apply(loaded.Schema, g, schema.WithBlankNodes(cfg.NewBlankNodeFactory()))
	if err != nil {
		return conversionError(f, "apply", err)
	}
	reverted, err := revert.Revert(loaded.Schema, out)
	if err != nil {
		return conversionError(f, "revert", err)
	}

	path := traceDB(opts.Trace, cfg.Trace)
	inputHash, outputHash := store.Fingerprint(pg.ToQuads(g)), store.Fingerprint(out.Quads())
	runs := []store.Run{
		{
			Direction:   store.DirectionApply,
			SchemaHash:  loaded.Hash,
			InputHash:   inputHash,
			OutputHash:  outputHash,
			Elements:    len(assignments),
			Quads:       out.Len(),
			Assignments: assignments,
		},
		{
			Direction:   store.DirectionRevert,
			SchemaHash:  loaded.Hash,
			InputHash:   outputHash,
			OutputHash:  store.Fingerprint(pg.ToQuads(reverted.Graph)),
			Elements:    len(reverted.Assignments),
			Quads:       out.Len(),
			Assignments: reverted.Assignments,
		},
	}
	for _, run := range runs {
		if _, err := recordRun(cmd.Context(), path, run); err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
	}

	result := RoundtripResult{
		WellBehaved: report.WellBehaved(),
		Quads:       out.Len(),
		Nodes:       len(reverted.Graph.Nodes),
		Edges:       len(reverted.Graph.Edges),
		Isomorphic:  pg.Isomorphic(g, reverted.Graph),
		Output:      opts.Output,
	}
	if opts.Output != "" {
		if err := writeGraph(opts.Output, reverted.Graph); err != nil {
			_ = f.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
	}
	slog.Info("round trip", "quads", result.Quads, "isomorphic", result.Isomorphic)

	if f.JSON() {
		if err := f.Success(result); err != nil {
			return err
		}
	} else if result.Isomorphic {
		fmt.Fprintf(f.Writer, "✓ %d nodes and %d edges survived the round trip through %d quads\n", result.Nodes, result.Edges, result.Quads)
	} else {
		fmt.Fprintf(f.Writer, "✗ reverted graph (%d nodes, %d edges) differs from the input (%d nodes, %d edges)\n",
			result.Nodes, result.Edges, len(g.Nodes), len(g.Edges))
	}

	if !result.Isomorphic {
		return NewExitError(ExitFailure, "round trip changed the graph")
	}
	return nil
}
