package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/pgstar/internal/codec"
	"github.com/roach88/pgstar/internal/dataset"
	"github.com/roach88/pgstar/internal/pg"
	"github.com/roach88/pgstar/internal/rdf"
	"github.com/roach88/pgstar/internal/revert"
	"github.com/roach88/pgstar/internal/schema"
	"github.com/roach88/pgstar/internal/store"
)

// Harness executes scenarios against an isolated trace database with
// reproducible blank node labels.
type Harness struct {
	store      *store.Store
	logger     *slog.Logger
	schemaHash string
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory trace database for isolation.
//
// Execution flow:
//  1. Parse the schema from the context file and check it
//  2. Load the property graph
//  3. Apply the schema, then revert the output
//  4. Compare the outcome with the expect clause and evaluate assertions
//
// An error is returned when the inputs cannot be read; conversion failures
// are part of the result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	result := NewResult()

	contextQuads, err := codec.ReadFile(scenario.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to read context: %w", err)
	}
	h.schemaHash = store.Fingerprint(contextQuads)

	g, err := loadGraph(scenario)
	if err != nil {
		return nil, err
	}

	compiled, cached := compile(h.schemaHash, contextQuads)
	h.logger.Debug("schema compiled", "scenario", scenario.Name, "cached", cached)
	s, violations := compiled.schema, compiled.violations
	result.Violations = append(result.Violations, violations...)
	if len(violations) > 0 {
		// A broken schema cannot convert anything; only violation
		// assertions are meaningful.
		h.logger.Debug("schema rejected", "scenario", scenario.Name, "violations", len(violations))
		evaluate(scenario, result, nil)
		return result, nil
	}

	report := compiled.report
	result.Report = &report
	result.Violations = append(result.Violations, report.Violations()...)
	if want := scenario.Expect.WellBehaved; want != nil && *want != report.WellBehaved() {
		result.AddError(fmt.Sprintf("expected well-behaved=%t, checker says %t", *want, report.WellBehaved()))
	}

	out, err := h.apply(ctx, s, g, result)
	if err != nil {
		return nil, err
	}
	if !expectError("apply", scenario.Expect.ApplyError, result.ApplyError, result) || out == nil {
		evaluate(scenario, result, out)
		return result, nil
	}

	if err := h.revert(ctx, s, out, result); err != nil {
		return nil, err
	}
	if expectError("revert", scenario.Expect.RevertError, result.RevertError, result) && scenario.Expect.Roundtrip {
		if !pg.Isomorphic(g, result.Reverted) {
			result.AddError("reverted graph is not isomorphic to the input graph")
		}
	}

	evaluate(scenario, result, out)

	result.Runs, err = h.store.ReadRuns(ctx)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func loadGraph(scenario *Scenario) (*pg.Graph, error) {
	if scenario.GraphFile != "" {
		g, err := pg.Load(scenario.GraphFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load graph: %w", err)
		}
		return g, nil
	}
	g := pg.Graph{
		Nodes: slices.Clone(scenario.Graph.Nodes),
		Edges: slices.Clone(scenario.Graph.Edges),
	}
	g.Normalize()
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid inline graph: %w", err)
	}
	return &g, nil
}

// apply converts g and records the run. A conversion failure is stored in
// the result and yields a nil dataset.
func (h *Harness) apply(ctx context.Context, s *schema.Schema, g *pg.Graph, result *Result) (*dataset.Dataset, error) {
	out, assignments, err := schema.Apply(s, g, schema.WithBlankNodes(schema.NewCounterBlankNodes("b")))
	if err != nil {
		result.ApplyError = err
		return nil, nil
	}
	result.Quads = out.Quads()
	result.Assignments = assignments

	_, err = h.store.WriteRun(ctx, store.Run{
		Direction:   store.DirectionApply,
		SchemaHash:  h.schemaHash,
		InputHash:   store.Fingerprint(pg.ToQuads(g)),
		OutputHash:  store.Fingerprint(result.Quads),
		Elements:    len(assignments),
		Quads:       out.Len(),
		Assignments: assignments,
	})
	return out, err
}

func (h *Harness) revert(ctx context.Context, s *schema.Schema, ds *dataset.Dataset, result *Result) error {
	reverted, err := revert.Revert(s, ds)
	if err != nil {
		result.RevertError = err
		return nil
	}
	result.Reverted = reverted.Graph

	_, err = h.store.WriteRun(ctx, store.Run{
		Direction:   store.DirectionRevert,
		SchemaHash:  h.schemaHash,
		InputHash:   store.Fingerprint(ds.Quads()),
		OutputHash:  store.Fingerprint(pg.ToQuads(reverted.Graph)),
		Elements:    len(reverted.Assignments),
		Quads:       ds.Len(),
		Assignments: reverted.Assignments,
	})
	return err
}

// expectError compares a conversion outcome with the expected error code
// and reports whether the conversion succeeded as expected.
func expectError(stage, want string, got error, result *Result) bool {
	switch {
	case want == "" && got == nil:
		return true
	case want == "":
		result.AddError(fmt.Sprintf("%s failed: %v", stage, got))
	case got == nil:
		result.AddError(fmt.Sprintf("expected %s to fail with %s, it succeeded", stage, want))
	default:
		if code, _ := schema.CodeOf(got); string(code) != want {
			result.AddError(fmt.Sprintf("expected %s to fail with %s, got %v", stage, want, got))
		}
	}
	return false
}

func evaluate(scenario *Scenario, result *Result, ds *dataset.Dataset) {
	for _, msg := range EvaluateAssertions(scenario, result, ds) {
		result.AddError(msg)
	}
}

// statements renders quads sorted, one per line.
func statements(quads []rdf.Quad) []string {
	sorted := codec.Sorted(quads)
	out := make([]string, len(sorted))
	for i, q := range sorted {
		out[i] = q.Statement()
	}
	return out
}
