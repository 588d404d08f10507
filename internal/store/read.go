package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/pgstar/internal/schema"
)

// ErrRunNotFound is returned by ReadRun for an unknown ID.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, seq, direction, schema_hash, input_hash, output_hash, element_count, quad_count`

// ReadRuns returns every recorded run without assignments, oldest first.
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ReadRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns the run with the given ID and its assignments.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	run.Assignments, err = s.ReadAssignments(ctx, id)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ReadAssignments returns the assignments of a run in the order they were
// made.
func (s *Store) ReadAssignments(ctx context.Context, runID string) ([]schema.Assignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT element, kind, rule, quad_count
		FROM assignments
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	out := []schema.Assignment{}
	for rows.Next() {
		var a schema.Assignment
		var kind string
		if err := rows.Scan(&a.Element, &kind, &a.Rule, &a.Quads); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		if a.Kind, err = schema.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("scan assignment %s: %w", a.Element, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}
	return out, nil
}

// RuleUsage counts assignments per rule across all runs.
func (s *Store) RuleUsage(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT rule, COUNT(*) FROM assignments GROUP BY rule`)
	if err != nil {
		return nil, fmt.Errorf("query rule usage: %w", err)
	}
	defer rows.Close()

	usage := map[string]int{}
	for rows.Next() {
		var rule string
		var n int
		if err := rows.Scan(&rule, &n); err != nil {
			return nil, fmt.Errorf("scan rule usage: %w", err)
		}
		usage[rule] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule usage: %w", err)
	}
	return usage, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var direction string
	err := row.Scan(&run.ID, &run.Seq, &direction, &run.SchemaHash, &run.InputHash, &run.OutputHash, &run.Elements, &run.Quads)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Direction = Direction(direction)
	return run, nil
}
