package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/pgstar/internal/schema"
)

// Direction names the conversion a run performed.
type Direction string

const (
	DirectionApply  Direction = "apply"
	DirectionRevert Direction = "revert"
)

// Run is one recorded conversion.
type Run struct {
	ID          string              `json:"id"`
	Seq         int64               `json:"seq"`
	Direction   Direction           `json:"direction"`
	SchemaHash  string              `json:"schemaHash"`
	InputHash   string              `json:"inputHash"`
	OutputHash  string              `json:"outputHash"`
	Elements    int                 `json:"elements"`
	Quads       int                 `json:"quads"`
	Assignments []schema.Assignment `json:"assignments,omitempty"`
}

// WriteRun records run with its assignments and returns the stored run. The
// ID is computed when empty and seq is always assigned by the store. Writing
// a run whose ID already exists leaves the database unchanged and returns
// the stored copy, so repeated conversions are recorded once.
func (s *Store) WriteRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = RunID(run.Direction, run.SchemaHash, run.InputHash, run.OutputHash)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return Run{}, fmt.Errorf("write run: next seq: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, direction, schema_hash, input_hash, output_hash, element_count, quad_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, seq, string(run.Direction), run.SchemaHash, run.InputHash, run.OutputHash, run.Elements, run.Quads)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}
	if inserted == 0 {
		if err := tx.Commit(); err != nil {
			return Run{}, fmt.Errorf("write run: commit: %w", err)
		}
		return s.ReadRun(ctx, run.ID)
	}

	if err := writeAssignments(ctx, tx, run.ID, run.Assignments); err != nil {
		return Run{}, err
	}
	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("write run: commit: %w", err)
	}
	run.Seq = seq
	return run, nil
}

func writeAssignments(ctx context.Context, tx *sql.Tx, runID string, assignments []schema.Assignment) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO assignments (run_id, seq, element, kind, rule, quad_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write assignments: %w", err)
	}
	defer stmt.Close()

	for i, a := range assignments {
		if _, err := stmt.ExecContext(ctx, runID, i+1, a.Element, a.Kind.String(), a.Rule, a.Quads); err != nil {
			return fmt.Errorf("write assignment %s: %w", a.Element, err)
		}
	}
	return nil
}
