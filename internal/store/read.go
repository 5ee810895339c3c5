package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/branchless/internal/ir"
	"github.com/roach88/branchless/internal/queryir"
)

const runColumns = `id, run_token, program, program_hash, mode, seq, body_count, final, outcome, engine_version, ir_version`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE id = ?
	`, id)
	return scanRun(row)
}

// ListRuns returns every run ordered by seq ASC, id ASC.
// Returns an empty slice (not nil) for an empty store.
func (s *Store) ListRuns(ctx context.Context) ([]ir.Run, error) {
	return s.FindRuns(ctx, nil)
}

// ListRunsByToken returns the runs of one run token in seq order.
func (s *Store) ListRunsByToken(ctx context.Context, runToken string) ([]ir.Run, error) {
	return s.FindRuns(ctx, queryir.Equals{Field: "run_token", Value: runToken})
}

// ReadTransitions returns the transitions of a run ordered by seq.
// Returns an empty slice (not nil) if the run has none.
func (s *Store) ReadTransitions(ctx context.Context, runID string) ([]ir.Transition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, iteration, mask, outcome, value
		FROM transitions
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	transitions := []ir.Transition{}
	for rows.Next() {
		var tr ir.Transition
		if err := rows.Scan(&tr.RunID, &tr.Seq, &tr.Iteration, &tr.Mask, &tr.Outcome, &tr.Value); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		transitions = append(transitions, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}
	return transitions, nil
}

func collectRuns(rows *sql.Rows) ([]ir.Run, error) {
	defer rows.Close()

	runs := []ir.Run{}
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

func scanRun(row rowScanner) (ir.Run, error) {
	var run ir.Run
	var programJSON string
	err := row.Scan(
		&run.ID,
		&run.RunToken,
		&programJSON,
		&run.ProgramHash,
		&run.Mode,
		&run.Seq,
		&run.BodyCount,
		&run.Final,
		&run.Outcome,
		&run.EngineVersion,
		&run.IRVersion,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return ir.Run{}, err
		}
		return ir.Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.Program, err = unmarshalProgram(programJSON)
	if err != nil {
		return ir.Run{}, err
	}
	return run, nil
}
