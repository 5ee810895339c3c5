package store

import (
	"context"
	"fmt"

	"github.com/roach88/branchless/internal/ir"
)

// WriteRunAtomic records a run and all of its transitions in one
// transaction. Either everything is written or nothing is.
//
// Uses ON CONFLICT DO NOTHING for idempotency: writing the same run twice
// is a no-op. Transitions must belong to run.ID.
func (s *Store) WriteRunAtomic(ctx context.Context, run ir.Run, transitions []ir.Transition) error {
	programJSON, err := marshalProgram(run.Program)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin transaction: %w", err)
	}
	// Rollback after Commit is a no-op.
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, run_token, program_name, program, program_hash, mode, seq, body_count, final, outcome, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.RunToken,
		run.Program.Name,
		programJSON,
		run.ProgramHash,
		run.Mode,
		run.Seq,
		run.BodyCount,
		run.Final,
		run.Outcome,
		run.EngineVersion,
		run.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transitions
		(run_id, seq, iteration, mask, outcome, value)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write run: prepare transitions: %w", err)
	}
	defer stmt.Close()

	for i, tr := range transitions {
		if tr.RunID != run.ID {
			return fmt.Errorf("write run: transition %d belongs to run %q, not %q", i, tr.RunID, run.ID)
		}
		if _, err := stmt.ExecContext(ctx, tr.RunID, tr.Seq, tr.Iteration, tr.Mask, tr.Outcome, tr.Value); err != nil {
			return fmt.Errorf("write run: transition %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}
