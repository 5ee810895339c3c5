package store

import (
	"context"
	"fmt"

	"github.com/roach88/branchless/internal/ir"
	"github.com/roach88/branchless/internal/queryir"
	"github.com/roach88/branchless/internal/querysql"
)

// FindRuns returns the runs matching filter, in seq order. A nil filter
// matches every run.
func (s *Store) FindRuns(ctx context.Context, filter queryir.Predicate) ([]ir.Run, error) {
	clause, params, err := querysql.Compile(queryir.Select{From: queryir.TableRuns, Filter: filter})
	if err != nil {
		return nil, fmt.Errorf("find runs: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+runColumns+" "+clause, params...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return collectRuns(rows)
}

// FindTransitions returns the transitions matching filter, across runs,
// in seq order.
func (s *Store) FindTransitions(ctx context.Context, filter queryir.Predicate) ([]ir.Transition, error) {
	clause, params, err := querysql.Compile(queryir.Select{From: queryir.TableTransitions, Filter: filter})
	if err != nil {
		return nil, fmt.Errorf("find transitions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT run_id, seq, iteration, mask, outcome, value "+clause, params...)
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
