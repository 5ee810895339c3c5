package store

import (
	"context"
	"fmt"

	"github.com/roach88/branchless/internal/ir"
)

// RunState is a stored run together with its transitions and an
// integrity check of the two against each other.
type RunState struct {
	Run         ir.Run
	Transitions []ir.Transition
	LastSeq     int64
	Problems    []string // Empty when the log is consistent
}

// Consistent reports whether the integrity check found no problems.
func (rs RunState) Consistent() bool {
	return len(rs.Problems) == 0
}

// GetRunState loads a run and checks that its transitions account for it:
// seqs strictly increase after the run's own seq, the last outcome matches
// the run outcome, and the body count matches the continue decisions.
func (s *Store) GetRunState(ctx context.Context, runID string) (RunState, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return RunState{}, fmt.Errorf("get run state: %w", err)
	}
	transitions, err := s.ReadTransitions(ctx, runID)
	if err != nil {
		return RunState{}, fmt.Errorf("get run state: %w", err)
	}

	state := RunState{Run: run, Transitions: transitions, LastSeq: run.Seq}
	state.Problems = checkRun(run, transitions)
	if n := len(transitions); n > 0 {
		state.LastSeq = transitions[n-1].Seq
	}
	return state, nil
}

func checkRun(run ir.Run, transitions []ir.Transition) []string {
	var problems []string
	if len(transitions) == 0 {
		return append(problems, "run has no transitions")
	}

	prev := run.Seq
	continues := int64(0)
	for _, tr := range transitions {
		if tr.Seq <= prev {
			problems = append(problems, fmt.Sprintf("transition seq %d not after %d", tr.Seq, prev))
		}
		prev = tr.Seq
		if tr.Outcome == ir.OutcomeContinue {
			continues++
		}
	}

	last := transitions[len(transitions)-1]
	if last.Outcome != run.Outcome {
		problems = append(problems, fmt.Sprintf("last transition outcome %q, run outcome %q", last.Outcome, run.Outcome))
	}

	want := continues
	switch run.Program.Construct {
	case ir.ConstructIf:
		want = 1
	case ir.ConstructDoWhile:
		want++
	}
	if run.BodyCount != want {
		problems = append(problems, fmt.Sprintf("body count %d, transitions imply %d", run.BodyCount, want))
	}
	return problems
}

// GetLastSeq returns the highest seq number used in the store.
// Used to resume the logical clock from the correct position.
func (s *Store) GetLastSeq(ctx context.Context) (int64, error) {
	var maxSeq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(
			(SELECT COALESCE(MAX(seq), 0) FROM runs),
			(SELECT COALESCE(MAX(seq), 0) FROM transitions)
		)
	`).Scan(&maxSeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return maxSeq, nil
}

// ListRunTokens returns all distinct run tokens, sorted.
func (s *Store) ListRunTokens(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT run_token FROM runs
		ORDER BY run_token
	`)
	if err != nil {
		return nil, fmt.Errorf("list run tokens: %w", err)
	}
	defer rows.Close()

	tokens := []string{}
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("scan run token: %w", err)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run tokens: %w", err)
	}
	return tokens, nil
}
