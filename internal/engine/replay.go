package engine

import (
	"context"
	"fmt"

	"github.com/roach88/branchless/internal/control"
	"github.com/roach88/branchless/internal/ir"
)

// ReplayResult reports whether a stored run reproduces.
type ReplayResult struct {
	RunID    string
	Match    bool
	Mismatch string // First difference found, empty on a match
}

// Replay re-executes a stored run under its original token, mode and
// clock position, then compares the fresh run and transitions with the
// stored ones. Nothing is written.
//
// Replay is the same code path as Run: with the same inputs the content
// addressed run ID and every transition seq come out identical.
func Replay(ctx context.Context, run ir.Run, stored []ir.Transition, opts ...Option) (*ReplayResult, error) {
	mode, err := control.ParseMode(run.Mode)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", run.ID, err)
	}

	opts = append(opts,
		WithStore(nil),
		WithMode(mode),
		WithClock(NewClockAt(run.Seq-1)),
		WithTokenGenerator(NewFixedGenerator(run.RunToken)),
	)
	res, err := New(opts...).Run(ctx, run.Program)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", run.ID, err)
	}

	out := &ReplayResult{RunID: run.ID, Mismatch: compareRuns(run, stored, res)}
	out.Match = out.Mismatch == ""
	return out, nil
}

func compareRuns(want ir.Run, stored []ir.Transition, got *Result) string {
	switch {
	case got.Run.ID != want.ID:
		return fmt.Sprintf("run id %s, stored %s", got.Run.ID, want.ID)
	case got.Run.BodyCount != want.BodyCount:
		return fmt.Sprintf("body count %d, stored %d", got.Run.BodyCount, want.BodyCount)
	case got.Run.Final != want.Final:
		return fmt.Sprintf("final %d, stored %d", got.Run.Final, want.Final)
	case got.Run.Outcome != want.Outcome:
		return fmt.Sprintf("outcome %s, stored %s", got.Run.Outcome, want.Outcome)
	case len(got.Transitions) != len(stored):
		return fmt.Sprintf("%d transitions, stored %d", len(got.Transitions), len(stored))
	}
	for k := range stored {
		if got.Transitions[k] != stored[k] {
			return fmt.Sprintf("transition %d: %+v, stored %+v", k, got.Transitions[k], stored[k])
		}
	}
	return ""
}

// NewReplayMismatchError wraps a failed replay as a RuntimeError.
func NewReplayMismatchError(r *ReplayResult) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeReplayMismatch,
		Message: r.Mismatch,
		Details: map[string]string{"run_id": r.RunID},
	}
}
