package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/branchless/internal/control"
	"github.com/roach88/branchless/internal/ir"
)

func TestReplay_ReproducesStoredRuns(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, mode := range []control.Mode{control.Trampoline, control.Recursive} {
		e := newTestEngine(WithStore(s), WithMode(mode), WithClock(NewClockAt(100*int64(mode))))
		for _, c := range []string{ir.ConstructIf, ir.ConstructFor, ir.ConstructWhile, ir.ConstructDoWhile} {
			_, err := e.Run(ctx, countToTen(c))
			require.NoError(t, err)
		}
	}

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 8)

	for _, run := range runs {
		stored, err := s.ReadTransitions(ctx, run.ID)
		require.NoError(t, err)

		res, err := Replay(ctx, run, stored, WithLogger(discardLogger()))
		require.NoError(t, err)
		assert.True(t, res.Match, "run %s (%s): %s", run.ID, run.Program.Construct, res.Mismatch)
	}
}

func TestReplay_DetectsTampering(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	res, err := e.Run(ctx, countToTen(ir.ConstructFor))
	require.NoError(t, err)

	tampered := append([]ir.Transition(nil), res.Transitions...)
	tampered[1].Value = 99

	out, err := Replay(ctx, res.Run, tampered, WithLogger(discardLogger()))
	require.NoError(t, err)
	assert.False(t, out.Match)
	assert.Contains(t, out.Mismatch, "transition 1")

	re := NewReplayMismatchError(out)
	assert.Equal(t, ErrCodeReplayMismatch, re.Code)
	assert.Equal(t, res.Run.ID, re.Details["run_id"])
}

func TestReplay_DetectsRunFieldChanges(t *testing.T) {
	ctx := context.Background()
	res, err := newTestEngine().Run(ctx, countToTen(ir.ConstructWhile))
	require.NoError(t, err)

	tests := []struct {
		name string
		mut  func(*ir.Run)
		want string
	}{
		{"final", func(r *ir.Run) { r.Final = 11 }, "final 10, stored 11"},
		{"body count", func(r *ir.Run) { r.BodyCount = 3 }, "body count 10, stored 3"},
		{"program", func(r *ir.Run) { r.Program.Limit = 9 }, "run id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := res.Run
			tt.mut(&run)

			out, err := Replay(ctx, run, res.Transitions, WithLogger(discardLogger()))
			require.NoError(t, err)
			assert.False(t, out.Match)
			assert.Contains(t, out.Mismatch, tt.want)
		})
	}
}

func TestReplay_BadMode(t *testing.T) {
	res, err := newTestEngine().Run(context.Background(), countToTen(ir.ConstructFor))
	require.NoError(t, err)

	run := res.Run
	run.Mode = "sideways"
	_, err = Replay(context.Background(), run, res.Transitions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
