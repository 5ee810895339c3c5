package engine

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/branchless/internal/control"
	"github.com/roach88/branchless/internal/ir"
)

func TestRun_ForCountsToTen(t *testing.T) {
	e := newTestEngine()

	res, err := e.Run(context.Background(), countToTen(ir.ConstructFor))
	require.NoError(t, err)

	assert.Equal(t, int64(10), res.Run.BodyCount)
	assert.Equal(t, int64(10), res.Run.Final)
	assert.Equal(t, ir.OutcomeTerminate, res.Run.Outcome)
	assert.Equal(t, seq(0, 10), res.Visited)
	require.Len(t, res.Transitions, 11)

	first, last := res.Transitions[0], res.Transitions[10]
	assert.Equal(t, ir.Transition{
		RunID: res.Run.ID, Seq: 2, Iteration: 0, Mask: "0xffffffff", Outcome: ir.OutcomeContinue, Value: 0,
	}, first)
	assert.Equal(t, ir.Transition{
		RunID: res.Run.ID, Seq: 12, Iteration: 10, Mask: "0x0", Outcome: ir.OutcomeTerminate, Value: 10,
	}, last)
}

func TestRun_WhileAndDoWhileMatchForOnCountToTen(t *testing.T) {
	for _, c := range []string{ir.ConstructWhile, ir.ConstructDoWhile} {
		t.Run(c, func(t *testing.T) {
			res, err := newTestEngine().Run(context.Background(), countToTen(c))
			require.NoError(t, err)

			assert.Equal(t, int64(10), res.Run.BodyCount)
			assert.Equal(t, int64(10), res.Run.Final)
			assert.Equal(t, seq(0, 10), res.Visited)
		})
	}
}

func TestRun_FalseConditionFromTheStart(t *testing.T) {
	tests := []struct {
		construct string
		body      int64
		final     int64
		decisions int
	}{
		{ir.ConstructWhile, 0, 10, 1},
		{ir.ConstructFor, 0, 10, 1},
		{ir.ConstructDoWhile, 1, 11, 1},
	}

	for _, tt := range tests {
		t.Run(tt.construct, func(t *testing.T) {
			p := program(tt.construct, 32, true, ir.RelLT, 10, 10, 1)
			res, err := newTestEngine().Run(context.Background(), p)
			require.NoError(t, err)

			assert.Equal(t, tt.body, res.Run.BodyCount)
			assert.Equal(t, tt.final, res.Run.Final)
			assert.Len(t, res.Transitions, tt.decisions)
		})
	}
}

func TestRun_DoWhileFirstDecisionFollowsOneBody(t *testing.T) {
	res, err := newTestEngine().Run(context.Background(), countToTen(ir.ConstructDoWhile))
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.Transitions[0].Iteration)
	assert.Equal(t, int64(1), res.Transitions[0].Value)
}

func TestRun_If(t *testing.T) {
	tests := []struct {
		name    string
		rel     ir.Relation
		outcome string
		mask    string
	}{
		{"then", ir.RelLT, ir.OutcomeThen, "0xff"},
		{"else", ir.RelGT, ir.OutcomeElse, "0x0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := program(ir.ConstructIf, 8, false, tt.rel, 3, 7, 0)
			res, err := newTestEngine().Run(context.Background(), p)
			require.NoError(t, err)

			assert.Equal(t, tt.outcome, res.Run.Outcome)
			assert.Equal(t, int64(1), res.Run.BodyCount)
			assert.Equal(t, int64(3), res.Run.Final)
			require.Len(t, res.Transitions, 1)
			assert.Equal(t, tt.mask, res.Transitions[0].Mask)
			assert.Equal(t, int64(0), res.Transitions[0].Iteration)
		})
	}
}

func TestRun_Relations(t *testing.T) {
	tests := []struct {
		rel     ir.Relation
		init    int64
		limit   int64
		step    int64
		visited []int64
	}{
		{ir.RelLT, 0, 3, 1, []int64{0, 1, 2}},
		{ir.RelLE, 0, 3, 1, []int64{0, 1, 2, 3}},
		{ir.RelGT, 3, 0, -1, []int64{3, 2, 1}},
		{ir.RelGE, 3, 0, -1, []int64{3, 2, 1, 0}},
		{ir.RelNE, 0, 6, 2, []int64{0, 2, 4}},
		{ir.RelEQ, 5, 5, 1, []int64{5}},
	}

	for _, tt := range tests {
		t.Run(string(tt.rel), func(t *testing.T) {
			p := program(ir.ConstructWhile, 16, true, tt.rel, tt.init, tt.limit, tt.step)
			res, err := newTestEngine().Run(context.Background(), p)
			require.NoError(t, err)
			assert.Equal(t, tt.visited, res.Visited)
		})
	}
}

func TestRun_Widths(t *testing.T) {
	tests := []struct {
		name    string
		prog    ir.Program
		visited []int64
		final   int64
		mask    string
	}{
		{
			name:    "int8 up to max",
			prog:    program(ir.ConstructFor, 8, true, ir.RelLT, 124, 127, 1),
			visited: []int64{124, 125, 126},
			final:   127,
			mask:    "0xff",
		},
		{
			name:    "uint8 wraps to zero",
			prog:    program(ir.ConstructWhile, 8, false, ir.RelNE, 252, 0, 1),
			visited: []int64{252, 253, 254, 255},
			final:   0,
			mask:    "0xff",
		},
		{
			name:    "uint16 counts down by wrapping step",
			prog:    program(ir.ConstructFor, 16, false, ir.RelGT, 3, 0, -1),
			visited: []int64{3, 2, 1},
			final:   0,
			mask:    "0xffff",
		},
		{
			name:    "uint64 crosses the sign bit",
			prog:    program(ir.ConstructFor, 64, false, ir.RelLT, 0, math.MaxInt64, 1<<62),
			visited: []int64{0, 1 << 62},
			final:   math.MinInt64, // 1<<63 reinterpreted
			mask:    "0xffffffffffffffff",
		},
		{
			name:    "int64 extremes compare without overflow",
			prog:    program(ir.ConstructFor, 64, true, ir.RelGT, math.MaxInt64, -(1 << 62), -(1 << 62)),
			visited: []int64{math.MaxInt64, 1<<62 - 1, -1},
			final:   -(1 << 62) - 1,
			mask:    "0xffffffffffffffff",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newTestEngine().Run(context.Background(), tt.prog)
			require.NoError(t, err)

			assert.Equal(t, tt.visited, res.Visited)
			assert.Equal(t, tt.final, res.Run.Final)
			assert.Equal(t, tt.mask, res.Transitions[0].Mask)
		})
	}
}

func TestRun_ModesProduceSameDecisions(t *testing.T) {
	strip := func(trs []ir.Transition) []ir.Transition {
		out := make([]ir.Transition, len(trs))
		for k, tr := range trs {
			tr.RunID = ""
			out[k] = tr
		}
		return out
	}

	for _, c := range []string{ir.ConstructFor, ir.ConstructWhile, ir.ConstructDoWhile} {
		t.Run(c, func(t *testing.T) {
			tr, err := newTestEngine(WithMode(control.Trampoline)).Run(context.Background(), countToTen(c))
			require.NoError(t, err)
			rec, err := newTestEngine(WithMode(control.Recursive)).Run(context.Background(), countToTen(c))
			require.NoError(t, err)

			if diff := cmp.Diff(strip(tr.Transitions), strip(rec.Transitions)); diff != "" {
				t.Errorf("modes disagree (-trampoline +recursive):\n%s", diff)
			}
			assert.NotEqual(t, tr.Run.ID, rec.Run.ID, "mode is part of the run identity")
			assert.Equal(t, "recursive", rec.Run.Mode)
		})
	}
}

func TestRun_QuotaExceeded(t *testing.T) {
	var logs bytes.Buffer
	e := newTestEngine(
		WithMaxSteps(5),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)

	// 0, 2, 4, ... never equals 255.
	spin := program(ir.ConstructWhile, 8, false, ir.RelNE, 0, 255, 2)
	spin.Name = "spin"

	res, err := e.Run(context.Background(), spin)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, IsQuotaError(err))

	var se *StepsExceededError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "spin", se.Program)
	assert.Equal(t, "test-run", se.RunToken)
	assert.Equal(t, int64(6), se.Steps)
	assert.Equal(t, int64(5), se.Limit)
	assert.Contains(t, logs.String(), "run exceeded step quota")
}

func TestRun_QuotaExactlyReachedIsFine(t *testing.T) {
	e := newTestEngine(WithMaxSteps(10))

	res, err := e.Run(context.Background(), countToTen(ir.ConstructFor))
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.Run.BodyCount)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*ir.Program)
		code RuntimeErrorCode
	}{
		{"width", func(p *ir.Program) { p.Width = 12 }, ErrCodeInvalidWidth},
		{"relation", func(p *ir.Program) { p.Relation = "lte" }, ErrCodeUnknownRelation},
		{"construct", func(p *ir.Program) { p.Construct = "switch" }, ErrCodeUnknownConstruct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := countToTen(ir.ConstructFor)
			tt.mut(&p)

			_, err := newTestEngine().Run(context.Background(), p)
			require.Error(t, err)
			assert.Equal(t, tt.code, ErrorCode(err))
		})
	}
}

func TestRun_RuntimeErrorCarriesRunToken(t *testing.T) {
	p := countToTen(ir.ConstructFor)
	p.Relation = "lte"

	_, err := newTestEngine().Run(context.Background(), p)

	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "test-run", re.RunToken)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine().Run(ctx, countToTen(ir.ConstructFor))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_DeterministicIdentity(t *testing.T) {
	a, err := newTestEngine().Run(context.Background(), countToTen(ir.ConstructFor))
	require.NoError(t, err)
	b, err := newTestEngine().Run(context.Background(), countToTen(ir.ConstructFor))
	require.NoError(t, err)

	assert.Equal(t, a.Run.ID, b.Run.ID)
	assert.Equal(t, a.Transitions, b.Transitions)
}

func TestRun_SeqsAdvanceAcrossRuns(t *testing.T) {
	e := newTestEngine()

	first, err := e.Run(context.Background(), countToTen(ir.ConstructFor))
	require.NoError(t, err)
	second, err := e.Run(context.Background(), countToTen(ir.ConstructFor))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Run.Seq)
	assert.Equal(t, int64(13), second.Run.Seq)
	assert.NotEqual(t, first.Run.ID, second.Run.ID)
}

func TestRun_RecordsToStore(t *testing.T) {
	s := setupTestStore(t)
	e := newTestEngine(WithStore(s))
	ctx := context.Background()

	res, err := e.Run(ctx, countToTen(ir.ConstructDoWhile))
	require.NoError(t, err)

	run, err := s.ReadRun(ctx, res.Run.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(res.Run, run); diff != "" {
		t.Errorf("stored run mismatch (-want +got):\n%s", diff)
	}

	trs, err := s.ReadTransitions(ctx, res.Run.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(res.Transitions, trs); diff != "" {
		t.Errorf("stored transitions mismatch (-want +got):\n%s", diff)
	}

	state, err := s.GetRunState(ctx, res.Run.ID)
	require.NoError(t, err)
	assert.True(t, state.Consistent(), "problems: %v", state.Problems)
}

func TestRun_QuotaExceededIsNotRecorded(t *testing.T) {
	s := setupTestStore(t)
	e := newTestEngine(WithStore(s), WithMaxSteps(3))
	ctx := context.Background()

	_, err := e.Run(ctx, program(ir.ConstructWhile, 8, false, ir.RelNE, 0, 255, 2))
	require.Error(t, err)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRunAll_StopsAtFirstError(t *testing.T) {
	bad := countToTen(ir.ConstructFor)
	bad.Width = 7

	results, err := newTestEngine().RunAll(context.Background(), []ir.Program{
		countToTen(ir.ConstructFor), bad, countToTen(ir.ConstructWhile),
	})
	require.Error(t, err)
	assert.Len(t, results, 1)
}

func TestNew_Defaults(t *testing.T) {
	e := New()
	assert.Equal(t, control.Trampoline, e.Mode())
	assert.Equal(t, int64(DefaultMaxSteps), e.maxSteps)
	assert.Nil(t, e.store)
}
