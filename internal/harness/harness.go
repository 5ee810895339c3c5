package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/branchless/internal/compiler"
	"github.com/roach88/branchless/internal/control"
	"github.com/roach88/branchless/internal/engine"
	"github.com/roach88/branchless/internal/ir"
	"github.com/roach88/branchless/internal/store"
)

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock and a fixed run token.
type Harness struct {
	store    *store.Store
	clock    *engine.Clock
	tokens   *engine.FixedGenerator
	logger   *slog.Logger
	programs map[string]ir.Program

	// last holds the most recent completed run per program, and
	// lastSteps the quota that run was held to.
	last      map[string]*engine.Result
	lastSteps map[string]int64
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Load, compile and validate the programs in scenario.Specs
// 3. Run each flow step and check its expect clause
// 4. Evaluate assertions
//
// An error is returned only when the scenario cannot be executed at all.
// Failed expectations and assertions are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	programs, err := LoadPrograms(scenario.Specs)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		store:     st,
		clock:     engine.NewClockAt(0),
		tokens:    engine.NewRepeatingGenerator(runToken(scenario)),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		programs:  programs,
		last:      make(map[string]*engine.Result),
		lastSteps: make(map[string]int64),
	}

	ctx := context.Background()
	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{
		Store:    st,
		Ctx:      ctx,
		Programs: programs,
		Runs:     h.last,
		MaxSteps: h.lastSteps,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// DefaultRunToken is used when a scenario does not set run_token.
const DefaultRunToken = "test-run-default"

func runToken(s *Scenario) string {
	if s.RunToken == "" {
		return DefaultRunToken
	}
	return s.RunToken
}

// executeFlow runs every step in order. All steps share the clock and the
// run token, so seqs continue across steps.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		prog, ok := h.programs[step.Run]
		if !ok {
			return fmt.Errorf("flow[%d]: unknown program %q", i, step.Run)
		}

		mode := control.Trampoline
		if step.Mode != "" {
			m, err := control.ParseMode(step.Mode)
			if err != nil {
				return fmt.Errorf("flow[%d]: %w", i, err)
			}
			mode = m
		}

		opts := []engine.Option{
			engine.WithStore(h.store),
			engine.WithClock(h.clock),
			engine.WithTokenGenerator(h.tokens),
			engine.WithMode(mode),
			engine.WithLogger(h.logger),
		}
		if step.MaxSteps > 0 {
			opts = append(opts, engine.WithMaxSteps(step.MaxSteps))
		}

		res, err := engine.New(opts...).Run(ctx, prog)
		if err != nil {
			code := engine.ErrorCode(err)
			if code == "" {
				return fmt.Errorf("flow[%d]: run %s: %w", i, step.Run, err)
			}
			result.AddFailedRun(step.Run, mode.String(), code)
			checkFailure(i, step, code, err, result)
			continue
		}

		result.AddRun(res)
		h.last[step.Run] = res
		h.lastSteps[step.Run] = step.MaxSteps
		checkExpect(i, step, res, result)
	}
	return nil
}

func checkFailure(index int, step FlowStep, code engine.RuntimeErrorCode, err error, result *Result) {
	if step.Expect == nil || step.Expect.Error == "" {
		result.AddError(fmt.Sprintf("flow[%d]: run %s failed: %v", index, step.Run, err))
		return
	}
	if string(code) != step.Expect.Error {
		result.AddError(fmt.Sprintf("flow[%d]: run %s: expected error %s, got %s",
			index, step.Run, step.Expect.Error, code))
	}
}

func checkExpect(index int, step FlowStep, res *engine.Result, result *Result) {
	e := step.Expect
	if e == nil {
		return
	}
	run := res.Run
	if e.Error != "" {
		result.AddError(fmt.Sprintf("flow[%d]: run %s: expected error %s, run completed", index, step.Run, e.Error))
		return
	}
	if e.BodyCount != nil && *e.BodyCount != run.BodyCount {
		result.AddError(fmt.Sprintf("flow[%d]: run %s: expected body_count %d, got %d",
			index, step.Run, *e.BodyCount, run.BodyCount))
	}
	if e.Final != nil && *e.Final != run.Final {
		result.AddError(fmt.Sprintf("flow[%d]: run %s: expected final %d, got %d",
			index, step.Run, *e.Final, run.Final))
	}
	if e.Target != "" && e.Target != run.Outcome {
		result.AddError(fmt.Sprintf("flow[%d]: run %s: expected target %s, got %s",
			index, step.Run, e.Target, run.Outcome))
	}
}

// LoadPrograms compiles and validates the programs declared in the given
// CUE files. Program names must be unique across all files.
func LoadPrograms(paths []string) (map[string]ir.Program, error) {
	cctx := cuecontext.New()
	var all []ir.Program
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read spec file: %w", err)
		}
		v := cctx.CompileBytes(data, cue.Filename(path))
		if err := v.Err(); err != nil {
			return nil, fmt.Errorf("compile %s: %w", path, err)
		}
		progs, err := compiler.CompilePrograms(v)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", path, err)
		}
		all = append(all, progs...)
	}

	if errs := compiler.ValidateAll(all); len(errs) > 0 {
		return nil, fmt.Errorf("invalid programs: %w", errs[0])
	}

	programs := make(map[string]ir.Program, len(all))
	for _, p := range all {
		programs[p.Name] = p
	}
	return programs, nil
}
