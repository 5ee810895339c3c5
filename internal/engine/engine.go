package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/branchless/internal/control"
	"github.com/roach88/branchless/internal/ir"
	"github.com/roach88/branchless/internal/mask"
	"github.com/roach88/branchless/internal/store"
)

// DefaultMaxSteps is the default maximum number of loop iterations per run.
const DefaultMaxSteps = 1_000_000

// Engine runs programs and records what they did.
//
// An Engine is not safe for concurrent Run calls: the clock is shared and
// seqs must be assigned in run order for replay to reproduce them.
type Engine struct {
	store    *store.Store // nil: runs are not recorded
	clock    Sequencer
	tokens   RunTokenGenerator
	mode     control.Mode
	maxSteps int64
	logger   *slog.Logger
}

// Sequencer hands out strictly increasing seqs. *Clock is the production
// implementation.
type Sequencer interface {
	Next() int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore records every run in s.
func WithStore(s *store.Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithClock sets the logical clock. Use NewClockAt to resume after the
// store's last seq.
func WithClock(c Sequencer) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithTokenGenerator sets the run-token source.
func WithTokenGenerator(g RunTokenGenerator) Option {
	return func(e *Engine) {
		e.tokens = g
	}
}

// WithMode selects the loop driver.
func WithMode(m control.Mode) Option {
	return func(e *Engine) {
		e.mode = m
	}
}

// WithMaxSteps sets the maximum loop iterations per run.
//
// Default: 1_000_000 (DefaultMaxSteps)
// Use WithMaxSteps(10) for testing quota enforcement.
func WithMaxSteps(maxSteps int64) Option {
	return func(e *Engine) {
		e.maxSteps = maxSteps
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine. Without options it runs in trampoline mode with
// UUIDv7 run tokens, a fresh clock and no store.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:    NewClockAt(0),
		tokens:   UUIDv7Generator{},
		mode:     control.Trampoline,
		maxSteps: DefaultMaxSteps,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mode returns the loop driver runs use.
func (e *Engine) Mode() control.Mode {
	return e.mode
}

// NewRunToken draws a token from the engine's generator.
func (e *Engine) NewRunToken() string {
	return e.tokens.Generate()
}

// Result is a completed run.
type Result struct {
	Run         ir.Run
	Transitions []ir.Transition
	// Visited holds the induction value at each body execution.
	Visited []int64
}

// Run interprets prog on the branchless core and, if the engine has a
// store, records the run and its transitions in one transaction.
//
// The run takes the next seq; its transitions take the seqs after it, in
// decision order. A run that hits the step quota returns
// StepsExceededError and is not recorded.
func (e *Engine) Run(ctx context.Context, prog ir.Program) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	exec, ok := executors[widthKey{prog.Width, prog.Signed}]
	if !ok {
		return nil, invalidWidth(prog.Name, prog.Width, prog.Signed)
	}

	programHash, err := ir.ProgramHash(prog)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", prog.Name, err)
	}

	token := e.tokens.Generate()
	mode := e.mode.String()
	seq := e.clock.Next()
	runID, err := ir.RunID(token, programHash, mode, seq)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", prog.Name, err)
	}

	quota := NewQuotaEnforcer(e.maxSteps)
	ex, err := exec(prog, e.mode, quota)
	if err != nil {
		var re *RuntimeError
		if errors.As(err, &re) {
			re.RunToken = token
		}
		return nil, err
	}
	if err := quota.Check(token, prog.Name); err != nil {
		e.logger.Warn("run exceeded step quota",
			"program", prog.Name,
			"run_token", token,
			"max_steps", e.maxSteps)
		return nil, err
	}

	// Seqs are assigned after execution so a run that trips the quota
	// consumes only its start seq.
	transitions := make([]ir.Transition, len(ex.decisions))
	for k, d := range ex.decisions {
		transitions[k] = ir.Transition{
			RunID:     runID,
			Seq:       e.clock.Next(),
			Iteration: int64(d.transition.Iteration),
			Mask:      ir.FormatMask(mask.FromBit(uint64(d.transition.Mask&1)), prog.Width),
			Outcome:   d.transition.Outcome(),
			Value:     d.value,
		}
	}

	run := ir.Run{
		ID:            runID,
		RunToken:      token,
		Program:       prog,
		ProgramHash:   programHash,
		Mode:          mode,
		Seq:           seq,
		BodyCount:     ex.bodyCount,
		Final:         ex.final,
		Outcome:       transitions[len(transitions)-1].Outcome,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}

	if e.store != nil {
		if err := e.store.WriteRunAtomic(ctx, run, transitions); err != nil {
			return nil, fmt.Errorf("run %s: %w", prog.Name, err)
		}
	}

	e.logger.Debug("run complete",
		"program", prog.Name,
		"run_id", runID,
		"mode", mode,
		"body_count", run.BodyCount,
		"final", run.Final,
		"transitions", len(transitions))

	return &Result{Run: run, Transitions: transitions, Visited: ex.visited}, nil
}

// RunAll runs programs in order, stopping at the first error.
func (e *Engine) RunAll(ctx context.Context, progs []ir.Program) ([]*Result, error) {
	results := make([]*Result, 0, len(progs))
	for _, p := range progs {
		res, err := e.Run(ctx, p)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
