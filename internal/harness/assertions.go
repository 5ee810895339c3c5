package harness

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/branchless/internal/engine"
	"github.com/roach88/branchless/internal/ir"
	"github.com/roach88/branchless/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Program  string       // Program the assertion is about
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // The program's transitions, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s (program %s)\n", e.Type, e.Program)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nTransitions:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] #%d mask=%s -> %s (i=%d)\n",
				ev.Seq, ev.Iteration, ev.Mask, ev.Outcome, ev.Value)
		}
	}

	return buf.String()
}

// assertTransitionCount checks the program recorded exactly Count
// transitions across all its runs.
func assertTransitionCount(trace []TraceEvent, assertion Assertion) error {
	events := programEvents(trace, assertion.Program)
	if len(events) != assertion.Count {
		return &AssertionError{
			Type:     AssertTransitionCount,
			Program:  assertion.Program,
			Expected: fmt.Sprintf("%d transitions", assertion.Count),
			Actual:   fmt.Sprintf("%d transitions", len(events)),
			Trace:    events,
		}
	}
	return nil
}

// assertTransitionOrder checks that Outcomes appear, in order, among the
// program's transitions. Other outcomes may appear in between.
func assertTransitionOrder(trace []TraceEvent, assertion Assertion) error {
	events := programEvents(trace, assertion.Program)

	next := 0
	for _, ev := range events {
		if next < len(assertion.Outcomes) && ev.Outcome == assertion.Outcomes[next] {
			next++
		}
	}
	if next == len(assertion.Outcomes) {
		return nil
	}

	return &AssertionError{
		Type:     AssertTransitionOrder,
		Program:  assertion.Program,
		Expected: fmt.Sprintf("outcomes in order: %v", assertion.Outcomes),
		Actual:   fmt.Sprintf("missing %s after position %d", assertion.Outcomes[next], next),
		Trace:    events,
	}
}

// assertFinalValue reads the program's last run back from the store and
// checks its final value.
func assertFinalValue(ctx context.Context, st *store.Store, res *engine.Result, assertion Assertion) error {
	if res == nil {
		return &AssertionError{
			Type:     AssertFinalValue,
			Program:  assertion.Program,
			Expected: fmt.Sprintf("final %d", *assertion.Value),
			Actual:   "no completed run",
		}
	}

	run, err := st.ReadRun(ctx, res.Run.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return &AssertionError{
			Type:     AssertFinalValue,
			Program:  assertion.Program,
			Expected: fmt.Sprintf("stored run %s", res.Run.ID),
			Actual:   "run not found",
		}
	}
	if err != nil {
		return fmt.Errorf("read run %s: %w", res.Run.ID, err)
	}

	if run.Final != *assertion.Value {
		return &AssertionError{
			Type:     AssertFinalValue,
			Program:  assertion.Program,
			Expected: fmt.Sprintf("final %d", *assertion.Value),
			Actual:   fmt.Sprintf("final %d", run.Final),
		}
	}
	return nil
}

// assertMatchesNative runs the program as a plain Go loop under the same
// step quota as its last branchless run and compares the two. A maxSteps
// of 0 means the engine default.
func assertMatchesNative(prog ir.Program, res *engine.Result, maxSteps int64, assertion Assertion) error {
	if res == nil {
		return &AssertionError{
			Type:     AssertMatchesNative,
			Program:  assertion.Program,
			Expected: "a completed run",
			Actual:   "no completed run",
		}
	}

	var opts []engine.Option
	if maxSteps > 0 {
		opts = append(opts, engine.WithMaxSteps(maxSteps))
	}
	nat, err := engine.New(opts...).RunNative(prog)
	if err != nil {
		return &AssertionError{
			Type:     AssertMatchesNative,
			Program:  assertion.Program,
			Expected: "native loop completes",
			Actual:   err.Error(),
		}
	}
	if !nat.Matches(res) {
		return &AssertionError{
			Type:     AssertMatchesNative,
			Program:  assertion.Program,
			Expected: fmt.Sprintf("body_count %d, final %d, visited %v", nat.BodyCount, nat.Final, nat.Visited),
			Actual:   fmt.Sprintf("body_count %d, final %d, visited %v", res.Run.BodyCount, res.Run.Final, res.Visited),
		}
	}
	return nil
}

func programEvents(trace []TraceEvent, program string) []TraceEvent {
	var out []TraceEvent
	for _, ev := range trace {
		if ev.Program == program {
			out = append(out, ev)
		}
	}
	return out
}

// AssertionContext provides what assertions need beyond the trace.
type AssertionContext struct {
	Store    *store.Store
	Ctx      context.Context
	Programs map[string]ir.Program
	// Runs holds the last completed run per program.
	Runs map[string]*engine.Result
	// MaxSteps holds the step quota of each entry in Runs, when the flow
	// step overrode the default.
	MaxSteps map[string]int64
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// final_value and matches_native need actx.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTransitionCount:
			err = assertTransitionCount(result.Trace, assertion)
		case AssertTransitionOrder:
			err = assertTransitionOrder(result.Trace, assertion)
		case AssertFinalValue:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_value requires database context", i)
			} else {
				err = assertFinalValue(actx.Ctx, actx.Store, actx.Runs[assertion.Program], assertion)
			}
		case AssertMatchesNative:
			prog, ok := ir.Program{}, false
			if actx != nil {
				prog, ok = actx.Programs[assertion.Program]
			}
			if !ok {
				err = fmt.Errorf("assertion[%d]: unknown program %q", i, assertion.Program)
			} else {
				err = assertMatchesNative(prog, actx.Runs[assertion.Program], actx.MaxSteps[assertion.Program], assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}
