package harness

import (
	"github.com/roach88/branchless/internal/engine"
	"github.com/roach88/branchless/internal/ir"
)

// TraceEvent is one recorded decision of a scenario run.
type TraceEvent struct {
	Program   string `json:"program"`
	Seq       int64  `json:"seq"`
	Iteration int64  `json:"iteration"`
	Mask      string `json:"mask"`
	Outcome   string `json:"outcome"`
	Value     int64  `json:"value"`
}

// RunSummary is the outcome of one flow step.
type RunSummary struct {
	Program   string `json:"program"`
	RunID     string `json:"run_id,omitempty"`
	Mode      string `json:"mode"`
	Seq       int64  `json:"seq,omitempty"`
	BodyCount int64  `json:"body_count"`
	Final     int64  `json:"final"`
	Outcome   string `json:"outcome,omitempty"`
	// ErrorCode is set when the run failed instead of completing.
	ErrorCode string `json:"error_code,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds the transitions of all runs in seq order.
	Trace []TraceEvent `json:"trace"`

	// Runs holds one summary per flow step.
	Runs []RunSummary `json:"runs"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Runs:   []RunSummary{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddRun appends a completed run and its transitions.
func (r *Result) AddRun(res *engine.Result) {
	run := res.Run
	r.Runs = append(r.Runs, RunSummary{
		Program:   run.Program.Name,
		RunID:     run.ID,
		Mode:      run.Mode,
		Seq:       run.Seq,
		BodyCount: run.BodyCount,
		Final:     run.Final,
		Outcome:   run.Outcome,
	})
	for _, t := range res.Transitions {
		r.Trace = append(r.Trace, traceEvent(run.Program.Name, t))
	}
}

// AddFailedRun records a flow step whose run returned an error.
func (r *Result) AddFailedRun(program, mode string, code engine.RuntimeErrorCode) {
	r.Runs = append(r.Runs, RunSummary{
		Program:   program,
		Mode:      mode,
		ErrorCode: string(code),
	})
}

func traceEvent(program string, t ir.Transition) TraceEvent {
	return TraceEvent{
		Program:   program,
		Seq:       t.Seq,
		Iteration: t.Iteration,
		Mask:      t.Mask,
		Outcome:   t.Outcome,
		Value:     t.Value,
	}
}
