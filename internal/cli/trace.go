package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/branchless/internal/ir"
	"github.com/roach88/branchless/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Outcome  string // optional - filter to one outcome
}

// TraceEvent is one decision in the trace timeline.
type TraceEvent struct {
	Seq       int64  `json:"seq"`
	Iteration int64  `json:"iteration"`
	Mask      string `json:"mask"`
	Outcome   string `json:"outcome"`
	Value     int64  `json:"value"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	RunID    string       `json:"run_id"`
	RunToken string       `json:"run_token"`
	Program  ir.Program   `json:"program"`
	Mode     string       `json:"mode"`
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
	Problems []string     `json:"problems,omitempty"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Transitions int    `json:"transitions"`
	BodyCount   int64  `json:"body_count"`
	Final       int64  `json:"final"`
	Outcome     string `json:"outcome"`
	Consistent  bool   `json:"consistent"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the recorded decisions of a run",
		Long: `Show the recorded decisions of a run.

Each transition is one evaluation of the program's condition: its seq,
iteration, the mask it produced and the arm that mask selected. The run's
transitions are checked against the run itself and any inconsistency is
reported.

Examples:
  branchless trace --db ./runs.db --run 3f2a...
  branchless trace --db ./runs.db --run 3f2a... --outcome terminate
  branchless trace --db ./runs.db --run 3f2a... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", defaultDatabase(), "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to trace (required)")
	_ = cmd.MarkFlagRequired("run")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "filter to one outcome (then|else|continue|terminate)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	if opts.Database == "" {
		return NewExitError(ExitCommandError, "--db is required")
	}

	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	state, err := st.GetRunState(ctx, opts.RunID)
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to get run state", err)
	}

	result := TraceResult{
		RunID:    state.Run.ID,
		RunToken: state.Run.RunToken,
		Program:  state.Run.Program,
		Mode:     state.Run.Mode,
		Timeline: buildTimeline(state.Transitions, opts.Outcome),
		Stats: TraceStats{
			Transitions: len(state.Transitions),
			BodyCount:   state.Run.BodyCount,
			Final:       state.Run.Final,
			Outcome:     state.Run.Outcome,
			Consistent:  state.Consistent(),
		},
		Problems: state.Problems,
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	if formatter.Format == "json" {
		return formatter.Respond(CLIResponse{Status: "ok", Data: result, RunID: result.RunID})
	}

	return outputTraceText(formatter.Writer, result, opts.Verbose)
}

// buildTimeline converts stored transitions to timeline events, keeping
// only those with the given outcome when outcomeFilter is set.
func buildTimeline(transitions []ir.Transition, outcomeFilter string) []TraceEvent {
	timeline := []TraceEvent{}
	for _, tr := range transitions {
		if outcomeFilter != "" && tr.Outcome != outcomeFilter {
			continue
		}
		timeline = append(timeline, TraceEvent{
			Seq:       tr.Seq,
			Iteration: tr.Iteration,
			Mask:      tr.Mask,
			Outcome:   tr.Outcome,
			Value:     tr.Value,
		})
	}
	return timeline
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	fmt.Fprintf(w, "Trace for Run: %s\n", truncateID(result.RunID))
	fmt.Fprintf(w, "Program: %s (%s %s, %s)\n", result.Program.Name, result.Program.Construct, result.Program.TypeName(), result.Mode)
	if verbose {
		fmt.Fprintf(w, "Run ID: %s\n", result.RunID)
		fmt.Fprintf(w, "Run Token: %s\n", result.RunToken)
	}
	fmt.Fprintf(w, "Status: %s\n", consistentStatus(result.Stats.Consistent))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no transitions)")
	}
	for _, ev := range result.Timeline {
		fmt.Fprintf(w, "  [%d] #%d %s -> %s (value %d)\n", ev.Seq, ev.Iteration, ev.Mask, ev.Outcome, ev.Value)
	}
	fmt.Fprintln(w)

	if len(result.Problems) > 0 {
		fmt.Fprintln(w, "=== Problems ===")
		for _, p := range result.Problems {
			fmt.Fprintf(w, "  %s\n", p)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Transitions: %d\n", result.Stats.Transitions)
	fmt.Fprintf(w, "  Body Count:  %d\n", result.Stats.BodyCount)
	fmt.Fprintf(w, "  Final:       %d\n", result.Stats.Final)
	fmt.Fprintf(w, "  Outcome:     %s\n", result.Stats.Outcome)

	return nil
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}

func consistentStatus(ok bool) string {
	if ok {
		return "Consistent"
	}
	return "Inconsistent"
}
