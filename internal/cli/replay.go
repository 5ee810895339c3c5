package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/branchless/internal/engine"
	"github.com/roach88/branchless/internal/ir"
	"github.com/roach88/branchless/internal/queryir"
	"github.com/roach88/branchless/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunToken string // optional - runs of one invocation only
	Program  string
	Mode     string
	FromSeq  int64
	MaxSteps int64
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID       string `json:"run_id"`
	RunToken    string `json:"run_token"`
	Program     string `json:"program"`
	Mode        string `json:"mode"`
	Transitions int    `json:"transitions"`
	Match       bool   `json:"match"`
	Mismatch    string `json:"mismatch,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs      []ReplayRunResult `json:"runs"`
	TotalRuns int               `json:"total_runs"`
	AllMatch  bool              `json:"all_match"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-execute recorded runs and verify they reproduce",
		Long: `Re-execute every recorded run under its original token, mode and seq,
and compare the result with what was stored.

A run reproduces when its content-addressed ID, body count, final value,
outcome and every transition come out identical. Nothing is written.

Exit codes:
  0 - All runs reproduce
  1 - At least one run does not reproduce
  2 - Command error (database not found, etc.)

Examples:
  branchless replay --db ./runs.db
  branchless replay --db ./runs.db --token 0192f1c4-...
  branchless replay --db ./runs.db --program countdown --mode recursive
  branchless replay --db ./runs.db --from-seq 120
  branchless replay --db ./runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", defaultDatabase(), "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.RunToken, "token", "", "replay runs of this run token only")
	cmd.Flags().StringVarP(&opts.Program, "program", "p", "", "replay runs of this program only")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "replay runs recorded in this mode only")
	cmd.Flags().Int64Var(&opts.FromSeq, "from-seq", 0, "replay runs starting at or after this seq")
	cmd.Flags().Int64Var(&opts.MaxSteps, "max-steps", engine.DefaultMaxSteps, "maximum loop iterations per replayed run")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	if opts.Database == "" {
		return NewExitError(ExitCommandError, "--db is required")
	}

	ctx := context.Background()
	logger := newLogger(cmd, opts.Verbose)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runs, err := st.FindRuns(ctx, replayFilter(opts))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	result := ReplayResult{
		Runs:      make([]ReplayRunResult, 0, len(runs)),
		TotalRuns: len(runs),
		AllMatch:  true,
	}

	for _, run := range runs {
		runResult, err := replayRun(ctx, st, run, opts.MaxSteps, logger)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", run.ID), err)
		}
		result.Runs = append(result.Runs, runResult)
		if !runResult.Match {
			result.AllMatch = false
		}
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	if formatter.Format == "json" {
		return outputReplayJSON(formatter, result)
	}

	return outputReplayText(formatter.Writer, result, opts.Verbose)
}

// replayFilter selects the runs named by the filter flags. Unset flags
// match everything.
func replayFilter(opts *ReplayOptions) queryir.Predicate {
	var fromSeq queryir.Predicate
	if opts.FromSeq > 0 {
		fromSeq = queryir.AtLeast{Field: "seq", Value: opts.FromSeq}
	}
	return queryir.Where(
		queryir.EqualsIf("run_token", opts.RunToken),
		queryir.EqualsIf("program_name", opts.Program),
		queryir.EqualsIf("mode", opts.Mode),
		fromSeq,
	)
}

// replayRun re-executes one stored run and compares it with its log. A
// replay that runs out of steps is reported as a run that does not
// reproduce rather than as a command error.
func replayRun(ctx context.Context, st *store.Store, run ir.Run, maxSteps int64, logger *slog.Logger) (ReplayRunResult, error) {
	stored, err := st.ReadTransitions(ctx, run.ID)
	if err != nil {
		return ReplayRunResult{}, err
	}

	result := ReplayRunResult{
		RunID:       run.ID,
		RunToken:    run.RunToken,
		Program:     run.Program.Name,
		Mode:        run.Mode,
		Transitions: len(stored),
	}

	replayed, err := engine.Replay(ctx, run, stored, engine.WithMaxSteps(maxSteps), engine.WithLogger(logger))
	if engine.IsQuotaError(err) {
		logger.Warn("replay exceeded step quota", "run_id", run.ID, "max_steps", maxSteps)
		result.Mismatch = fmt.Sprintf("step quota of %d exceeded, recorded body count %d", maxSteps, run.BodyCount)
		return result, nil
	}
	if err != nil {
		return ReplayRunResult{}, err
	}
	logger.Debug("replayed run", "run_id", run.ID, "match", replayed.Match)

	result.Match = replayed.Match
	result.Mismatch = replayed.Mismatch
	return result, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllMatch {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    string(engine.ErrCodeReplayMismatch),
			Message: "replay verification failed",
		}
	}

	if err := formatter.Respond(response); err != nil {
		return err
	}

	if !result.AllMatch {
		// Replay mismatch = exit code 1
		return NewExitError(ExitFailure, "replay verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(w io.Writer, result ReplayResult, verbose bool) error {
	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range result.Runs {
		status := "✓"
		if !run.Match {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Run: %s (%s, %s)\n", status, truncateID(run.RunID), run.Program, run.Mode)
		if verbose {
			fmt.Fprintf(w, "  Run ID: %s\n", run.RunID)
			fmt.Fprintf(w, "  Run Token: %s\n", run.RunToken)
		}
		fmt.Fprintf(w, "  Transitions: %d\n", run.Transitions)
		if !run.Match {
			fmt.Fprintf(w, "  Mismatch: %s\n", run.Mismatch)
		}
		fmt.Fprintln(w)
	}

	if result.AllMatch {
		fmt.Fprintln(w, "✓ All runs reproduce")
		return nil
	}

	fmt.Fprintln(w, "✗ Replay verification failed")
	return NewExitError(ExitFailure, "replay verification failed")
}
