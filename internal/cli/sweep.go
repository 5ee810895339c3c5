package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/branchless/internal/sweep"
)

// SweepOptions holds flags for the sweep command.
type SweepOptions struct {
	*RootOptions
	Width int // 0 sweeps every width
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SweepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Check the selectors against native comparisons",
		Long: `Check every branch-free selector against Go's comparison operators.

8-bit types are checked exhaustively; wider types over a boundary sample.

Exit codes:
  0 - Every selector agreed with its native operator
  1 - At least one disagreement
  2 - Command error (unsupported width)

Examples:
  branchless sweep
  branchless sweep --width 16 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Width, "width", 0, "sweep one width (8|16|32|64); 0 sweeps all")

	return cmd
}

func runSweep(opts *SweepOptions, cmd *cobra.Command) error {
	widths := sweep.Widths
	if opts.Width != 0 {
		widths = []int{opts.Width}
	}

	report, err := sweep.Run(widths)
	if err != nil {
		return WrapExitError(ExitCommandError, "sweep failed", err)
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: report}
		if !report.Pass() {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    "E_SWEEP_FAILED",
				Message: fmt.Sprintf("%d of %d checks disagreed", report.Failed, report.Checked),
			}
		}
		if err := formatter.Respond(resp); err != nil {
			return err
		}
	} else {
		outputSweepText(formatter, report)
	}

	if !report.Pass() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d check(s) disagreed", report.Failed))
	}
	return nil
}

func outputSweepText(formatter *OutputFormatter, report *sweep.Report) {
	w := formatter.Writer
	for _, r := range report.Results {
		if r.Failed > 0 {
			fmt.Fprintf(w, "✗ %s %s: %d of %d failed (%s)\n", r.Type, r.Adapter, r.Failed, r.Checked, r.Example)
			continue
		}
		formatter.VerboseLog("✓ %s %s: %d checked", r.Type, r.Adapter, r.Checked)
	}
	writeSweepSummary(w, report)
}

func writeSweepSummary(w io.Writer, report *sweep.Report) {
	if report.Pass() {
		fmt.Fprintf(w, "✓ %d checks across %d selector(s) agree\n", report.Checked, len(report.Results))
		return
	}
	fmt.Fprintf(w, "✗ %d of %d checks disagree\n", report.Failed, report.Checked)
}
