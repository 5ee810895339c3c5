package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/branchless/internal/compiler"
	"github.com/roach88/branchless/internal/control"
	"github.com/roach88/branchless/internal/engine"
	"github.com/roach88/branchless/internal/ir"
	"github.com/roach88/branchless/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Program  string
	Mode     string
	MaxSteps int64

	// TokenGenerator allows overriding the run token source (for testing).
	// If nil, defaults to UUIDv7Generator.
	TokenGenerator engine.RunTokenGenerator
}

// RunReport is the JSON payload of the run command.
type RunReport struct {
	RunToken string          `json:"run_token"`
	Mode     string          `json:"mode"`
	Runs     []RunReportLine `json:"runs"`
}

// RunReportLine summarizes one completed run.
type RunReportLine struct {
	Program     string `json:"program"`
	RunID       string `json:"run_id"`
	Seq         int64  `json:"seq"`
	BodyCount   int64  `json:"body_count"`
	Final       int64  `json:"final"`
	Outcome     string `json:"outcome"`
	Transitions int    `json:"transitions"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <specs-dir>",
		Short: "Run programs on the branch-free core",
		Long: `Compile, validate and run programs on the branch-free core.

Without --program every program in the directory runs, in declaration order,
under one run token. With --db each run and its transitions are recorded in
SQLite (created if it doesn't exist) and the logical clock resumes after the
last recorded seq.

Example:
  branchless run ./specs
  branchless run --db ./runs.db --program count_to_ten --mode recursive ./specs`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrograms(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", defaultDatabase(), "path to SQLite database (runs are not recorded if empty)")
	cmd.Flags().StringVarP(&opts.Program, "program", "p", "", "run only this program")
	cmd.Flags().StringVar(&opts.Mode, "mode", defaultMode(), "loop driver (trampoline|recursive)")
	cmd.Flags().Int64Var(&opts.MaxSteps, "max-steps", engine.DefaultMaxSteps, "maximum loop iterations per run")

	return cmd
}

func runPrograms(opts *RunOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(cmd, opts.Verbose)

	mode, err := control.ParseMode(opts.Mode)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --mode", err)
	}
	if opts.MaxSteps < 0 {
		return NewExitError(ExitCommandError, "--max-steps must be non-negative")
	}

	logger.Info("compiling specs", "dir", specsDir)
	progs, err := compileSpecs(specsDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compile specs", err)
	}
	if opts.Program != "" {
		p, ok := findProgram(progs, opts.Program)
		if !ok {
			return NewExitError(ExitCommandError, fmt.Sprintf("unknown program %q", opts.Program))
		}
		progs = []ir.Program{p}
	}
	logger.Info("specs compiled", "programs", len(progs))

	tokens := opts.TokenGenerator
	if tokens == nil {
		tokens = engine.UUIDv7Generator{}
	}
	token := tokens.Generate()

	engineOpts := []engine.Option{
		engine.WithMode(mode),
		engine.WithMaxSteps(opts.MaxSteps),
		engine.WithTokenGenerator(engine.NewRepeatingGenerator(token)),
		engine.WithLogger(logger),
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	if opts.Database != "" {
		logger.Info("opening database", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()

		clock, err := engine.ResumeClock(ctx, st)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read last seq", err)
		}
		engineOpts = append(engineOpts, engine.WithStore(st), engine.WithClock(clock))
	}

	results, err := engine.New(engineOpts...).RunAll(ctx, progs)
	report := buildRunReport(token, mode, results)
	if err != nil {
		return outputRunFailure(formatter, report, err)
	}
	return outputRunSuccess(formatter, report)
}

// newLogger builds the text logger for a command. Diagnostics go to
// stderr at Info, or Debug with --verbose.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// signalContext derives a context from the command's that is cancelled on
// SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// compileSpecs loads, compiles and validates all programs in a directory.
func compileSpecs(dir string) ([]ir.Program, error) {
	loadResult, loadErrors := LoadSpecs(dir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		return nil, loadErrors[0]
	}
	if errs := compiler.ValidateAll(loadResult.Programs); len(errs) > 0 {
		return nil, fmt.Errorf("invalid programs: %w", errs[0])
	}
	return loadResult.Programs, nil
}

func findProgram(progs []ir.Program, name string) (ir.Program, bool) {
	for _, p := range progs {
		if p.Name == name {
			return p, true
		}
	}
	return ir.Program{}, false
}

func buildRunReport(token string, mode control.Mode, results []*engine.Result) RunReport {
	report := RunReport{RunToken: token, Mode: mode.String(), Runs: []RunReportLine{}}
	for _, res := range results {
		report.Runs = append(report.Runs, RunReportLine{
			Program:     res.Run.Program.Name,
			RunID:       res.Run.ID,
			Seq:         res.Run.Seq,
			BodyCount:   res.Run.BodyCount,
			Final:       res.Run.Final,
			Outcome:     res.Run.Outcome,
			Transitions: len(res.Transitions),
		})
	}
	return report
}

func outputRunSuccess(formatter *OutputFormatter, report RunReport) error {
	if formatter.Format == "json" {
		return formatter.Success(report)
	}

	fmt.Fprintf(formatter.Writer, "✓ Ran %d program(s) (%s, token %s)\n\n", len(report.Runs), report.Mode, report.RunToken)
	writeRunLines(formatter, report.Runs)
	return nil
}

// outputRunFailure reports the runs that completed and the error that
// stopped the rest. A quota trip is a program failure (exit 1), as is any
// other runtime error.
func outputRunFailure(formatter *OutputFormatter, report RunReport, err error) error {
	code := string(engine.ErrorCode(err))
	if code == "" {
		code = ErrCodeGeneric
	}

	if formatter.Format == "json" {
		if encErr := formatter.Respond(CLIResponse{
			Status: "error",
			Data:   report,
			Error:  &CLIError{Code: code, Message: err.Error()},
		}); encErr != nil {
			return encErr
		}
		return WrapExitError(ExitFailure, "run failed", err)
	}

	if len(report.Runs) > 0 {
		writeRunLines(formatter, report.Runs)
	}
	fmt.Fprintf(formatter.Writer, "✗ Run failed [%s]: %v\n", code, err)
	return WrapExitError(ExitFailure, "run failed", err)
}

func writeRunLines(formatter *OutputFormatter, runs []RunReportLine) {
	for _, r := range runs {
		fmt.Fprintf(formatter.Writer, "  %s: body_count=%d final=%d outcome=%s\n", r.Program, r.BodyCount, r.Final, r.Outcome)
		formatter.VerboseLog("    run %s seq=%d transitions=%d", r.RunID, r.Seq, r.Transitions)
	}
	fmt.Fprintln(formatter.Writer)
}
