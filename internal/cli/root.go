package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"
)

// Environment variables that supply flag defaults.
const (
	EnvDatabase = "BRANCHLESS_DB"
	EnvFormat   = "BRANCHLESS_FORMAT"
	EnvVerbose  = "BRANCHLESS_VERBOSE"
	EnvMode     = "BRANCHLESS_MODE"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the branchless CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "branchless",
		Short: "Branch-free control flow",
		Long: `Run loops and conditionals built from arithmetic masks and table-indexed calls.

Programs are declared in CUE, executed on the branch-free core, recorded in
SQLite and replayed to prove the recorded decisions reproduce.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", env.Bool(EnvVerbose), "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", env.Str(EnvFormat, "text"), "output format (json|text)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewDemoCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// defaultDatabase is the --db default, taken from BRANCHLESS_DB.
func defaultDatabase() string {
	return env.Str(EnvDatabase)
}

// defaultMode is the --mode default, taken from BRANCHLESS_MODE.
func defaultMode() string {
	return env.Str(EnvMode, "trampoline")
}
