package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/branchless/internal/control"
	"github.com/roach88/branchless/internal/demo"
)

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Print the combinator walkthrough",
		Long: `Print both arms of a branch-free if, then each loop form next to the
native Go loop it replaces. Paired lines are identical.

The walkthrough is plain text; --format is ignored.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := control.ParseMode(mode)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --mode", err)
			}
			if err := demo.Run(cmd.OutOrStdout(), m); err != nil {
				return WrapExitError(ExitCommandError, "demo output failed", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", defaultMode(), "loop driver (trampoline|recursive)")

	return cmd
}
