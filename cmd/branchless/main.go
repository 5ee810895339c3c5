// Command branchless runs loops and conditionals built from arithmetic
// masks instead of jumps.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/branchless/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
