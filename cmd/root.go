package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/pyarch/pyarch/pkg/types"
	"github.com/pyarch/pyarch/pkg/version"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:     "pyarch",
	Short:   "Verify architectural import contracts in a Python source tree",
	Long:    "pyarch builds the import graph of a Python package tree and checks it\nagainst layering, independence, and forbidden-edge contracts declared in\na .pyarch.yml project config.",
	Version: version.Version,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.SilenceErrors = true
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(graphCmd)
}

// Execute runs the root command and exits with code 1 on error.
// ExitError is handled specially: its Code is used as the exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *types.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
