package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hoard-dev/hoard/internal/reconcile"
)

// ExitError carries a process exit code out of a command. Commands that
// already reported their outcome leave Err nil.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hoard",
		Short: "Catalog documented Python callables by content identity",
		Long: `Hoard scans Python source trees for standalone, documented functions
and classes, derives a content identifier for each one, and reconciles
them against a persistent catalog: new callables are uploaded, known
ones are skipped, and edited bodies get a refreshed version identifier
under the same content identifier.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	scanCmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a directory and reconcile callables against the catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunScan,
	}
	scanCmd.Flags().BoolP("recursive", "r", false, "Descend into subdirectories")
	scanCmd.Flags().BoolP("dry-run", "n", false, "Classify without writing to the catalog")
	scanCmd.Flags().StringSliceP("exclude", "e", []string{}, "Glob patterns to exclude (repeatable)")
	scanCmd.Flags().String("db-config", "", "YAML config file naming the catalog database")
	scanCmd.Flags().BoolP("verbose", "v", false, "Print one line per classified callable")
	scanCmd.Flags().Bool("json", false, "Print machine-readable run summary")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog entry counts",
		Args:  cobra.NoArgs,
		RunE:  RunStats,
	}
	statsCmd.Flags().String("db-config", "", "YAML config file naming the catalog database")
	statsCmd.Flags().Bool("json", false, "Print machine-readable stats output")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hoard %s\n", version)
		},
	}

	rootCmd.AddCommand(
		scanCmd,
		statsCmd,
		versionCmd,
	)

	return rootCmd
}

// Execute runs the CLI and maps the outcome to a process exit code:
// 0 for a clean run, 1 for partial progress alongside errors, 2 for
// failures where nothing was written.
func Execute(version string) int {
	if err := NewRootCommand(version).Execute(); err != nil {
		var coded *ExitError
		if errors.As(err, &coded) {
			if coded.Err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", coded.Err)
			}
			return coded.Code
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return reconcile.ExitFailure
	}
	return reconcile.ExitSuccess
}
