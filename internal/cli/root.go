package cli

import (
	"github.com/spf13/cobra"

	"github.com/jhump/compatgo/internal/logging"
	"github.com/jhump/compatgo/processor"
)

// NewRootCmd returns the compatgo command with all of its subcommands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "compatgo",
		Short: "Compatibility change annotation processor",
		Long: `compatgo reads @compatgo.ChangeID annotations in Go doc comments and
writes compat config XML documents (plus usage indexes for
@compatgo.UnsupportedAppUsage) for the annotated packages.

Exit Codes:
  0  - Success
  1  - General error (I/O failure)
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  20 - Validation failed (annotated declarations were rejected)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	root.PersistentFlags().BoolP("quiet", "q", false, "Suppress progress output (overrides --verbose); diagnostics and errors are still printed")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})

	root.AddCommand(newProcessCmd(), newMergeCmd(), newVersionCmd())
	return root
}

// Execute runs the compatgo command with the process arguments.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		logging.NewConsoleLoggerTo(root.ErrOrStderr(), false).Error("%v", err)
	}
	return err
}

func newLogger(cmd *cobra.Command) processor.Logger {
	if quiet, err := cmd.Flags().GetBool("quiet"); err == nil && quiet {
		return logging.NewNullLogger()
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose = false
	}
	return logging.NewConsoleLoggerTo(cmd.ErrOrStderr(), verbose)
}

type wrappedUsageError struct {
	err error
}

func (e wrappedUsageError) Error() string {
	return e.err.Error()
}

func (e wrappedUsageError) Unwrap() []error {
	return []error{ErrUsage, e.err}
}

func usageError(err error) error {
	return wrappedUsageError{err: err}
}

func usageArgs(args cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := args(cmd, a); err != nil {
			return usageError(err)
		}
		return nil
	}
}
