package cli

import (
	"errors"
	"strings"

	"github.com/jhump/compatgo/internal/config"
	"github.com/jhump/compatgo/processor"
)

// Exit codes returned by the compatgo command.
const (
	ExitSuccess          = 0  // Processing completed successfully
	ExitGeneralError     = 1  // Unknown or unclassified error (including I/O failures)
	ExitUsageError       = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic            = 3  // Internal panic (unexpected crash)
	ExitConfigError      = 10 // Invalid configuration
	ExitValidationFailed = 20 // One or more annotated declarations were rejected
)

// ErrUsage indicates the command was invoked incorrectly.
var ErrUsage = errors.New("usage error")

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}
	switch {
	case errors.Is(err, ErrUsage):
		return ExitUsageError
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, config.ErrConfigNotFound):
		return ExitConfigError
	case errors.Is(err, processor.ErrValidationFailed):
		return ExitValidationFailed
	}
	// cobra reports unknown subcommands without a sentinel
	if strings.HasPrefix(err.Error(), "unknown command") {
		return ExitUsageError
	}
	return ExitGeneralError
}
