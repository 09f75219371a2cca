// Command compatgo validates compatibility change annotations and writes the
// compat config documents for annotated packages.
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/jhump/compatgo/internal/cli"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(cli.ExitPanic)
		}
	}()

	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCodeForError(err))
	}
}
