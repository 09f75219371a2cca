// Package logging provides concrete implementations of the processor.Logger
// interface.
//
// Available implementations:
//   - ConsoleLogger: Writes formatted messages to stderr (or any writer) with thread-safe output
//   - NullLogger: Discards all messages (used by compatgo --quiet)
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
