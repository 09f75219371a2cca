package logging

// NullLogger discards every message. The CLI uses it for --quiet runs, where
// only diagnostics and the final error reach stderr.
type NullLogger struct{}

// NewNullLogger returns a logger that drops all messages.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (*NullLogger) Verbose(string, ...interface{}) {}

func (*NullLogger) Info(string, ...interface{}) {}

func (*NullLogger) Error(string, ...interface{}) {}
