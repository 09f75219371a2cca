package processor

import (
	"errors"
	"fmt"
	"go/token"
	"strings"
	"sync"
)

var (
	// ErrValidationFailed is returned from Config.Execute when at least one
	// error diagnostic was reported during the run.
	ErrValidationFailed = errors.New("annotation validation failed")

	// ErrInternal indicates an invariant violation in the input program or
	// in the processor itself. Runs stop as soon as one is encountered.
	ErrInternal = errors.New("internal error")
)

// ErrorWithPosition is an error that has source position information associated
// with it. The position indicates the location in a source file where the error
// was encountered.
type ErrorWithPosition struct {
	err error
	pos token.Position
}

// Error implements the error interface. It includes position information in the
// returned message.
func (e *ErrorWithPosition) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.pos.Filename, e.pos.Line, e.pos.Column, e.err.Error())
}

// Underlying returns the underlying error.
func (e *ErrorWithPosition) Underlying() error {
	return e.err
}

// Unwrap returns the underlying error, for use with errors.Is and errors.As.
func (e *ErrorWithPosition) Unwrap() error {
	return e.err
}

// Pos returns the location in source where the underlying error was
// encountered.
func (e *ErrorWithPosition) Pos() token.Position {
	return e.pos
}

// NewErrorWithPosition returns the given error, but associates it with the
// given source code location.
func NewErrorWithPosition(pos token.Position, err error) *ErrorWithPosition {
	return &ErrorWithPosition{err: err, pos: pos}
}

// Kind is the severity of a diagnostic.
type Kind int

const (
	KindError Kind = iota
	KindWarning
	KindNote
)

func (k Kind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindWarning:
		return "warning"
	default:
		return "note"
	}
}

// Messager is the sink to which processors report diagnostics. A diagnostic
// is associated with the element it is about, which may be nil.
type Messager interface {
	PrintMessage(kind Kind, msg string, e *Element)
}

// Diagnostic is a single reported message.
type Diagnostic struct {
	Kind    Kind
	Message string
	Element *Element
	Pos     token.Position
}

// String renders the diagnostic as "file:line:col: kind: message". The
// position is omitted when unknown.
func (d Diagnostic) String() string {
	if !d.Pos.IsValid() {
		return fmt.Sprintf("%v: %s", d.Kind, d.Message)
	}
	return NewErrorWithPosition(d.Pos, fmt.Errorf("%v: %s", d.Kind, d.Message)).Error()
}

// Diagnostics is a Messager that collects everything reported to it. It is
// safe for concurrent use.
type Diagnostics struct {
	mu   sync.Mutex
	list []Diagnostic
}

// PrintMessage implements Messager. The diagnostic is positioned at the
// element, if there is one.
func (d *Diagnostics) PrintMessage(kind Kind, msg string, e *Element) {
	var pos token.Position
	if e != nil {
		pos = e.Pos
	}
	d.PrintMessageAt(kind, pos, msg, e)
}

// PrintMessageAt records a diagnostic at an explicit position.
func (d *Diagnostics) PrintMessageAt(kind Kind, pos token.Position, msg string, e *Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.list = append(d.list, Diagnostic{Kind: kind, Message: msg, Element: e, Pos: pos})
}

// All returns the collected diagnostics in the order they were reported.
func (d *Diagnostics) All() []Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()
	res := make([]Diagnostic, len(d.list))
	copy(res, d.list)
	return res
}

// ErrorCount returns the number of error diagnostics.
func (d *Diagnostics) ErrorCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, diag := range d.list {
		if diag.Kind == KindError {
			n++
		}
	}
	return n
}

// HasErrors returns true if any error diagnostic was reported.
func (d *Diagnostics) HasErrors() bool {
	return d.ErrorCount() > 0
}

// Err returns nil if no errors were reported. Otherwise it returns an error
// that wraps ErrValidationFailed and lists every error diagnostic.
func (d *Diagnostics) Err() error {
	var msgs []string
	for _, diag := range d.All() {
		if diag.Kind == KindError {
			msgs = append(msgs, "  "+diag.String())
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d error(s):\n%s", ErrValidationFailed, len(msgs), strings.Join(msgs, "\n"))
}

type positionedMessager interface {
	PrintMessageAt(kind Kind, pos token.Position, msg string, e *Element)
}

// PrintMessageAt reports a diagnostic at a specific position, such as the
// position of an annotation value. If the messager cannot record explicit
// positions, the position is folded into the message text.
func PrintMessageAt(m Messager, kind Kind, pos token.Position, msg string, e *Element) {
	if pm, ok := m.(positionedMessager); ok {
		pm.PrintMessageAt(kind, pos, msg, e)
		return
	}
	if pos.IsValid() {
		msg = NewErrorWithPosition(pos, errors.New(msg)).Error()
	}
	m.PrintMessage(kind, msg, e)
}

// errorCounter wraps a Messager and counts the errors reported through it.
type errorCounter struct {
	Messager
	errors int
}

func (c *errorCounter) PrintMessage(kind Kind, msg string, e *Element) {
	if kind == KindError {
		c.errors++
	}
	c.Messager.PrintMessage(kind, msg, e)
}

func (c *errorCounter) PrintMessageAt(kind Kind, pos token.Position, msg string, e *Element) {
	if kind == KindError {
		c.errors++
	}
	PrintMessageAt(c.Messager, kind, pos, msg, e)
}
