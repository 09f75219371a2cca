package changeid

import (
	"errors"
	"fmt"

	"github.com/jhump/compatgo/processor"
)

// State is the enablement state of a change. Exactly one state applies to
// each change.
type State int

const (
	// StateDefault changes are enabled for all apps.
	StateDefault State = iota
	StateDisabled
	// StateEnabledAfter changes are enabled for apps targeting an SDK
	// strictly greater than the change's TargetSdk.
	StateEnabledAfter
	// StateEnabledSince changes are enabled for apps targeting the change's
	// TargetSdk or later.
	StateEnabledSince
	StateLoggingOnly
)

func (s State) String() string {
	switch s {
	case StateDefault:
		return "default"
	case StateDisabled:
		return "disabled"
	case StateEnabledAfter:
		return "enabled-after"
	case StateEnabledSince:
		return "enabled-since"
	case StateLoggingOnly:
		return "logging-only"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// HasTargetSdk returns true for states that carry a target SDK version.
func (s State) HasTargetSdk() bool {
	return s == StateEnabledAfter || s == StateEnabledSince
}

// ErrInvalidChange is returned by NewChange for arguments that do not describe
// a legal change.
var ErrInvalidChange = errors.New("invalid change")

// Change is a validated compatibility change, ready to be written out.
type Change struct {
	ID   int64
	Name string
	// State is the enablement state. TargetSdk is only meaningful for
	// StateEnabledAfter and StateEnabledSince.
	State       State
	TargetSdk   int
	Overridable bool
	// Description is nil if the declaration had no doc comment at all. It is
	// non-nil, but possibly empty, if it had one.
	Description *string

	// Package and Type identify the owner of the change. Type is empty for
	// changes owned directly by a package.
	Package     string
	Type        string
	PackageName string
	// SourcePosition is "file:line" of the @ChangeID annotation, or empty
	// if unknown.
	SourcePosition string
}

// NewChange returns a change with the given identity and state.
func NewChange(id int64, name string, state State, targetSdk int) (Change, error) {
	if name == "" {
		return Change{}, fmt.Errorf("%w: change %d has no name", ErrInvalidChange, id)
	}
	if state < StateDefault || state > StateLoggingOnly {
		return Change{}, fmt.Errorf("%w: change %s has unknown state %v", ErrInvalidChange, name, state)
	}
	if !state.HasTargetSdk() && targetSdk != 0 {
		return Change{}, fmt.Errorf("%w: change %s is %v but has target SDK %d", ErrInvalidChange, name, state, targetSdk)
	}
	return Change{ID: id, Name: name, State: state, TargetSdk: targetSdk}, nil
}

// Group returns the key of the document this change belongs in.
func (c Change) Group() processor.GroupKey {
	return processor.GroupKey{Package: c.Package, Type: c.Type}
}

// DefinedIn is the fully qualified name of the change's owner.
func (c Change) DefinedIn() string {
	return c.Group().QualifiedName()
}
