package changeid

import (
	"fmt"
	"go/constant"
	"regexp"
	"strings"

	"github.com/jhump/compatgo/processor"
)

var hideLine = regexp.MustCompile(`^[ \t]*@hide[ \t]*$`)

// Builder turns validated elements into changes.
type Builder struct {
	msgr processor.Messager
}

// NewBuilder returns a builder that reports problems to msgr.
func NewBuilder(msgr processor.Messager) *Builder {
	return &Builder{msgr: msgr}
}

// Build constructs the change for an element that passed Validate. It returns
// false if the element's annotations are inconsistent; those problems are
// reported to the builder's messager. Errors are only returned for problems
// that should stop the run.
func (b *Builder) Build(e *processor.Element) (Change, bool, error) {
	marker, ok := e.FindAnnotation(changeIDType)
	if !ok {
		return Change{}, false, fmt.Errorf("%w: %v is not annotated with @ChangeID", processor.ErrInternal, e)
	}
	id, ok := int64Constant(e.Constant)
	if !ok {
		return Change{}, false, fmt.Errorf("%w: %v does not have an int64 constant value", processor.ErrInternal, e)
	}

	var disabled, loggingOnly, overridable bool
	var after, since *int
	valid := true
	for _, m := range e.Annotations {
		switch m.Type {
		case disabledType:
			disabled = markerSet(m)
		case loggingOnlyType:
			loggingOnly = markerSet(m)
		case overridableType:
			overridable = markerSet(m)
		case enabledAfterType:
			if sdk, ok := b.targetSdk(e, m, "EnabledAfter"); ok {
				after = &sdk
			} else {
				valid = false
			}
		case enabledSinceType:
			if sdk, ok := b.targetSdk(e, m, "EnabledSince"); ok {
				since = &sdk
			} else {
				valid = false
			}
		}
	}

	if disabled && (after != nil || since != nil) {
		b.msgr.PrintMessage(processor.KindError, msgDisabledAndEnabled, e)
		valid = false
	}
	if loggingOnly && (after != nil || since != nil || disabled) {
		b.msgr.PrintMessage(processor.KindError, msgLoggingOnlyAndOther, e)
		valid = false
	}
	if after != nil && since != nil {
		b.msgr.PrintMessage(processor.KindError, msgEnabledAfterAndSince, e)
		valid = false
	}
	if !valid {
		return Change{}, false, nil
	}

	state, sdk := StateDefault, 0
	switch {
	case disabled:
		state = StateDisabled
	case loggingOnly:
		state = StateLoggingOnly
	case after != nil:
		state, sdk = StateEnabledAfter, *after
	case since != nil:
		state, sdk = StateEnabledSince, *since
	}
	c, err := NewChange(id, e.Name, state, sdk)
	if err != nil {
		return Change{}, false, fmt.Errorf("%w: %v", processor.ErrInternal, err)
	}
	c.Overridable = overridable
	if e.HasDoc {
		desc := Description(e.Doc)
		c.Description = &desc
	}

	group, ok := processor.OwningGroup(e)
	if !ok {
		return Change{}, false, fmt.Errorf("%w: %v has no enclosing package", processor.ErrInternal, e)
	}
	c.Package, c.Type = group.Package, group.Type
	c.PackageName = e.Package().Name

	r, err := processor.ResolveSourceRange(marker, e, b.msgr)
	if err != nil {
		return Change{}, false, err
	}
	if r.IsValid() {
		c.SourcePosition = r.FileLine()
	}
	return c, true, nil
}

func (b *Builder) targetSdk(e *processor.Element, m processor.AnnotationMirror, name string) (int, bool) {
	v, ok := m.Value("TargetSdkVersion")
	if !ok {
		v, ok = m.Value(processor.PositionalValueName)
	}
	if !ok {
		processor.PrintMessageAt(b.msgr, processor.KindError, m.Pos, fmt.Sprintf(msgMissingTargetSdk, name), e)
		return 0, false
	}
	sdk, ok := v.AsInt64()
	if !ok {
		processor.PrintMessageAt(b.msgr, processor.KindError, v.Pos, fmt.Sprintf(msgTargetSdkNotInteger, name), e)
		return 0, false
	}
	return int(sdk), true
}

// markerSet reports whether a boolean marker annotation is on. A bare marker
// is on; @Marker(false) is off.
func markerSet(m processor.AnnotationMirror) bool {
	if v, ok := m.Value(processor.PositionalValueName); ok {
		if set, ok := v.AsBool(); ok {
			return set
		}
	}
	return true
}

func int64Constant(v constant.Value) (int64, bool) {
	if v == nil {
		return 0, false
	}
	iv := constant.ToInt(v)
	if iv.Kind() != constant.Int {
		return 0, false
	}
	return constant.Int64Val(iv)
}

// Description computes a change description from doc comment text: @hide
// lines are dropped, each remaining line loses its leading whitespace, lines
// are joined with spaces and the result is trimmed.
func Description(doc string) string {
	var lines []string
	for _, line := range strings.Split(doc, "\n") {
		if hideLine.MatchString(line) {
			continue
		}
		lines = append(lines, strings.TrimLeft(line, " \t"))
	}
	return strings.TrimSpace(strings.Join(lines, " "))
}
