package processor

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// OverrideSourcePositionName is the annotation argument that replaces the
// computed source position of an annotation.
const OverrideSourcePositionName = "OverrideSourcePosition"

// ErrMalformedOverride is returned by SourcePositionOverride when the override
// does not have the form "file:startline:startcol:endline:endcol".
var ErrMalformedOverride = errors.New("Expected OverrideSourcePosition to have format string:int:int:int:int")

var overridePattern = regexp.MustCompile(`^[^:]+:\d+:\d+:\d+:\d+$`)

// SourceRange is a range of text in a source file. Lines and columns are
// 1-based.
type SourceRange struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// IsValid returns true if the range names a file and a starting line.
func (r SourceRange) IsValid() bool {
	return r.File != "" && r.StartLine > 0
}

// FileLine renders the start of the range as "file:line".
func (r SourceRange) FileLine() string {
	return fmt.Sprintf("%s:%d", r.File, r.StartLine)
}

func (r SourceRange) String() string {
	return fmt.Sprintf("%s:%d:%d:%d:%d", r.File, r.StartLine, r.StartCol, r.EndLine, r.EndCol)
}

// RangeOf returns the source range of the annotation usage site.
func RangeOf(m AnnotationMirror) SourceRange {
	return SourceRange{
		File:      m.Pos.Filename,
		StartLine: m.Pos.Line,
		StartCol:  m.Pos.Column,
		EndLine:   m.End.Line,
		EndCol:    m.End.Column,
	}
}

// ParseSourceRange parses the "file:startline:startcol:endline:endcol" form.
func ParseSourceRange(s string) (SourceRange, error) {
	if !overridePattern.MatchString(s) {
		return SourceRange{}, ErrMalformedOverride
	}
	parts := strings.Split(s, ":")
	nums := make([]int, 4)
	for i, p := range parts[1:] {
		n, err := strconv.Atoi(p)
		if err != nil {
			return SourceRange{}, ErrMalformedOverride
		}
		nums[i] = n
	}
	return SourceRange{File: parts[0], StartLine: nums[0], StartCol: nums[1], EndLine: nums[2], EndCol: nums[3]}, nil
}

// SourcePositionOverride returns the range given by the annotation's
// OverrideSourcePosition argument. The boolean result is false if there is no
// such argument. More than one such argument is an ErrInternal. A value that
// is not a well-formed string yields ErrMalformedOverride.
func SourcePositionOverride(m AnnotationMirror) (SourceRange, bool, error) {
	vals := m.Lookup(OverrideSourcePositionName)
	switch len(vals) {
	case 0:
		return SourceRange{}, false, nil
	case 1:
	default:
		return SourceRange{}, false, fmt.Errorf("%w: expected at most one %s on %s, got %d", ErrInternal, OverrideSourcePositionName, m.Type, len(vals))
	}
	s, ok := vals[0].AsString()
	if !ok {
		return SourceRange{}, false, ErrMalformedOverride
	}
	r, err := ParseSourceRange(s)
	if err != nil {
		return SourceRange{}, false, err
	}
	return r, true, nil
}

// ResolveSourceRange returns the range to report for the given annotation:
// the override, if there is a well-formed one, otherwise the computed usage
// site. A malformed override is reported to msgr as an error against e and
// the computed range is used. Only ErrInternal is returned.
func ResolveSourceRange(m AnnotationMirror, e *Element, msgr Messager) (SourceRange, error) {
	r, ok, err := SourcePositionOverride(m)
	switch {
	case errors.Is(err, ErrInternal):
		return SourceRange{}, err
	case err != nil:
		pos := m.Pos
		if v, found := m.Value(OverrideSourcePositionName); found {
			pos = v.Pos
		}
		PrintMessageAt(msgr, KindError, pos, err.Error(), e)
	case ok:
		return r, nil
	}
	return RangeOf(m), nil
}
