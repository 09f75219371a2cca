package appusage

import (
	"encoding/csv"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/jhump/compatgo"
	"github.com/jhump/compatgo/processor"
)

var annotationType = processor.TypeName(compatgo.UnsupportedAppUsage{})

// ImplicitMemberName is the annotation argument that names a member which is
// not present in source. Such annotations are not indexed.
const ImplicitMemberName = "ImplicitMember"

var header = []string{"signature", "file", "startline", "startcol", "endline", "endcol", "properties"}

// Entry is one line of a usage index.
type Entry struct {
	Signature string
	// Position is the range of the annotation, or of its override.
	Position processor.SourceRange
	// Properties are the annotation's arguments, in source order, without
	// any OverrideSourcePosition.
	Properties  []processor.AnnotationValue
	Group       processor.GroupKey
	PackageName string
}

// FormatProperties renders annotation arguments as "key=value" pairs joined
// with '&'. Values are Go constant literals (so strings are quoted) and are
// URL query escaped.
func FormatProperties(vals []processor.AnnotationValue) string {
	var sb strings.Builder
	first := true
	for _, v := range vals {
		if v.Name == processor.OverrideSourcePositionName {
			continue
		}
		if !first {
			sb.WriteByte('&')
		}
		first = false
		sb.WriteString(v.Name)
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(v.String()))
	}
	return sb.String()
}

func (e Entry) record() []string {
	return []string{
		e.Signature,
		e.Position.File,
		strconv.Itoa(e.Position.StartLine),
		strconv.Itoa(e.Position.StartCol),
		strconv.Itoa(e.Position.EndLine),
		strconv.Itoa(e.Position.EndCol),
		FormatProperties(e.Properties),
	}
}

// WriteCSV writes the header line and then one line per entry, in the given
// order.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write(e.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
