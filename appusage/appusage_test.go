package appusage

import (
	"bytes"
	"encoding/csv"
	"errors"
	"go/constant"
	"go/token"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhump/compatgo/internal/srctest"
	"github.com/jhump/compatgo/processor"
)

const widgetSrc = `package util

import _ "github.com/jhump/compatgo"

// Widget is a widget.
//
// @compatgo.UnsupportedAppUsage{MaxTargetSdk: 28, TrackingBug: 1234}
type Widget struct{}

// Spin spins.
//
// @compatgo.UnsupportedAppUsage{PublicAlternatives: "Use {@link Turn} & co."}
func (w *Widget) Spin() {}

// @compatgo.UnsupportedAppUsage{ImplicitMember: "Lfoo;->bar()V"}
func (w *Widget) Hidden() {}

// @compatgo.UnsupportedAppUsage{OverrideSourcePosition: "frameworks/Util.java:10:3:10:40", MaxTargetSdk: 29}
func Helper() {}
`

const csvHeader = "signature,file,startline,startcol,endline,endcol,properties\n"

func runWidget(t *testing.T, opts Options) (*processor.MemoryOutput, *processor.Diagnostics) {
	t.Helper()
	elements, d := srctest.Elements(t, nil, "example.com/util", srctest.Source{Filename: "util/widget.go", Content: widgetSrc})
	require.Empty(t, d.All())
	var out processor.MemoryOutput
	require.NoError(t, processor.Run(elements, d, nil, out.Factory(), New(opts)))
	return &out, d
}

func contents(t *testing.T, out *processor.MemoryOutput, path string) string {
	t.Helper()
	s, ok := out.Contents(path)
	require.True(t, ok, "missing output %s; have %v", path, out.Paths())
	return s
}

func TestProcessor(t *testing.T) {
	out, d := runWidget(t, DefaultOptions())
	assert.Empty(t, d.All())
	assert.Equal(t, []string{
		"example.com/util/Widget.uau",
		"example.com/util/util.uau",
		"unsupportedappusage/unsupportedappusage_index.csv",
	}, out.Paths())

	widgetLine := "example.com/util.Widget,util/widget.go,7,4,7,70,MaxTargetSdk=28&TrackingBug=1234\n"
	spinLine := "example.com/util.Widget.Spin,util/widget.go,12,4,12,79,PublicAlternatives=%22Use+%7B%40link+Turn%7D+%26+co.%22\n"
	helperLine := "example.com/util.Helper,frameworks/Util.java,10,3,10,40,MaxTargetSdk=29\n"

	assert.Equal(t, csvHeader+widgetLine+helperLine, contents(t, out, "example.com/util/util.uau"))
	assert.Equal(t, csvHeader+spinLine, contents(t, out, "example.com/util/Widget.uau"))
	assert.Equal(t, csvHeader+helperLine+widgetLine+spinLine, contents(t, out, "unsupportedappusage/unsupportedappusage_index.csv"))
}

func TestProcessor_NoMergedIndex(t *testing.T) {
	opts := DefaultOptions()
	opts.MergedIndex = false
	out, _ := runWidget(t, opts)
	assert.Equal(t, []string{"example.com/util/Widget.uau", "example.com/util/util.uau"}, out.Paths())
}

func TestProcessor_ExpectedSignatureSigner(t *testing.T) {
	src := `package util

import _ "github.com/jhump/compatgo"

// @compatgo.UnsupportedAppUsage{ExpectedSignature: "Lutil/Thing;->run()V"}
func Run() {}

// @compatgo.UnsupportedAppUsage
func Walk() {}
`
	elements, d := srctest.Elements(t, nil, "example.com/util", srctest.Source{Filename: "util/run.go", Content: src})
	require.Empty(t, d.All())

	var out processor.MemoryOutput
	opts := Options{MergedIndex: true, Signer: ExpectedSignatureSigner(QualifiedNameSigner)}
	require.NoError(t, processor.Run(elements, d, nil, out.Factory(), New(opts)))

	index := contents(t, &out, "unsupportedappusage/unsupportedappusage_index.csv")
	records, err := csv.NewReader(strings.NewReader(index)).ReadAll()
	require.NoError(t, err)
	var sigs []string
	for _, r := range records[1:] {
		sigs = append(sigs, r[0])
	}
	assert.Equal(t, []string{"Lutil/Thing;->run()V", "example.com/util.Walk"}, sigs)
}

func position(line int) token.Position {
	return token.Position{Filename: "p/a.go", Line: line, Column: 2}
}

func annotated(name string, enclosing *processor.Element, line int, vals ...processor.AnnotationValue) *processor.Element {
	return &processor.Element{
		Kind:          processor.KindMethod,
		Name:          name,
		QualifiedName: enclosing.QualifiedName + "." + name,
		Enclosing:     enclosing,
		Pos:           position(line + 1),
		Annotations: []processor.AnnotationMirror{{
			Type:   annotationType,
			Values: vals,
			Pos:    position(line),
			End:    token.Position{Filename: "p/a.go", Line: line, Column: 30},
		}},
	}
}

func TestProcessor_Skips(t *testing.T) {
	pkg := &processor.Element{Kind: processor.KindPackage, Name: "p", QualifiedName: "p"}
	noSig := annotated("", pkg, 5)
	noSig.QualifiedName = ""
	noPos := annotated("NoPos", pkg, 0)
	noPos.Annotations[0].Pos = token.Position{}
	malformed := annotated("Malformed", pkg, 9, processor.AnnotationValue{
		Name: processor.OverrideSourcePositionName, Value: constant.MakeString("nope"), Pos: position(9),
	})

	var out processor.MemoryOutput
	var d processor.Diagnostics
	require.NoError(t, processor.Run([]*processor.Element{noSig, noPos, malformed}, &d, nil, out.Factory(), New(DefaultOptions())))

	require.Len(t, d.All(), 1)
	assert.Equal(t, processor.ErrMalformedOverride.Error(), d.All()[0].Message)
	assert.Equal(t, csvHeader+"p.Malformed,p/a.go,9,2,9,30,\n", contents(t, &out, "p/p.uau"))
}

func TestProcessor_LaterDuplicateWins(t *testing.T) {
	pkgA := &processor.Element{Kind: processor.KindPackage, Name: "a", QualifiedName: "a"}
	pkgB := &processor.Element{Kind: processor.KindPackage, Name: "b", QualifiedName: "b"}
	first := annotated("X", pkgA, 3)
	second := annotated("X", pkgB, 7)
	second.QualifiedName = first.QualifiedName

	var out processor.MemoryOutput
	var d processor.Diagnostics
	require.NoError(t, processor.Run([]*processor.Element{first, second}, &d, nil, out.Factory(), New(DefaultOptions())))
	assert.Equal(t, csvHeader+"a.X,p/a.go,7,2,7,30,\n", contents(t, &out, "unsupportedappusage/unsupportedappusage_index.csv"))
}

func TestFormatProperties(t *testing.T) {
	vals := []processor.AnnotationValue{
		{Name: "MaxTargetSdk", Value: constant.MakeInt64(28)},
		{Name: processor.OverrideSourcePositionName, Value: constant.MakeString("a:1:2:3:4")},
		{Name: "ExpectedSignature", Value: constant.MakeString("La/B;->c(I)V")},
		{Name: "Flag", Value: constant.MakeBool(true)},
	}
	assert.Equal(t, "MaxTargetSdk=28&ExpectedSignature=%22La%2FB%3B-%3Ec%28I%29V%22&Flag=true", FormatProperties(vals))
	assert.Equal(t, "", FormatProperties(nil))
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	entries := []Entry{
		{Signature: "a.B", Position: processor.SourceRange{File: "a/b.go", StartLine: 1, StartCol: 2, EndLine: 3, EndCol: 4}},
		{
			Signature:  "a.C",
			Position:   processor.SourceRange{File: "dir, with comma/c.go", StartLine: 5, StartCol: 6, EndLine: 7, EndCol: 8},
			Properties: []processor.AnnotationValue{{Name: "TrackingBug", Value: constant.MakeInt64(99)}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, entries))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	want := [][]string{
		{"signature", "file", "startline", "startcol", "endline", "endcol", "properties"},
		{"a.B", "a/b.go", "1", "2", "3", "4", ""},
		{"a.C", "dir, with comma/c.go", "5", "6", "7", "8", "TrackingBug=99"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("unexpected records (-want +got):\n%s", diff)
	}
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) {
	return 0, io.ErrShortWrite
}

func TestWriteCSV_Error(t *testing.T) {
	err := WriteCSV(errWriter{}, []Entry{{Signature: "x"}})
	assert.True(t, errors.Is(err, io.ErrShortWrite))
}

func TestGroupFileName(t *testing.T) {
	assert.Equal(t, "util.uau", GroupFileName(processor.GroupKey{Package: "example.com/util"}, "util"))
	assert.Equal(t, "Outer.Inner.uau", GroupFileName(processor.GroupKey{Package: "example.com/util", Type: "Outer.Inner"}, "util"))
}

func TestRegistered(t *testing.T) {
	reg, ok := processor.LookupProcessor(ProcessorName)
	require.True(t, ok)
	assert.Equal(t, []string{"github.com/jhump/compatgo.UnsupportedAppUsage"}, reg.SupportedAnnotations)
}
