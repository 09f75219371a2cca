package processor

import (
	"errors"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnostics(t *testing.T) {
	var d Diagnostics
	assert.NoError(t, d.Err())
	assert.False(t, d.HasErrors())

	el := &Element{Kind: KindField, Name: "FOO", Pos: token.Position{Filename: "a/b.go", Line: 3, Column: 7}}
	d.PrintMessage(KindWarning, "just a warning", el)
	assert.NoError(t, d.Err())

	d.PrintMessage(KindError, "Non FIELD element annotated with @ChangeID.", el)
	d.PrintMessageAt(KindError, token.Position{Filename: "a/b.go", Line: 9, Column: 2}, "bad override", el)
	d.PrintMessage(KindNote, "no position", nil)

	assert.True(t, d.HasErrors())
	assert.Equal(t, 2, d.ErrorCount())

	all := d.All()
	require.Len(t, all, 4)
	assert.Equal(t, "a/b.go:3:7: warning: just a warning", all[0].String())
	assert.Equal(t, "a/b.go:9:2: error: bad override", all[2].String())
	assert.Equal(t, "note: no position", all[3].String())

	err := d.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.Equal(t, "annotation validation failed: 2 error(s):\n"+
		"  a/b.go:3:7: error: Non FIELD element annotated with @ChangeID.\n"+
		"  a/b.go:9:2: error: bad override", err.Error())
}

type recordingMessager struct {
	msgs []string
}

func (r *recordingMessager) PrintMessage(kind Kind, msg string, e *Element) {
	r.msgs = append(r.msgs, kind.String()+": "+msg)
}

func TestPrintMessageAt_PlainMessager(t *testing.T) {
	var r recordingMessager
	PrintMessageAt(&r, KindError, token.Position{Filename: "x.go", Line: 1, Column: 4}, "oops", nil)
	PrintMessageAt(&r, KindWarning, token.Position{}, "hmm", nil)
	assert.Equal(t, []string{"error: x.go:1:4: oops", "warning: hmm"}, r.msgs)
}

func TestErrorCounter(t *testing.T) {
	var d Diagnostics
	c := &errorCounter{Messager: &d}
	c.PrintMessage(KindWarning, "w", nil)
	c.PrintMessage(KindError, "e1", nil)
	PrintMessageAt(c, KindError, token.Position{Filename: "f.go", Line: 2, Column: 1}, "e2", nil)
	assert.Equal(t, 2, c.errors)
	assert.Equal(t, 2, d.ErrorCount())
	assert.Equal(t, 2, d.All()[2].Pos.Line)
}

func TestErrorWithPosition(t *testing.T) {
	underlying := errors.New("boom")
	err := NewErrorWithPosition(token.Position{Filename: "foo.go", Line: 10, Column: 3}, underlying)
	assert.Equal(t, "foo.go:10:3: boom", err.Error())
	assert.True(t, errors.Is(err, underlying))
	assert.Equal(t, underlying, err.Underlying())
}
