package changeid

import (
	"go/constant"
	"go/token"

	"github.com/jhump/compatgo/processor"
)

const testFile = "libcore/util/Compat.go"

func pkgElement(path, name string) *processor.Element {
	return &processor.Element{Kind: processor.KindPackage, Name: name, QualifiedName: path}
}

func typeElement(name string, enclosing *processor.Element) *processor.Element {
	return &processor.Element{
		Kind:          processor.KindClass,
		Name:          name,
		QualifiedName: enclosing.QualifiedName + "." + name,
		Modifiers:     processor.ModStatic,
		Enclosing:     enclosing,
	}
}

func changeField(name string, id int64, enclosing *processor.Element, annos ...processor.AnnotationMirror) *processor.Element {
	return &processor.Element{
		Kind:          processor.KindField,
		Name:          name,
		QualifiedName: enclosing.QualifiedName + "." + name,
		Modifiers:     processor.ModStatic | processor.ModFinal,
		Type:          processor.TypeInt64,
		Constant:      constant.MakeInt64(id),
		Enclosing:     enclosing,
		Annotations:   annos,
		Pos:           token.Position{Filename: testFile, Line: 1, Column: 1},
	}
}

func anno(typ string, line int, values ...processor.AnnotationValue) processor.AnnotationMirror {
	return processor.AnnotationMirror{
		Type:   typ,
		Values: values,
		Pos:    token.Position{Filename: testFile, Line: line, Column: 5},
		End:    token.Position{Filename: testFile, Line: line, Column: 20},
	}
}

func intValue(name string, v int64) processor.AnnotationValue {
	return processor.AnnotationValue{Name: name, Value: constant.MakeInt64(v), Pos: token.Position{Filename: testFile, Line: 2, Column: 30}}
}

func stringValue(name, v string) processor.AnnotationValue {
	return processor.AnnotationValue{Name: name, Value: constant.MakeString(v), Pos: token.Position{Filename: testFile, Line: 2, Column: 30}}
}

func messages(d *processor.Diagnostics) []string {
	var msgs []string
	for _, diag := range d.All() {
		msgs = append(msgs, diag.Message)
	}
	return msgs
}

func strPtr(s string) *string {
	return &s
}

func constantBool(b bool) constant.Value {
	return constant.MakeBool(b)
}
