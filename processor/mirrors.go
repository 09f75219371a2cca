package processor

import (
	"fmt"
	"go/constant"
	"go/token"
	"reflect"
)

// ElementKind identifies the kind of a program element.
type ElementKind int

const (
	KindPackage ElementKind = iota
	KindClass
	KindInterface
	KindEnum
	KindField
	KindParameter
	KindMethod
)

func (k ElementKind) String() string {
	switch k {
	case KindPackage:
		return "PACKAGE"
	case KindClass:
		return "CLASS"
	case KindInterface:
		return "INTERFACE"
	case KindEnum:
		return "ENUM"
	case KindField:
		return "FIELD"
	case KindParameter:
		return "PARAMETER"
	case KindMethod:
		return "METHOD"
	default:
		return fmt.Sprintf("ElementKind(%d)", int(k))
	}
}

// IsType returns true if the kind is one that declares a type.
func (k ElementKind) IsType() bool {
	return k == KindClass || k == KindInterface || k == KindEnum
}

// Modifiers is a set of declaration modifiers.
type Modifiers uint8

const (
	// ModStatic is set on elements that do not belong to an instance: package
	// level variables, constants, and functions.
	ModStatic Modifiers = 1 << iota
	// ModFinal is set on elements whose value cannot change: constants.
	ModFinal
)

// Has returns true if all modifiers in o are present in m.
func (m Modifiers) Has(o Modifiers) bool {
	return m&o == o
}

// TypeKind is a coarse description of an element's type.
type TypeKind int

const (
	TypeOther TypeKind = iota
	TypeBool
	TypeString
	TypeInt
	TypeInt32
	TypeInt64
	TypeUntypedInt
)

func (k TypeKind) String() string {
	switch k {
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeUntypedInt:
		return "untyped int"
	default:
		return "other"
	}
}

// AnnotationValue is a single named argument of an annotation. Positional
// values, as in @Foo(123), are named "Value".
type AnnotationValue struct {
	Name  string
	Value constant.Value
	// The position in source where this value is defined.
	Pos token.Position
}

// PositionalValueName is the name given to the value of an annotation written
// with a parenthesized argument.
const PositionalValueName = "Value"

// String renders the value as a Go constant literal. Strings are quoted.
func (v AnnotationValue) String() string {
	if v.Value == nil {
		return ""
	}
	return v.Value.ExactString()
}

// AsInt64 returns the value as an int64, if it is an integer that fits.
func (v AnnotationValue) AsInt64() (int64, bool) {
	if v.Value == nil {
		return 0, false
	}
	iv := constant.ToInt(v.Value)
	if iv.Kind() != constant.Int {
		return 0, false
	}
	return constant.Int64Val(iv)
}

// AsString returns the value as a string, if it is one.
func (v AnnotationValue) AsString() (string, bool) {
	if v.Value == nil || v.Value.Kind() != constant.String {
		return "", false
	}
	return constant.StringVal(v.Value), true
}

// AsBool returns the value as a bool, if it is one.
func (v AnnotationValue) AsBool() (bool, bool) {
	if v.Value == nil || v.Value.Kind() != constant.Bool {
		return false, false
	}
	return constant.BoolVal(v.Value), true
}

// AnnotationMirror is a view of an annotation instance that appears in source.
type AnnotationMirror struct {
	// Type is the fully qualified name of the annotation type, for example
	// "github.com/jhump/compatgo.ChangeID".
	Type string
	// Values are the annotation's arguments, in the order written.
	Values []AnnotationValue
	// Pos and End delimit the annotation in source.
	Pos, End token.Position
}

// Lookup returns every value with the given name.
func (m AnnotationMirror) Lookup(name string) []AnnotationValue {
	var vals []AnnotationValue
	for _, v := range m.Values {
		if v.Name == name {
			vals = append(vals, v)
		}
	}
	return vals
}

// Value returns the first value with the given name.
func (m AnnotationMirror) Value(name string) (AnnotationValue, bool) {
	for _, v := range m.Values {
		if v.Name == name {
			return v, true
		}
	}
	return AnnotationValue{}, false
}

// Has returns true if the annotation has a value with the given name.
func (m AnnotationMirror) Has(name string) bool {
	_, ok := m.Value(name)
	return ok
}

// Element is a program element: a package, a type, a field, a parameter, or a
// method. Elements form a tree through Enclosing.
type Element struct {
	Kind ElementKind
	// Name is the simple name.
	Name string
	// QualifiedName is the import path for packages. For everything else it
	// is the enclosing element's qualified name, a dot, and the name.
	QualifiedName string
	Modifiers     Modifiers
	Type          TypeKind
	// Constant is the compile-time value of the element, or nil if it is not
	// a constant.
	Constant    constant.Value
	Enclosing   *Element
	Annotations []AnnotationMirror
	// Doc is the element's doc comment with annotations removed. HasDoc is
	// false if there was no descriptive text at all.
	Doc    string
	HasDoc bool
	Pos    token.Position
}

func (e *Element) String() string {
	return fmt.Sprintf("%v %s", e.Kind, e.QualifiedName)
}

// FindAnnotations returns annotation mirrors whose annotation type is the given
// fully qualified type name.
func (e *Element) FindAnnotations(annoType string) []AnnotationMirror {
	var matches []AnnotationMirror
	for _, m := range e.Annotations {
		if m.Type == annoType {
			matches = append(matches, m)
		}
	}
	return matches
}

// FindAnnotation returns the first annotation of the given type.
func (e *Element) FindAnnotation(annoType string) (AnnotationMirror, bool) {
	for _, m := range e.Annotations {
		if m.Type == annoType {
			return m, true
		}
	}
	return AnnotationMirror{}, false
}

// IsAnnotatedWith returns true if the element has at least one annotation of
// the given type.
func (e *Element) IsAnnotatedWith(annoType string) bool {
	_, ok := e.FindAnnotation(annoType)
	return ok
}

// Package returns the package that (transitively) encloses this element, or
// the element itself if it is a package.
func (e *Element) Package() *Element {
	for p := e; p != nil; p = p.Enclosing {
		if p.Kind == KindPackage {
			return p
		}
	}
	return nil
}

// TypeName returns the fully qualified name of the given Go type, suitable
// for matching against AnnotationMirror.Type. The argument is a value of the
// annotation type, e.g. TypeName(compatgo.ChangeID{}).
func TypeName(v interface{}) string {
	rt := reflect.TypeOf(v)
	return rt.PkgPath() + "." + rt.Name()
}
