package parser

import (
	"fmt"
	"go/constant"
	"text/scanner"
)

// ExpressionNode is a node in the AST for annotation values.
type ExpressionNode interface {
	Pos() scanner.Position
}

// LiteralNode is an expression node that represents a literal value, such as a
// number, boolean, or string.
type LiteralNode struct {
	Val constant.Value
	pos scanner.Position
}

func (n LiteralNode) Pos() scanner.Position {
	return n.pos
}

// RefNode is an expression node that is a reference to an identifier, which is
// expected to resolve to a constant.
type RefNode struct {
	Ident Identifier
}

func (n RefNode) Pos() scanner.Position {
	return n.Ident.Pos
}

// PrefixOperatorNode is an expression node that represents a sign in front of
// a value: unary minus (-) or unary plus (+).
type PrefixOperatorNode struct {
	Operator string
	Value    ExpressionNode
	pos      scanner.Position
}

func (n PrefixOperatorNode) Pos() scanner.Position {
	return n.pos
}

// Identifier is an AST node that refers to an identifier, possibly qualified
// with a package name/alias.
type Identifier struct {
	PackageAlias string
	Name         string
	Pos          scanner.Position
}

func (id Identifier) String() string {
	if id.PackageAlias == "" {
		return id.Name
	} else {
		return fmt.Sprintf("%s.%s", id.PackageAlias, id.Name)
	}
}

// Element is a named value in a braced annotation body.
type Element struct {
	Key    string
	KeyPos scanner.Position
	Value  ExpressionNode
}

// Annotation is a fully parsed annotation. It identifies the annotation type
// and has an optional value. A parenthesized value is stored in Value. A
// braced body is stored in Elements. An annotation with neither is a plain
// marker.
type Annotation struct {
	Type        Identifier
	Value       ExpressionNode
	Elements    []Element
	HasElements bool
	// Pos is the position of the leading '@'.
	Pos scanner.Position
	// End is the position just past the last token of the annotation.
	End scanner.Position
}
