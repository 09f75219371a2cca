package parser

import (
	"errors"
	"fmt"
	"go/constant"
	"go/token"
	"io"
	"text/scanner"
)

// Token kinds produced by the lexer. Punctuation is returned as the rune
// itself, so these are all negative to stay out of its way.
const (
	tokEOF = -(iota + 1)
	tokIdent
	tokInt
	tokFloat
	tokImag
	tokString
	tokRawString
	tokRune
	tokTrue
	tokFalse
)

var tokenNames = map[int]string{
	tokEOF:       "end of input",
	tokIdent:     "identifier",
	tokInt:       "int literal",
	tokFloat:     "float literal",
	tokImag:      "imaginary literal",
	tokString:    "string literal",
	tokRawString: "raw string literal",
	tokRune:      "rune literal",
	tokTrue:      `"true"`,
	tokFalse:     `"false"`,
}

func tokenName(t int) string {
	if n, ok := tokenNames[t]; ok {
		return n
	}
	return fmt.Sprintf("%q", rune(t))
}

var keywords = map[string]int{
	"true":  tokTrue,
	"false": tokFalse,
}

type lexeme struct {
	tok  int
	text string
	pos  scanner.Position
	// end is the position immediately after the token
	end scanner.Position
	// lit is set for literal tokens
	lit constant.Value
}

type annoLex struct {
	err error

	pending *lexeme

	s scanner.Scanner
}

func newLexer(filename string, r io.Reader) *annoLex {
	var l annoLex
	l.s.Init(r)
	l.s.Filename = filename
	l.s.Mode = l.s.Mode &^ (scanner.ScanComments | scanner.SkipComments)
	l.s.Whitespace = 0
	l.s.Error = func(s *scanner.Scanner, msg string) {
		l.err = errors.New(msg)
	}
	return &l
}

// ParseError describes a syntax error in annotation text. Its position is
// relative to the text that was parsed.
type ParseError struct {
	err error
	pos scanner.Position
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.pos.Line, e.pos.Column, e.err)
}

func (e *ParseError) Underlying() error {
	return e.err
}

func (e *ParseError) Pos() scanner.Position {
	return e.pos
}

func (l *annoLex) next() lexeme {
	if l.pending != nil {
		lx := *l.pending
		l.pending = nil
		return lx
	}
	return l.scan()
}

func (l *annoLex) peek() lexeme {
	if l.pending == nil {
		lx := l.scan()
		l.pending = &lx
	}
	return *l.pending
}

func (l *annoLex) scan() lexeme {
	for {
		// we handle whitespace ourselves so that we can easily know the
		// *start* position for a token (otherwise, scanner package only makes
		// easy to determine *end* position for a token)
		pos := l.s.Pos()
		r := l.s.Scan()
		tok := l.s.TokenText()
		lx := lexeme{tok: int(r), text: tok, pos: pos, end: l.s.Pos()}
		if l.err != nil {
			return lx
		}

		switch r {
		case scanner.EOF:
			lx.tok = tokEOF
			return lx

		case ' ', '\t', '\r', '\n':
			continue

		case scanner.Ident:
			if v, ok := keywords[tok]; ok {
				lx.tok = v
			} else {
				lx.tok = tokIdent
			}
			return lx

		case scanner.Int, scanner.Float:
			kind, t := token.INT, tokInt
			if r == scanner.Float {
				kind, t = token.FLOAT, tokFloat
			}
			if l.s.Peek() == 'i' {
				l.s.Next() // consume it
				lx.text += "i"
				lx.end = l.s.Pos()
				kind, t = token.IMAG, tokImag
			}
			lx.tok = t
			lx.lit = constant.MakeFromLiteral(lx.text, kind, 0)
			return lx

		case scanner.Char:
			lx.tok = tokRune
			lx.lit = constant.MakeFromLiteral(tok, token.CHAR, 0)
			return lx

		case scanner.String, scanner.RawString:
			lx.tok = tokString
			if tok[0] == '`' {
				lx.tok = tokRawString
			}
			lx.lit = constant.MakeFromLiteral(tok, token.STRING, 0)
			return lx
		}

		return lx
	}
}

type annoParser struct {
	lex  *annoLex
	last lexeme
}

func (p *annoParser) next() lexeme {
	lx := p.lex.next()
	if p.lex.err == nil {
		p.last = lx
	}
	return lx
}

func (p *annoParser) fail(lx lexeme, format string, args ...interface{}) *ParseError {
	if p.lex.err != nil {
		return &ParseError{err: p.lex.err, pos: lx.pos}
	}
	return &ParseError{err: fmt.Errorf(format, args...), pos: lx.pos}
}

func (p *annoParser) expect(tok int) (lexeme, *ParseError) {
	lx := p.next()
	if p.lex.err != nil || lx.tok != tok {
		return lx, p.fail(lx, "syntax error: unexpected %s, expecting %s", tokenName(lx.tok), tokenName(tok))
	}
	return lx, nil
}

// ParseAnnotations parses the given annotation text. The text is a sequence
// of annotations, each of which looks like one of the following:
//
//	@Name
//	@pkg.Name
//	@pkg.Name(value)
//	@pkg.Name{Key: value, OtherKey: value}
//
// Values are literals (numbers, strings, runes, true, false), optionally
// signed, or references to named constants.
func ParseAnnotations(filename string, r io.Reader) ([]Annotation, *ParseError) {
	p := annoParser{lex: newLexer(filename, r)}
	var res []Annotation
	for {
		lx := p.lex.peek()
		if p.lex.err != nil {
			return nil, p.fail(lx, "")
		}
		if lx.tok == tokEOF {
			return res, nil
		}
		a, err := p.parseAnnotation()
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
}

func (p *annoParser) parseAnnotation() (Annotation, *ParseError) {
	at, err := p.expect('@')
	if err != nil {
		return Annotation{}, err
	}
	id, err := p.parseIdentifier()
	if err != nil {
		return Annotation{}, err
	}
	a := Annotation{Type: id, Pos: at.pos}

	switch p.lex.peek().tok {
	case '(':
		p.next()
		if a.Value, err = p.parseValue(); err != nil {
			return Annotation{}, err
		}
		if _, err := p.expect(')'); err != nil {
			return Annotation{}, err
		}
	case '{':
		p.next()
		a.HasElements = true
		if a.Elements, err = p.parseElements(); err != nil {
			return Annotation{}, err
		}
	}
	if p.lex.err != nil {
		return Annotation{}, p.fail(p.lex.peek(), "")
	}
	a.End = p.last.end
	return a, nil
}

func (p *annoParser) parseIdentifier() (Identifier, *ParseError) {
	first, err := p.expect(tokIdent)
	if err != nil {
		return Identifier{}, err
	}
	id := Identifier{Name: first.text, Pos: first.pos}
	if p.lex.peek().tok == '.' {
		p.next()
		second, err := p.expect(tokIdent)
		if err != nil {
			return Identifier{}, err
		}
		id.PackageAlias = id.Name
		id.Name = second.text
	}
	return id, nil
}

func (p *annoParser) parseElements() ([]Element, *ParseError) {
	var elements []Element
	for {
		if p.lex.peek().tok == '}' {
			p.next()
			return elements, nil
		}
		key, err := p.expect(tokIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(':'); err != nil {
			return nil, err
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		elements = append(elements, Element{Key: key.text, KeyPos: key.pos, Value: val})

		lx := p.next()
		switch lx.tok {
		case ',':
		case '}':
			return elements, nil
		default:
			return nil, p.fail(lx, "syntax error: unexpected %s, expecting ',' or '}'", tokenName(lx.tok))
		}
	}
}

func (p *annoParser) parseValue() (ExpressionNode, *ParseError) {
	lx := p.lex.peek()
	switch lx.tok {
	case '-', '+':
		p.next()
		operand, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		return PrefixOperatorNode{Operator: string(rune(lx.tok)), Value: operand, pos: lx.pos}, nil
	case tokInt, tokFloat, tokImag, tokString, tokRawString, tokRune:
		p.next()
		return LiteralNode{Val: lx.lit, pos: lx.pos}, nil
	case tokTrue, tokFalse:
		p.next()
		return LiteralNode{Val: constant.MakeBool(lx.tok == tokTrue), pos: lx.pos}, nil
	case tokIdent:
		id, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		return RefNode{Ident: id}, nil
	}
	p.next()
	return nil, p.fail(lx, "syntax error: unexpected %s, expecting value", tokenName(lx.tok))
}
