package processor

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"text/scanner"

	"golang.org/x/tools/go/packages"

	"github.com/jhump/compatgo/parser"
)

// LoadConfig describes the packages to load with Load.
type LoadConfig struct {
	// Dir is the directory in which package patterns are resolved. If blank,
	// the current directory is used.
	Dir string
	// Patterns are package patterns, as accepted by "go list".
	Patterns []string
	// Tests includes test files (and external test packages) when true.
	Tests bool
	// SourceRoot, if not blank, is stripped from file names so that positions
	// in output are relative to it.
	SourceRoot string
}

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
	packages.NeedTypes | packages.NeedTypesInfo | packages.NeedImports

// Load parses and type-checks the configured packages and returns every
// element that carries at least one annotation, in source order. Problems
// with individual annotations are reported to msgr. Packages that fail to
// load or type-check produce an error.
func Load(cfg LoadConfig, msgr Messager) ([]*Element, error) {
	pkgs, err := packages.Load(&packages.Config{Mode: loadMode, Dir: cfg.Dir, Tests: cfg.Tests}, cfg.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	var loadErrs []string
	for _, p := range pkgs {
		for _, e := range p.Errors {
			loadErrs = append(loadErrs, e.Error())
		}
	}
	if len(loadErrs) > 0 {
		return nil, fmt.Errorf("failed to load packages:\n  %s", strings.Join(loadErrs, "\n  "))
	}

	// With tests enabled, the same file can show up in more than one variant
	// of a package.
	seen := map[string]bool{}
	var elements []*Element
	for _, p := range pkgs {
		if strings.HasSuffix(p.ID, ".test") {
			// synthesized test main
			continue
		}
		var files []*ast.File
		for _, f := range p.Syntax {
			name := p.Fset.Position(f.Package).Filename
			if seen[name] {
				continue
			}
			seen[name] = true
			files = append(files, f)
		}
		if len(files) == 0 {
			continue
		}
		// Types declared in already seen files still enclose the constants and
		// methods of the files that are new in this variant.
		x := newExtractor(p.Fset, p.Types, p.TypesInfo, p.Syntax, cfg.SourceRoot, msgr)
		elements = append(elements, x.extract(files)...)
	}
	return elements, nil
}

// ElementsFromFiles maps the declarations in the given files, which must all
// belong to pkg, to elements and returns the ones that are annotated.
//
// Package-level constants and variables become static fields (constants are
// also final). A constant whose type is a named type declared in the same
// package is enclosed by that type. Named types become classes, or interfaces
// when their underlying type is an interface. Struct fields become instance
// fields of their type. Functions and methods, including interface methods,
// become methods.
func ElementsFromFiles(fset *token.FileSet, pkg *types.Package, info *types.Info, files []*ast.File, root string, msgr Messager) []*Element {
	return newExtractor(fset, pkg, info, files, root, msgr).extract(files)
}

// newExtractor returns an extractor that knows about the named types declared
// in all of the given files.
func newExtractor(fset *token.FileSet, pkg *types.Package, info *types.Info, all []*ast.File, root string, msgr Messager) *extractor {
	x := &extractor{
		fset:    fset,
		pkg:     pkg,
		info:    info,
		root:    root,
		msgr:    msgr,
		pkgEl:   &Element{Kind: KindPackage, Name: pkg.Name(), QualifiedName: pkg.Path()},
		typeEls: map[*types.TypeName]*Element{},
	}
	if len(all) > 0 {
		x.pkgEl.Pos = x.position(all[0].Package)
	}
	// types first, so that constants and methods that appear before their
	// type in source can still find it
	for _, f := range all {
		for _, decl := range f.Decls {
			if gd, ok := decl.(*ast.GenDecl); ok && gd.Tok == token.TYPE {
				for _, s := range gd.Specs {
					x.declareType(s.(*ast.TypeSpec))
				}
			}
		}
	}
	return x
}

func (x *extractor) extract(files []*ast.File) []*Element {
	for _, f := range files {
		x.computeElementsFromFile(f)
	}
	return x.elements
}

type extractor struct {
	fset *token.FileSet
	pkg  *types.Package
	info *types.Info
	root string
	msgr Messager

	pkgEl    *Element
	typeEls  map[*types.TypeName]*Element
	elements []*Element
}

func (x *extractor) position(p token.Pos) token.Position {
	pos := x.fset.Position(p)
	pos.Filename = relativeFilename(x.root, pos.Filename)
	return pos
}

func relativeFilename(root, filename string) string {
	if root != "" && filename != "" {
		if rel, err := filepath.Rel(root, filename); err == nil && !strings.HasPrefix(rel, "..") {
			filename = rel
		}
	}
	return filepath.ToSlash(filename)
}

func (x *extractor) declareType(spec *ast.TypeSpec) {
	obj, ok := x.info.Defs[spec.Name].(*types.TypeName)
	if !ok {
		return
	}
	kind := KindClass
	if _, ok := obj.Type().Underlying().(*types.Interface); ok {
		kind = KindInterface
	}
	x.typeEls[obj] = &Element{
		Kind:          kind,
		Name:          obj.Name(),
		QualifiedName: x.pkgEl.QualifiedName + "." + obj.Name(),
		Modifiers:     ModStatic,
		Enclosing:     x.pkgEl,
		Pos:           x.position(spec.Name.Pos()),
	}
}

func (x *extractor) computeElementsFromFile(file *ast.File) {
	imports := x.importsOf(file)
	for _, decl := range file.Decls {
		switch decl := decl.(type) {
		case *ast.GenDecl:
			for _, s := range decl.Specs {
				switch spec := s.(type) {
				case *ast.ValueSpec:
					doc := spec.Doc
					if doc == nil && !decl.Lparen.IsValid() {
						doc = decl.Doc
					}
					for _, id := range spec.Names {
						if id.Name == "_" {
							continue
						}
						obj := x.info.Defs[id]
						if obj == nil {
							continue
						}
						x.annotate(x.valueElement(id, obj, decl.Tok == token.CONST), doc, imports)
					}
				case *ast.TypeSpec:
					doc := spec.Doc
					if doc == nil && !decl.Lparen.IsValid() {
						doc = decl.Doc
					}
					x.computeElementsFromType(spec, doc, imports)
				}
			}
		case *ast.FuncDecl:
			x.annotate(x.funcElement(decl), decl.Doc, imports)
		}
	}
}

func (x *extractor) valueElement(id *ast.Ident, obj types.Object, isConst bool) *Element {
	el := &Element{
		Kind:      KindField,
		Name:      id.Name,
		Modifiers: ModStatic,
		Type:      typeKindOf(obj.Type()),
		Enclosing: x.pkgEl,
		Pos:       x.position(id.Pos()),
	}
	if c, ok := obj.(*types.Const); ok && isConst {
		el.Modifiers |= ModFinal
		el.Constant = c.Val()
		if named, ok := c.Type().(*types.Named); ok {
			if owner := x.typeEls[named.Obj()]; owner != nil {
				el.Enclosing = owner
			}
		}
	}
	el.QualifiedName = el.Enclosing.QualifiedName + "." + el.Name
	return el
}

func (x *extractor) computeElementsFromType(spec *ast.TypeSpec, doc *ast.CommentGroup, imports map[string]string) {
	obj, ok := x.info.Defs[spec.Name].(*types.TypeName)
	if !ok {
		return
	}
	typeEl := x.typeEls[obj]
	if typeEl == nil {
		return
	}
	x.annotate(typeEl, doc, imports)

	switch t := spec.Type.(type) {
	case *ast.StructType:
		for _, fld := range t.Fields.List {
			for _, id := range fld.Names {
				fobj := x.info.Defs[id]
				if fobj == nil {
					continue
				}
				x.annotate(&Element{
					Kind:          KindField,
					Name:          id.Name,
					QualifiedName: typeEl.QualifiedName + "." + id.Name,
					Type:          typeKindOf(fobj.Type()),
					Enclosing:     typeEl,
					Pos:           x.position(id.Pos()),
				}, fld.Doc, imports)
			}
		}
	case *ast.InterfaceType:
		for _, m := range t.Methods.List {
			for _, id := range m.Names {
				x.annotate(&Element{
					Kind:          KindMethod,
					Name:          id.Name,
					QualifiedName: typeEl.QualifiedName + "." + id.Name,
					Enclosing:     typeEl,
					Pos:           x.position(id.Pos()),
				}, m.Doc, imports)
			}
		}
	}
}

func (x *extractor) funcElement(decl *ast.FuncDecl) *Element {
	el := &Element{
		Kind:      KindMethod,
		Name:      decl.Name.Name,
		Enclosing: x.pkgEl,
		Pos:       x.position(decl.Name.Pos()),
	}
	if decl.Recv == nil {
		el.Modifiers = ModStatic
	} else if fn, ok := x.info.Defs[decl.Name].(*types.Func); ok {
		if recv := fn.Type().(*types.Signature).Recv(); recv != nil {
			t := recv.Type()
			if ptr, ok := t.(*types.Pointer); ok {
				t = ptr.Elem()
			}
			if named, ok := t.(*types.Named); ok {
				if owner := x.typeEls[named.Obj()]; owner != nil {
					el.Enclosing = owner
				}
			}
		}
	}
	el.QualifiedName = el.Enclosing.QualifiedName + "." + el.Name
	return el
}

func typeKindOf(t types.Type) TypeKind {
	b, ok := t.Underlying().(*types.Basic)
	if !ok {
		return TypeOther
	}
	switch b.Kind() {
	case types.Bool, types.UntypedBool:
		return TypeBool
	case types.String, types.UntypedString:
		return TypeString
	case types.Int:
		return TypeInt
	case types.Int32:
		return TypeInt32
	case types.Int64:
		return TypeInt64
	case types.UntypedInt, types.UntypedRune:
		return TypeUntypedInt
	default:
		return TypeOther
	}
}

// annotate records the doc text and annotations found in doc on el. The
// element is added to the results if it ends up with any annotations.
func (x *extractor) annotate(el *Element, doc *ast.CommentGroup, imports map[string]string) {
	desc, hasDesc, buf, adjuster := x.extractAnnotations(doc)
	el.Doc, el.HasDoc = desc, hasDesc
	if buf == nil {
		return
	}
	annos, perr := parser.ParseAnnotations(el.Pos.Filename, buf)
	if perr != nil {
		PrintMessageAt(x.msgr, KindError, adjuster.adjustPosition(perr.Pos()),
			fmt.Sprintf("failed to parse annotations: %v", perr.Underlying()), el)
		return
	}
	for _, a := range annos {
		if m, ok := x.convertAnnotation(a, adjuster, imports, el); ok {
			el.Annotations = append(el.Annotations, m)
		}
	}
	if len(el.Annotations) > 0 {
		x.elements = append(x.elements, el)
	}
}

func (x *extractor) convertAnnotation(a parser.Annotation, adjuster posAdjuster, imports map[string]string, el *Element) (AnnotationMirror, bool) {
	typeName, err := x.resolveAnnotationType(a.Type, imports)
	if err != nil {
		PrintMessageAt(x.msgr, KindWarning, adjuster.adjustPosition(a.Type.Pos), err.Error(), el)
		return AnnotationMirror{}, false
	}
	m := AnnotationMirror{
		Type: typeName,
		Pos:  adjuster.adjustPosition(a.Pos),
		End:  adjuster.adjustPosition(a.End),
	}
	if a.Value != nil {
		v, err := x.evaluate(a.Value, imports)
		if err != nil {
			PrintMessageAt(x.msgr, KindError, adjuster.adjustPosition(a.Value.Pos()), err.Error(), el)
			return AnnotationMirror{}, false
		}
		m.Values = append(m.Values, AnnotationValue{Name: PositionalValueName, Value: v, Pos: adjuster.adjustPosition(a.Value.Pos())})
	}
	for _, elem := range a.Elements {
		v, err := x.evaluate(elem.Value, imports)
		if err != nil {
			PrintMessageAt(x.msgr, KindError, adjuster.adjustPosition(elem.Value.Pos()), err.Error(), el)
			return AnnotationMirror{}, false
		}
		m.Values = append(m.Values, AnnotationValue{Name: elem.Key, Value: v, Pos: adjuster.adjustPosition(elem.KeyPos)})
	}
	return m, true
}

// importsOf maps the names by which a file refers to its imports to their
// paths. Blank imports are included under the imported package's name, so
// that a package imported only for its annotations can still be referenced.
func (x *extractor) importsOf(file *ast.File) map[string]string {
	imports := map[string]string{}
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		var name string
		if imp.Name != nil && imp.Name.Name != "_" && imp.Name.Name != "." {
			name = imp.Name.Name
		} else {
			name = x.importedPackageName(path)
		}
		imports[name] = path
	}
	return imports
}

func (x *extractor) importedPackage(path string) *types.Package {
	for _, p := range x.pkg.Imports() {
		if p.Path() == path {
			return p
		}
	}
	return nil
}

func (x *extractor) importedPackageName(path string) string {
	if p := x.importedPackage(path); p != nil {
		return p.Name()
	}
	return path[strings.LastIndex(path, "/")+1:]
}

// resolveScope returns the import path and scope named by the given alias. The
// scope is nil if the package's contents are not known.
func (x *extractor) resolveScope(alias string, imports map[string]string) (string, *types.Scope, error) {
	if alias == "" {
		return x.pkg.Path(), x.pkg.Scope(), nil
	}
	path, ok := imports[alias]
	if !ok {
		if alias == x.pkg.Name() {
			return x.pkg.Path(), x.pkg.Scope(), nil
		}
		return "", nil, fmt.Errorf("no import for package %q", alias)
	}
	if p := x.importedPackage(path); p != nil {
		return path, p.Scope(), nil
	}
	return path, nil, nil
}

func (x *extractor) resolveAnnotationType(id parser.Identifier, imports map[string]string) (string, error) {
	path, scope, err := x.resolveScope(id.PackageAlias, imports)
	if err != nil {
		return "", fmt.Errorf("cannot resolve annotation @%v: %v", id, err)
	}
	if scope != nil {
		if _, ok := scope.Lookup(id.Name).(*types.TypeName); !ok {
			return "", fmt.Errorf("cannot resolve annotation @%v: %s.%s is not a type", id, path, id.Name)
		}
	}
	return path + "." + id.Name, nil
}

func (x *extractor) evaluate(n parser.ExpressionNode, imports map[string]string) (constant.Value, error) {
	switch n := n.(type) {
	case parser.LiteralNode:
		return n.Val, nil
	case parser.PrefixOperatorNode:
		v, err := x.evaluate(n.Value, imports)
		if err != nil {
			return nil, err
		}
		switch v.Kind() {
		case constant.Int, constant.Float, constant.Complex:
		default:
			return nil, fmt.Errorf("operator %s not defined for %v", n.Operator, v)
		}
		op := token.SUB
		if n.Operator == "+" {
			op = token.ADD
		}
		return constant.UnaryOp(op, v, 0), nil
	case parser.RefNode:
		path, scope, err := x.resolveScope(n.Ident.PackageAlias, imports)
		if err != nil {
			return nil, fmt.Errorf("cannot resolve %v: %v", n.Ident, err)
		}
		if scope == nil {
			return nil, fmt.Errorf("cannot resolve %v: package %s not loaded", n.Ident, path)
		}
		c, ok := scope.Lookup(n.Ident.Name).(*types.Const)
		if !ok {
			return nil, fmt.Errorf("%v is not a constant", n.Ident)
		}
		return c.Val(), nil
	default:
		return nil, fmt.Errorf("unsupported expression %T", n)
	}
}

// directive matches comments such as //go:generate and //line, which are
// not part of a declaration's documentation.
var directive = regexp.MustCompile(`^//(line |[a-z0-9]+:[a-z0-9])`)

func isDirective(c string) bool {
	return directive.MatchString(c)
}

var hideLine = regexp.MustCompile(`^[ \t]*@hide[ \t]*$`)

// annotationLine matches a line that begins an annotation: a name, optionally
// qualified, followed by nothing or by the start of a value. Prose such as
// "@see Other" does not match.
var annotationLine = regexp.MustCompile(`^[ \t]*@[\pL_][\pL\pN_]*(\.[\pL_][\pL\pN_]*)?[ \t]*([({].*)?$`)

func isAnnotationStart(line string) bool {
	return annotationLine.MatchString(line) && !hideLine.MatchString(line)
}

// extractAnnotations splits a doc comment into its descriptive text and its
// annotations. Annotations start at the first line that begins with an
// annotation name (other than an @hide line) and continue to the end of the
// comment. The returned adjuster maps positions in the returned buffer back to
// positions in the source file.
func (x *extractor) extractAnnotations(doc *ast.CommentGroup) (string, bool, *bytes.Buffer, posAdjuster) {
	if doc == nil {
		return "", false, nil, nil
	}
	var desc []string
	var buf bytes.Buffer
	var adjuster posAdjuster
	found := false
	var pos token.Position
	for _, l := range doc.List {
		txt := l.Text
		if isDirective(txt) {
			continue
		}
		if strings.HasPrefix(txt, "/*") {
			txt = txt[2:]
			if strings.HasSuffix(txt, "*/") {
				txt = txt[:len(txt)-2]
			}
		} else if strings.HasPrefix(txt, "//") {
			txt = txt[2:]
		}

		pos = x.position(l.Slash)
		// skip past opening "//" or "/*"
		pos.Offset += 2
		pos.Column += 2

		for _, line := range strings.Split(txt, "\n") {
			if !found && isAnnotationStart(line) {
				found = true
			}
			if found {
				adjuster = append(adjuster, posAdj{outOffset: buf.Len(), inPos: pos})
				if !hideLine.MatchString(line) {
					buf.WriteString(line)
				}
				buf.WriteByte('\n')
			} else {
				desc = append(desc, line)
			}
			pos.Offset += len(line) + 1
			pos.Line++
			pos.Column = 1
		}
	}
	description := strings.Join(desc, "\n")
	if !found {
		return description, len(desc) > 0, nil, nil
	}
	return description, len(desc) > 0, &buf, adjuster
}

type posAdj struct {
	outOffset int
	inPos     token.Position
}

type posAdjuster []posAdj

func (a posAdjuster) adjustPosition(pos scanner.Position) token.Position {
	if len(a) == 0 || pos.Line < 1 {
		return token.Position{Filename: pos.Filename, Offset: pos.Offset, Line: pos.Line, Column: pos.Column}
	}
	idx := pos.Line - 1
	if idx >= len(a) {
		idx = len(a) - 1
	}
	el := a[idx]
	var tok token.Position
	tok.Filename = el.inPos.Filename
	tok.Line = el.inPos.Line
	tok.Column = el.inPos.Column + pos.Column - 1
	tok.Offset = el.inPos.Offset + (pos.Offset - el.outOffset)
	return tok
}
