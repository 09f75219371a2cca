// Package srctest type-checks inline Go sources for tests that exercise the
// annotation front-end without going through "go list".
package srctest

import (
	"fmt"
	"go/ast"
	"go/constant"
	goparser "go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/jhump/compatgo/processor"
)

// CompatgoPath is the import path of the annotation types.
const CompatgoPath = "github.com/jhump/compatgo"

var annotationTypes = []string{
	"ChangeID", "Disabled", "EnabledAfter", "EnabledSince",
	"LoggingOnly", "Overridable", "UnsupportedAppUsage",
}

// Importer resolves the compatgo package (with its annotation types) and any
// packages added with AddPackage. It does not read anything from disk.
type Importer struct {
	pkgs map[string]*types.Package
}

// NewImporter returns an importer that knows about the compatgo package.
func NewImporter() *Importer {
	p := types.NewPackage(CompatgoPath, "compatgo")
	for _, name := range annotationTypes {
		tn := types.NewTypeName(token.NoPos, p, name, nil)
		types.NewNamed(tn, types.NewStruct(nil, nil), nil)
		p.Scope().Insert(tn)
	}
	p.MarkComplete()
	return &Importer{pkgs: map[string]*types.Package{CompatgoPath: p}}
}

// AddPackage makes a package with the given integer constants importable.
func (imp *Importer) AddPackage(path, name string, consts map[string]int64) {
	p := types.NewPackage(path, name)
	for n, v := range consts {
		p.Scope().Insert(types.NewConst(token.NoPos, p, n, types.Typ[types.UntypedInt], constant.MakeInt64(v)))
	}
	p.MarkComplete()
	imp.pkgs[path] = p
}

// Import implements types.Importer.
func (imp *Importer) Import(path string) (*types.Package, error) {
	if p, ok := imp.pkgs[path]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("package %s not found", path)
}

// Source is one file of a package under test.
type Source struct {
	Filename string
	Content  string
}

// Elements parses and type-checks the given sources as package pkgPath and
// returns the annotated elements along with every diagnostic reported.
func Elements(t testing.TB, imp *Importer, pkgPath string, srcs ...Source) ([]*processor.Element, *processor.Diagnostics) {
	t.Helper()
	if imp == nil {
		imp = NewImporter()
	}
	fset := token.NewFileSet()
	files := make([]*ast.File, 0, len(srcs))
	for _, src := range srcs {
		f, err := goparser.ParseFile(fset, src.Filename, src.Content, goparser.ParseComments)
		if err != nil {
			t.Fatalf("failed to parse %s: %v", src.Filename, err)
		}
		files = append(files, f)
	}
	info := &types.Info{
		Defs: map[*ast.Ident]types.Object{},
		Uses: map[*ast.Ident]types.Object{},
	}
	conf := types.Config{Importer: imp}
	pkg, err := conf.Check(pkgPath, fset, files, info)
	if err != nil {
		t.Fatalf("failed to type-check %s: %v", pkgPath, err)
	}
	var diags processor.Diagnostics
	return processor.ElementsFromFiles(fset, pkg, info, files, "", &diags), &diags
}
