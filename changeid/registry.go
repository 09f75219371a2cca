package changeid

import (
	"io"
	"reflect"

	"github.com/jhump/gopoet"

	"github.com/jhump/compatgo"
	"github.com/jhump/compatgo/processor"
)

var compatgoPkg = gopoet.NewPackage(reflect.TypeOf(compatgo.Change{}).PkgPath())

// gateSymbols names the compatgo.Gate constant for each non-default state.
var gateSymbols = map[State]string{
	StateDisabled:     "GateDisabled",
	StateEnabledAfter: "GateEnabledAfter",
	StateEnabledSince: "GateEnabledSince",
	StateLoggingOnly:  "GateLoggingOnly",
}

// GoRegistryFileName returns the name of the generated registration file for
// a package.
func GoRegistryFileName(pkgName string) string {
	return pkgName + ".compat.go"
}

// WriteGoRegistry writes a Go source file for the given package whose init
// function registers the given changes with compatgo.RegisterChange.
func WriteGoRegistry(w io.Writer, pkgPath, pkgName string, changes []Change) error {
	file := gopoet.NewGoFile(GoRegistryFileName(pkgName), pkgPath, pkgName)

	initFunc := gopoet.NewFunc("init")
	for i, c := range changes {
		if i != 0 {
			initFunc.Println("")
		}
		initFunc.Printlnf("%s(%s{", compatgoPkg.Symbol("RegisterChange"), compatgoPkg.Symbol("Change"))
		initFunc.Printlnf("ID: %d,", c.ID)
		initFunc.Printlnf("Name: %q,", c.Name)
		if gate := gateSymbols[c.State]; gate != "" {
			initFunc.Printlnf("Gate: %s,", compatgoPkg.Symbol(gate))
		}
		if c.State.HasTargetSdk() {
			initFunc.Printlnf("TargetSdk: %d,", c.TargetSdk)
		}
		if c.Overridable {
			initFunc.Println("Overridable: true,")
		}
		if c.Description != nil && *c.Description != "" {
			initFunc.Printlnf("Description: %q,", *c.Description)
		}
		initFunc.Printlnf("DefinedIn: %q,", c.DefinedIn())
		initFunc.Println("})")
	}
	file.AddElement(initFunc)

	return gopoet.WriteGoFile(w, file)
}

// writeGoRegistries writes one registration file per package, next to the
// package's compat config documents.
func writeGoRegistries(output processor.OutputFactory, groups *processor.Groups[Change]) error {
	var byPkg processor.Groups[Change]
	for _, k := range groups.Keys() {
		for _, c := range groups.Items(k) {
			byPkg.Add(processor.GroupKey{Package: c.Package}, c)
		}
	}
	for _, k := range byPkg.Keys() {
		changes := byPkg.Items(k)
		pkgName := changes[0].PackageName
		if err := writeOutput(output, k.Package, GoRegistryFileName(pkgName), func(w io.Writer) error {
			return WriteGoRegistry(w, k.Package, pkgName, changes)
		}); err != nil {
			return err
		}
	}
	return nil
}
