// Package processor contains the runtime library used by code that processes
// annotations.
//
// This package defines a function type, Processor, which is implemented by
// things that can process annotations.
//
//	func(ctx *Context, output processor.OutputFactory) error
//
// Processing is generally expected to validate annotated elements and to write
// outputs derived from them. Problems with the input are reported to the
// context's Messager as diagnostics, so that one run can report every problem
// at once. A processor returns an error only when processing cannot continue,
// such as an I/O failure or an ErrInternal.
//
// The OutputFactory passed to the processor creates outputs by namespace and
// name. The namespace is usually a Go import path. The factory can be used
// with the WriteGoFile function in the github.com/jhump/gopoet package, making
// it easy to author Go source code from an annotation processor.
//
// # Processor Registration
//
// Processor implementations can be registered with this package using the
// RegisterProcessor function, under a name. All registered processors can
// later be queried with AllRegistrations or looked up by name with
// LookupProcessor. The compatgo command runs registered processors in addition
// to its built-in ones.
//
// # Processor Invocation
//
// processor.Config defines the packages that will be processed, the processors
// that will be invoked, and the output factory. Its Execute method loads the
// packages (using golang.org/x/tools/go/packages), extracts annotated elements
// from their doc comments, and passes all of them to each processor via a
// single processor.Context. Process and ProcessAll are shortcuts for the
// common case.
//
// # Elements
//
// Go declarations are mapped onto a small, language-neutral element model
// (Element, AnnotationMirror, AnnotationValue) so that processors can apply
// rules such as "must be a static final int64 field" without knowing about Go
// syntax. See ElementsFromFiles for the mapping.
package processor
