package appusage

import (
	"fmt"
	"sort"

	"github.com/jhump/compatgo/processor"
)

const (
	// ProcessorName is the name under which New(DefaultOptions()) is
	// registered.
	ProcessorName = "appusage"

	// IndexPackage and IndexFileName locate the merged index.
	IndexPackage  = "unsupportedappusage"
	IndexFileName = "unsupportedappusage_index.csv"

	indexFileExt = ".uau"
)

func init() {
	processor.RegisterProcessor(ProcessorName, []string{annotationType}, New(DefaultOptions()))
}

// Options configure the usage index processor.
type Options struct {
	// MergedIndex also writes every entry, sorted by signature, to
	// unsupportedappusage/unsupportedappusage_index.csv.
	MergedIndex bool
	// Signer computes entry signatures. If nil, QualifiedNameSigner is used.
	Signer Signer
}

// DefaultOptions returns options that write the merged index and sign
// elements by qualified name.
func DefaultOptions() Options {
	return Options{MergedIndex: true, Signer: QualifiedNameSigner}
}

// GroupFileName returns the name of the per-owner index for the given group.
func GroupFileName(key processor.GroupKey, pkgName string) string {
	if key.Type == "" {
		return pkgName + indexFileExt
	}
	return key.Type + indexFileExt
}

// New returns a processor that indexes every @UnsupportedAppUsage element.
func New(opts Options) processor.Processor {
	return func(ctx *processor.Context, output processor.OutputFactory) error {
		groups, err := Collect(ctx, opts)
		if err != nil {
			return err
		}
		if groups.Len() == 0 {
			return nil
		}

		bySignature := map[string]Entry{}
		for _, k := range groups.Keys() {
			entries := groups.Items(k)
			name := GroupFileName(k, entries[0].PackageName)
			if err := writeOutput(output, k.Package, name, entries); err != nil {
				return err
			}
			for _, e := range entries {
				bySignature[e.Signature] = e
			}
		}
		ctx.Logger.Verbose("Wrote usage index for %d owner(s)", groups.Len())

		if !opts.MergedIndex {
			return nil
		}
		merged := make([]Entry, 0, len(bySignature))
		for _, e := range bySignature {
			merged = append(merged, e)
		}
		sort.Slice(merged, func(i, j int) bool {
			return merged[i].Signature < merged[j].Signature
		})
		return writeOutput(output, IndexPackage, IndexFileName, merged)
	}
}

// Collect computes the index entries of every @UnsupportedAppUsage element in
// the context, grouped by owner. Elements with an ImplicitMember argument, no
// signature, or no source position are skipped.
func Collect(ctx *processor.Context, opts Options) (*processor.Groups[Entry], error) {
	signer := opts.Signer
	if signer == nil {
		signer = QualifiedNameSigner
	}
	var groups processor.Groups[Entry]
	for _, e := range ctx.ElementsAnnotatedWith(annotationType) {
		m, _ := e.FindAnnotation(annotationType)
		if m.Has(ImplicitMemberName) {
			continue
		}
		key, ok := processor.OwningGroup(e)
		if !ok {
			// packages annotate themselves
			key = processor.GroupKey{Package: e.QualifiedName}
		}
		sig, ok := signer.Signature(e)
		if !ok {
			ctx.Logger.Verbose("No signature for %v; not indexed", e)
			continue
		}
		pos, err := processor.ResolveSourceRange(m, e, ctx.Messager)
		if err != nil {
			return nil, err
		}
		if !pos.IsValid() {
			continue
		}
		var pkgName string
		if pkg := e.Package(); pkg != nil {
			pkgName = pkg.Name
		}
		groups.Add(key, Entry{
			Signature:   sig,
			Position:    pos,
			Properties:  properties(m),
			Group:       key,
			PackageName: pkgName,
		})
	}
	return &groups, nil
}

func writeOutput(output processor.OutputFactory, pkg, name string, entries []Entry) (err error) {
	w, err := output(pkg, name)
	if err != nil {
		return fmt.Errorf("failed to create %s/%s: %w", pkg, name, err)
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s/%s: %w", pkg, name, closeErr)
		}
	}()
	if err := WriteCSV(w, entries); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", pkg, name, err)
	}
	return nil
}

func properties(m processor.AnnotationMirror) []processor.AnnotationValue {
	var vals []processor.AnnotationValue
	for _, v := range m.Values {
		if v.Name != processor.OverrideSourcePositionName {
			vals = append(vals, v)
		}
	}
	return vals
}
