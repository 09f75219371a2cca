package changeid

import (
	"fmt"
	"io"

	"github.com/jhump/compatgo/processor"
)

const (
	// ProcessorName is the name under which New(DefaultOptions()) is
	// registered.
	ProcessorName = "changeid"

	configFileSuffix = "compat_config.xml"

	// MergedPackage is the namespace of the single document written in merged
	// mode.
	MergedPackage = "compat"
)

func init() {
	processor.RegisterProcessor(ProcessorName, SupportedAnnotations(), New(DefaultOptions()))
}

// ConfigFileName returns the name of the document for the given owner.
func ConfigFileName(key processor.GroupKey) string {
	if key.Type == "" {
		return configFileSuffix
	}
	return key.Type + "_" + configFileSuffix
}

// New returns a processor that validates every @ChangeID element and writes
// the valid ones out as compat config documents.
func New(opts Options) processor.Processor {
	return func(ctx *processor.Context, output processor.OutputFactory) error {
		groups, err := Collect(ctx, opts)
		if err != nil {
			return err
		}
		if groups.Len() == 0 {
			return nil
		}

		if opts.Merged {
			var all []Change
			for _, k := range groups.Keys() {
				all = append(all, groups.Items(k)...)
			}
			if err := writeOutput(output, MergedPackage, configFileSuffix, func(w io.Writer) error {
				return WriteXML(w, all)
			}); err != nil {
				return err
			}
		} else {
			for _, k := range groups.Keys() {
				changes := groups.Items(k)
				if err := writeOutput(output, k.Package, ConfigFileName(k), func(w io.Writer) error {
					return WriteXML(w, changes)
				}); err != nil {
					return err
				}
			}
		}
		ctx.Logger.Verbose("Wrote compat config for %d owner(s)", groups.Len())

		if opts.GoRegistry {
			return writeGoRegistries(output, groups)
		}
		return nil
	}
}

// Collect validates and builds every @ChangeID element in the context and
// groups the resulting changes by owner. In merged mode IDs must be unique
// across the run; otherwise they must be unique within each owner. Invalid
// elements are reported to the context's messager and left out.
func Collect(ctx *processor.Context, opts Options) (*processor.Groups[Change], error) {
	var groups processor.Groups[Change]
	builder := NewBuilder(ctx.Messager)
	seen := map[processor.GroupKey]map[int64]string{}
	for _, e := range ctx.ElementsAnnotatedWith(changeIDType) {
		if !Validate(e, opts, ctx.Messager) {
			continue
		}
		c, ok, err := builder.Build(e)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		key := c.Group()
		uniqueIn := key
		if opts.Merged {
			uniqueIn = processor.GroupKey{Package: MergedPackage}
		}
		ids := seen[uniqueIn]
		if ids == nil {
			ids = map[int64]string{}
			seen[uniqueIn] = ids
		}
		if other, dup := ids[c.ID]; dup {
			ctx.Messager.PrintMessage(processor.KindError, fmt.Sprintf(msgDuplicateChangeID, c.ID, other), e)
			continue
		}
		ids[c.ID] = c.DefinedIn() + "." + c.Name

		groups.Add(key, c)
	}
	return &groups, nil
}

func writeOutput(output processor.OutputFactory, pkg, name string, write func(io.Writer) error) (err error) {
	w, err := output(pkg, name)
	if err != nil {
		return fmt.Errorf("failed to create %s/%s: %w", pkg, name, err)
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s/%s: %w", pkg, name, closeErr)
		}
	}()
	if err := write(w); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", pkg, name, err)
	}
	return nil
}
