package processor

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Logger receives progress messages from a run. Implementations must be safe
// for concurrent use.
type Logger interface {
	// Verbose logs detailed diagnostic information.
	Verbose(format string, args ...interface{})
	// Info logs informational messages about normal operations.
	Info(format string, args ...interface{})
	// Error logs error messages.
	Error(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Verbose(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})    {}
func (nopLogger) Error(string, ...interface{})   {}

// OutputFactory is a function that creates a writer to an output named name
// in the namespace pkg (a Go import path, or another slash-separated path).
// Output factories typically use os.OpenFile to create files but this
// function allows the behavior to be customized.
type OutputFactory func(pkg, name string) (io.WriteCloser, error)

// Processor is a function that acts on annotations and is invoked from the
// annotation processor tool. It is called once per run with every annotated
// element of every loaded package. Problems with the input are reported to
// ctx.Messager; a returned error aborts the run.
type Processor func(ctx *Context, output OutputFactory) error

// ProcessAll invokes all registered Processor instances to process the given
// packages, writing outputs under outputDir.
func ProcessAll(patterns []string, includeTests bool, outputDir string) error {
	return Process(patterns, includeTests, outputDir, AllRegisteredProcessors()...)
}

// Process invokes the given processors to process the given packages,
// writing outputs under outputDir.
func Process(patterns []string, includeTests bool, outputDir string, procs ...Processor) error {
	cfg := Config{
		Patterns:      patterns,
		IncludeTests:  includeTests,
		Processors:    procs,
		OutputFactory: DefaultOutputFactory(outputDir),
	}
	return cfg.Execute()
}

// DefaultOutputFactory returns the default OutputFactory used by Process and
// ProcessAll. Outputs are written to <rootDir>/<pkg>/<name>, creating
// directories as needed. If rootDir is blank, the current directory is used.
//
// After computing the destination path, os.OpenFile is used to open the file
// for writing (creating the file if necessary, truncating it if it already
// exists).
func DefaultOutputFactory(rootDir string) OutputFactory {
	return func(pkg, name string) (io.WriteCloser, error) {
		dest, err := determineOutputDir(rootDir, pkg)
		if err != nil {
			return nil, err
		}
		dest = filepath.Join(dest, name)
		return os.OpenFile(dest, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0666)
	}
}

func determineOutputDir(root, pkg string) (string, error) {
	out := filepath.Join(root, filepath.FromSlash(pkg))
	if err := os.MkdirAll(out, os.ModePerm); err != nil {
		return "", fmt.Errorf("could not create output directory %s: %w", out, err)
	}
	return out, nil
}

// MemoryOutput collects outputs in memory. It is useful for dry runs and
// tests.
type MemoryOutput struct {
	mu    sync.Mutex
	files map[string]*bytes.Buffer
}

// Factory returns an OutputFactory that writes into m. Creating an output
// that already exists replaces its contents.
func (m *MemoryOutput) Factory() OutputFactory {
	return func(pkg, name string) (io.WriteCloser, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.files == nil {
			m.files = map[string]*bytes.Buffer{}
		}
		buf := &bytes.Buffer{}
		m.files[path(pkg, name)] = buf
		return nopCloser{buf}, nil
	}
}

// Paths returns the "pkg/name" path of every output, sorted.
func (m *MemoryOutput) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Contents returns the contents of the output at the given "pkg/name" path.
func (m *MemoryOutput) Contents(path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf, ok := m.files[path]
	if !ok {
		return "", false
	}
	return buf.String(), true
}

func path(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "/" + name
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}

// Config represents the configuration for running one or more Processors.
// Callers should configure all of the exported fields and then call the
// Execute method to actually invoke the processors.
type Config struct {
	// Patterns are the package patterns to process.
	Patterns []string
	// Dir is the directory in which patterns are resolved.
	Dir string
	// SourceRoot is stripped from file names reported in outputs.
	SourceRoot   string
	IncludeTests bool

	Processors    []Processor
	OutputFactory OutputFactory

	// Messager receives diagnostics. If nil, diagnostics are collected
	// internally and returned in the error from Execute.
	Messager Messager
	// Logger receives progress messages. If nil, nothing is logged.
	Logger Logger
}

// Execute loads the configured packages and invokes the configured processors,
// in order, writing outputs using the configured OutputFactory. If any error
// diagnostic was reported, the returned error wraps ErrValidationFailed.
func (cfg *Config) Execute() error {
	logger := cfg.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	var collected *Diagnostics
	msgr := cfg.Messager
	if msgr == nil {
		collected = &Diagnostics{}
		msgr = collected
	}
	counter := &errorCounter{Messager: msgr}
	output := cfg.OutputFactory
	if output == nil {
		output = DefaultOutputFactory("")
	}

	logger.Verbose("Loading packages %v", cfg.Patterns)
	elements, err := Load(LoadConfig{
		Dir:        cfg.Dir,
		Patterns:   cfg.Patterns,
		Tests:      cfg.IncludeTests,
		SourceRoot: cfg.SourceRoot,
	}, counter)
	if err != nil {
		return err
	}
	logger.Verbose("Found %d annotated element(s)", len(elements))

	if err := Run(elements, counter, logger, output, cfg.Processors...); err != nil {
		return err
	}

	if counter.errors > 0 {
		if collected != nil {
			return collected.Err()
		}
		return fmt.Errorf("%w: %d error(s)", ErrValidationFailed, counter.errors)
	}
	return nil
}

// Run invokes the given processors over an already computed set of elements.
func Run(elements []*Element, msgr Messager, logger Logger, output OutputFactory, procs ...Processor) error {
	if logger == nil {
		logger = nopLogger{}
	}
	ctx := NewContext(elements, msgr, logger)
	output = loggingOutput(output, logger)
	for _, proc := range procs {
		if err := proc(ctx, output); err != nil {
			return err
		}
	}
	return nil
}

func loggingOutput(output OutputFactory, logger Logger) OutputFactory {
	return func(pkg, name string) (io.WriteCloser, error) {
		w, err := output(pkg, name)
		if err != nil {
			return nil, err
		}
		logger.Verbose("Writing %s", path(pkg, name))
		return w, nil
	}
}

// Context represents the environment for an annotation processor. It provides
// access to all annotated elements found in the processed packages.
type Context struct {
	// Messager is where processors report problems with their input.
	Messager Messager
	// Logger is where processors report progress.
	Logger Logger

	allElements  []*Element
	byAnnotation map[string][]*Element
}

// NewContext creates a context over the given elements.
func NewContext(elements []*Element, msgr Messager, logger Logger) *Context {
	if logger == nil {
		logger = nopLogger{}
	}
	ctx := &Context{
		Messager:     msgr,
		Logger:       logger,
		allElements:  elements,
		byAnnotation: map[string][]*Element{},
	}
	for _, e := range elements {
		seen := map[string]bool{}
		for _, m := range e.Annotations {
			if !seen[m.Type] {
				seen[m.Type] = true
				ctx.byAnnotation[m.Type] = append(ctx.byAnnotation[m.Type], e)
			}
		}
	}
	return ctx
}

// NumElements returns the number of annotated elements.
func (c *Context) NumElements() int {
	return len(c.allElements)
}

// GetElement returns the annotation element at the given index. The given index
// must be greater than or equal to zero and less than c.NumElements().
func (c *Context) GetElement(index int) *Element {
	return c.allElements[index]
}

// ElementsAnnotatedWith returns the elements that have an annotation of the
// given fully qualified type, in source order.
func (c *Context) ElementsAnnotatedWith(annoType string) []*Element {
	return c.byAnnotation[annoType]
}
