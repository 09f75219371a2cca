package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jhump/compatgo/internal/config"
	"github.com/jhump/compatgo/processor"
)

type processFlags struct {
	dir            string
	configPath     string
	outputDir      string
	sourceRoot     string
	includeTests   bool
	processors     []string
	merged         bool
	goRegistry     bool
	dryRun         bool
	listProcessors bool
}

func newProcessCmd() *cobra.Command {
	var flags processFlags
	cmd := &cobra.Command{
		Use:   "process [packages...]",
		Short: "Validate annotations and write compat config outputs",
		Long: `Loads the given package patterns (default "./...") and runs the configured
processors over every annotated declaration. Settings come from compatgo.yaml,
then COMPATGO_* environment variables (including those in .env), then flags.`,
		Args: usageArgs(cobra.ArbitraryArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, &flags, args)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&flags.dir, "dir", "C", "", "Directory in which to resolve packages and find compatgo.yaml")
	f.StringVar(&flags.configPath, "config", "", "Path to the config file (default <dir>/compatgo.yaml, if present)")
	f.StringVarP(&flags.outputDir, "output-dir", "o", "", "Root directory for outputs")
	f.StringVar(&flags.sourceRoot, "source-root", "", "Directory that reported file names are relative to (default <dir>)")
	f.BoolVar(&flags.includeTests, "include-tests", false, "Also process _test.go files")
	f.StringArrayVarP(&flags.processors, "processor", "p", nil, "Processor to run (repeatable)")
	f.BoolVar(&flags.merged, "merged", false, "Write a single compat/compat_config.xml")
	f.BoolVar(&flags.goRegistry, "go-registry", false, "Also write <pkg>.compat.go registration files")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Print outputs to stdout instead of writing files")
	f.BoolVar(&flags.listProcessors, "list-processors", false, "List the registered processors and exit")
	return cmd
}

func runProcess(cmd *cobra.Command, flags *processFlags, args []string) error {
	logger := newLogger(cmd)
	if flags.listProcessors {
		for _, reg := range processor.AllRegistrations() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%v\n", reg.Name, reg.SupportedAnnotations)
		}
		return nil
	}

	dir, err := filepath.Abs(flags.dir)
	if err != nil {
		return err
	}
	cfg, err := loadProjectConfig(dir, flags.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, flags, cfg)

	procs, err := cfg.BuildProcessors()
	if err != nil {
		return err
	}

	sourceRoot := cfg.SourceRoot
	if sourceRoot == "" {
		sourceRoot = dir
	} else if !filepath.IsAbs(sourceRoot) {
		sourceRoot = filepath.Join(dir, sourceRoot)
	}
	var mem processor.MemoryOutput
	output := mem.Factory()
	if !flags.dryRun {
		outDir := cfg.OutputDir
		if outDir != "" && !filepath.IsAbs(outDir) {
			outDir = filepath.Join(dir, outDir)
		}
		output = processor.DefaultOutputFactory(outDir)
	}
	patterns := args
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	var diags processor.Diagnostics
	pc := processor.Config{
		Patterns:      patterns,
		Dir:           dir,
		SourceRoot:    sourceRoot,
		IncludeTests:  cfg.IncludeTests,
		Processors:    procs,
		OutputFactory: output,
		Messager:      &diags,
		Logger:        logger,
	}
	err = pc.Execute()
	for _, d := range diags.All() {
		fmt.Fprintln(cmd.ErrOrStderr(), d.String())
	}
	if flags.dryRun {
		for _, p := range mem.Paths() {
			contents, _ := mem.Contents(p)
			fmt.Fprintf(cmd.OutOrStdout(), "==> %s <==\n%s\n", p, contents)
		}
	}
	return err
}

// loadProjectConfig loads .env and the project configuration. A missing
// default config file is not an error; a missing explicit one is.
func loadProjectConfig(dir, path string) (*config.ProjectConfig, error) {
	if err := config.LoadEnv(filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}
	var cfg *config.ProjectConfig
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("%w: %s", err, path)
		}
	} else {
		cfg, err = config.Load(dir)
		if errors.Is(err, config.ErrConfigNotFound) {
			cfg, err = config.Default(), nil
		}
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, flags *processFlags, cfg *config.ProjectConfig) {
	f := cmd.Flags()
	if f.Changed("output-dir") {
		cfg.OutputDir = flags.outputDir
	}
	if f.Changed("source-root") {
		cfg.SourceRoot = flags.sourceRoot
	}
	if f.Changed("include-tests") {
		cfg.IncludeTests = flags.includeTests
	}
	if f.Changed("processor") {
		cfg.Processors = flags.processors
	}
	if f.Changed("merged") {
		cfg.ChangeID.Merged = flags.merged
	}
	if f.Changed("go-registry") {
		cfg.ChangeID.GoRegistry = flags.goRegistry
	}
}
