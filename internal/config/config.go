// Package config loads compatgo.yaml project configuration and binds it to
// the processors.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jhump/compatgo/appusage"
	"github.com/jhump/compatgo/changeid"
	"github.com/jhump/compatgo/processor"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned for configuration that cannot be used.
var ErrInvalidConfig = errors.New("invalid configuration")

const ConfigFileName = "compatgo.yaml"

// Environment variables that override file settings.
const (
	EnvOutputDir    = "COMPATGO_OUTPUT_DIR"
	EnvSourceRoot   = "COMPATGO_SOURCE_ROOT"
	EnvIncludeTests = "COMPATGO_INCLUDE_TESTS"
)

// PassThroughConfig names the type whose methods take change IDs as plain
// arguments. Fields left empty keep the changeid defaults.
type PassThroughConfig struct {
	Type    string   `yaml:"type"`
	Methods []string `yaml:"methods"`
}

// ChangeIDConfig configures the changeid processor.
type ChangeIDConfig struct {
	Merged      bool               `yaml:"merged"`
	GoRegistry  bool               `yaml:"go_registry"`
	PassThrough *PassThroughConfig `yaml:"pass_through,omitempty"`
}

// AppUsageConfig configures the appusage processor.
type AppUsageConfig struct {
	MergedIndex bool `yaml:"merged_index"`
}

// ProjectConfig is the contents of a compatgo.yaml file.
// Relative paths are resolved against the project directory.
type ProjectConfig struct {
	SourceRoot   string         `yaml:"source_root"`
	OutputDir    string         `yaml:"output_dir"`
	IncludeTests bool           `yaml:"include_tests"`
	Processors   []string       `yaml:"processors"`
	ChangeID     ChangeIDConfig `yaml:"changeid"`
	AppUsage     AppUsageConfig `yaml:"appusage"`
}

// Default returns the configuration used when there is no config file.
func Default() *ProjectConfig {
	return &ProjectConfig{
		Processors: []string{changeid.ProcessorName, appusage.ProcessorName},
		AppUsage:   AppUsageConfig{MergedIndex: true},
	}
}

// Load reads ConfigFileName from the given directory. Settings absent from
// the file keep their Default values.
func Load(dir string) (*ProjectConfig, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads the config file at the given path.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// LoadEnv loads variables from the given .env files (".env" if none are
// given) into the process environment. Variables already set are kept.
// Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings with the COMPATGO_* variables found by lookup,
// which is usually os.LookupEnv.
func (c *ProjectConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvOutputDir); ok {
		c.OutputDir = v
	}
	if v, ok := lookup(EnvSourceRoot); ok {
		c.SourceRoot = v
	}
	if v, ok := lookup(EnvIncludeTests); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, EnvIncludeTests, v)
		}
		c.IncludeTests = b
	}
	return nil
}

// ChangeIDOptions returns the change ID processor options for this config.
func (c *ProjectConfig) ChangeIDOptions() changeid.Options {
	opts := changeid.DefaultOptions()
	opts.Merged = c.ChangeID.Merged
	opts.GoRegistry = c.ChangeID.GoRegistry
	if pt := c.ChangeID.PassThrough; pt != nil {
		if pt.Type != "" {
			opts.PassThroughType = pt.Type
		}
		if pt.Methods != nil {
			opts.PassThroughMethods = pt.Methods
		}
	}
	return opts
}

// AppUsageOptions returns the usage index processor options for this config.
func (c *ProjectConfig) AppUsageOptions() appusage.Options {
	opts := appusage.DefaultOptions()
	opts.MergedIndex = c.AppUsage.MergedIndex
	return opts
}

// BuildProcessors returns the configured processors, in order. The built-in
// processors get options from this config; any other name must have been
// registered with processor.RegisterProcessor.
func (c *ProjectConfig) BuildProcessors() ([]processor.Processor, error) {
	if len(c.Processors) == 0 {
		return nil, fmt.Errorf("%w: no processors configured", ErrInvalidConfig)
	}
	procs := make([]processor.Processor, 0, len(c.Processors))
	for _, name := range c.Processors {
		switch name {
		case changeid.ProcessorName:
			procs = append(procs, changeid.New(c.ChangeIDOptions()))
		case appusage.ProcessorName:
			procs = append(procs, appusage.New(c.AppUsageOptions()))
		default:
			reg, ok := processor.LookupProcessor(name)
			if !ok {
				return nil, fmt.Errorf("%w: unknown processor %q", ErrInvalidConfig, name)
			}
			procs = append(procs, reg.Processor)
		}
	}
	return procs, nil
}
