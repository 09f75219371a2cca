package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhump/compatgo/changeid"
)

func TestLoad_AllFields(t *testing.T) {
	dir := t.TempDir()
	content := `source_root: src
output_dir: build/compat
include_tests: true
processors: [changeid]
changeid:
  merged: true
  go_registry: true
  pass_through:
    type: example.com/gate.Gate
    methods: [Check]
appusage:
  merged_index: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "src", cfg.SourceRoot)
	assert.Equal(t, "build/compat", cfg.OutputDir)
	assert.True(t, cfg.IncludeTests)
	assert.Equal(t, []string{"changeid"}, cfg.Processors)
	assert.False(t, cfg.AppUsage.MergedIndex)

	opts := cfg.ChangeIDOptions()
	assert.True(t, opts.Merged)
	assert.True(t, opts.GoRegistry)
	assert.Equal(t, "example.com/gate.Gate", opts.PassThroughType)
	assert.Equal(t, []string{"Check"}, opts.PassThroughMethods)
	assert.False(t, cfg.AppUsageOptions().MergedIndex)
}

func TestLoad_MinimalYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("output_dir: out\n"), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, []string{"changeid", "appusage"}, cfg.Processors)
	assert.True(t, cfg.AppUsage.MergedIndex)
	assert.Equal(t, changeid.DefaultOptions(), cfg.ChangeIDOptions())
}

func TestLoad_PartialPassThrough(t *testing.T) {
	defaults := changeid.DefaultOptions()
	cases := []struct {
		name        string
		passThrough string
		wantType    string
		wantMethods []string
	}{
		{"methods only", "    methods: [Check]\n", defaults.PassThroughType, []string{"Check"}},
		{"type only", "    type: example.com/gate.Gate\n", "example.com/gate.Gate", defaults.PassThroughMethods},
		{"no methods", "    methods: []\n", defaults.PassThroughType, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			content := "changeid:\n  pass_through:\n" + tc.passThrough
			require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))

			cfg, err := Load(dir)
			require.NoError(t, err)
			opts := cfg.ChangeIDOptions()
			assert.Equal(t, tc.wantType, opts.PassThroughType)
			assert.Equal(t, tc.wantMethods, opts.PassThroughMethods)
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load(t.TempDir())
	assert.True(t, errors.Is(err, ErrConfigNotFound), "expected ErrConfigNotFound, got: %v", err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{{invalid"), 0644))

	cfg, err := Load(dir)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Nil(t, cfg)
}

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.OutputDir = "from-file"
	require.NoError(t, cfg.ApplyEnv(lookupFrom(map[string]string{
		EnvOutputDir:    "from-env",
		EnvIncludeTests: "true",
	})))
	assert.Equal(t, "from-env", cfg.OutputDir)
	assert.Equal(t, "", cfg.SourceRoot)
	assert.True(t, cfg.IncludeTests)

	err := cfg.ApplyEnv(lookupFrom(map[string]string{EnvIncludeTests: "sometimes"}))
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("COMPATGO_SOURCE_ROOT=/src/root\n"), 0644))
	t.Setenv(EnvSourceRoot, "")
	os.Unsetenv(EnvSourceRoot)

	require.NoError(t, LoadEnv(envFile, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "/src/root", os.Getenv(EnvSourceRoot))

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(os.LookupEnv))
	assert.Equal(t, "/src/root", cfg.SourceRoot)
}

func TestBuildProcessors(t *testing.T) {
	cfg := Default()
	procs, err := cfg.BuildProcessors()
	require.NoError(t, err)
	assert.Len(t, procs, 2)

	cfg.Processors = []string{"changeid", "nope"}
	_, err = cfg.BuildProcessors()
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), `"nope"`)

	cfg.Processors = nil
	_, err = cfg.BuildProcessors()
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}
