package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every search path at an empty temporary directory.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Chdir(tmpDir)
	return tmpDir
}

func newTestLoader() *Loader {
	return NewLoaderWithViper(viper.New())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	require.NotNil(t, loader)
	assert.Same(t, viper.GetViper(), loader.GetViper())
}

func TestLoadWithNoConfigFile(t *testing.T) {
	isolate(t)

	cfg, err := newTestLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoadFromSearchPath(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "quadcut.yaml"), "log_level: debug\noutput:\n  precision: 3\n")

	loader := newTestLoader()
	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3, cfg.Output.Precision)
	assert.Equal(t, "text", cfg.Output.Format, "unset keys keep their defaults")
	assert.Contains(t, loader.GetConfigFileUsed(), "quadcut.yaml")
}

func TestLoadWithValidYAMLFile(t *testing.T) {
	dir := isolate(t)
	configFile := filepath.Join(dir, "custom.yaml")
	writeFile(t, configFile, `
log_level: warn
verbose: true
solver:
  policy: propagate
  tolerance: 0.000001
output:
  format: json
  precision: 9
  file: out.json
batch:
  workers: 8
  continue_on_error: true
metrics:
  file: /tmp/quadcut.prom
`)

	cfg, err := newTestLoader().LoadWithFile(configFile)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "propagate", cfg.Solver.Policy)
	assert.InDelta(t, 1e-6, cfg.Solver.Tolerance, 1e-18)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 9, cfg.Output.Precision)
	assert.Equal(t, "out.json", cfg.Output.File)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.True(t, cfg.Batch.ContinueOnError)
	assert.Equal(t, "/tmp/quadcut.prom", cfg.Metrics.File)
}

func TestLoadWithJSONFile(t *testing.T) {
	dir := isolate(t)
	configFile := filepath.Join(dir, "quadcut.json")
	writeFile(t, configFile, `{"output": {"format": "csv"}}`)

	cfg, err := newTestLoader().LoadWithFile(configFile)
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.Output.Format)
}

func TestLoadWithMissingFile(t *testing.T) {
	dir := isolate(t)

	_, err := newTestLoader().LoadWithFile(filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadWithMalformedFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "quadcut.yaml"), "output: [unclosed\n")

	_, err := newTestLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadWithInvalidValues(t *testing.T) {
	dir := isolate(t)
	configFile := filepath.Join(dir, "bad.yaml")
	writeFile(t, configFile, "solver:\n  policy: sloppy\n")

	_, err := newTestLoader().LoadWithFile(configFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestEnvironmentOverrides(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "quadcut.yaml"), "solver:\n  policy: strict\n")
	t.Setenv("QUADCUT_SOLVER_POLICY", "propagate")
	t.Setenv("QUADCUT_BATCH_WORKERS", "5")
	t.Setenv("QUADCUT_LOG_LEVEL", "error")

	cfg, err := newTestLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "propagate", cfg.Solver.Policy, "env beats config file")
	assert.Equal(t, 5, cfg.Batch.Workers)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "generated.yaml")

	require.NoError(t, GenerateDefaultConfigFile(path))
	require.FileExists(t, path)

	cfg, err := newTestLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestGetConfigSearchPaths(t *testing.T) {
	dir := isolate(t)

	paths := GetConfigSearchPaths()
	assert.Equal(t, ".", paths[0])
	assert.Contains(t, paths, dir)
	assert.Contains(t, paths, filepath.Join(dir, "xdg", "quadcut"))
	assert.Equal(t, "/etc/quadcut", paths[len(paths)-1])
}

func TestGetResolvedConfig(t *testing.T) {
	isolate(t)
	loader := newTestLoader()
	_, err := loader.Load()
	require.NoError(t, err)

	settings := loader.GetResolvedConfig()
	assert.Contains(t, settings, "solver")
	assert.Contains(t, settings, "output")
}
