package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, ":memory:", cfg.Database)
	assert.True(t, cfg.Parallel)
	assert.Equal(t, FormatText, cfg.Format)
	assert.True(t, cfg.IsExcluded("build"))
	assert.False(t, cfg.IsExcluded("src"))
	require.NoError(t, cfg.Validate())
}

func TestLoad_ExplicitYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.yaml", `
log_level: debug
database: /tmp/project.db
stdlib_index: stdlib.json.zst
classpath_index:
  - deps/a.json
  - deps/b.yaml
rules_dir: rules
parallel: false
exclude: [generated]
format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/project.db", cfg.Database)
	assert.Equal(t, "stdlib.json.zst", cfg.StdlibIndex)
	assert.Equal(t, []string{"deps/a.json", "deps/b.yaml"}, cfg.ClasspathIndex)
	assert.Equal(t, "rules", cfg.RulesDir)
	assert.False(t, cfg.Parallel)
	assert.Equal(t, []string{"generated"}, cfg.Exclude)
	assert.Equal(t, FormatJSON, cfg.Format)
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ksema.toml", `
log_level = "info"
rules_dir = "checks"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "checks", cfg.RulesDir)
	assert.Equal(t, ":memory:", cfg.Database, "unset keys keep defaults")
}

func TestLoad_SearchesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".ksema.yaml", "rules_dir: hidden-rules\n")
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "hidden-rules", cfg.RulesDir)
	assert.NotEmpty(t, cfg.File)

	writeFile(t, dir, "ksema.yaml", "rules_dir: visible-rules\n")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "visible-rules", cfg.RulesDir, "ksema.yaml wins over .ksema.yaml")
}

func TestLoad_NoFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.File)
	assert.Equal(t, Default().LogLevel, cfg.LogLevel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ksema.yaml", "log_level: info\nformat: text\n")
	t.Setenv("KSEMA_LOG_LEVEL", "error")
	t.Setenv("KSEMA_FORMAT", "json")
	t.Setenv("KSEMA_PARALLEL", "false")
	t.Setenv("KSEMA_EXCLUDE", "gen, tmp")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.False(t, cfg.Parallel)
	assert.Equal(t, []string{"gen", "tmp"}, cfg.Exclude)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read")

	bad := writeFile(t, dir, "bad.yaml", "log_level: loud\n")
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log_level")

	badFormat := writeFile(t, dir, "format.yaml", "format: xml\n")
	_, err = Load(badFormat)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b", "c"}, splitList([]string{"a, b", "", "c"}))
	assert.Nil(t, splitList(nil))
}
