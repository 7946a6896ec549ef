package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppindex/cppindex/internal/diagnostics"
)

func TestLoadResolvesRelativePathsAgainstDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{
		"compileCommands": "build/compile_commands.json",
		"sanitizationRules": "rules.json",
		"allowFallbackArgs": true,
		"cacheDir": "cache",
		"diagnosticLevel": "debug"
	}`), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, "build/compile_commands.json"), cfg.CompileCommands)
	assert.Equal(t, filepath.Join(dir, "rules.json"), cfg.SanitizationRules)
	assert.True(t, cfg.AllowFallbackArgs)
	assert.Equal(t, filepath.Join(dir, "cache"), cfg.CacheDir)
	assert.Equal(t, diagnostics.Debug, cfg.DiagnosticLevel)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{"unknownField": true}`), 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestDefaultFillsInEveryPathRelativeToDir(t *testing.T) {
	dir := "/projects/widget"
	cfg := Default(dir)

	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, defaultCompileCommands), cfg.CompileCommands)
	assert.Equal(t, filepath.Join(dir, defaultCacheDir), cfg.CacheDir)
	assert.Equal(t, diagnostics.Info, cfg.DiagnosticLevel)
	assert.Empty(t, cfg.SanitizationRules)
}

func TestLoadHonorsAbsoluteProjectRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{"projectRoot": "/abs/root"}`), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/abs/root", cfg.ProjectRoot)
	assert.Equal(t, filepath.Join("/abs/root", defaultCompileCommands), cfg.CompileCommands)
}
