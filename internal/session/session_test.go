package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	m := &Manager{CacheDir: filepath.Join(dir, "cache")}

	projectDir := filepath.Join(dir, "project")
	require.NoError(t, os.MkdirAll(projectDir, 0755))

	m.Save(projectDir, "cppindex.json")

	state, ok := m.Load()
	require.True(t, ok)
	assert.Equal(t, projectDir, state.ProjectPath)
	assert.Equal(t, "cppindex.json", state.ConfigFile)
	assert.Equal(t, CurrentVersion, state.Version)
	assert.False(t, state.LastAccessed.IsZero())
}

func TestLoadReturnsFalseWhenNoSessionSaved(t *testing.T) {
	m := &Manager{CacheDir: t.TempDir()}
	_, ok := m.Load()
	assert.False(t, ok)
}

func TestLoadDiscardsSessionWhoseProjectDirIsGone(t *testing.T) {
	dir := t.TempDir()
	m := &Manager{CacheDir: dir}

	gone := filepath.Join(dir, "no-longer-here")
	require.NoError(t, os.MkdirAll(gone, 0755))
	m.Save(gone, "")
	require.NoError(t, os.RemoveAll(gone))

	_, ok := m.Load()
	assert.False(t, ok)
}

func TestLoadRejectsMalformedSessionFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session.json"), []byte("not json"), 0644))

	m := &Manager{CacheDir: dir}
	_, ok := m.Load()
	assert.False(t, ok)
}

func TestClearRemovesSessionFile(t *testing.T) {
	dir := t.TempDir()
	m := &Manager{CacheDir: dir}

	projectDir := filepath.Join(dir, "project")
	require.NoError(t, os.MkdirAll(projectDir, 0755))
	m.Save(projectDir, "")
	require.True(t, m.HasSession())

	require.NoError(t, m.Clear())
	assert.False(t, m.HasSession())

	// Clearing an already-absent session file is not an error.
	require.NoError(t, m.Clear())
}
