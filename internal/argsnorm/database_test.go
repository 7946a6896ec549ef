package argsnorm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempDB(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "compile_commands.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDatabaseParsesEntries(t *testing.T) {
	path := writeTempDB(t, `[
		{"directory": "/repo/build", "file": "/repo/src/a.cpp", "command": "clang++ -c a.cpp"},
		{"directory": "/repo/build", "file": "b.cpp", "arguments": ["clang++", "-c", "b.cpp"]}
	]`)

	db, err := LoadDatabase(path)
	require.NoError(t, err)
	assert.Equal(t, 2, db.Len())

	e, ok := db.Lookup("/repo/src/a.cpp")
	require.True(t, ok)
	assert.Equal(t, "/repo/build", e.Directory)

	e2, ok := db.Lookup(filepath.Clean("/repo/build/b.cpp"))
	require.True(t, ok)
	assert.Equal(t, []string{"clang++", "-c", "b.cpp"}, e2.Arguments)
}

func TestLoadDatabaseSkipsMalformedEntries(t *testing.T) {
	path := writeTempDB(t, `[
		{"directory": "/repo/build", "file": "/repo/src/a.cpp"},
		{"file": "/repo/src/missing-dir.cpp"},
		{"directory": "/repo/build"}
	]`)

	db, err := LoadDatabase(path)
	require.NoError(t, err)
	assert.Equal(t, 1, db.Len())
	_, ok := db.Lookup("/repo/src/missing-dir.cpp")
	assert.False(t, ok)
}

func TestLoadDatabaseRejectsMalformedTopLevel(t *testing.T) {
	path := writeTempDB(t, `not json`)
	_, err := LoadDatabase(path)
	assert.Error(t, err)
}

func TestLoadDatabaseMissingFile(t *testing.T) {
	_, err := LoadDatabase(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestDatabaseToMapPrefersArguments(t *testing.T) {
	path := writeTempDB(t, `[
		{"directory": "/repo", "file": "/repo/a.cpp", "command": "clang++ -c a.cpp", "arguments": ["clang++", "-DX", "-c", "a.cpp"]}
	]`)
	db, err := LoadDatabase(path)
	require.NoError(t, err)
	m := db.ToMap()
	assert.Equal(t, []string{"clang++", "-DX", "-c", "a.cpp"}, m["/repo/a.cpp"])
}

func TestDatabaseFilesLists(t *testing.T) {
	path := writeTempDB(t, `[
		{"directory": "/repo", "file": "/repo/a.cpp"},
		{"directory": "/repo", "file": "/repo/b.cpp"}
	]`)
	db, err := LoadDatabase(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/repo/a.cpp", "/repo/b.cpp"}, db.Files())
}

func TestNilDatabaseIsSafe(t *testing.T) {
	var db *Database
	assert.Equal(t, 0, db.Len())
	assert.Nil(t, db.Files())
	assert.Nil(t, db.ToMap())
	_, ok := db.Lookup("whatever")
	assert.False(t, ok)
}
