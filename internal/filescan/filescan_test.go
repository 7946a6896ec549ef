package filescan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, rel string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("// test\n"), 0644))
}

func TestScanFindsSourcesAndHeaders(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "src/main.cpp")
	touch(t, root, "src/util.cc")
	touch(t, root, "include/widget.hpp")
	touch(t, root, "include/widget.h")
	touch(t, root, "README.md")

	res, err := Scan(Options{Root: root})
	require.NoError(t, err)
	assert.Len(t, res.Sources, 2)
	assert.Len(t, res.Headers, 2)
}

func TestScanSkipsHiddenDirectories(t *testing.T) {
	root := t.TempDir()
	touch(t, root, ".git/objects/pack.cpp")
	touch(t, root, "src/main.cpp")

	res, err := Scan(Options{Root: root})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "src/main.cpp")}, res.Sources)
}

func TestScanHonorsExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "vendor/lib/thirdparty.cpp")
	touch(t, root, "src/main.cpp")

	res, err := Scan(Options{Root: root, ExcludeGlobs: []string{"vendor/**"}})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "src/main.cpp")}, res.Sources)
}

func TestScanResultsAreSorted(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "z.cpp")
	touch(t, root, "a.cpp")

	res, err := Scan(Options{Root: root})
	require.NoError(t, err)
	require.Len(t, res.Sources, 2)
	assert.Contains(t, res.Sources[0], "a.cpp")
	assert.Contains(t, res.Sources[1], "z.cpp")
}

func TestIsHeaderAndIsSource(t *testing.T) {
	assert.True(t, IsHeader("foo.hpp", nil))
	assert.False(t, IsHeader("foo.cpp", nil))
	assert.True(t, IsSource("foo.cxx", nil))
	assert.False(t, IsSource("foo.hxx", nil))
}

func TestScanRejectsInvalidExcludeGlob(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "src/main.cpp")

	_, err := Scan(Options{Root: root, ExcludeGlobs: []string{"["}})
	assert.Error(t, err)
}
