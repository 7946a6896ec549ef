package contenthash

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHashIsStableAndContentSensitive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.cpp")
	require.NoError(t, os.WriteFile(path, []byte("int main() {}"), 0o644))

	h1, err := File(path)
	require.NoError(t, err)

	h2, err := File(path)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	require.NoError(t, os.WriteFile(path, []byte("int main() { return 1; }"), 0o644))
	h3, err := File(path)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestFileHashMissingFile(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "missing.cpp"))
	assert.Error(t, err)
}

func TestArgsHashIsOrderSensitiveAnd16Hex(t *testing.T) {
	a := Args([]string{"-std=c++17", "-DFOO"})
	b := Args([]string{"-DFOO", "-std=c++17"})
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)

	c := Args([]string{"-std=c++17", "-DFOO"})
	assert.Equal(t, a, c)
}
