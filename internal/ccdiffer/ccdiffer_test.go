package ccdiffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeDiffClassifiesAddedRemovedChanged(t *testing.T) {
	old := map[string][]string{
		"a.cpp": {"-std=c++17", "-O2"},
		"b.cpp": {"-std=c++17"},
		"c.cpp": {"-std=c++17"},
	}
	newCommands := map[string][]string{
		"a.cpp": {"-std=c++20", "-O3"},
		"b.cpp": {"-std=c++17"},
		"d.cpp": {"-std=c++17"},
	}

	d := ComputeDiff(old, newCommands)
	assert.ElementsMatch(t, []string{"d.cpp"}, d.Added)
	assert.ElementsMatch(t, []string{"c.cpp"}, d.Removed)
	assert.ElementsMatch(t, []string{"a.cpp"}, d.Changed)
}

func TestComputeDiffIsOrderSensitive(t *testing.T) {
	old := map[string][]string{"a.cpp": {"-DFOO", "-std=c++17"}}
	newCommands := map[string][]string{"a.cpp": {"-std=c++17", "-DFOO"}}

	d := ComputeDiff(old, newCommands)
	assert.Equal(t, []string{"a.cpp"}, d.Changed)
}

func TestComputeDiffEmptyMapsYieldEmptyDiff(t *testing.T) {
	d := ComputeDiff(nil, nil)
	assert.Empty(t, d.Added)
	assert.Empty(t, d.Removed)
	assert.Empty(t, d.Changed)
}

func TestHashIs16HexAndStable(t *testing.T) {
	h1 := Hash([]string{"-std=c++17", "-O2"})
	h2 := Hash([]string{"-std=c++17", "-O2"})
	assert.Len(t, h1, 16)
	assert.Equal(t, h1, h2)
}
