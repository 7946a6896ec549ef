package argsnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeHonorsQuotes(t *testing.T) {
	args := Tokenize(`clang++ -I"/path with spaces/inc" -DFOO='bar baz' main.cpp`)
	assert.Equal(t, []string{
		"clang++", "-I/path with spaces/inc", "-DFOO=bar baz", "main.cpp",
	}, args)
}

func TestStripInvocationAndIO(t *testing.T) {
	args := []string{"clang++", "-std=c++17", "-c", "main.cpp", "-o", "main.o"}
	out := stripInvocationAndIO(args, "/repo/main.cpp")
	assert.Equal(t, []string{"-std=c++17"}, out)
}

func TestAbsolutizeIncludes(t *testing.T) {
	args := []string{"-Iinclude", "-I", "other", "-isystem", "sys", "-DFOO"}
	out := absolutizeIncludes(args, "/repo")
	assert.Equal(t, []string{
		"-I/repo/include", "-I", "/repo/other", "-isystem", "/repo/sys", "-DFOO",
	}, out)
}

func TestInjectBuiltinHeadersAfterStdFlag(t *testing.T) {
	out := injectBuiltinHeaders([]string{"-std=c++17", "-DFOO"}, "/usr/lib/clang/14/include")
	assert.Equal(t, []string{"-std=c++17", "-isystem", "/usr/lib/clang/14/include", "-DFOO"}, out)
}

func TestInjectBuiltinHeadersSkippedWhenEmpty(t *testing.T) {
	out := injectBuiltinHeaders([]string{"-std=c++17"}, "")
	assert.Equal(t, []string{"-std=c++17"}, out)
}

func TestNormalizeEndToEnd(t *testing.T) {
	rs, err := LoadDefaultRules()
	require.NoError(t, err)

	entry := Entry{
		Directory: "/repo/build",
		File:      "/repo/src/main.cpp",
		Command:   `clang++ -std=c++17 -O2 -g -Iinclude -DFOO -c /repo/src/main.cpp -o main.o`,
	}

	out := Normalize(entry, rs, Options{ResourceDir: "/usr/lib/clang/14/include"})

	assert.Contains(t, out, "-std=c++17")
	assert.Contains(t, out, "-I/repo/build/include")
	assert.Contains(t, out, "-DFOO")
	assert.NotContains(t, out, "-O2")
	assert.NotContains(t, out, "-g")
	assert.NotContains(t, out, "-c")
	assert.NotContains(t, out, "/repo/src/main.cpp")
	assert.Contains(t, out, "-isystem")
}

func TestRuleSetSanitizeRemovesOptimizationFlags(t *testing.T) {
	rs, err := LoadDefaultRules()
	require.NoError(t, err)
	out := rs.Sanitize([]string{"-O3", "-std=c++20", "-Wall"})
	assert.Equal(t, []string{"-std=c++20", "-Wall"}, out)
}

func TestXclangSequenceRemovesMatchingFlags(t *testing.T) {
	rs := &RuleSet{Rules: []Rule{{
		Type:     XclangSequence,
		Sequence: []string{"-Xclang", "-fbuild-session-timestamp", "-Xclang", "<arg>"},
	}}}
	out := rs.Sanitize([]string{"-Xclang", "-fbuild-session-timestamp", "-Xclang", "12345", "-Wall"})
	assert.Equal(t, []string{"-Wall"}, out)
}

func TestXclangConditionalSequence(t *testing.T) {
	rs := &RuleSet{Rules: []Rule{{
		Type:      XclangConditionalSequence,
		Sequence:  []string{"-Xclang", "<arg>"},
		Condition: &Condition{ArgIndex: 0, Contains: []string{"pch"}},
	}}}
	out := rs.Sanitize([]string{"-Xclang", "-fpch-validate", "-Wall"})
	assert.Equal(t, []string{"-Wall"}, out)

	out2 := rs.Sanitize([]string{"-Xclang", "-funrelated", "-Wall"})
	assert.Equal(t, []string{"-Xclang", "-funrelated", "-Wall"}, out2)
}

func TestFallbackArgsContainsEssentials(t *testing.T) {
	out := FallbackArgs("/repo", Options{})
	assert.Contains(t, out, "-std=c++17")
	assert.Contains(t, out, "-I/repo")
	assert.Contains(t, out, "-DNOMINMAX")
}

func TestPreservesEssentialFlags(t *testing.T) {
	rs, err := LoadDefaultRules()
	require.NoError(t, err)
	in := []string{"-std=c++20", "-DFOO=1", "-Iinc", "-isystem", "sysinc", "-Wall", "-include", "prefix.h", "-O2"}
	out := rs.Sanitize(in)
	for _, essential := range []string{"-std=c++20", "-DFOO=1", "-Iinc", "-isystem", "sysinc", "-Wall", "-include", "prefix.h"} {
		assert.Contains(t, out, essential)
	}
	assert.NotContains(t, out, "-O2")
}
