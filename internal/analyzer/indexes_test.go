package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppindex/cppindex/internal/symbol"
)

func TestReplaceFileAddsToNameIndexes(t *testing.T) {
	idx := NewIndexes()
	idx.ReplaceFile("/repo/widget.h", []symbol.Symbol{
		{USR: "c:@S@Widget", Name: "Widget", QualifiedName: "app::Widget", Kind: symbol.KindClass, File: "/repo/widget.h"},
		{USR: "c:@S@Widget@F@doWork#", Name: "doWork", QualifiedName: "app::Widget::doWork", Kind: symbol.KindMethod, File: "/repo/widget.h"},
	})

	classes := idx.ClassesByName("app::Widget")
	require.Len(t, classes, 1)
	assert.Equal(t, "c:@S@Widget", classes[0].USR)

	funcs := idx.FunctionsByName("app::Widget::doWork")
	require.Len(t, funcs, 1)

	assert.Equal(t, 2, idx.SymbolCount())
}

func TestReplaceFilePrefersRicherDefinition(t *testing.T) {
	idx := NewIndexes()
	decl := symbol.Symbol{USR: "c:@F@doWork#", Name: "doWork", QualifiedName: "Widget::doWork", Kind: symbol.KindMethod, File: "/repo/widget.h"}
	idx.ReplaceFile("/repo/widget.h", []symbol.Symbol{decl})

	def := symbol.Symbol{
		USR: "c:@F@doWork#", Name: "doWork", QualifiedName: "Widget::doWork", Kind: symbol.KindMethod,
		File: "/repo/widget.cpp", StartLine: 10, EndLine: 15,
	}
	idx.ReplaceFile("/repo/widget.cpp", []symbol.Symbol{def})

	s, ok := idx.BySymbolKey("c:@F@doWork#")
	require.True(t, ok)
	assert.Equal(t, "/repo/widget.cpp", s.File)
	assert.True(t, s.HasBody())

	// The cross-file definition must replace the header's bucket entry,
	// not sit alongside it: a duplicate key here would make
	// FunctionsByName return the same record twice.
	funcs := idx.FunctionsByName("Widget::doWork")
	require.Len(t, funcs, 1)
	assert.Equal(t, "/repo/widget.cpp", funcs[0].File)

	// Re-running the header's (poorer) contribution must not evict the
	// still-richer definition contributed by the .cpp file.
	idx.ReplaceFile("/repo/widget.h", []symbol.Symbol{decl})
	s, ok = idx.BySymbolKey("c:@F@doWork#")
	require.True(t, ok)
	assert.Equal(t, "/repo/widget.cpp", s.File)

	// The header's own declaration still shows up for a file-scoped search
	// even though it lost the merge.
	fromHeader := idx.SymbolsInFile("/repo/widget.h")
	require.Len(t, fromHeader, 1)
	assert.Equal(t, "/repo/widget.h", fromHeader[0].File)
}

func TestReplaceFileDedupsClassIndexAcrossForwardDeclAndDefinition(t *testing.T) {
	idx := NewIndexes()
	fwd := symbol.Symbol{USR: "c:@S@Q", Name: "Q", QualifiedName: "Q", Kind: symbol.KindClass, File: "/repo/fwd.h"}
	idx.ReplaceFile("/repo/fwd.h", []symbol.Symbol{fwd})

	def := symbol.Symbol{
		USR: "c:@S@Q", Name: "Q", QualifiedName: "Q", Kind: symbol.KindClass,
		File: "/repo/q.h", StartLine: 3, EndLine: 20,
	}
	idx.ReplaceFile("/repo/q.h", []symbol.Symbol{def})

	classes := idx.ClassesByName("Q")
	require.Len(t, classes, 1)
	assert.Equal(t, "/repo/q.h", classes[0].File)

	// Re-processing the forward declaration (e.g. a later incremental run
	// that revisits fwd.h) must not resurrect a second bucket entry.
	idx.ReplaceFile("/repo/fwd.h", []symbol.Symbol{fwd})
	classes = idx.ClassesByName("Q")
	require.Len(t, classes, 1)
	assert.Equal(t, "/repo/q.h", classes[0].File)
}

func TestReplaceFileEvictsSymbolsNoLongerContributed(t *testing.T) {
	idx := NewIndexes()
	idx.ReplaceFile("/repo/a.cpp", []symbol.Symbol{
		{USR: "usr-a", Name: "Foo", QualifiedName: "Foo", Kind: symbol.KindClass, File: "/repo/a.cpp"},
	})
	assert.Equal(t, 1, idx.SymbolCount())

	idx.ReplaceFile("/repo/a.cpp", nil)
	assert.Equal(t, 0, idx.SymbolCount())
	assert.Empty(t, idx.ClassesByName("Foo"))
}

func TestRemoveFileClearsHash(t *testing.T) {
	idx := NewIndexes()
	idx.SetFileHash("/repo/a.cpp", "deadbeef")
	idx.ReplaceFile("/repo/a.cpp", []symbol.Symbol{
		{USR: "usr-a", Name: "Foo", QualifiedName: "Foo", Kind: symbol.KindClass, File: "/repo/a.cpp"},
	})

	idx.RemoveFile("/repo/a.cpp")

	_, ok := idx.FileHash("/repo/a.cpp")
	assert.False(t, ok)
	assert.Equal(t, 0, idx.SymbolCount())
}

func TestAllSymbolsAndFileHashesSnapshot(t *testing.T) {
	idx := NewIndexes()
	idx.ReplaceFile("/repo/a.cpp", []symbol.Symbol{
		{USR: "usr-a", Name: "Foo", QualifiedName: "Foo", Kind: symbol.KindFunction, File: "/repo/a.cpp"},
	})
	idx.SetFileHash("/repo/a.cpp", "hash-a")

	assert.Len(t, idx.AllSymbols(), 1)
	assert.Equal(t, map[string]string{"/repo/a.cpp": "hash-a"}, idx.FileHashes())
}
