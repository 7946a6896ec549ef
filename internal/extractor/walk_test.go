package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppindex/cppindex/internal/headertracker"
)

// fakeCursor is a minimal in-memory CursorView/TranslationUnit used to
// exercise the portable walker without a real libclang dependency.
type fakeCursor struct {
	kind         CursorKind
	spelling     string
	usr          string
	isDefinition bool
	loc          Location
	access       string
	isVirtual    bool
	isPureVirtual bool
	isStatic     bool
	isConst      bool
	returnType   string
	params       []string
	bases        []string
	templateKind TemplateCursorKind
	templateParams []TemplateParam
	primaryUSR   string
	docBrief     string
	children     []*fakeCursor
}

func (c *fakeCursor) Kind() CursorKind      { return c.kind }
func (c *fakeCursor) Spelling() string      { return c.spelling }
func (c *fakeCursor) USR() string           { return c.usr }
func (c *fakeCursor) IsDefinition() bool    { return c.isDefinition }
func (c *fakeCursor) Location() Location    { return c.loc }
func (c *fakeCursor) AccessSpecifier() string { return c.access }
func (c *fakeCursor) IsVirtual() bool       { return c.isVirtual }
func (c *fakeCursor) IsPureVirtual() bool   { return c.isPureVirtual }
func (c *fakeCursor) IsStatic() bool        { return c.isStatic }
func (c *fakeCursor) IsConst() bool         { return c.isConst }
func (c *fakeCursor) Bases() []string       { return c.bases }
func (c *fakeCursor) TemplateKind() TemplateCursorKind   { return c.templateKind }
func (c *fakeCursor) TemplateParameters() []TemplateParam { return c.templateParams }
func (c *fakeCursor) PrimaryTemplateUSR() string          { return c.primaryUSR }
func (c *fakeCursor) DocBrief() string                    { return c.docBrief }
func (c *fakeCursor) DocFull() string                     { return c.docBrief }

func (c *fakeCursor) Signature() (string, []string, string, bool) {
	if c.returnType == "" {
		return "", nil, "", false
	}
	return c.returnType, c.params, "", true
}

func (c *fakeCursor) VisitChildren(fn func(child CursorView) bool) {
	for _, ch := range c.children {
		if !fn(ch) {
			return
		}
	}
}

type fakeTU struct {
	root     *fakeCursor
	includes []string
}

func (t *fakeTU) RootCursor() CursorView { return t.root }
func (t *fakeTU) Includes() []string     { return t.includes }
func (t *fakeTU) Dispose()               {}

func noopHash(file string) (string, error) { return "hash-" + file, nil }

func TestWalkEmitsNamespacedClassAndMethod(t *testing.T) {
	method := &fakeCursor{
		kind: CursorCXXMethod, spelling: "doWork", usr: "c:@N@app@S@Widget@F@doWork#",
		loc: Location{File: "/repo/widget.cpp", Line: 10, StartLine: 10, EndLine: 12},
		isDefinition: true, returnType: "void", access: "public",
	}
	class := &fakeCursor{
		kind: CursorClassDecl, spelling: "Widget", usr: "c:@N@app@S@Widget",
		loc: Location{File: "/repo/widget.cpp", Line: 5, StartLine: 5, EndLine: 20},
		isDefinition: true, bases: []string{"Base"},
		children: []*fakeCursor{method},
	}
	ns := &fakeCursor{kind: CursorNamespace, spelling: "app", children: []*fakeCursor{class}}
	root := &fakeCursor{children: []*fakeCursor{ns}}
	tu := &fakeTU{root: root, includes: []string{"/repo/widget.h"}}

	result, err := Walk(tu, Options{
		ProjectRoot: "/repo",
		Tracker:     headertracker.New(),
		IsHeader:    func(string) bool { return false },
		HeaderHash:  noopHash,
	})
	require.NoError(t, err)
	require.Len(t, result.Symbols, 2)

	assert.Equal(t, "app::Widget", result.Symbols[0].QualifiedName)
	assert.Equal(t, []string{"Base"}, result.Symbols[0].Bases)
	assert.True(t, result.Symbols[0].IsProject)

	assert.Equal(t, "app::Widget::doWork", result.Symbols[1].QualifiedName)
	assert.Equal(t, "Widget", result.Symbols[1].ParentClass)
	assert.NotNil(t, result.Symbols[1].Signature)
	assert.Equal(t, []string{"/repo/widget.h"}, result.Includes)
}

func TestWalkGatesHeaderSymbolsThroughTracker(t *testing.T) {
	headerFunc := &fakeCursor{
		kind: CursorFunctionDecl, spelling: "inlineHelper",
		loc: Location{File: "/repo/shared.h", Line: 3, StartLine: 3, EndLine: 3},
	}
	root := &fakeCursor{children: []*fakeCursor{headerFunc}}
	tu1 := &fakeTU{root: root}
	tu2 := &fakeTU{root: root}

	tracker := headertracker.New()
	opts := Options{Tracker: tracker, IsHeader: func(f string) bool { return f == "/repo/shared.h" }, HeaderHash: noopHash}

	first, err := Walk(tu1, opts)
	require.NoError(t, err)
	assert.Len(t, first.Symbols, 1)
	assert.Equal(t, []string{"/repo/shared.h"}, first.ClaimedHeaders)

	second, err := Walk(tu2, opts)
	require.NoError(t, err)
	assert.Empty(t, second.Symbols)
	assert.Empty(t, second.ClaimedHeaders)
}

func TestWalkMarksTemplatePrimaryAndSpecialization(t *testing.T) {
	primary := &fakeCursor{
		kind: CursorClassTemplate, spelling: "Box", usr: "primary-usr",
		loc: Location{File: "/repo/box.h"}, templateKind: TemplateKindPrimary,
		templateParams: []TemplateParam{{Name: "T", Kind: "type"}},
	}
	specialization := &fakeCursor{
		kind: CursorClassDecl, spelling: "Box", usr: "spec-usr",
		loc: Location{File: "/repo/box.h"}, primaryUSR: "primary-usr",
	}
	root := &fakeCursor{children: []*fakeCursor{primary, specialization}}
	tu := &fakeTU{root: root}

	result, err := Walk(tu, Options{Tracker: headertracker.New(), IsHeader: func(string) bool { return false }, HeaderHash: noopHash})
	require.NoError(t, err)
	require.Len(t, result.Symbols, 2)

	assert.Equal(t, "primary-usr", result.Symbols[0].USR)
	assert.True(t, result.Symbols[0].IsTemplate)

	assert.Equal(t, "spec-usr", result.Symbols[1].USR)
	assert.True(t, result.Symbols[1].IsTemplate)
	assert.Equal(t, "primary-usr", result.Symbols[1].PrimaryTemplateUSR)
}

func TestRelaxArgsDropsWerrorThenWarnings(t *testing.T) {
	levels := RelaxArgs([]string{"-std=c++17", "-Werror", "-Wall", "-fsanitize=address"})
	require.GreaterOrEqual(t, len(levels), 3)
	assert.Contains(t, levels[0], "-Werror")
	assert.NotContains(t, levels[len(levels)-1], "-Werror")
	assert.NotContains(t, levels[len(levels)-1], "-Wall")
	assert.Contains(t, levels[len(levels)-1], "-std=c++17")
}
