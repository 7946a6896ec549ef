//go:build clang

package extractor

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-clang/clang-v14/clang"
	"github.com/pkg/errors"
)

// ClangFrontend adapts github.com/go-clang/clang-v14 to the portable
// Frontend interface. It owns one libclang Index for the lifetime of a
// project's analysis run.
type ClangFrontend struct {
	index       clang.Index
	resourceDir string
}

// NewClangFrontend creates an index and runs a trivial probe parse. The
// builtin-header resource directory is not discovered: ResourceDir always
// reports "", so builtin-header injection stays off.
func NewClangFrontend() *ClangFrontend {
	fe := &ClangFrontend{index: clang.NewIndex(1, 0)}
	fe.resourceDir = discoverResourceDir(fe.index)
	return fe
}

func discoverResourceDir(index clang.Index) string {
	tmp, err := os.CreateTemp("", "cppindex-probe-*.cpp")
	if err != nil {
		return ""
	}
	defer os.Remove(tmp.Name())
	tmp.Close()

	var tu clang.TranslationUnit
	if errCode := index.ParseTranslationUnit2(tmp.Name(), []string{"-resource-dir-recovery-probe"}, nil, 0, &tu); errCode == clang.Error_Success {
		defer tu.Dispose()
	}
	// go-clang does not expose clang_getClangVersion's resource-dir
	// query directly, and no configuration field supplies the path. An
	// empty result disables builtin-header injection rather than guessing
	// a wrong path.
	return ""
}

func (fe *ClangFrontend) ResourceDir() string { return fe.resourceDir }

func (fe *ClangFrontend) Dispose() { fe.index.Dispose() }

// Parse parses path with args, returning a *clangTU wrapping the result.
func (fe *ClangFrontend) Parse(ctx context.Context, path string, args []string) (TranslationUnit, error) {
	var tu clang.TranslationUnit
	errCode := fe.index.ParseTranslationUnit2(path, args, nil, clang.TranslationUnit_DetailedPreprocessingRecord, &tu)
	if errCode != clang.Error_Success {
		return nil, errors.Errorf("parsing translation unit %q: clang error %v", path, errCode)
	}
	return &clangTU{tu: tu}, nil
}

type clangTU struct {
	tu clang.TranslationUnit
}

func (t *clangTU) RootCursor() CursorView { return &clangCursor{cursor: t.tu.TranslationUnitCursor()} }

func (t *clangTU) Includes() []string {
	seen := make(map[string]bool)
	var out []string
	t.tu.GetInclusions(func(includedFile clang.File, inclusionStack []clang.SourceLocation) {
		name := includedFile.Name()
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		abs, err := filepath.Abs(name)
		if err != nil {
			abs = name
		}
		out = append(out, abs)
	})
	return out
}

func (t *clangTU) Dispose() { t.tu.Dispose() }

// clangCursor adapts clang.Cursor to CursorView.
type clangCursor struct {
	cursor clang.Cursor
}

func (c *clangCursor) Kind() CursorKind {
	switch c.cursor.Kind() {
	case clang.Cursor_Namespace:
		return CursorNamespace
	case clang.Cursor_ClassDecl:
		return CursorClassDecl
	case clang.Cursor_StructDecl:
		return CursorStructDecl
	case clang.Cursor_ClassTemplate:
		return CursorClassTemplate
	case clang.Cursor_ClassTemplatePartialSpecialization:
		return CursorClassTemplatePartialSpecialization
	case clang.Cursor_FunctionDecl:
		return CursorFunctionDecl
	case clang.Cursor_CXXMethod:
		return CursorCXXMethod
	case clang.Cursor_Constructor:
		return CursorConstructor
	case clang.Cursor_Destructor:
		return CursorDestructor
	case clang.Cursor_ConversionFunction:
		return CursorConversionFunction
	case clang.Cursor_FunctionTemplate:
		return CursorFunctionTemplate
	case clang.Cursor_TypeAliasDecl:
		return CursorTypeAliasDecl
	case clang.Cursor_TypeAliasTemplateDecl:
		return CursorTypeAliasTemplateDecl
	case clang.Cursor_TypedefDecl:
		return CursorTypedefDecl
	case clang.Cursor_TemplateTypeParameter:
		return CursorTemplateTypeParameter
	case clang.Cursor_NonTypeTemplateParameter:
		return CursorNonTypeTemplateParameter
	case clang.Cursor_TemplateTemplateParameter:
		return CursorTemplateTemplateParameter
	case clang.Cursor_CXXBaseSpecifier:
		return CursorCXXBaseSpecifier
	default:
		return CursorOther
	}
}

func (c *clangCursor) Spelling() string { return c.cursor.Spelling() }
func (c *clangCursor) USR() string      { return c.cursor.USR() }
func (c *clangCursor) IsDefinition() bool { return c.cursor.IsDefinition() }

func (c *clangCursor) Location() Location {
	file, line, col, _ := c.cursor.Location().FileLocation()
	extent := c.cursor.Extent()
	_, startLine, _, _ := extent.Start().FileLocation()
	_, endLine, _, _ := extent.End().FileLocation()
	name := ""
	if file.Name() != "" {
		if abs, err := filepath.Abs(file.Name()); err == nil {
			name = abs
		} else {
			name = file.Name()
		}
	}
	return Location{File: name, Line: int(line), Column: int(col), StartLine: int(startLine), EndLine: int(endLine)}
}

func (c *clangCursor) AccessSpecifier() string {
	switch c.cursor.AccessSpecifier() {
	case clang.AccessSpecifier_Public:
		return "public"
	case clang.AccessSpecifier_Protected:
		return "protected"
	case clang.AccessSpecifier_Private:
		return "private"
	default:
		return ""
	}
}

func (c *clangCursor) IsVirtual() bool     { return c.cursor.CXXMethod_IsVirtual() }
func (c *clangCursor) IsPureVirtual() bool { return c.cursor.CXXMethod_IsPureVirtual() }
func (c *clangCursor) IsStatic() bool      { return c.cursor.CXXMethod_IsStatic() }
func (c *clangCursor) IsConst() bool       { return c.cursor.CXXMethod_IsConst() }

func (c *clangCursor) Signature() (string, []string, string, bool) {
	switch c.cursor.Kind() {
	case clang.Cursor_FunctionDecl, clang.Cursor_CXXMethod, clang.Cursor_FunctionTemplate,
		clang.Cursor_Constructor, clang.Cursor_Destructor, clang.Cursor_ConversionFunction:
	default:
		return "", nil, "", false
	}

	returnType := c.cursor.ResultType().Spelling()
	n := int(c.cursor.NumArguments())
	params := make([]string, 0, n)
	for i := 0; i < n; i++ {
		params = append(params, c.cursor.Argument(uint32(i)).Type().Spelling())
	}

	refQual := ""
	switch c.cursor.Type().CXXRefQualifier() {
	case clang.RefQualifier_LValue:
		refQual = "&"
	case clang.RefQualifier_RValue:
		refQual = "&&"
	}
	return returnType, params, refQual, true
}

func (c *clangCursor) Bases() []string {
	var bases []string
	c.cursor.Visit(func(cursor, parent clang.Cursor) clang.ChildVisitResult {
		if cursor.Kind() == clang.Cursor_CXXBaseSpecifier {
			bases = append(bases, strings.TrimSpace(cursor.Type().Spelling()))
		}
		return clang.ChildVisit_Continue
	})
	return bases
}

func (c *clangCursor) TemplateKind() TemplateCursorKind {
	switch c.cursor.Kind() {
	case clang.Cursor_ClassTemplate, clang.Cursor_FunctionTemplate:
		return TemplateKindPrimary
	case clang.Cursor_ClassTemplatePartialSpecialization:
		return TemplateKindPartialSpecialization
	default:
		return TemplateKindNone
	}
}

func (c *clangCursor) TemplateParameters() []TemplateParam {
	var params []TemplateParam
	c.cursor.Visit(func(cursor, parent clang.Cursor) clang.ChildVisitResult {
		var kind string
		switch cursor.Kind() {
		case clang.Cursor_TemplateTypeParameter:
			kind = "type"
		case clang.Cursor_NonTypeTemplateParameter:
			kind = "non_type"
		case clang.Cursor_TemplateTemplateParameter:
			kind = "template"
		default:
			return clang.ChildVisit_Continue
		}
		p := TemplateParam{Name: cursor.Spelling(), Kind: kind}
		if kind == "non_type" {
			p.Type = cursor.Type().Spelling()
		}
		params = append(params, p)
		return clang.ChildVisit_Continue
	})
	return params
}

func (c *clangCursor) PrimaryTemplateUSR() string {
	specialized := c.cursor.SpecializedCursorTemplate()
	if specialized.IsNull() {
		return ""
	}
	return specialized.USR()
}

func (c *clangCursor) DocBrief() string { return c.cursor.BriefCommentText() }
func (c *clangCursor) DocFull() string  { return c.cursor.RawCommentText() }

func (c *clangCursor) VisitChildren(fn func(child CursorView) bool) {
	c.cursor.Visit(func(cursor, parent clang.Cursor) clang.ChildVisitResult {
		if fn(&clangCursor{cursor: cursor}) {
			return clang.ChildVisit_Continue
		}
		return clang.ChildVisit_Continue
	})
}
