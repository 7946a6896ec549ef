// Package extractor implements the Symbol Extractor (C8): traversing a
// parsed translation unit and emitting symbol records
//
// The traversal algorithm (namespace tracking, qualified-name building,
// definition-vs-declaration handling, header gating, template
// classification) is portable Go and lives in walk.go, operating over the
// CursorView/TranslationUnit/Frontend interfaces in model.go. The only
// file that touches cgo is clang_frontend.go, built under the "clang" tag,
// which adapts github.com/go-clang/clang-v14 to those interfaces.
package extractor

// CursorKind is this package's own cursor-kind enum, decoupled from the
// underlying frontend library so the walker stays portable.
type CursorKind int

const (
	CursorOther CursorKind = iota
	CursorNamespace
	CursorClassDecl
	CursorStructDecl
	CursorClassTemplate
	CursorClassTemplatePartialSpecialization
	CursorFunctionDecl
	CursorCXXMethod
	CursorConstructor
	CursorDestructor
	CursorConversionFunction
	CursorFunctionTemplate
	CursorTypeAliasDecl
	CursorTypeAliasTemplateDecl
	CursorTypedefDecl
	CursorTemplateTypeParameter
	CursorNonTypeTemplateParameter
	CursorTemplateTemplateParameter
	CursorCXXBaseSpecifier
)

// TemplateCursorKind distinguishes a template cursor's specialization
// role, mirroring libclang's clang_getTemplateCursorKind.
type TemplateCursorKind int

const (
	TemplateKindNone TemplateCursorKind = iota
	TemplateKindPrimary
	TemplateKindFullSpecialization
	TemplateKindPartialSpecialization
)
