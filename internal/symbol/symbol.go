// Package symbol defines the symbol record shared by the extractor,
// orchestrator, and search engine, plus the name-building rules that keep
// qualified names well-formed.
package symbol

import "strconv"

// Kind enumerates the symbol kinds this indexer records.
type Kind string

const (
	KindClass                Kind = "class"
	KindStruct               Kind = "struct"
	KindFunction             Kind = "function"
	KindMethod               Kind = "method"
	KindClassTemplate        Kind = "class_template"
	KindFunctionTemplate     Kind = "function_template"
	KindPartialSpecialization Kind = "partial_specialization"
	KindTypeAlias            Kind = "type_alias"
	KindTypedef              Kind = "typedef"
)

// Access is a base/member access specifier.
type Access string

const (
	AccessPublic    Access = "public"
	AccessProtected Access = "protected"
	AccessPrivate   Access = "private"
)

// TemplateKind distinguishes a template entity's role.
type TemplateKind string

const (
	TemplatePrimary              TemplateKind = "primary"
	TemplateFullSpecialization   TemplateKind = "full_specialization"
	TemplatePartialSpecialization TemplateKind = "partial_specialization"
)

// TemplateParamKind is the kind of one template parameter.
type TemplateParamKind string

const (
	TemplateParamType     TemplateParamKind = "type"
	TemplateParamNonType  TemplateParamKind = "non_type"
	TemplateParamTemplate TemplateParamKind = "template"
)

// TemplateParameter is one entry of a template's parameter list.
type TemplateParameter struct {
	Name string
	Kind TemplateParamKind
	// Type is populated for non_type parameters (e.g. "int", "size_t").
	Type string
}

// Signature captures a callable's return type, parameter types, and
// cv/ref qualifiers, used for display and for disambiguating overloads in
// search results.
type Signature struct {
	ReturnType string
	Parameters []string
	IsConst    bool
	IsVolatile bool
	RefQualifier string // "", "&", or "&&"
}

// Symbol is the immutable value record emitted by the extractor for one
// declaration or definition.
type Symbol struct {
	// USR is the compiler-derived stable identifier. Empty for symbols the
	// frontend cannot USR (anonymous entities, some builtins); such records
	// are identified by (File, Line, QualifiedName) instead.
	USR string

	Name          string
	QualifiedName string
	Namespace     string
	Kind          Kind

	File      string
	Line      int
	Column    int
	StartLine int
	EndLine   int

	Signature *Signature

	ParentClass string
	Access      Access
	Bases       []string

	IsVirtual    bool
	IsPureVirtual bool
	IsStatic     bool
	IsConst      bool

	IsDefinition bool
	IsProject    bool

	IsTemplate         bool
	TemplateKind       TemplateKind
	TemplateParameters []TemplateParameter
	PrimaryTemplateUSR string

	DocBrief string
	DocFull  string
}

// Identity returns the key used when USR is unavailable: (file, line,
// qualified name)
func (s Symbol) Identity() (file string, line int, qualifiedName string) {
	return s.File, s.Line, s.QualifiedName
}

// Key returns USR when present, else a synthetic key built from Identity.
// Both the orchestrator's usr_index and auxiliary per-file structures use
// this so anonymous/builtin symbols remain addressable.
func (s Symbol) Key() string {
	if s.USR != "" {
		return s.USR
	}
	file, line, qn := s.Identity()
	return file + "\x00" + strconv.Itoa(line) + "\x00" + qn
}

// HasBody reports whether the symbol carries a body/declaration extent,
// one of the "richness" signals used by the definition-wins merge rule.
func (s Symbol) HasBody() bool {
	return s.EndLine > s.StartLine
}

// Richness scores a symbol record for the merge rule: has a body extent,
// has base classes, has a signature. Higher wins.
func (s Symbol) Richness() int {
	score := 0
	if s.HasBody() {
		score++
	}
	if len(s.Bases) > 0 {
		score++
	}
	if s.Signature != nil {
		score++
	}
	return score
}
