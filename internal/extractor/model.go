package extractor

import "context"

// Location is a cursor's owning-file source position.
type Location struct {
	File      string
	Line      int
	Column    int
	StartLine int
	EndLine   int
}

// TemplateParam is one template parameter as reported by the frontend.
type TemplateParam struct {
	Name string
	Kind string // "type", "non_type", or "template"
	Type string
}

// CursorView is the portable view of a frontend cursor that the walker
// needs. Each frontend implements this over its native cursor type.
type CursorView interface {
	Kind() CursorKind
	Spelling() string
	USR() string
	IsDefinition() bool
	Location() Location
	AccessSpecifier() string // "public", "protected", "private", or "" if not applicable

	// IsVirtual, IsPureVirtual, IsStatic, IsConst apply to CXXMethod
	// cursors; false for everything else.
	IsVirtual() bool
	IsPureVirtual() bool
	IsStatic() bool
	IsConst() bool

	// Signature returns (returnType, paramTypes, refQualifier) for
	// callable cursors; ok is false for non-callables.
	Signature() (returnType string, params []string, refQualifier string, ok bool)

	// Bases returns raw textual base-class specifiers, in declaration
	// order, for class/struct cursors.
	Bases() []string

	// TemplateKind and TemplateParameters apply to template cursors.
	TemplateKind() TemplateCursorKind
	TemplateParameters() []TemplateParam
	// PrimaryTemplateUSR returns the USR of the templated cursor this
	// specialization was generated from, if any.
	PrimaryTemplateUSR() string

	// DocBrief and DocFull return the cursor's associated doc comment,
	// if any.
	DocBrief() string
	DocFull() string

	// VisitChildren calls fn for each direct child, wrapped as a
	// CursorView. It does not descend further itself: the walker tracks
	// the enclosing namespace chain and recurses by calling VisitChildren
	// on a child. The clang adapter visits every child whatever fn returns.
	VisitChildren(fn func(child CursorView) (recurse bool))
}

// TranslationUnit is the portable view of a parsed TU.
type TranslationUnit interface {
	RootCursor() CursorView
	// Includes returns the transitive closure of included files as
	// absolute paths.
	Includes() []string
	Dispose()
}

// Frontend parses translation units. Implementations own whatever
// process-wide state the underlying library needs (e.g. a libclang
// Index).
type Frontend interface {
	// Parse parses path with args. A caller that gets a non-nil error
	// should retry with progressively laxer options before giving up;
	// ParseWithRetry automates that.
	Parse(ctx context.Context, path string, args []string) (TranslationUnit, error)
	// ResourceDir returns the frontend's discovered builtin-header
	// directory, or "" if undiscoverable.
	ResourceDir() string
	Dispose()
}

// RelaxArgs produces progressively laxer argument sets for retrying a
// failed parse: drop -Werror and -Werror=..., then also drop every -W, -f
// and -m flag except -fsyntax-only. Index 0 is the original args; the
// -Werror level is present only when it removes something, and the last
// level is always present.
func RelaxArgs(args []string) [][]string {
	levels := [][]string{args}

	withoutWerror := filterOut(args, func(a string) bool {
		return a == "-Werror" || hasPrefixAny(a, "-Werror=")
	})
	if len(withoutWerror) != len(args) {
		levels = append(levels, withoutWerror)
	}

	minimal := filterOut(levels[len(levels)-1], func(a string) bool {
		return hasPrefixAny(a, "-W", "-f", "-m") && a != "-fsyntax-only"
	})
	levels = append(levels, minimal)

	return levels
}

func hasPrefixAny(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if len(s) >= len(p) && s[:len(p)] == p {
			return true
		}
	}
	return false
}

func filterOut(args []string, drop func(string) bool) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if !drop(a) {
			out = append(out, a)
		}
	}
	return out
}

// ParseWithRetry tries fe.Parse with progressively laxer argument sets
// until one succeeds or all levels are exhausted.
func ParseWithRetry(ctx context.Context, fe Frontend, path string, args []string) (TranslationUnit, error) {
	var lastErr error
	for _, levelArgs := range RelaxArgs(args) {
		tu, err := fe.Parse(ctx, path, levelArgs)
		if err == nil {
			return tu, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
