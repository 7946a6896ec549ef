// Package search implements the Search Engine (C13): pattern classification,
// filtering, and disambiguation over the analyzer's in-memory indexes
// without ever touching the cache.
package search

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/cppindex/cppindex/internal/analyzer"
	"github.com/cppindex/cppindex/internal/regexvalidate"
	"github.com/cppindex/cppindex/internal/symbol"
)

// metacharacters is the set whose presence in a pattern selects the regex
// class over exact/unqualified/suffix.
const metacharacters = `.*+?[]{}()|\^$`

// Filters narrows a pattern query beyond name matching. The zero value applies no filtering.
type Filters struct {
	ProjectOnly bool
	// FileName, when non-empty, is a suffix match against the owning file's
	// path, resolved against the file index rather than the name index.
	FileName string
	// Namespace, when Active, restricts to an exact or suffix match on the
	// namespace component; "" means the global namespace only.
	Namespace       string
	NamespaceActive bool
	// SignaturePattern, when non-empty, is a case-insensitive substring
	// match against the callable's rendered signature.
	SignaturePattern string
}

func (f Filters) apply(s symbol.Symbol) bool {
	if f.ProjectOnly && !s.IsProject {
		return false
	}
	if f.NamespaceActive && !matchesNamespace(s.Namespace, f.Namespace) {
		return false
	}
	if f.SignaturePattern != "" {
		if s.Signature == nil {
			return false
		}
		if !strings.Contains(strings.ToLower(renderSignature(*s.Signature)), strings.ToLower(f.SignaturePattern)) {
			return false
		}
	}
	return true
}

func matchesNamespace(actual, want string) bool {
	if want == "" {
		return actual == ""
	}
	if actual == want {
		return true
	}
	return strings.HasSuffix(actual, "::"+want)
}

// renderSignature builds the callable signature string signature_pattern
// matches against: "ReturnType(p1, p2) const &".
func renderSignature(sig symbol.Signature) string {
	var b strings.Builder
	b.WriteString(sig.ReturnType)
	b.WriteByte('(')
	b.WriteString(strings.Join(sig.Parameters, ", "))
	b.WriteByte(')')
	if sig.IsConst {
		b.WriteString(" const")
	}
	if sig.IsVolatile {
		b.WriteString(" volatile")
	}
	if sig.RefQualifier != "" {
		b.WriteByte(' ')
		b.WriteString(sig.RefQualifier)
	}
	return b.String()
}

// Ambiguity is returned by ClassInfo when a simple name resolves to more
// than one qualified name.
type Ambiguity struct {
	Name    string
	Matches []symbol.Symbol
}

// Result wraps a (possibly truncated) match list with the pre-truncation
// count.
type Result struct {
	Symbols []symbol.Symbol
	Total   int
}

// Engine answers pattern queries against an analyzer's in-memory indexes.
type Engine struct {
	Indexes *analyzer.Indexes
}

// SearchClasses matches pattern against class-like symbols, scoped by
// filters and capped at maxResults (0 meaning unlimited).
func (e *Engine) SearchClasses(pattern string, filters Filters, maxResults int) (Result, error) {
	return e.search(pattern, filters, maxResults, isClassKind)
}

// SearchFunctions matches pattern against callable symbols.
func (e *Engine) SearchFunctions(pattern string, filters Filters, maxResults int) (Result, error) {
	return e.search(pattern, filters, maxResults, isFunctionKind)
}

// SearchSymbols matches pattern against every symbol kind.
func (e *Engine) SearchSymbols(pattern string, filters Filters, maxResults int) (Result, error) {
	return e.search(pattern, filters, maxResults, func(symbol.Kind) bool { return true })
}

func isClassKind(k symbol.Kind) bool {
	switch k {
	case symbol.KindClass, symbol.KindStruct, symbol.KindClassTemplate, symbol.KindPartialSpecialization:
		return true
	default:
		return false
	}
}

func isFunctionKind(k symbol.Kind) bool {
	switch k {
	case symbol.KindFunction, symbol.KindMethod, symbol.KindFunctionTemplate:
		return true
	default:
		return false
	}
}

func (e *Engine) search(pattern string, filters Filters, maxResults int, kindOK func(symbol.Kind) bool) (Result, error) {
	matcher, err := newMatcher(pattern)
	if err != nil {
		return Result{}, err
	}

	candidates := e.candidates(filters)

	matches := make([]symbol.Symbol, 0, len(candidates))
	for _, s := range candidates {
		if !kindOK(s.Kind) {
			continue
		}
		if !matcher.match(s.QualifiedName) {
			continue
		}
		if !filters.apply(s) {
			continue
		}
		matches = append(matches, s)
	}

	total := len(matches)
	if maxResults > 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return Result{Symbols: matches, Total: total}, nil
}

// candidates returns the symbol pool a query should scan: the file index
// when a file_name filter is active (so header-only declarations survive
// the definition-wins merge), else every currently-winning symbol.
func (e *Engine) candidates(filters Filters) []symbol.Symbol {
	if filters.FileName == "" {
		return e.Indexes.AllSymbols()
	}

	var out []symbol.Symbol
	for _, file := range e.Indexes.Files() {
		if !strings.HasSuffix(file, filters.FileName) {
			continue
		}
		out = append(out, e.Indexes.SymbolsInFile(file)...)
	}
	return out
}

// ClassInfo resolves name (simple or qualified) to a single class record,
// or an Ambiguity when more than one qualified name matches a simple name.
func (e *Engine) ClassInfo(name string) (symbol.Symbol, *Ambiguity, error) {
	return classify(name, e.Indexes.ClassesByName, e.Indexes.AllSymbols, isClassKind)
}

// FunctionSignatures resolves name to every callable signature indexed
// under it, optionally scoped to a parent class.
func (e *Engine) FunctionSignatures(name, class string) ([]symbol.Symbol, error) {
	matched := e.Indexes.FunctionsByName(name)
	if len(matched) == 0 {
		// name may be a simple (unqualified) name; fall back to an
		// unqualified scan over every indexed callable.
		for _, s := range e.Indexes.AllSymbols() {
			if !isFunctionKind(s.Kind) {
				continue
			}
			if lastComponent(s.QualifiedName) == name {
				matched = append(matched, s)
			}
		}
	}
	if class == "" {
		return matched, nil
	}
	out := make([]symbol.Symbol, 0, len(matched))
	for _, s := range matched {
		if s.ParentClass == class {
			out = append(out, s)
		}
	}
	return out, nil
}

func classify(name string, byName func(string) []symbol.Symbol, all func() []symbol.Symbol, kindOK func(symbol.Kind) bool) (symbol.Symbol, *Ambiguity, error) {
	if strings.Contains(name, "::") {
		matches := byName(name)
		if len(matches) == 0 {
			return symbol.Symbol{}, nil, errors.Errorf("no class named %q is indexed", name)
		}
		return richest(matches), nil, nil
	}

	var matches []symbol.Symbol
	seen := map[string]bool{}
	for _, s := range all() {
		if !kindOK(s.Kind) {
			continue
		}
		if lastComponent(s.QualifiedName) != name {
			continue
		}
		if seen[s.QualifiedName] {
			continue
		}
		seen[s.QualifiedName] = true
		matches = append(matches, s)
	}

	switch len(matches) {
	case 0:
		return symbol.Symbol{}, nil, errors.Errorf("no class named %q is indexed", name)
	case 1:
		return matches[0], nil, nil
	default:
		return symbol.Symbol{}, &Ambiguity{Name: name, Matches: matches}, nil
	}
}

func richest(matches []symbol.Symbol) symbol.Symbol {
	best := matches[0]
	for _, s := range matches[1:] {
		if s.Richness() > best.Richness() {
			best = s
		}
	}
	return best
}

func lastComponent(qualifiedName string) string {
	i := strings.LastIndex(qualifiedName, "::")
	if i < 0 {
		return qualifiedName
	}
	return qualifiedName[i+2:]
}

// matcher holds the classified pattern and performs the match.
type matcher struct {
	class patternClass
	exact string
	re    *regexp.Regexp
	tail  []string
}

type patternClass int

const (
	classExact patternClass = iota
	classRegex
	classUnqualified
	classSuffix
)

func newMatcher(pattern string) (*matcher, error) {
	switch {
	case strings.HasPrefix(pattern, "::"):
		return &matcher{class: classExact, exact: symbol.NormalizeWhitespace(pattern[2:])}, nil
	case strings.ContainsAny(pattern, metacharacters):
		if err := regexvalidate.ValidateOrError(pattern); err != nil {
			return nil, err
		}
		re, err := regexp.Compile("(?i)^(?:" + symbol.NormalizeWhitespace(pattern) + ")$")
		if err != nil {
			return nil, errors.Wrapf(err, "compiling pattern %q", pattern)
		}
		return &matcher{class: classRegex, re: re}, nil
	case !strings.Contains(pattern, "::"):
		return &matcher{class: classUnqualified, exact: symbol.NormalizeWhitespace(pattern)}, nil
	default:
		parts := strings.Split(symbol.NormalizeWhitespace(pattern), "::")
		return &matcher{class: classSuffix, tail: parts}, nil
	}
}

func (m *matcher) match(qualifiedName string) bool {
	normalized := symbol.NormalizeWhitespace(qualifiedName)
	switch m.class {
	case classExact:
		return normalized == m.exact
	case classRegex:
		return m.re.MatchString(normalized)
	case classUnqualified:
		return strings.EqualFold(lastComponent(normalized), m.exact)
	case classSuffix:
		components := strings.Split(normalized, "::")
		if len(m.tail) > len(components) {
			return false
		}
		offset := len(components) - len(m.tail)
		for i, want := range m.tail {
			if !strings.EqualFold(components[offset+i], want) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
