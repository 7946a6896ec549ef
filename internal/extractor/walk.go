package extractor

import (
	"path/filepath"
	"strings"

	"github.com/cppindex/cppindex/internal/headertracker"
	"github.com/cppindex/cppindex/internal/symbol"
)

// Options configures one Walk call.
type Options struct {
	ProjectRoot string
	Tracker     *headertracker.Tracker
	IsHeader    func(file string) bool
	// HeaderHash returns file's current content hash, used as the header
	// tracker's claim key.
	HeaderHash func(file string) (string, error)
}

// Result is everything Walk extracted from one translation unit.
type Result struct {
	Symbols  []symbol.Symbol
	Includes []string
	// ClaimedHeaders lists the headers this walk won the first-win claim
	// for, already marked completed in the tracker.
	ClaimedHeaders []string
}

type walker struct {
	opts           Options
	headerDecision map[string]bool
	headerHash     map[string]string
	symbols        []symbol.Symbol
}

// Walk traverses tu's cursor tree and emits symbol records, consulting
// opts.Tracker for header deduplication.
func Walk(tu TranslationUnit, opts Options) (Result, error) {
	w := &walker{
		opts:           opts,
		headerDecision: make(map[string]bool),
		headerHash:     make(map[string]string),
	}

	w.visit(tu.RootCursor(), "")

	for file := range w.headerDecision {
		if w.headerDecision[file] {
			w.opts.Tracker.MarkCompleted(file, w.headerHash[file])
		}
	}

	claimed := make([]string, 0, len(w.headerHash))
	for file := range w.headerHash {
		claimed = append(claimed, file)
	}

	return Result{
		Symbols:        w.symbols,
		Includes:       tu.Includes(),
		ClaimedHeaders: claimed,
	}, nil
}

func (w *walker) visit(cur CursorView, namespace string) {
	cur.VisitChildren(func(child CursorView) bool {
		w.visitOne(child, namespace)
		return true
	})
}

func (w *walker) visitOne(cur CursorView, namespace string) {
	loc := cur.Location()
	file := loc.File

	allowed := file == "" || !w.opts.IsHeader(file) || w.headerAllowed(file)

	switch cur.Kind() {
	case CursorNamespace:
		name := cur.Spelling()
		if name == "" {
			// Anonymous namespace: contributes no visible qualifier but
			// its members are still walked.
			w.visit(cur, namespace)
			return
		}
		w.visit(cur, symbol.BuildQualifiedName(namespace, name))
		return

	case CursorClassDecl, CursorStructDecl, CursorClassTemplate, CursorClassTemplatePartialSpecialization:
		if allowed {
			w.emitClass(cur, namespace, file, loc)
		}
		// Recurse into the class body regardless of emission so nested
		// methods/types still surface (they gate individually).
		childNamespace := symbol.BuildQualifiedName(namespace, cur.Spelling())
		w.visit(cur, childNamespace)
		return

	case CursorFunctionDecl, CursorCXXMethod, CursorConstructor, CursorDestructor, CursorConversionFunction, CursorFunctionTemplate:
		if allowed {
			w.emitCallable(cur, namespace, file, loc)
		}
		return

	case CursorTypeAliasDecl, CursorTypeAliasTemplateDecl, CursorTypedefDecl:
		if allowed {
			w.emitAlias(cur, namespace, file, loc)
		}
		return

	default:
		w.visit(cur, namespace)
		return
	}
}

func (w *walker) headerAllowed(file string) bool {
	if decision, ok := w.headerDecision[file]; ok {
		return decision
	}
	hash, err := w.opts.HeaderHash(file)
	if err != nil {
		w.headerDecision[file] = false
		return false
	}
	allowed := w.opts.Tracker.TryClaim(file, hash)
	w.headerDecision[file] = allowed
	if allowed {
		w.headerHash[file] = hash
	}
	return allowed
}

func (w *walker) isProject(file string) bool {
	if w.opts.ProjectRoot == "" || file == "" {
		return false
	}
	rel, err := filepath.Rel(w.opts.ProjectRoot, file)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w *walker) base(cur CursorView, kind symbol.Kind, namespace, file string, loc Location) symbol.Symbol {
	qualifiedName := symbol.StripTemplateArgSuffix(symbol.BuildQualifiedName(namespace, cur.Spelling()))

	s := symbol.Symbol{
		USR:           cur.USR(),
		Name:          cur.Spelling(),
		QualifiedName: qualifiedName,
		Namespace:     namespace,
		Kind:          kind,
		File:          file,
		Line:          loc.Line,
		Column:        loc.Column,
		StartLine:     loc.StartLine,
		EndLine:       loc.EndLine,
		IsDefinition:  cur.IsDefinition(),
		IsProject:     w.isProject(file),
		DocBrief:      cur.DocBrief(),
		DocFull:       cur.DocFull(),
	}

	switch cur.AccessSpecifier() {
	case "public":
		s.Access = symbol.AccessPublic
	case "protected":
		s.Access = symbol.AccessProtected
	case "private":
		s.Access = symbol.AccessPrivate
	}

	if tk := cur.TemplateKind(); tk != TemplateKindNone {
		s.IsTemplate = true
		switch tk {
		case TemplateKindPrimary:
			s.TemplateKind = symbol.TemplatePrimary
		case TemplateKindFullSpecialization:
			s.TemplateKind = symbol.TemplateFullSpecialization
		case TemplateKindPartialSpecialization:
			s.TemplateKind = symbol.TemplatePartialSpecialization
		}
		s.PrimaryTemplateUSR = cur.PrimaryTemplateUSR()
		for _, p := range cur.TemplateParameters() {
			kind := symbol.TemplateParamType
			switch p.Kind {
			case "non_type":
				kind = symbol.TemplateParamNonType
			case "template":
				kind = symbol.TemplateParamTemplate
			}
			s.TemplateParameters = append(s.TemplateParameters, symbol.TemplateParameter{
				Name: p.Name, Kind: kind, Type: p.Type,
			})
		}
	} else if usr := cur.PrimaryTemplateUSR(); usr != "" {
		// A plain ClassDecl/FunctionDecl whose frontend still reports a
		// primary template: a full specialization.
		s.IsTemplate = true
		s.TemplateKind = symbol.TemplateFullSpecialization
		s.PrimaryTemplateUSR = usr
	}

	return s
}

func (w *walker) emitClass(cur CursorView, namespace, file string, loc Location) {
	kind := symbol.KindClass
	if cur.Kind() == CursorStructDecl {
		kind = symbol.KindStruct
	}
	if cur.Kind() == CursorClassTemplate {
		kind = symbol.KindClassTemplate
	}
	if cur.Kind() == CursorClassTemplatePartialSpecialization {
		kind = symbol.KindPartialSpecialization
	}

	s := w.base(cur, kind, namespace, file, loc)
	s.Bases = cur.Bases()
	w.symbols = append(w.symbols, s)
}

func (w *walker) emitCallable(cur CursorView, namespace, file string, loc Location) {
	kind := symbol.KindMethod
	switch cur.Kind() {
	case CursorFunctionDecl:
		kind = symbol.KindFunction
	case CursorFunctionTemplate:
		kind = symbol.KindFunctionTemplate
	}

	s := w.base(cur, kind, namespace, file, loc)
	if returnType, params, refQual, ok := cur.Signature(); ok {
		s.Signature = &symbol.Signature{
			ReturnType:   returnType,
			Parameters:   params,
			IsConst:      cur.IsConst(),
			RefQualifier: refQual,
		}
	}
	s.IsVirtual = cur.IsVirtual()
	s.IsPureVirtual = cur.IsPureVirtual()
	s.IsStatic = cur.IsStatic()
	s.IsConst = cur.IsConst()

	// ParentClass is the last namespace component when it names an
	// enclosing class rather than a namespace; the walker's namespace
	// chain does not distinguish the two, so this is a best-effort
	// display aid, not an identity field.
	if idx := strings.LastIndex(namespace, "::"); idx >= 0 {
		s.ParentClass = namespace[idx+2:]
	} else {
		s.ParentClass = namespace
	}

	w.symbols = append(w.symbols, s)
}

func (w *walker) emitAlias(cur CursorView, namespace, file string, loc Location) {
	kind := symbol.KindTypeAlias
	if cur.Kind() == CursorTypedefDecl {
		kind = symbol.KindTypedef
	}
	s := w.base(cur, kind, namespace, file, loc)
	w.symbols = append(w.symbols, s)
}
