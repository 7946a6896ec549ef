package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/cppindex/cppindex/internal/symbol"
)

// jsonDocument is the on-disk shape of the plain-file fallback store.
type jsonDocument struct {
	Files               map[string]FileMetadata   `json:"files"`
	Symbols             map[string][]symbol.Symbol `json:"symbols"` // keyed by file
	Edges               []DependencyEdge           `json:"edges"`
	HeaderSnapshot       HeaderSnapshot            `json:"header_snapshot"`
	CompileCommandsHash string                     `json:"compile_commands_hash"`
}

func newJSONDocument() *jsonDocument {
	return &jsonDocument{
		Files:   make(map[string]FileMetadata),
		Symbols: make(map[string][]symbol.Symbol),
	}
}

// JSONBackend is the plain-file fallback cache. It implements every
// Backend operation except efficient transitive-dependent queries, which
// it refuses with ErrUnsupportedCapability.
type JSONBackend struct {
	mu   sync.Mutex
	path string
	doc  *jsonDocument
}

// OpenJSON loads (or creates) a JSON-backed cache at path.
func OpenJSON(path string) (*JSONBackend, error) {
	b := &JSONBackend{path: path, doc: newJSONDocument()}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return b, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading json cache %q", path)
	}
	if len(data) == 0 {
		return b, nil
	}
	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "parsing json cache %q", path)
	}
	if doc.Files == nil {
		doc.Files = make(map[string]FileMetadata)
	}
	if doc.Symbols == nil {
		doc.Symbols = make(map[string][]symbol.Symbol)
	}
	b.doc = &doc
	return b, nil
}

func (b *JSONBackend) SupportsTransitiveDependents() bool { return false }

func (b *JSONBackend) Close() error { return nil }

// persist writes the document to path atomically via a temp file and
// rename, the same pattern used for session state.
func (b *JSONBackend) persist() error {
	data, err := json.MarshalIndent(b.doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding json cache")
	}
	dir := filepath.Dir(b.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "creating cache directory %q", dir)
		}
	}
	tmp, err := os.CreateTemp(dir, ".cache-*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp cache file")
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "writing temp cache file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "closing temp cache file")
	}
	if err := os.Rename(tmpPath, b.path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "renaming temp cache file into place")
	}
	return nil
}

func (b *JSONBackend) WriteFileSymbols(ctx context.Context, meta FileMetadata, symbols []symbol.Symbol, edges []DependencyEdge) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.doc.Files[meta.FilePath] = meta
	cp := make([]symbol.Symbol, len(symbols))
	copy(cp, symbols)
	b.doc.Symbols[meta.FilePath] = cp

	filtered := b.doc.Edges[:0:0]
	for _, e := range b.doc.Edges {
		if e.SourceFile != meta.FilePath {
			filtered = append(filtered, e)
		}
	}
	for _, e := range edges {
		if e.DetectedAt.IsZero() {
			e.DetectedAt = meta.IndexedAt
		}
		filtered = append(filtered, e)
	}
	b.doc.Edges = filtered

	return b.persist()
}

func (b *JSONBackend) DeleteFile(ctx context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.doc.Files, path)
	delete(b.doc.Symbols, path)
	filtered := b.doc.Edges[:0:0]
	for _, e := range b.doc.Edges {
		if e.SourceFile != path && e.IncludedFile != path {
			filtered = append(filtered, e)
		}
	}
	b.doc.Edges = filtered
	if b.doc.HeaderSnapshot != nil {
		delete(b.doc.HeaderSnapshot, path)
	}
	return b.persist()
}

func (b *JSONBackend) FileMetadata(ctx context.Context, path string) (FileMetadata, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.doc.Files[path]
	return m, ok, nil
}

func (b *JSONBackend) AllFileMetadata(ctx context.Context) (map[string]FileMetadata, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]FileMetadata, len(b.doc.Files))
	for k, v := range b.doc.Files {
		out[k] = v
	}
	return out, nil
}

func (b *JSONBackend) SymbolsByFile(ctx context.Context, path string) ([]symbol.Symbol, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	syms := b.doc.Symbols[path]
	out := make([]symbol.Symbol, len(syms))
	copy(out, syms)
	return out, nil
}

func (b *JSONBackend) SymbolByUSR(ctx context.Context, usr string) (symbol.Symbol, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, syms := range b.doc.Symbols {
		for _, s := range syms {
			if s.USR == usr && s.IsDefinition {
				return s, true, nil
			}
		}
	}
	return symbol.Symbol{}, false, nil
}

// UpdateDependencies deletes all edges rooted at source then inserts
// edges, without touching source's symbol or metadata rows.
func (b *JSONBackend) UpdateDependencies(ctx context.Context, source string, edges []DependencyEdge) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	filtered := b.doc.Edges[:0:0]
	for _, e := range b.doc.Edges {
		if e.SourceFile != source {
			filtered = append(filtered, e)
		}
	}
	filtered = append(filtered, edges...)
	b.doc.Edges = filtered
	return b.persist()
}

func (b *JSONBackend) FindDependents(ctx context.Context, header string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, e := range b.doc.Edges {
		if e.IncludedFile == header && !seen[e.SourceFile] {
			seen[e.SourceFile] = true
			out = append(out, e.SourceFile)
		}
	}
	return out, nil
}

// FindTransitiveDependents is unsupported by this backend at full
// performance; callers should fall back to the in-memory dependency graph.
func (b *JSONBackend) FindTransitiveDependents(ctx context.Context, header string) ([]string, error) {
	return nil, ErrUnsupportedCapability
}

func (b *JSONBackend) DependencyStats(ctx context.Context) (DependencyStats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sources := make(map[string]bool)
	includeds := make(map[string]bool)
	for _, e := range b.doc.Edges {
		sources[e.SourceFile] = true
		includeds[e.IncludedFile] = true
	}
	return DependencyStats{
		EdgeCount:         len(b.doc.Edges),
		SourceFileCount:   len(sources),
		IncludedFileCount: len(includeds),
	}, nil
}

func (b *JSONBackend) ClearAllDependencies(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.doc.Edges = nil
	return b.persist()
}

func (b *JSONBackend) SaveHeaderSnapshot(ctx context.Context, snapshot HeaderSnapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make(HeaderSnapshot, len(snapshot))
	for k, v := range snapshot {
		cp[k] = v
	}
	b.doc.HeaderSnapshot = cp
	return b.persist()
}

func (b *JSONBackend) LoadHeaderSnapshot(ctx context.Context) (HeaderSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make(HeaderSnapshot, len(b.doc.HeaderSnapshot))
	for k, v := range b.doc.HeaderSnapshot {
		cp[k] = v
	}
	return cp, nil
}

func (b *JSONBackend) SaveCompileCommandsHash(ctx context.Context, hash string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.doc.CompileCommandsHash = hash
	return b.persist()
}

func (b *JSONBackend) LoadCompileCommandsHash(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.doc.CompileCommandsHash, nil
}
