// Package cache implements the durable storage substrate (C5): symbols,
// file metadata, dependency edges, the header-tracker snapshot, and the
// compile-commands fingerprint, behind one interface with two backends.
package cache

import (
	"context"
	"time"

	"github.com/cppindex/cppindex/internal/symbol"
)

// FileMetadata is the persisted row for one analyzed file.
type FileMetadata struct {
	FilePath        string
	FileHash        string
	CompileArgsHash string
	IndexedAt       time.Time
	SymbolCount     int
}

// DependencyEdge is one (source, included) include relationship.
type DependencyEdge struct {
	SourceFile   string
	IncludedFile string
	DetectedAt   time.Time
}

// HeaderSnapshot is the persisted header-tracker processed set: header
// path to the content hash it was processed at.
type HeaderSnapshot map[string]string

// DependencyStats summarizes the dependency graph's size.
type DependencyStats struct {
	EdgeCount       int
	SourceFileCount int
	IncludedFileCount int
}

// Backend is the storage interface every persistence layer implements.
// Implementations must make per-file writes atomic: either all rows for a
// file land, or none do.
type Backend interface {
	// Capabilities.

	// SupportsTransitiveDependents reports whether FindTransitiveDependents
	// is backed by an efficient graph query. The JSON fallback returns
	// false; callers fall back to the in-memory dependency graph instead
	// of calling it.
	SupportsTransitiveDependents() bool

	// Symbols.

	// WriteFileSymbols atomically replaces file_metadata and all symbol
	// rows for path, and all dependency edges rooted at path.
	WriteFileSymbols(ctx context.Context, meta FileMetadata, symbols []symbol.Symbol, edges []DependencyEdge) error
	// DeleteFile atomically removes a file's metadata row, symbol rows,
	// and dependency edges (both directions).
	DeleteFile(ctx context.Context, path string) error

	FileMetadata(ctx context.Context, path string) (FileMetadata, bool, error)
	AllFileMetadata(ctx context.Context) (map[string]FileMetadata, error)
	SymbolsByFile(ctx context.Context, path string) ([]symbol.Symbol, error)
	SymbolByUSR(ctx context.Context, usr string) (symbol.Symbol, bool, error)

	// Dependency graph.

	// UpdateDependencies deletes all edges rooted at source then inserts
	// edges, in one transaction, without touching that file's symbol or
	// metadata rows.
	UpdateDependencies(ctx context.Context, source string, edges []DependencyEdge) error
	FindDependents(ctx context.Context, header string) ([]string, error)
	// FindTransitiveDependents performs a recursive reverse-reachability
	// query. Only backends with SupportsTransitiveDependents() == true
	// implement this with full performance; others return
	// ErrUnsupportedCapability.
	FindTransitiveDependents(ctx context.Context, header string) ([]string, error)
	DependencyStats(ctx context.Context) (DependencyStats, error)
	ClearAllDependencies(ctx context.Context) error

	// Header tracker snapshot persistence.

	SaveHeaderSnapshot(ctx context.Context, snapshot HeaderSnapshot) error
	LoadHeaderSnapshot(ctx context.Context) (HeaderSnapshot, error)

	// Compile-commands fingerprint.

	SaveCompileCommandsHash(ctx context.Context, hash string) error
	LoadCompileCommandsHash(ctx context.Context) (string, error)

	Close() error
}
