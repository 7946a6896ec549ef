// Package depgraph maintains the forward/reverse include graph and its
// transitive closure (C7). It delegates storage to a cache.Backend and,
// when that backend lacks an efficient recursive query
// (cache.JSONBackend), falls back to an in-memory bounded BFS over the
// edges it reads back from the backend.
package depgraph

import (
	"context"

	"github.com/cppindex/cppindex/internal/cache"
)

// Graph is a thin coordinator in front of a cache.Backend's dependency
// operations.
type Graph struct {
	backend cache.Backend
}

// New wraps backend.
func New(backend cache.Backend) *Graph {
	return &Graph{backend: backend}
}

// UpdateDependencies deletes all edges rooted at source, then inserts the
// unique new set, in a single transaction. It does not
// touch source's symbol or metadata rows; the orchestrator's
// WriteFileSymbols call handles those together with the same edge set
// during a full re-parse.
func (g *Graph) UpdateDependencies(ctx context.Context, source string, includes []string) error {
	edges := make([]cache.DependencyEdge, 0, len(includes))
	seen := make(map[string]bool, len(includes))
	for _, inc := range includes {
		if seen[inc] {
			continue
		}
		seen[inc] = true
		edges = append(edges, cache.DependencyEdge{SourceFile: source, IncludedFile: inc})
	}
	return g.backend.UpdateDependencies(ctx, source, edges)
}

// FindDependents returns the direct reverse lookup for header.
func (g *Graph) FindDependents(ctx context.Context, header string) ([]string, error) {
	return g.backend.FindDependents(ctx, header)
}

// FindTransitiveDependents returns every file (source or header) that
// transitively includes header, directly or through other headers. When
// the backend supports an efficient recursive query it is used directly;
// otherwise this walks the full edge set in memory, visiting each node at
// most once so header-guard cycles terminate.
func (g *Graph) FindTransitiveDependents(ctx context.Context, header string) ([]string, error) {
	if g.backend.SupportsTransitiveDependents() {
		return g.backend.FindTransitiveDependents(ctx, header)
	}
	return g.bfsTransitiveDependents(ctx, header)
}

func (g *Graph) bfsTransitiveDependents(ctx context.Context, header string) ([]string, error) {
	allMeta, err := g.backend.AllFileMetadata(ctx)
	if err != nil {
		return nil, err
	}

	reverse := make(map[string][]string)
	for file := range allMeta {
		dependents, err := g.backend.FindDependents(ctx, file)
		if err != nil {
			return nil, err
		}
		reverse[file] = dependents
	}
	// The header itself may not have a file_metadata row (it's never a
	// source), so seed directly from the backend rather than requiring a
	// metadata row to exist for it.
	directDependents, err := g.backend.FindDependents(ctx, header)
	if err != nil {
		return nil, err
	}

	visited := make(map[string]bool)
	queue := append([]string(nil), directDependents...)
	for _, d := range queue {
		visited[d] = true
	}

	for i := 0; i < len(queue); i++ {
		cur := queue[i]
		dependents, ok := reverse[cur]
		if !ok {
			// cur has no file_metadata row (an intermediate header), so its
			// reverse edges were not preloaded above.
			dependents, err = g.backend.FindDependents(ctx, cur)
			if err != nil {
				return nil, err
			}
		}
		for _, next := range dependents {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	out := make([]string, 0, len(visited))
	for f := range visited {
		out = append(out, f)
	}
	return out, nil
}

// RemoveFileDependencies removes both outgoing and incoming edges for
// path, used when a file is deleted.
func (g *Graph) RemoveFileDependencies(ctx context.Context, path string) error {
	return g.backend.DeleteFile(ctx, path)
}

// GetDependencyStats summarizes the graph's size.
func (g *Graph) GetDependencyStats(ctx context.Context) (cache.DependencyStats, error) {
	return g.backend.DependencyStats(ctx)
}

// ClearAllDependencies removes every edge, used when the compile-commands
// database changes.
func (g *Graph) ClearAllDependencies(ctx context.Context) error {
	return g.backend.ClearAllDependencies(ctx)
}
