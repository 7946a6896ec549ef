// Package changescan implements the Change Scanner (C10): comparing
// on-disk project state against the cache to produce a ChangeSet the
// incremental coordinator can turn into a minimal re-analysis plan.
package changescan

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/cppindex/cppindex/internal/cache"
	"github.com/cppindex/cppindex/internal/contenthash"
	"github.com/cppindex/cppindex/internal/diagnostics"
	"github.com/cppindex/cppindex/internal/filescan"
)

// ChangeSet is the value-typed record of every detected drift between the
// last indexed state and the current disk state.
type ChangeSet struct {
	CompileCommandsChanged bool
	Added                  []string
	ModifiedSources        []string
	ModifiedHeaders        []string
	Removed                []string
}

// IsEmpty reports whether nothing changed, letting callers skip an
// incremental run entirely.
func (c ChangeSet) IsEmpty() bool {
	return !c.CompileCommandsChanged && len(c.Added) == 0 && len(c.ModifiedSources) == 0 &&
		len(c.ModifiedHeaders) == 0 && len(c.Removed) == 0
}

// Scanner walks the project tree and the cache to build a ChangeSet.
type Scanner struct {
	Backend              cache.Backend
	ProjectRoot          string
	CompileCommandsPath  string
	ExcludeGlobs         []string
	SourceExtensions     []string
	HeaderExtensions     []string
	Logger               *diagnostics.Logger
}

func (s *Scanner) logger() *diagnostics.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return diagnostics.Global()
}

// ScanForChanges computes a ChangeSet. inMemoryHashes is the orchestrator's
// live file_hashes table, consulted before falling back to the persisted
// file_metadata row.
func (s *Scanner) ScanForChanges(ctx context.Context, inMemoryHashes map[string]string) (ChangeSet, error) {
	var cs ChangeSet

	if err := s.checkCompileCommands(ctx, &cs); err != nil {
		return cs, err
	}

	scanResult, err := filescan.Scan(filescan.Options{
		Root:             s.ProjectRoot,
		ExcludeGlobs:     s.ExcludeGlobs,
		SourceExtensions: s.SourceExtensions,
		HeaderExtensions: s.HeaderExtensions,
	})
	if err != nil {
		return cs, errors.Wrap(err, "scanning project tree")
	}

	allMeta, err := s.Backend.AllFileMetadata(ctx)
	if err != nil {
		return cs, errors.Wrap(err, "loading cached file metadata")
	}

	onDisk := make(map[string]bool, len(scanResult.Sources))
	for _, src := range scanResult.Sources {
		resolved, err := resolvePath(src)
		if err != nil {
			return cs, err
		}
		onDisk[resolved] = true

		_, inCache := allMeta[resolved]
		stored, inMemory := inMemoryHashes[resolved]
		if !inCache && !inMemory {
			cs.Added = append(cs.Added, resolved)
			continue
		}
		if !inMemory {
			stored = allMeta[resolved].FileHash
		}
		hash, err := contenthash.File(resolved)
		if err != nil {
			return cs, errors.Wrapf(err, "hashing %s", resolved)
		}
		if hash != stored {
			cs.ModifiedSources = append(cs.ModifiedSources, resolved)
		}
	}

	snapshot, err := s.Backend.LoadHeaderSnapshot(ctx)
	if err != nil {
		return cs, errors.Wrap(err, "loading header tracker snapshot")
	}
	headerOnDisk := make(map[string]bool, len(snapshot))
	for header, priorHash := range snapshot {
		if _, err := os.Stat(header); os.IsNotExist(err) {
			cs.Removed = append(cs.Removed, header)
			continue
		} else if err != nil {
			return cs, errors.Wrapf(err, "stating %s", header)
		}
		headerOnDisk[header] = true

		hash, err := contenthash.File(header)
		if err != nil {
			return cs, errors.Wrapf(err, "hashing %s", header)
		}
		if hash != priorHash {
			cs.ModifiedHeaders = append(cs.ModifiedHeaders, header)
		}
	}

	for file := range allMeta {
		if onDisk[file] || headerOnDisk[file] {
			continue
		}
		if _, err := os.Stat(file); os.IsNotExist(err) {
			cs.Removed = append(cs.Removed, file)
		}
	}

	sort.Strings(cs.Added)
	sort.Strings(cs.ModifiedSources)
	sort.Strings(cs.ModifiedHeaders)
	sort.Strings(cs.Removed)

	s.logger().Infof(
		"change scan: compile_commands_changed=%v added=%d modified_sources=%d modified_headers=%d removed=%d",
		cs.CompileCommandsChanged, len(cs.Added), len(cs.ModifiedSources), len(cs.ModifiedHeaders), len(cs.Removed),
	)
	return cs, nil
}

func (s *Scanner) checkCompileCommands(ctx context.Context, cs *ChangeSet) error {
	if s.CompileCommandsPath == "" {
		return nil
	}
	if _, err := os.Stat(s.CompileCommandsPath); os.IsNotExist(err) {
		return nil // fallback mode: nothing to diff against
	}

	currentHash, err := contenthash.File(s.CompileCommandsPath)
	if err != nil {
		return errors.Wrap(err, "hashing compile commands database")
	}
	cachedHash, err := s.Backend.LoadCompileCommandsHash(ctx)
	if err != nil {
		return errors.Wrap(err, "loading cached compile commands hash")
	}
	cs.CompileCommandsChanged = cachedHash != "" && cachedHash != currentHash
	return nil
}

func resolvePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errors.Wrapf(err, "resolving %s", p)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs, nil // tolerate a dangling symlink target rather than fail the scan
	}
	return resolved, nil
}
