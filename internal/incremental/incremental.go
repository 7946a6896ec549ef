// Package incremental implements the Incremental Coordinator (C12): turning
// a changescan.ChangeSet into a minimal re-analysis plan and driving it
// through the analyzer.
package incremental

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/cppindex/cppindex/internal/analyzer"
	"github.com/cppindex/cppindex/internal/argsnorm"
	"github.com/cppindex/cppindex/internal/cache"
	"github.com/cppindex/cppindex/internal/ccdiffer"
	"github.com/cppindex/cppindex/internal/changescan"
	"github.com/cppindex/cppindex/internal/contenthash"
	"github.com/cppindex/cppindex/internal/depgraph"
	"github.com/cppindex/cppindex/internal/diagnostics"
	"github.com/cppindex/cppindex/internal/headertracker"
)

// Result reports what one incremental pass did.
type Result struct {
	FilesAnalyzed int
	FilesRemoved  int
	Elapsed       time.Duration
}

// Coordinator owns the components an incremental pass drives. Database is
// the compile-commands snapshot the last full or incremental run used;
// callers set it once after an initial full index and the coordinator
// keeps it current as compile-commands changes are detected.
type Coordinator struct {
	Analyzer             *analyzer.Analyzer
	Scanner              *changescan.Scanner
	Graph                *depgraph.Graph
	Tracker              *headertracker.Tracker
	Cache                cache.Backend
	CompileCommandsPath  string
	Database             *argsnorm.Database
	Logger               *diagnostics.Logger
}

func (c *Coordinator) logger() *diagnostics.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return diagnostics.Global()
}

// PerformIncrementalAnalysis runs one incremental pass: scan, expand
// header changes to their transitive dependents, handle removals, and
// re-parse the resulting union set.
func (c *Coordinator) PerformIncrementalAnalysis(ctx context.Context) (Result, error) {
	start := time.Now()
	log := c.logger()

	cs, err := c.Scanner.ScanForChanges(ctx, c.Analyzer.Indexes.FileHashes())
	if err != nil {
		return Result{}, errors.Wrap(err, "scanning for changes")
	}
	if cs.IsEmpty() {
		log.Infof("incremental analysis: no changes detected")
		return Result{Elapsed: time.Since(start)}, nil
	}

	reanalyze := make(map[string]bool)
	for _, f := range cs.Added {
		reanalyze[f] = true
	}
	for _, f := range cs.ModifiedSources {
		reanalyze[f] = true
	}

	if cs.CompileCommandsChanged {
		if err := c.reloadCompileCommands(ctx, reanalyze); err != nil {
			return Result{}, err
		}
	}

	for _, header := range cs.ModifiedHeaders {
		dependents, err := c.Graph.FindTransitiveDependents(ctx, header)
		if err != nil {
			return Result{}, errors.Wrapf(err, "finding dependents of %s", header)
		}
		for _, d := range dependents {
			reanalyze[d] = true
		}
		c.Tracker.InvalidateHeader(header)
	}

	removed := 0
	for _, file := range cs.Removed {
		if err := c.Analyzer.RemoveFile(ctx, file); err != nil {
			return Result{}, errors.Wrapf(err, "removing %s", file)
		}
		delete(reanalyze, file)
		removed++
	}

	files := make([]string, 0, len(reanalyze))
	for f := range reanalyze {
		files = append(files, f)
	}
	sort.Strings(files)

	var analyzed int
	var analysisErr error
	if len(files) > 0 {
		if c.Database == nil {
			return Result{}, errors.New("incremental analysis has no compile-commands database loaded")
		}
		result := c.Analyzer.AnalyzeFiles(ctx, c.Database, files)
		analyzed = result.FilesAnalyzed
		analysisErr = result.Errors
	}

	if err := c.Cache.SaveHeaderSnapshot(ctx, cache.HeaderSnapshot(c.Tracker.GetProcessedHeaders())); err != nil {
		return Result{}, errors.Wrap(err, "saving header tracker snapshot")
	}

	elapsed := time.Since(start)
	log.Infof("incremental analysis: %d analyzed, %d removed, %s", analyzed, removed, elapsed)
	return Result{FilesAnalyzed: analyzed, FilesRemoved: removed, Elapsed: elapsed}, analysisErr
}

func (c *Coordinator) reloadCompileCommands(ctx context.Context, reanalyze map[string]bool) error {
	newDB, err := argsnorm.LoadDatabase(c.CompileCommandsPath)
	if err != nil {
		return errors.Wrap(err, "reloading compile commands database")
	}

	oldArgs := map[string][]string{}
	if c.Database != nil {
		oldArgs = c.Database.ToMap()
	}
	diff := ccdiffer.ComputeDiff(oldArgs, newDB.ToMap())
	for _, f := range diff.Added {
		reanalyze[f] = true
	}
	for _, f := range diff.Changed {
		reanalyze[f] = true
	}

	// Compile-arg changes can alter preprocessing, so every header must be
	// re-claimed by whichever TU reaches it next.
	c.Tracker.ClearAll()
	c.Database = newDB

	hash, err := contenthash.File(c.CompileCommandsPath)
	if err != nil {
		return errors.Wrap(err, "hashing compile commands database")
	}
	if err := c.Cache.SaveCompileCommandsHash(ctx, hash); err != nil {
		return errors.Wrap(err, "saving compile commands hash")
	}
	return nil
}
