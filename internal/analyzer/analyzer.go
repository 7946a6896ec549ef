package analyzer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/cppindex/cppindex/internal/argsnorm"
	"github.com/cppindex/cppindex/internal/cache"
	"github.com/cppindex/cppindex/internal/contenthash"
	"github.com/cppindex/cppindex/internal/depgraph"
	"github.com/cppindex/cppindex/internal/diagnostics"
	"github.com/cppindex/cppindex/internal/extractor"
	"github.com/cppindex/cppindex/internal/headertracker"
	"github.com/cppindex/cppindex/internal/symbol"
)

// AnalysisResult summarizes one AnalyzeFiles run, stamped with a
// correlation ID so it can be cross-referenced in logs.
type AnalysisResult struct {
	RunID         string
	FilesAnalyzed int
	FilesFailed   int
	Elapsed       time.Duration
	// Errors aggregates every per-file failure; nil when FilesFailed == 0.
	Errors error
}

// Analyzer drives translation-unit parsing and symbol extraction across a
// project, persisting results through Cache and Graph and reconciling
// them into Indexes.
type Analyzer struct {
	Frontend    extractor.Frontend
	Tracker     *headertracker.Tracker
	Cache       cache.Backend
	Graph       *depgraph.Graph
	Indexes     *Indexes
	Sanitizer   *argsnorm.RuleSet
	Options     argsnorm.Options
	ProjectRoot string
	// Concurrency bounds how many translation units parse at once.
	Concurrency int64
	// AllowFallbackArgs controls whether files absent from the compile
	// database get argsnorm.FallbackArgs; when false, such a file fails
	// with an error and is counted in AnalysisResult.FilesFailed.
	AllowFallbackArgs bool
	IsHeader          func(file string) bool
	Logger            *diagnostics.Logger
}

func (a *Analyzer) logger() *diagnostics.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return diagnostics.Global()
}

// AnalyzeFiles parses and indexes every file in files, each independently;
// one file's failure does not abort the others.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, db *argsnorm.Database, files []string) AnalysisResult {
	runID := uuid.NewString()
	start := time.Now()
	log := a.logger()
	log.Infof("analysis run %s: analyzing %d files", runID, len(files))

	concurrency := a.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := semaphore.NewWeighted(concurrency)

	g, gctx := errgroup.WithContext(ctx)
	results := make(chan error, len(files))

	for _, f := range files {
		file := f
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				results <- err
				return nil
			}
			defer sem.Release(1)

			err := a.analyzeOne(gctx, db, file)
			if err != nil {
				log.Warningf("run %s: %s: %v", runID, file, err)
				err = errors.Wrapf(err, "analyzing %s", file)
			}
			results <- err
			return nil
		})
	}

	// g.Wait always returns nil here: every goroutine returns nil and
	// routes its per-file failure (including a failed semaphore acquire)
	// through the results channel, so one bad file never aborts the batch.
	_ = g.Wait()
	close(results)

	var aggregated error
	analyzed, failed := 0, 0
	for err := range results {
		if err != nil {
			aggregated = multierr.Append(aggregated, err)
			failed++
			continue
		}
		analyzed++
	}

	elapsed := time.Since(start)
	log.Infof("analysis run %s: %d analyzed, %d failed, %s", runID, analyzed, failed, elapsed)

	return AnalysisResult{
		RunID:         runID,
		FilesAnalyzed: analyzed,
		FilesFailed:   failed,
		Elapsed:       elapsed,
		Errors:        aggregated,
	}
}

func (a *Analyzer) analyzeOne(ctx context.Context, db *argsnorm.Database, file string) error {
	args, err := a.argsFor(db, file)
	if err != nil {
		return err
	}

	tu, err := extractor.ParseWithRetry(ctx, a.Frontend, file, args)
	if err != nil {
		return errors.Wrap(err, "parsing translation unit")
	}
	defer tu.Dispose()

	result, err := extractor.Walk(tu, extractor.Options{
		ProjectRoot: a.ProjectRoot,
		Tracker:     a.Tracker,
		IsHeader:    a.IsHeader,
		HeaderHash:  contenthash.File,
	})
	if err != nil {
		return errors.Wrap(err, "walking translation unit")
	}

	byFile := make(map[string][]symbol.Symbol)
	for _, s := range result.Symbols {
		byFile[s.File] = append(byFile[s.File], s)
	}

	argsHash := contenthash.Args(args)
	now := time.Now()

	owned := append([]string{file}, result.ClaimedHeaders...)
	for _, owner := range owned {
		hash, err := contenthash.File(owner)
		if err != nil {
			return errors.Wrapf(err, "hashing %s", owner)
		}
		syms := byFile[owner]
		meta := cache.FileMetadata{
			FilePath:        owner,
			FileHash:        hash,
			CompileArgsHash: argsHash,
			IndexedAt:       now,
			SymbolCount:     len(syms),
		}
		if err := a.Cache.WriteFileSymbols(ctx, meta, syms, nil); err != nil {
			return errors.Wrapf(err, "persisting %s", owner)
		}
		a.Indexes.ReplaceFile(owner, syms)
		a.Indexes.SetFileHash(owner, hash)
	}

	if err := a.Graph.UpdateDependencies(ctx, file, result.Includes); err != nil {
		return errors.Wrap(err, "updating dependency graph")
	}

	return nil
}

func (a *Analyzer) argsFor(db *argsnorm.Database, file string) ([]string, error) {
	if entry, ok := db.Lookup(file); ok {
		return argsnorm.Normalize(entry, a.Sanitizer, a.Options), nil
	}
	if !a.AllowFallbackArgs {
		return nil, errors.Errorf("%s has no compile-commands entry and fallback args are disabled", file)
	}
	return argsnorm.FallbackArgs(a.ProjectRoot, a.Options), nil
}

// RemoveFile drops a deleted file's symbols, dependency edges, and index
// entries everywhere.
func (a *Analyzer) RemoveFile(ctx context.Context, file string) error {
	// Cache.DeleteFile already purges dependency edges in both directions,
	// so there is no separate Graph call to make here.
	if err := a.Cache.DeleteFile(ctx, file); err != nil {
		return errors.Wrapf(err, "deleting %s from cache", file)
	}
	a.Indexes.RemoveFile(file)
	a.Tracker.InvalidateHeader(file)
	return nil
}
