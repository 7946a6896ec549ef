package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/cppindex/cppindex/internal/analyzer"
	"github.com/cppindex/cppindex/internal/argsnorm"
	"github.com/cppindex/cppindex/internal/cache"
	"github.com/cppindex/cppindex/internal/config"
	"github.com/cppindex/cppindex/internal/depgraph"
	"github.com/cppindex/cppindex/internal/diagnostics"
	"github.com/cppindex/cppindex/internal/extractor"
	"github.com/cppindex/cppindex/internal/filescan"
	"github.com/cppindex/cppindex/internal/headertracker"
	"github.com/cppindex/cppindex/internal/session"
)

// globalSessionDir holds the last-project session file, independent of any
// single project's own cache directory.
func globalSessionDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "cppindex")
	}
	return filepath.Join(os.TempDir(), "cppindex")
}

// project bundles everything a subcommand needs to act on one project
// root: resolved configuration, an open cache backend, and an analyzer
// wired to it. openProject loads every cached file's symbols and content
// hash into the indexes, so subcommands that only read the index (search,
// stats) see what earlier runs stored; the header-tracker snapshot is not
// restored.
type project struct {
	cfg     config.Config
	logger  *diagnostics.Logger
	backend cache.Backend
	graph   *depgraph.Graph
	tracker *headertracker.Tracker
	indexes *analyzer.Indexes
	db      *argsnorm.Database
	az      *analyzer.Analyzer
}

func (p *project) Close() error {
	if p.backend != nil {
		return p.backend.Close()
	}
	return nil
}

func openProject() (*project, error) {
	sessionMgr := &session.Manager{CacheDir: globalSessionDir()}

	projectRootFlag := fProjectRoot
	if projectRootFlag == "." {
		if state, ok := sessionMgr.Load(); ok {
			if _, statErr := os.Stat(state.ProjectPath); statErr == nil {
				projectRootFlag = state.ProjectPath
				if fConfigFile == "" {
					fConfigFile = state.ConfigFile
				}
			}
		}
	}

	root, err := filepath.Abs(projectRootFlag)
	if err != nil {
		return nil, errors.Wrap(err, "resolving project root")
	}
	configDir := root
	if fConfigFile != "" {
		configDir = filepath.Dir(fConfigFile)
	}

	var cfg config.Config
	if _, statErr := os.Stat(filepath.Join(configDir, config.FileName)); statErr == nil {
		cfg, err = config.Load(configDir)
		if err != nil {
			return nil, errors.Wrap(err, "loading cppindex.json")
		}
	} else {
		cfg = config.Default(root)
	}

	log := diagnostics.New(logLevel(), os.Stderr)
	diagnostics.SetGlobal(log)

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating cache directory")
	}
	backend, err := cache.OpenSQLite(filepath.Join(cfg.CacheDir, "cppindex.sqlite"))
	if err != nil {
		return nil, errors.Wrap(err, "opening cache")
	}

	graph := depgraph.New(backend)
	tracker := headertracker.New()
	indexes := analyzer.NewIndexes()

	ctx := context.Background()
	cached, err := backend.AllFileMetadata(ctx)
	if err != nil {
		backend.Close()
		return nil, errors.Wrap(err, "loading cached file metadata")
	}
	for path, meta := range cached {
		syms, err := backend.SymbolsByFile(ctx, path)
		if err != nil {
			backend.Close()
			return nil, errors.Wrapf(err, "loading cached symbols for %s", path)
		}
		indexes.ReplaceFile(path, syms)
		indexes.SetFileHash(path, meta.FileHash)
	}

	rules, err := argsnorm.LoadDefaultRules()
	if err != nil {
		backend.Close()
		return nil, errors.Wrap(err, "loading sanitization rules")
	}
	if cfg.SanitizationRules != "" {
		rules = argsnorm.LoadRules(cfg.SanitizationRules, log)
	}

	frontend := extractor.NewClangFrontend()

	db := &argsnorm.Database{}
	if _, statErr := os.Stat(cfg.CompileCommands); statErr == nil {
		db, err = argsnorm.LoadDatabase(cfg.CompileCommands)
		if err != nil {
			backend.Close()
			return nil, errors.Wrap(err, "loading compile_commands.json")
		}
	}

	az := &analyzer.Analyzer{
		Frontend:          frontend,
		Tracker:           tracker,
		Cache:             backend,
		Graph:             graph,
		Indexes:           indexes,
		Sanitizer:         rules,
		ProjectRoot:       cfg.ProjectRoot,
		Concurrency:       4,
		AllowFallbackArgs: cfg.AllowFallbackArgs,
		IsHeader:          func(file string) bool { return filescan.IsHeader(file, filescan.DefaultHeaderExtensions) },
		Logger:            log,
	}

	sessionMgr.Logger = log
	sessionMgr.Save(root, fConfigFile)

	return &project{
		cfg:     cfg,
		logger:  log,
		backend: backend,
		graph:   graph,
		tracker: tracker,
		indexes: indexes,
		db:      db,
		az:      az,
	}, nil
}
