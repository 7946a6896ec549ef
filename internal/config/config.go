// Package config reads the project-level cppindex.json file naming the
// project root, compile-commands path, optional sanitization rules file,
// fallback-args toggle, cache directory, and diagnostic level.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/cppindex/cppindex/internal/diagnostics"
)

// FileName is the config file's fixed name, resolved relative to the
// project root passed to Load.
const FileName = "cppindex.json"

// jsonConfig mirrors the on-disk schema exactly.
type jsonConfig struct {
	ProjectRoot        string `json:"projectRoot"`
	CompileCommands    string `json:"compileCommands"`
	SanitizationRules  string `json:"sanitizationRules"`
	AllowFallbackArgs  bool   `json:"allowFallbackArgs"`
	CacheDir           string `json:"cacheDir"`
	DiagnosticLevel    string `json:"diagnosticLevel"`
	ParseTimeoutSecond int    `json:"parseTimeoutSeconds"`
}

// Config is the resolved, path-absolutized project configuration.
type Config struct {
	ProjectRoot       string
	CompileCommands   string
	SanitizationRules string
	AllowFallbackArgs bool
	CacheDir          string
	DiagnosticLevel   diagnostics.Level
	ParseTimeout      int
}

// defaults applied to any field the JSON file omits.
const (
	defaultCacheDir         = ".cppindex_cache"
	defaultCompileCommands  = "compile_commands.json"
	defaultDiagnosticLevel  = "info"
	defaultParseTimeoutSecs = 30
)

// Load reads dir/cppindex.json, resolving every path field relative to
// dir. A missing config file is a configuration error
// that this function reports; callers fall back to Default when they
// choose to tolerate it.
func Load(dir string) (Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading configuration file %q", path)
	}

	var raw jsonConfig
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&raw); err != nil {
		return Config{}, errors.Wrapf(err, "parsing configuration file %q", path)
	}

	return resolve(dir, raw), nil
}

// Default returns the configuration used when no cppindex.json is present
// or it fails to parse: every path defaults relative to dir.
func Default(dir string) Config {
	return resolve(dir, jsonConfig{})
}

func resolve(dir string, raw jsonConfig) Config {
	root := raw.ProjectRoot
	if root == "" {
		root = dir
	}
	root = absolutize(dir, root)

	compileCommands := raw.CompileCommands
	if compileCommands == "" {
		compileCommands = defaultCompileCommands
	}

	cacheDir := raw.CacheDir
	if cacheDir == "" {
		cacheDir = defaultCacheDir
	}

	levelName := raw.DiagnosticLevel
	if levelName == "" {
		levelName = defaultDiagnosticLevel
	}

	timeout := raw.ParseTimeoutSecond
	if timeout <= 0 {
		timeout = defaultParseTimeoutSecs
	}

	cfg := Config{
		ProjectRoot:       root,
		CompileCommands:   absolutize(root, compileCommands),
		AllowFallbackArgs: raw.AllowFallbackArgs,
		CacheDir:          absolutize(root, cacheDir),
		DiagnosticLevel:   diagnostics.ParseLevel(levelName),
		ParseTimeout:      timeout,
	}
	if raw.SanitizationRules != "" {
		cfg.SanitizationRules = absolutize(root, raw.SanitizationRules)
	}
	return cfg
}

func absolutize(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
