// Package filescan enumerates source and header files under a project root
// (C4), feeding both the initial analyzer pass and the change scanner.
package filescan

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// Default extension sets. Headers are scanned separately from sources so the
// header tracker, not the per-source worker loop, owns their processing.
var (
	DefaultSourceExtensions = []string{".c", ".cc", ".cpp", ".cxx", ".c++"}
	DefaultHeaderExtensions = []string{".h", ".hh", ".hpp", ".hxx", ".h++", ".inl"}
)

// Options configures a scan.
type Options struct {
	// Root is the project root to walk.
	Root string
	// ExcludeGlobs are doublestar patterns (matched against paths relative
	// to Root) that prune whole files or directories from the scan.
	ExcludeGlobs []string
	// SourceExtensions and HeaderExtensions override the defaults when set.
	SourceExtensions []string
	HeaderExtensions []string
}

// Result is the outcome of one scan.
type Result struct {
	Sources []string
	Headers []string
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func excluded(relPath string, globs []string) (bool, error) {
	relPath = filepath.ToSlash(relPath)
	for _, g := range globs {
		matched, err := doublestar.Match(g, relPath)
		if err != nil {
			return false, errors.Wrapf(err, "invalid exclusion pattern %q", g)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

// Scan walks opts.Root and returns every source and header file found,
// sorted for deterministic ordering. Symlinked directories are not
// followed; hidden directories (leading '.') are skipped.
func Scan(opts Options) (Result, error) {
	sourceExt := opts.SourceExtensions
	if sourceExt == nil {
		sourceExt = DefaultSourceExtensions
	}
	headerExt := opts.HeaderExtensions
	if headerExt == nil {
		headerExt = DefaultHeaderExtensions
	}

	var res Result
	root := opts.Root

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}

		if d.IsDir() {
			if rel != "." && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			isExcluded, exErr := excluded(rel, opts.ExcludeGlobs)
			if exErr != nil {
				return exErr
			}
			if isExcluded {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		isExcluded, exErr := excluded(rel, opts.ExcludeGlobs)
		if exErr != nil {
			return exErr
		}
		if isExcluded {
			return nil
		}

		switch {
		case hasExt(d.Name(), sourceExt):
			res.Sources = append(res.Sources, path)
		case hasExt(d.Name(), headerExt):
			res.Headers = append(res.Headers, path)
		}
		return nil
	})
	if err != nil {
		return Result{}, errors.Wrapf(err, "scanning project root %q", root)
	}

	sort.Strings(res.Sources)
	sort.Strings(res.Headers)
	return res, nil
}

// IsHeader reports whether name's extension matches the header set.
func IsHeader(name string, headerExtensions []string) bool {
	if headerExtensions == nil {
		headerExtensions = DefaultHeaderExtensions
	}
	return hasExt(name, headerExtensions)
}

// IsSource reports whether name's extension matches the source set.
func IsSource(name string, sourceExtensions []string) bool {
	if sourceExtensions == nil {
		sourceExtensions = DefaultSourceExtensions
	}
	return hasExt(name, sourceExtensions)
}
