// Package analyzer implements the Analysis Orchestrator (C9): the
// in-memory indexes, the worker pool that drives the extractor across a
// project's translation units, and the definition-wins merge rule that
// reconciles a symbol seen from more than one file.
package analyzer

import (
	"sync"

	"github.com/cppindex/cppindex/internal/symbol"
)

func isClassKind(k symbol.Kind) bool {
	switch k {
	case symbol.KindClass, symbol.KindStruct, symbol.KindClassTemplate, symbol.KindPartialSpecialization:
		return true
	default:
		return false
	}
}

func isFunctionKind(k symbol.Kind) bool {
	switch k {
	case symbol.KindFunction, symbol.KindMethod, symbol.KindFunctionTemplate:
		return true
	default:
		return false
	}
}

// Indexes holds the process-wide symbol tables, guarded by one
// reader-writer lock. ReplaceFile, RemoveFile and SetFileHash are the
// mutating entry points; everything else is a read.
type Indexes struct {
	mu sync.RWMutex

	usrIndex      map[string]symbol.Symbol
	classIndex    map[string][]string
	functionIndex map[string][]string
	fileIndex     map[string][]string
	// fileSymbols holds every symbol a file currently contributes, win or
	// lose. A header's own declaration of something whose richer definition
	// lives in a .cpp stays here even after the merge evicts it from
	// usrIndex, so a file_name search filter still finds it.
	fileSymbols map[string][]symbol.Symbol
	fileHashes  map[string]string
}

// NewIndexes returns an empty index set.
func NewIndexes() *Indexes {
	return &Indexes{
		usrIndex:      make(map[string]symbol.Symbol),
		classIndex:    make(map[string][]string),
		functionIndex: make(map[string][]string),
		fileIndex:     make(map[string][]string),
		fileSymbols:   make(map[string][]symbol.Symbol),
		fileHashes:    make(map[string]string),
	}
}

// ReplaceFile atomically swaps file's contribution to the indexes for syms.
// A symbol already present under an equally rich or richer record
// contributed by another file is left untouched (the definition-wins rule); symbols this file
// previously won but no longer contributes are evicted.
func (idx *Indexes) ReplaceFile(file string, syms []symbol.Symbol) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, key := range idx.fileIndex[file] {
		if existing, ok := idx.usrIndex[key]; ok && existing.File == file {
			idx.evictFromNameIndexLocked(existing, key)
			delete(idx.usrIndex, key)
		}
	}

	owned := make([]string, 0, len(syms))
	for _, s := range syms {
		key := s.Key()
		if existing, ok := idx.usrIndex[key]; ok {
			if existing.Richness() >= s.Richness() {
				continue
			}
			// existing was contributed by another file (this file's own
			// prior entries were already evicted above); drop its stale
			// name-index entry before the richer record takes its place,
			// or classIndex/functionIndex ends up with key listed twice.
			idx.evictFromNameIndexLocked(existing, key)
		}
		idx.usrIndex[key] = s
		idx.addToNameIndexLocked(s, key)
		owned = append(owned, key)
	}

	if len(owned) == 0 {
		delete(idx.fileIndex, file)
	} else {
		idx.fileIndex[file] = owned
	}

	if len(syms) == 0 {
		delete(idx.fileSymbols, file)
	} else {
		idx.fileSymbols[file] = append([]symbol.Symbol(nil), syms...)
	}
}

// RemoveFile evicts every symbol this file currently owns, used when a
// source is deleted from the project.
func (idx *Indexes) RemoveFile(file string) {
	idx.ReplaceFile(file, nil)
	idx.mu.Lock()
	delete(idx.fileHashes, file)
	idx.mu.Unlock()
}

func (idx *Indexes) addToNameIndexLocked(s symbol.Symbol, key string) {
	switch {
	case isClassKind(s.Kind):
		idx.classIndex[s.QualifiedName] = append(idx.classIndex[s.QualifiedName], key)
	case isFunctionKind(s.Kind):
		idx.functionIndex[s.QualifiedName] = append(idx.functionIndex[s.QualifiedName], key)
	}
}

func (idx *Indexes) evictFromNameIndexLocked(s symbol.Symbol, key string) {
	var bucket map[string][]string
	switch {
	case isClassKind(s.Kind):
		bucket = idx.classIndex
	case isFunctionKind(s.Kind):
		bucket = idx.functionIndex
	default:
		return
	}
	keys := bucket[s.QualifiedName]
	for i, k := range keys {
		if k == key {
			keys = append(keys[:i], keys[i+1:]...)
			break
		}
	}
	if len(keys) == 0 {
		delete(bucket, s.QualifiedName)
	} else {
		bucket[s.QualifiedName] = keys
	}
}

// BySymbolKey returns the winning symbol for key (USR or synthetic).
func (idx *Indexes) BySymbolKey(key string) (symbol.Symbol, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	s, ok := idx.usrIndex[key]
	return s, ok
}

// ClassesByName returns every class-like symbol currently indexed under
// qualifiedName.
func (idx *Indexes) ClassesByName(qualifiedName string) []symbol.Symbol {
	return idx.resolve(idx.classIndex, qualifiedName)
}

// FunctionsByName returns every callable symbol currently indexed under
// qualifiedName.
func (idx *Indexes) FunctionsByName(qualifiedName string) []symbol.Symbol {
	return idx.resolve(idx.functionIndex, qualifiedName)
}

func (idx *Indexes) resolve(bucket map[string][]string, qualifiedName string) []symbol.Symbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	keys := bucket[qualifiedName]
	out := make([]symbol.Symbol, 0, len(keys))
	for _, k := range keys {
		if s, ok := idx.usrIndex[k]; ok {
			out = append(out, s)
		}
	}
	return out
}

// AllSymbols returns every currently-winning symbol, used by the search
// engine's regex/unqualified/suffix scans.
func (idx *Indexes) AllSymbols() []symbol.Symbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]symbol.Symbol, 0, len(idx.usrIndex))
	for _, s := range idx.usrIndex {
		out = append(out, s)
	}
	return out
}

// SymbolsInFile returns every symbol file currently contributes, regardless
// of whether it won the definition-wins merge against another file.
func (idx *Indexes) SymbolsInFile(file string) []symbol.Symbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]symbol.Symbol(nil), idx.fileSymbols[file]...)
}

// Files returns every file path currently contributing at least one symbol.
func (idx *Indexes) Files() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]string, 0, len(idx.fileSymbols))
	for f := range idx.fileSymbols {
		out = append(out, f)
	}
	return out
}

// FileHash returns the content hash file was last indexed at.
func (idx *Indexes) FileHash(file string) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	h, ok := idx.fileHashes[file]
	return h, ok
}

// SetFileHash records the content hash file was indexed at.
func (idx *Indexes) SetFileHash(file, hash string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.fileHashes[file] = hash
}

// FileHashes returns a snapshot of every recorded file hash, used by the
// change scanner to diff against the filesystem's current state.
func (idx *Indexes) FileHashes() map[string]string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make(map[string]string, len(idx.fileHashes))
	for f, h := range idx.fileHashes {
		out[f] = h
	}
	return out
}

// SymbolCount returns the number of currently-winning symbol records.
func (idx *Indexes) SymbolCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.usrIndex)
}
