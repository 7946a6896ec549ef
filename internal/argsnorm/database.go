package argsnorm

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type dbEntryJSON struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Command   string   `json:"command,omitempty"`
	Arguments []string `json:"arguments,omitempty"`
}

// Database is a parsed compile_commands.json, keyed by each entry's
// absolute file path.
type Database struct {
	byFile map[string]Entry
}

// LoadDatabase parses a compile_commands.json file. A malformed top-level
// document is an error; a malformed individual entry is skipped.
func LoadDatabase(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading compile commands database %q", path)
	}

	var raw []dbEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "parsing compile commands database %q", path)
	}

	db := &Database{byFile: make(map[string]Entry, len(raw))}
	for _, e := range raw {
		if e.File == "" || e.Directory == "" {
			continue // malformed entry, skip but keep the rest usable
		}
		abs := e.File
		if !filepath.IsAbs(abs) {
			abs = filepath.Clean(filepath.Join(e.Directory, e.File))
		}
		db.byFile[abs] = Entry{
			Directory: e.Directory,
			File:      abs,
			Command:   e.Command,
			Arguments: e.Arguments,
		}
	}
	return db, nil
}

// Lookup returns the entry for absFile, if present. When both Command and
// Arguments are present on an entry, Arguments is preferred.
func (db *Database) Lookup(absFile string) (Entry, bool) {
	if db == nil {
		return Entry{}, false
	}
	e, ok := db.byFile[absFile]
	return e, ok
}

// Files returns every file path present in the database.
func (db *Database) Files() []string {
	if db == nil {
		return nil
	}
	out := make([]string, 0, len(db.byFile))
	for f := range db.byFile {
		out = append(out, f)
	}
	return out
}

// ToMap returns {file: normalized-ish raw args} for use by the
// compile-commands differ, which compares raw argument vectors across
// versions.
func (db *Database) ToMap() map[string][]string {
	if db == nil {
		return nil
	}
	out := make(map[string][]string, len(db.byFile))
	for f, e := range db.byFile {
		out[f] = e.rawArgs()
	}
	return out
}

// Len reports the number of entries in the database.
func (db *Database) Len() int {
	if db == nil {
		return 0
	}
	return len(db.byFile)
}
