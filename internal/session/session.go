// Package session persists the last project directory a caller pointed
// this indexer at, so a restart can resume without re-asking.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/cppindex/cppindex/internal/diagnostics"
)

// State is the on-disk session record.
type State struct {
	ProjectPath  string    `json:"project_path"`
	ConfigFile   string    `json:"config_file,omitempty"`
	LastAccessed time.Time `json:"last_accessed"`
	Version      string    `json:"version"`
}

// CurrentVersion is stamped into every session State this package writes.
const CurrentVersion = "1.0"

// Manager reads and writes the session file under a cache directory.
type Manager struct {
	CacheDir string
	Logger   *diagnostics.Logger
}

func (m *Manager) logger() *diagnostics.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return diagnostics.Global()
}

func (m *Manager) path() string {
	return filepath.Join(m.CacheDir, "session.json")
}

// Save writes the session state atomically (temp file + rename). Failure
// to save is logged and swallowed: losing the session file never aborts
// the caller's actual work.
func (m *Manager) Save(projectPath, configFile string) {
	log := m.logger()
	state := State{
		ProjectPath:  projectPath,
		ConfigFile:   configFile,
		LastAccessed: time.Now().UTC(),
		Version:      CurrentVersion,
	}

	if err := m.save(state); err != nil {
		log.Warningf("failed to save session: %v", err)
		return
	}
	log.Debugf("session saved: %s", projectPath)
}

func (m *Manager) save(state State) error {
	if err := os.MkdirAll(m.CacheDir, 0755); err != nil {
		return errors.Wrapf(err, "creating cache directory %q", m.CacheDir)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding session state")
	}

	tmp, err := os.CreateTemp(m.CacheDir, ".session-*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp session file")
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "writing temp session file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "closing temp session file")
	}
	if err := os.Rename(tmpPath, m.path()); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "renaming temp session file into place")
	}
	return nil
}

// Load returns the last saved session, or ok=false if none exists, the
// file is unreadable, or its project_path no longer names an existing
// directory.
func (m *Manager) Load() (State, bool) {
	log := m.logger()
	data, err := os.ReadFile(m.path())
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warningf("failed to read session file: %v", err)
		}
		return State{}, false
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		log.Warningf("failed to parse session file: %v", err)
		return State{}, false
	}

	if state.ProjectPath == "" {
		log.Warningf("session file missing project_path")
		return State{}, false
	}

	info, err := os.Stat(state.ProjectPath)
	if err != nil || !info.IsDir() {
		log.Infof("saved project directory no longer exists: %s", state.ProjectPath)
		return State{}, false
	}

	log.Debugf("session loaded: %s", state.ProjectPath)
	return state, true
}

// Clear removes the session file, tolerating its absence.
func (m *Manager) Clear() error {
	if err := os.Remove(m.path()); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "clearing session file")
	}
	return nil
}

// HasSession reports whether a session file is present, without
// validating its contents.
func (m *Manager) HasSession() bool {
	_, err := os.Stat(m.path())
	return err == nil
}
