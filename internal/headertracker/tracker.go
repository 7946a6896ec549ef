// Package headertracker implements the first-win coordination protocol
// (C6) that ensures a shared header's symbols are extracted exactly once
// per content version, regardless of how many translation units
// transitively include it.
package headertracker

import "sync"

// Tracker is the thread-safe first-win coordinator. All state transitions
// execute under a single mutex; reads return copies so callers cannot
// observe or mutate internal state directly.
type Tracker struct {
	mu         sync.Mutex
	processed  map[string]string // header path -> content hash
	inProgress map[string]struct{}
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{
		processed:  make(map[string]string),
		inProgress: make(map[string]struct{}),
	}
}

// TryClaim is the single atomic critical section governing whether the
// caller should extract path's symbols.
//
// Returns false if path is already processed at contentHash (nothing to
// do), or another worker currently holds the claim. Returns true if the
// caller is the winner and must call MarkCompleted or InvalidateHeader
// when done.
func (t *Tracker) TryClaim(path, contentHash string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.processed[path]; ok {
		if existing == contentHash {
			return false
		}
		// Content changed since last processing; fall through to reclaim.
		delete(t.processed, path)
	}

	if _, busy := t.inProgress[path]; busy {
		return false
	}

	t.inProgress[path] = struct{}{}
	return true
}

// MarkCompleted records path as processed at contentHash and releases the
// in-progress claim. Must only be called by the winner of TryClaim.
func (t *Tracker) MarkCompleted(path, contentHash string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inProgress, path)
	t.processed[path] = contentHash
}

// InvalidateHeader removes path from both the processed and in-progress
// sets. Safe to call on an unknown path.
func (t *Tracker) InvalidateHeader(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.processed, path)
	delete(t.inProgress, path)
}

// ClearAll empties both sets, used when the compile-commands database
// changes (preprocessing may differ under new arguments).
func (t *Tracker) ClearAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.processed = make(map[string]string)
	t.inProgress = make(map[string]struct{})
}

// IsProcessed reports whether path is processed at exactly contentHash.
func (t *Tracker) IsProcessed(path, contentHash string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	existing, ok := t.processed[path]
	return ok && existing == contentHash
}

// GetProcessedCount returns the number of processed headers.
func (t *Tracker) GetProcessedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.processed)
}

// GetProcessedHeaders returns a snapshot copy of the processed set.
func (t *Tracker) GetProcessedHeaders() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]string, len(t.processed))
	for k, v := range t.processed {
		out[k] = v
	}
	return out
}

// RestoreProcessedHeaders replaces the processed set with snapshot,
// leaving in-progress claims untouched. Used when resuming from a
// persisted cache header-tracker snapshot.
func (t *Tracker) RestoreProcessedHeaders(snapshot map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	restored := make(map[string]string, len(snapshot))
	for k, v := range snapshot {
		restored[k] = v
	}
	t.processed = restored
}
