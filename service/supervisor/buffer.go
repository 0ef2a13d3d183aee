package supervisor

import (
	"sync"

	"github.com/jobq-io/jobq/internal/clock"
	"github.com/jobq-io/jobq/model"
)

// logRing is a bounded, append-only log buffer. Writers are the per-stream
// capture loops and the supervisor itself (`system` entries); readers get
// snapshots, never live references. Oldest entries are evicted past the
// configured capacity.
type logRing struct {
	mu      sync.Mutex
	entries []model.LogEntry
	max     int
}

func newLogRing(max int) *logRing {
	if max <= 0 {
		max = DefaultConfig().MaxLogEntries
	}
	return &logRing{max: max}
}

// Append adds a log entry, evicting the oldest once past capacity.
func (r *logRing) Append(entryType, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, model.LogEntry{
		Timestamp: clock.Now(),
		Type:      entryType,
		Content:   content,
	})
	if len(r.entries) > r.max {
		r.entries = r.entries[len(r.entries)-r.max:]
	}
}

// Snapshot returns a copy of the buffered entries, optionally filtered by
// type and tail-limited to the most recent limit entries.
func (r *logRing) Snapshot(limit int, entryType string) []model.LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	source := r.entries
	var filtered []model.LogEntry
	if entryType != "" {
		for _, entry := range source {
			if entry.Type == entryType {
				filtered = append(filtered, entry)
			}
		}
		source = filtered
	}

	start := 0
	if limit > 0 && len(source) > limit {
		start = len(source) - limit
	}
	result := make([]model.LogEntry, len(source[start:]))
	copy(result, source[start:])
	return result
}

// Len returns the number of buffered entries.
func (r *logRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
