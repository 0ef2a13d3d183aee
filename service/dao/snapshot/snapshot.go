// Package snapshot defines the persisted queue snapshot document and its
// stores. A snapshot captures every scheduler entry (pending, processing and
// terminal history) so that admission state survives an engine restart.
package snapshot

import (
	"time"

	"github.com/jobq-io/jobq/internal/clock"
	"github.com/jobq-io/jobq/model"
)

// CurrentVersion is the snapshot format version written by this engine.
// Loading tolerates a mismatch: the store logs and attempts a best-effort
// decode rather than hard-failing.
const CurrentVersion = 1

// DefaultName is the snapshot key used when the caller does not name one.
const DefaultName = "queue"

// Document is a point-in-time capture of scheduler state.
type Document struct {
	Name    string              `json:"name"`
	Version int                 `json:"version"`
	SavedAt time.Time           `json:"savedAt"`
	Entries []*model.QueueEntry `json:"entries"`
}

// New creates a document stamped with the current time and format version.
func New(name string, entries []*model.QueueEntry) *Document {
	if name == "" {
		name = DefaultName
	}
	return &Document{
		Name:    name,
		Version: CurrentVersion,
		SavedAt: clock.Now(),
		Entries: entries,
	}
}
