package event

import (
	"time"
)

// Kind tags an engine event. The set is closed: every kind has exactly one
// payload type and consumers can switch exhaustively.
type Kind string

const (
	ProcessSpawned Kind = "process.spawned"
	ProcessExited  Kind = "process.exited"
	EntryAdmitted  Kind = "entry.admitted"
	EntryStarted   Kind = "entry.started"
	EntryCompleted Kind = "entry.completed"
	EntryFailed    Kind = "entry.failed"
	EntryRetried   Kind = "entry.retried"
	EntryCancelled Kind = "entry.cancelled"
	BatchCompleted Kind = "batch.completed"
	SnapshotSaved  Kind = "snapshot.saved"
)

// Payload is implemented by every event payload type.
type Payload interface {
	Kind() Kind
}

// Event is a single engine occurrence with its typed payload.
type Event struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Payload   Payload   `json:"payload"`
}

// Kind returns the payload's kind, or empty for a zero event.
func (e *Event) Kind() Kind {
	if e == nil || e.Payload == nil {
		return ""
	}
	return e.Payload.Kind()
}

// ProcessSpawnedEvent records a successfully launched OS process.
type ProcessSpawnedEvent struct {
	ProcessID string `json:"processId"`
	Title     string `json:"title"`
	PID       int    `json:"pid"`
}

func (ProcessSpawnedEvent) Kind() Kind { return ProcessSpawned }

// ProcessExitedEvent records a process reaching a terminal status.
type ProcessExitedEvent struct {
	ProcessID  string `json:"processId"`
	Status     string `json:"status"`
	ExitCode   *int   `json:"exitCode,omitempty"`
	ExitSignal string `json:"exitSignal,omitempty"`
}

func (ProcessExitedEvent) Kind() Kind { return ProcessExited }

// EntryAdmittedEvent records a request entering the pending set.
type EntryAdmittedEvent struct {
	EntryID  string `json:"entryId"`
	Priority int    `json:"priority"`
	BatchID  string `json:"batchId,omitempty"`
}

func (EntryAdmittedEvent) Kind() Kind { return EntryAdmitted }

// EntryStartedEvent records an entry moving to processing.
type EntryStartedEvent struct {
	EntryID string `json:"entryId"`
}

func (EntryStartedEvent) Kind() Kind { return EntryStarted }

// EntryCompletedEvent records an entry dispatched successfully.
type EntryCompletedEvent struct {
	EntryID   string `json:"entryId"`
	ProcessID string `json:"processId"`
}

func (EntryCompletedEvent) Kind() Kind { return EntryCompleted }

// EntryFailedEvent records an entry failing terminally.
type EntryFailedEvent struct {
	EntryID string `json:"entryId"`
	Error   string `json:"error"`
}

func (EntryFailedEvent) Kind() Kind { return EntryFailed }

// EntryRetriedEvent records an entry returned to pending for another
// attempt.
type EntryRetriedEvent struct {
	EntryID    string `json:"entryId"`
	RetryCount int    `json:"retryCount"`
}

func (EntryRetriedEvent) Kind() Kind { return EntryRetried }

// EntryCancelledEvent records a pending entry cancelled before dispatch.
type EntryCancelledEvent struct {
	EntryID string `json:"entryId"`
}

func (EntryCancelledEvent) Kind() Kind { return EntryCancelled }

// BatchCompletedEvent records every member of a batch reaching a terminal
// status.
type BatchCompletedEvent struct {
	BatchID   string `json:"batchId"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	Cancelled int    `json:"cancelled"`
}

func (BatchCompletedEvent) Kind() Kind { return BatchCompleted }

// SnapshotSavedEvent records a successful persistence flush.
type SnapshotSavedEvent struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
}

func (SnapshotSavedEvent) Kind() Kind { return SnapshotSaved }
