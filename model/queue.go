package model

import (
	"time"

	"github.com/jobq-io/jobq/internal/clock"
)

// Queue entry status constants
const (
	EntryPending    = "pending"
	EntryProcessing = "processing"
	EntryCompleted  = "completed"
	EntryFailed     = "failed"
	EntryCancelled  = "cancelled"
)

// Priority bounds for queued processes; higher executes sooner.
const (
	MinPriority = 1
	MaxPriority = 10
)

// QueuedProcess is a request to eventually run an external program.
type QueuedProcess struct {
	Script   string            `json:"script"`
	Title    string            `json:"title"`
	Args     []string          `json:"args,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
	Name     string            `json:"name,omitempty"`
	Priority int               `json:"priority"`
	BatchID  string            `json:"batchId,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Clone returns a deep copy of the request.
func (p *QueuedProcess) Clone() *QueuedProcess {
	if p == nil {
		return nil
	}
	ret := *p
	ret.Args = append([]string(nil), p.Args...)
	if p.Env != nil {
		ret.Env = make(map[string]string, len(p.Env))
		for k, v := range p.Env {
			ret.Env[k] = v
		}
	}
	if p.Metadata != nil {
		ret.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			ret.Metadata[k] = v
		}
	}
	return &ret
}

// QueueEntry is the scheduler's book-keeping record for one QueuedProcess as
// it moves through admission. Status transitions are monotone:
// pending → processing → {completed | failed | pending(retry)} and
// pending → cancelled. Once terminal an entry leaves the active sets.
type QueueEntry struct {
	ID          string        `json:"id"`
	Process     QueuedProcess `json:"process"`
	Status      string        `json:"status"`
	Priority    int           `json:"priority"`
	QueuedAt    time.Time     `json:"queuedAt"`
	StartedAt   *time.Time    `json:"startedAt,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
	ProcessID   string        `json:"processId,omitempty"`
	Error       string        `json:"error,omitempty"`
	RetryCount  int           `json:"retryCount"`
	MaxRetries  int           `json:"maxRetries"`
}

// IsTerminal reports whether the entry has reached a final status.
func (e *QueueEntry) IsTerminal() bool {
	switch e.Status {
	case EntryCompleted, EntryFailed, EntryCancelled:
		return true
	}
	return false
}

// Start marks the entry as picked up for processing.
func (e *QueueEntry) Start() {
	now := clock.Now()
	e.StartedAt = &now
	e.Status = EntryProcessing
}

// Complete marks the entry as successfully dispatched, linking the spawned
// process.
func (e *QueueEntry) Complete(processID string) {
	now := clock.Now()
	e.CompletedAt = &now
	e.ProcessID = processID
	e.Status = EntryCompleted
}

// Fail marks the entry terminally failed.
func (e *QueueEntry) Fail(message string) {
	now := clock.Now()
	e.CompletedAt = &now
	e.Error = message
	e.Status = EntryFailed
}

// Requeue returns the entry to the pending set for another attempt.
func (e *QueueEntry) Requeue(message string) {
	e.RetryCount++
	e.Error = message
	e.StartedAt = nil
	e.Status = EntryPending
}

// Cancel marks the entry cancelled.
func (e *QueueEntry) Cancel() {
	now := clock.Now()
	e.CompletedAt = &now
	e.Status = EntryCancelled
}

// Clone returns a deep copy safe to hand outside the scheduler.
func (e *QueueEntry) Clone() *QueueEntry {
	if e == nil {
		return nil
	}
	ret := *e
	ret.Process = *e.Process.Clone()
	if e.StartedAt != nil {
		startedAt := *e.StartedAt
		ret.StartedAt = &startedAt
	}
	if e.CompletedAt != nil {
		completedAt := *e.CompletedAt
		ret.CompletedAt = &completedAt
	}
	return &ret
}

// BatchResult reports the outcome of a batch operation. Partial failure is
// expected; earlier successes are never rolled back.
type BatchResult struct {
	BatchID   string         `json:"batchId"`
	Succeeded []string       `json:"succeeded,omitempty"`
	Failed    []BatchFailure `json:"failed,omitempty"`
	Total     int            `json:"total"`
}

// BatchFailure pairs a batch member with the error that rejected it.
type BatchFailure struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
	Error string `json:"error"`
}
