package scheduler

import (
	"sort"
	"strings"
	"sync"

	"github.com/jobq-io/jobq/internal/clock"
	"github.com/jobq-io/jobq/internal/idgen"
	"github.com/jobq-io/jobq/model"
	"github.com/jobq-io/jobq/model/types"
	"github.com/jobq-io/jobq/service/event"
)

// Config represents scheduler configuration.
type Config struct {
	// MaxQueueSize caps the pending set; admission past it is rejected.
	MaxQueueSize int `json:"maxQueueSize" yaml:"maxQueueSize"`

	// MaxConcurrent caps how many entries may be processing at once.
	MaxConcurrent int `json:"maxConcurrent" yaml:"maxConcurrent"`

	// MaxRetries is the retry budget per entry. The comparison happens
	// before the increment, so an entry is attempted MaxRetries+1 times in
	// total before failing terminally.
	MaxRetries int `json:"maxRetries" yaml:"maxRetries"`

	// RetryEnabled turns the retry policy on or off.
	RetryEnabled bool `json:"retryEnabled" yaml:"retryEnabled"`
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		MaxQueueSize:  100,
		MaxConcurrent: 3,
		MaxRetries:    2,
		RetryEnabled:  true,
	}
}

// DefaultPriority is assigned when a request leaves priority unset.
const DefaultPriority = 5

// Service is the priority queue scheduler. All mutation goes through its
// methods, which serialise access; entries handed to callers are copies.
type Service struct {
	config     Config
	events     *event.Service
	mux        sync.Mutex
	pending    []*model.QueueEntry
	processing map[string]*model.QueueEntry
	history    map[string]*model.QueueEntry
	batches    map[string][]string
	order      map[string]uint64
	seq        uint64
	stats      stats
}

// New creates a scheduler service.
func New(options ...Option) *Service {
	ret := &Service{
		config:     DefaultConfig(),
		processing: make(map[string]*model.QueueEntry),
		history:    make(map[string]*model.QueueEntry),
		batches:    make(map[string][]string),
		order:      make(map[string]uint64),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Admit validates the request and inserts a pending entry, keeping the
// ordering invariant (priority descending, admission order ascending within
// equal priority). A full pending set yields a CapacityError.
func (s *Service) Admit(process *model.QueuedProcess) (string, error) {
	if process == nil {
		return "", types.NewValidationError("", "process is nil")
	}
	if strings.TrimSpace(process.Script) == "" {
		return "", types.NewValidationError("script", "script cannot be empty")
	}
	priority := process.Priority
	if priority == 0 {
		priority = DefaultPriority
	}
	if priority < model.MinPriority || priority > model.MaxPriority {
		return "", types.NewValidationError("priority", "priority must be between 1 and 10")
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	if len(s.pending) >= s.config.MaxQueueSize {
		return "", types.NewCapacityError(s.config.MaxQueueSize)
	}

	entry := &model.QueueEntry{
		ID:         idgen.New(),
		Process:    *process.Clone(),
		Status:     model.EntryPending,
		Priority:   priority,
		QueuedAt:   clock.Now(),
		MaxRetries: s.config.MaxRetries,
	}
	entry.Process.Priority = priority
	s.insertLocked(entry)
	if process.BatchID != "" {
		s.batches[process.BatchID] = append(s.batches[process.BatchID], entry.ID)
	}

	s.events.Publish(event.EntryAdmittedEvent{EntryID: entry.ID, Priority: priority, BatchID: process.BatchID})
	return entry.ID, nil
}

// insertLocked places an entry into the pending slice preserving the strict
// order: priority descending, then admission sequence ascending.
func (s *Service) insertLocked(entry *model.QueueEntry) {
	s.seq++
	s.order[entry.ID] = s.seq
	idx := sort.Search(len(s.pending), func(i int) bool {
		if s.pending[i].Priority != entry.Priority {
			return s.pending[i].Priority < entry.Priority
		}
		return s.order[s.pending[i].ID] > s.order[entry.ID]
	})
	s.pending = append(s.pending, nil)
	copy(s.pending[idx+1:], s.pending[idx:])
	s.pending[idx] = entry
}

// Next pops the highest-priority pending entry and moves it to processing.
// It returns nil when the pending set is empty or the concurrency limit is
// saturated; that nil is backpressure, not an error.
func (s *Service) Next() *model.QueueEntry {
	s.mux.Lock()
	defer s.mux.Unlock()

	if len(s.pending) == 0 || len(s.processing) >= s.config.MaxConcurrent {
		return nil
	}

	entry := s.pending[0]
	s.pending = s.pending[1:]
	entry.Start()
	s.processing[entry.ID] = entry
	s.stats.recordWait(entry.StartedAt.Sub(entry.QueuedAt))

	s.events.Publish(event.EntryStartedEvent{EntryID: entry.ID})
	return entry.Clone()
}

// Complete resolves a processing entry as successfully dispatched, linking
// the spawned process id.
func (s *Service) Complete(id, processID string) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	entry, ok := s.processing[id]
	if !ok {
		return types.NewNotFoundError("queue entry", id)
	}
	delete(s.processing, id)
	startedAt := *entry.StartedAt
	entry.Complete(processID)
	s.history[id] = entry
	s.stats.completed++
	s.stats.recordProcessing(entry.CompletedAt.Sub(startedAt))
	s.stats.recordTerminal()

	s.events.Publish(event.EntryCompletedEvent{EntryID: id, ProcessID: processID})
	s.checkBatchLocked(entry.Process.BatchID)
	return nil
}

// Fail resolves a processing entry as failed. While the retry budget allows
// (retryCount is compared before the increment), the entry is returned to
// pending with retryCount+1 and becomes eligible for Next again; otherwise
// it fails terminally.
func (s *Service) Fail(id, message string) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	entry, ok := s.processing[id]
	if !ok {
		return types.NewNotFoundError("queue entry", id)
	}
	delete(s.processing, id)

	if s.config.RetryEnabled && entry.RetryCount < entry.MaxRetries {
		entry.Requeue(message)
		s.insertLocked(entry)
		s.events.Publish(event.EntryRetriedEvent{EntryID: id, RetryCount: entry.RetryCount})
		return nil
	}

	entry.Fail(message)
	s.history[id] = entry
	s.stats.failed++
	s.stats.recordTerminal()

	s.events.Publish(event.EntryFailedEvent{EntryID: id, Error: message})
	s.checkBatchLocked(entry.Process.BatchID)
	return nil
}

// Cancel removes a pending entry. It reports false, leaving state
// untouched, for processing, terminal or unknown ids: cancelling a running
// job is the supervisor's Stop, a different lifecycle entirely.
func (s *Service) Cancel(id string) bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.cancelLocked(id)
}

func (s *Service) cancelLocked(id string) bool {
	for i, entry := range s.pending {
		if entry.ID != id {
			continue
		}
		s.pending = append(s.pending[:i], s.pending[i+1:]...)
		entry.Cancel()
		s.history[id] = entry
		s.stats.cancelled++
		s.stats.recordTerminal()

		s.events.Publish(event.EntryCancelledEvent{EntryID: id})
		s.checkBatchLocked(entry.Process.BatchID)
		return true
	}
	return false
}

// AdmitBatch admits every member under a shared batch id, reporting partial
// failure without rolling back earlier successes.
func (s *Service) AdmitBatch(processes []*model.QueuedProcess) *model.BatchResult {
	batchID := idgen.New()
	result := &model.BatchResult{BatchID: batchID, Total: len(processes)}
	for _, process := range processes {
		member := process.Clone()
		member.BatchID = batchID
		id, err := s.Admit(member)
		if err != nil {
			result.Failed = append(result.Failed, model.BatchFailure{Title: member.Title, Error: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result
}

// CancelBatch cancels each given entry id, reporting per-member outcomes.
func (s *Service) CancelBatch(ids []string) *model.BatchResult {
	result := &model.BatchResult{Total: len(ids)}
	s.mux.Lock()
	defer s.mux.Unlock()
	for _, id := range ids {
		if s.cancelLocked(id) {
			result.Succeeded = append(result.Succeeded, id)
		} else {
			result.Failed = append(result.Failed, model.BatchFailure{ID: id, Error: "entry is not pending"})
		}
	}
	return result
}

// checkBatchLocked fires the batch-completed event once every member of the
// batch has reached a terminal status.
func (s *Service) checkBatchLocked(batchID string) {
	if batchID == "" {
		return
	}
	ids, ok := s.batches[batchID]
	if !ok {
		return
	}
	summary := event.BatchCompletedEvent{BatchID: batchID}
	for _, id := range ids {
		entry, terminal := s.history[id]
		if !terminal {
			return
		}
		switch entry.Status {
		case model.EntryCompleted:
			summary.Completed++
		case model.EntryFailed:
			summary.Failed++
		case model.EntryCancelled:
			summary.Cancelled++
		}
	}
	delete(s.batches, batchID)
	s.events.Publish(summary)
}

// Entry returns a copy of one entry, wherever it lives.
func (s *Service) Entry(id string) (*model.QueueEntry, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	if entry, ok := s.processing[id]; ok {
		return entry.Clone(), nil
	}
	if entry, ok := s.history[id]; ok {
		return entry.Clone(), nil
	}
	for _, entry := range s.pending {
		if entry.ID == id {
			return entry.Clone(), nil
		}
	}
	return nil, types.NewNotFoundError("queue entry", id)
}

// Entries returns copies of every entry: pending in queue order, then
// processing, then terminal history.
func (s *Service) Entries() []*model.QueueEntry {
	s.mux.Lock()
	defer s.mux.Unlock()

	out := make([]*model.QueueEntry, 0, len(s.pending)+len(s.processing)+len(s.history))
	for _, entry := range s.pending {
		out = append(out, entry.Clone())
	}
	for _, entry := range s.processing {
		out = append(out, entry.Clone())
	}
	for _, entry := range s.history {
		out = append(out, entry.Clone())
	}
	return out
}

// Restore re-inserts previously persisted entries, preserving ids, queue
// timestamps and retry counts. Only pending entries are accepted (the
// coordinator demotes processing ones before calling); terminal entries are
// skipped. Restoration stops at queue capacity and reports how many entries
// were admitted.
func (s *Service) Restore(entries []*model.QueueEntry) int {
	s.mux.Lock()
	defer s.mux.Unlock()

	// Preserve original admission order within equal priority.
	sorted := make([]*model.QueueEntry, 0, len(entries))
	for _, entry := range entries {
		if entry == nil || entry.Status != model.EntryPending {
			continue
		}
		sorted = append(sorted, entry)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].QueuedAt.Before(sorted[j].QueuedAt)
	})

	restored := 0
	for _, entry := range sorted {
		if len(s.pending) >= s.config.MaxQueueSize {
			break
		}
		s.insertLocked(entry)
		if entry.Process.BatchID != "" {
			s.batches[entry.Process.BatchID] = append(s.batches[entry.Process.BatchID], entry.ID)
		}
		restored++
	}
	return restored
}

// Statistics returns a snapshot of queue counters and timings.
func (s *Service) Statistics() *Statistics {
	s.mux.Lock()
	defer s.mux.Unlock()

	byPriority := make(map[int]int)
	for _, entry := range s.pending {
		byPriority[entry.Priority]++
	}
	return &Statistics{
		Pending:           len(s.pending),
		Processing:        len(s.processing),
		Completed:         s.stats.completed,
		Failed:            s.stats.failed,
		Cancelled:         s.stats.cancelled,
		PendingByPriority: byPriority,
		AverageWait:       s.stats.waitAvg,
		AverageProcessing: s.stats.procAvg,
		ThroughputPerMin:  s.stats.throughput(),
	}
}
