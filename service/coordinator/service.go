package coordinator

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jobq-io/jobq/model"
	"github.com/jobq-io/jobq/service/dao"
	"github.com/jobq-io/jobq/service/dao/snapshot"
	"github.com/jobq-io/jobq/service/event"
	"github.com/jobq-io/jobq/service/scheduler"
	"github.com/jobq-io/jobq/service/supervisor"
	"github.com/jobq-io/jobq/tracing"
)

// Config represents coordinator configuration.
type Config struct {
	// DrainInterval is how often the drain loop polls the scheduler. A
	// drain pass also runs immediately after every admission.
	DrainInterval time.Duration `json:"drainInterval" yaml:"drainInterval"`

	// PersistInterval is how often queue state is snapshotted.
	PersistInterval time.Duration `json:"persistInterval" yaml:"persistInterval"`

	// SnapshotName keys the snapshot document in the store.
	SnapshotName string `json:"snapshotName" yaml:"snapshotName"`

	// RestoreOnStart reloads the snapshot during Start.
	RestoreOnStart bool `json:"restoreOnStart" yaml:"restoreOnStart"`
}

// DefaultConfig returns the default coordinator configuration.
func DefaultConfig() Config {
	return Config{
		DrainInterval:   time.Second,
		PersistInterval: 30 * time.Second,
		SnapshotName:    snapshot.DefaultName,
		RestoreOnStart:  true,
	}
}

// Service owns one scheduler and one supervisor and closes the admission
// loop between them each drain cycle.
type Service struct {
	config     Config
	scheduler  *scheduler.Service
	supervisor *supervisor.Service
	snapshots  dao.Service[string, snapshot.Document]
	events     *event.Service

	draining   atomic.Bool
	started    atomic.Bool
	kick       chan struct{}
	shutdownCh chan struct{}
	loopWg     sync.WaitGroup
	dispatchWg sync.WaitGroup
}

// New creates a coordinator service.
func New(options ...Option) (*Service, error) {
	ret := &Service{
		config:     DefaultConfig(),
		kick:       make(chan struct{}, 1),
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.scheduler == nil {
		return nil, errors.New("scheduler is required")
	}
	if ret.supervisor == nil {
		return nil, errors.New("supervisor is required")
	}
	return ret, nil
}

// Start restores persisted queue state (when enabled) and launches the
// drain and persistence loops. It is idempotent.
func (s *Service) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}
	if s.config.RestoreOnStart && s.snapshots != nil {
		if err := s.restore(ctx); err != nil {
			log.Printf("queue restore failed: %v", err)
		}
	}
	s.draining.Store(true)

	s.loopWg.Add(1)
	go s.drainLoop(ctx)
	if s.snapshots != nil {
		s.loopWg.Add(1)
		go s.persistLoop(ctx)
	}
	return nil
}

// drainLoop runs a drain pass on every tick and whenever an admission kicks
// it.
func (s *Service) drainLoop(ctx context.Context) {
	defer s.loopWg.Done()
	ticker := time.NewTicker(s.config.DrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdownCh:
			return
		case <-ticker.C:
			s.drain(ctx)
		case <-s.kick:
			s.drain(ctx)
		}
	}
}

// drain pulls entries until the scheduler signals backpressure, dispatching
// each concurrently. One bad entry never stops the pass: spawn failures are
// routed into Scheduler.Fail and stay subject to the retry policy.
func (s *Service) drain(ctx context.Context) {
	if !s.draining.Load() {
		return
	}
	for {
		entry := s.scheduler.Next()
		if entry == nil {
			return
		}
		s.dispatchWg.Add(1)
		go func(entry *model.QueueEntry) {
			defer s.dispatchWg.Done()
			s.dispatch(ctx, entry)
		}(entry)
	}
}

// dispatch hands one entry to the supervisor and routes the result back.
func (s *Service) dispatch(ctx context.Context, entry *model.QueueEntry) {
	var err error
	ctx, span := tracing.StartSpan(ctx, "coordinator.dispatch", "INTERNAL")
	span.WithAttributes(map[string]string{"entry.id": entry.ID, "entry.title": entry.Process.Title})
	defer func() { tracing.EndSpan(span, err) }()

	processID, _, err := s.supervisor.Spawn(ctx, requestFrom(&entry.Process))
	if err != nil {
		if failErr := s.scheduler.Fail(entry.ID, err.Error()); failErr != nil {
			log.Printf("failed to record dispatch failure for %s: %v", entry.ID, failErr)
		}
		// The entry may have been requeued for retry; let the next pass
		// pick it up promptly.
		s.signalDrain()
		return
	}
	if compErr := s.scheduler.Complete(entry.ID, processID); compErr != nil {
		log.Printf("failed to record dispatch completion for %s: %v", entry.ID, compErr)
	}
}

// requestFrom converts a queued request into a supervisor spawn request.
func requestFrom(process *model.QueuedProcess) *supervisor.Request {
	command := append([]string{process.Script}, process.Args...)
	return &supervisor.Request{
		Title:    process.Title,
		Name:     process.Name,
		Command:  command,
		Env:      process.Env,
		Metadata: process.Metadata,
	}
}

// Admit adds a request to the queue and kicks an immediate drain pass.
func (s *Service) Admit(process *model.QueuedProcess) (string, error) {
	id, err := s.scheduler.Admit(process)
	if err != nil {
		return "", err
	}
	s.signalDrain()
	return id, nil
}

// AdmitBatch admits every member and kicks an immediate drain pass when at
// least one admission succeeded.
func (s *Service) AdmitBatch(processes []*model.QueuedProcess) *model.BatchResult {
	result := s.scheduler.AdmitBatch(processes)
	if len(result.Succeeded) > 0 {
		s.signalDrain()
	}
	return result
}

// RunNow bypasses the scheduler entirely and spawns immediately. It is
// intentionally exempt from concurrency and capacity protection; callers
// accept the risk of exceeding the configured limits.
func (s *Service) RunNow(ctx context.Context, process *model.QueuedProcess) (string, *model.ManagedProcess, error) {
	return s.supervisor.Spawn(ctx, requestFrom(process))
}

// StartDraining resumes admission processing.
func (s *Service) StartDraining() {
	s.draining.Store(true)
	s.signalDrain()
}

// StopDraining pauses admission processing without affecting processes that
// are already running.
func (s *Service) StopDraining() {
	s.draining.Store(false)
}

// signalDrain requests an immediate drain pass without blocking.
func (s *Service) signalDrain() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// persistLoop snapshots queue state on a fixed interval.
func (s *Service) persistLoop(ctx context.Context) {
	defer s.loopWg.Done()
	ticker := time.NewTicker(s.config.PersistInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdownCh:
			return
		case <-ticker.C:
			s.persist(ctx)
		}
	}
}

// persist writes every scheduler entry (pending, processing and history) to
// the snapshot store. Persistence errors are logged and otherwise ignored;
// they never corrupt or abort in-memory state.
func (s *Service) persist(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	var err error
	ctx, span := tracing.StartSpan(ctx, "coordinator.persist", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	entries := s.scheduler.Entries()
	document := snapshot.New(s.config.SnapshotName, entries)
	if err = s.snapshots.Save(ctx, document); err != nil {
		log.Printf("failed to persist queue snapshot: %v", err)
		return
	}
	s.events.Publish(event.SnapshotSavedEvent{Name: document.Name, Entries: len(entries)})
}

// restore reloads the snapshot and re-admits pending and processing
// entries. An entry found in processing state is demoted to pending with
// its start time and process link cleared: the OS process it referenced
// cannot have survived the restart. This is a deliberate, lossy recovery
// policy; a job genuinely still running at crash time is not re-adopted.
func (s *Service) restore(ctx context.Context) error {
	document, err := s.snapshots.Load(ctx, s.config.SnapshotName)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil
		}
		return err
	}

	var restorable []*model.QueueEntry
	for _, entry := range document.Entries {
		switch entry.Status {
		case model.EntryPending:
			restorable = append(restorable, entry)
		case model.EntryProcessing:
			entry.Status = model.EntryPending
			entry.StartedAt = nil
			entry.ProcessID = ""
			restorable = append(restorable, entry)
		}
	}
	restored := s.scheduler.Restore(restorable)
	if restored < len(restorable) {
		log.Printf("queue restore truncated: %d of %d entries re-admitted", restored, len(restorable))
	}
	return nil
}

// Shutdown stops both timers, waits for in-flight dispatches and performs
// one final persistence flush. It is idempotent.
func (s *Service) Shutdown(ctx context.Context) {
	if !s.started.CompareAndSwap(true, false) {
		return
	}
	s.draining.Store(false)
	close(s.shutdownCh)
	s.loopWg.Wait()
	s.dispatchWg.Wait()
	s.persist(ctx)
}
