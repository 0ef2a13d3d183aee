package jobq

import (
	"context"

	"github.com/jobq-io/jobq/model"
	"github.com/jobq-io/jobq/service/coordinator"
	"github.com/jobq-io/jobq/service/event"
	"github.com/jobq-io/jobq/service/scheduler"
	"github.com/jobq-io/jobq/service/supervisor"
)

// Runtime is the engine's operational surface. Protocol adapters translate
// remote tool calls into these methods and serialise the returned copies;
// the runtime itself never hands out live references to engine state.
type Runtime struct {
	supervisor  *supervisor.Service
	scheduler   *scheduler.Service
	coordinator *coordinator.Service
	events      *event.Service
}

// Start restores persisted queue state (when enabled) and launches the
// coordinator's drain and persistence loops.
func (r *Runtime) Start(ctx context.Context) error {
	return r.coordinator.Start(ctx)
}

// Shutdown stops the coordinator timers with a final persistence flush,
// terminates every live process and releases the event listener.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.coordinator.Shutdown(ctx)
	err := r.supervisor.ShutdownAll(ctx, supervisor.StopOptions{})
	r.events.Shutdown()
	return err
}

// ---------------------------------------------------------------------------
// Supervisor surface
// ---------------------------------------------------------------------------

// Spawn launches a process directly under supervision.
func (r *Runtime) Spawn(ctx context.Context, request *supervisor.Request) (string, *model.ManagedProcess, error) {
	return r.supervisor.Spawn(ctx, request)
}

// Stop terminates a supervised process with graceful-then-forced
// escalation. Stopping an already-terminal process succeeds idempotently.
func (r *Runtime) Stop(ctx context.Context, id string, options supervisor.StopOptions) error {
	return r.supervisor.Stop(ctx, id, options)
}

// Status returns a copy of one process record.
func (r *Runtime) Status(id string) (*model.ManagedProcess, error) {
	return r.supervisor.Status(id)
}

// ListByStatus returns copies of processes in the given status; empty lists
// all.
func (r *Runtime) ListByStatus(status string) []*model.ManagedProcess {
	return r.supervisor.ListByStatus(status)
}

// Logs returns a tail-limited, optionally type-filtered log copy.
func (r *Runtime) Logs(id string, limit int, entryType string) ([]model.LogEntry, error) {
	return r.supervisor.Logs(id, limit, entryType)
}

// ProcessCount returns the number of known processes.
func (r *Runtime) ProcessCount() int {
	return r.supervisor.Count()
}

// ---------------------------------------------------------------------------
// Queue surface
// ---------------------------------------------------------------------------

// Admit queues a request under the priority and capacity policy and kicks
// an immediate drain pass.
func (r *Runtime) Admit(process *model.QueuedProcess) (string, error) {
	return r.coordinator.Admit(process)
}

// AdmitBatch queues several requests under a shared batch id.
func (r *Runtime) AdmitBatch(processes []*model.QueuedProcess) *model.BatchResult {
	return r.coordinator.AdmitBatch(processes)
}

// GetEntry returns a copy of one queue entry.
func (r *Runtime) GetEntry(id string) (*model.QueueEntry, error) {
	return r.scheduler.Entry(id)
}

// GetAllEntries returns copies of every queue entry.
func (r *Runtime) GetAllEntries() []*model.QueueEntry {
	return r.scheduler.Entries()
}

// Cancel removes a pending entry; it reports false for processing,
// terminal or unknown ids.
func (r *Runtime) Cancel(id string) bool {
	return r.scheduler.Cancel(id)
}

// CancelBatch cancels each given entry id.
func (r *Runtime) CancelBatch(ids []string) *model.BatchResult {
	return r.scheduler.CancelBatch(ids)
}

// Statistics returns queue counters, timings and throughput.
func (r *Runtime) Statistics() *scheduler.Statistics {
	return r.scheduler.Statistics()
}

// RunNow bypasses admission control and spawns immediately.
func (r *Runtime) RunNow(ctx context.Context, process *model.QueuedProcess) (string, *model.ManagedProcess, error) {
	return r.coordinator.RunNow(ctx, process)
}

// StartDraining resumes admission processing.
func (r *Runtime) StartDraining() {
	r.coordinator.StartDraining()
}

// StopDraining pauses admission processing without affecting running
// processes.
func (r *Runtime) StopDraining() {
	r.coordinator.StopDraining()
}

// SetListener installs the single consumer for engine events.
func (r *Runtime) SetListener(handler func(*event.Event)) {
	r.events.SetListener(handler)
}
