package supervisor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jobq-io/jobq/internal/clock"
	"github.com/jobq-io/jobq/internal/idgen"
	"github.com/jobq-io/jobq/model"
	"github.com/jobq-io/jobq/model/types"
	"github.com/jobq-io/jobq/service/event"
	"github.com/jobq-io/jobq/tracing"
)

// Config represents supervisor configuration.
type Config struct {
	// MaxLogEntries bounds the per-process log ring buffer.
	MaxLogEntries int `json:"maxLogEntries" yaml:"maxLogEntries"`

	// StopTimeout is the graceful termination window before escalating to a
	// hard kill.
	StopTimeout time.Duration `json:"stopTimeout" yaml:"stopTimeout"`
}

// DefaultConfig returns the default supervisor configuration.
func DefaultConfig() Config {
	return Config{
		MaxLogEntries: 500,
		StopTimeout:   5 * time.Second,
	}
}

// StopOptions controls a single termination.
type StopOptions struct {
	// Force skips the graceful signal and hard-kills immediately.
	Force bool

	// Timeout overrides the configured graceful window.
	Timeout time.Duration
}

// managed pairs the canonical process record with its runtime handles. The
// record and flags are guarded by the service mutex; the log ring has its
// own lock because the capture loops write concurrently.
type managed struct {
	record        *model.ManagedProcess
	logs          *logRing
	cmd           *exec.Cmd
	done          chan struct{}
	stopRequested bool
	stopping      bool
}

// Service spawns and owns OS processes. All data returned to callers is a
// defensive copy.
type Service struct {
	config    Config
	events    *event.Service
	mux       sync.RWMutex
	processes map[string]*managed
}

// New creates a supervisor service.
func New(options ...Option) *Service {
	ret := &Service{
		config:    DefaultConfig(),
		processes: make(map[string]*managed),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Spawn validates the request, launches the OS process and starts the
// stdout/stderr capture loops plus the exit monitor. It returns the id and a
// copy of the initial record, or a typed error; an OS launch failure is
// recorded as a `failed` process and surfaced as SpawnError, never a panic.
func (s *Service) Spawn(ctx context.Context, request *Request) (string, *model.ManagedProcess, error) {
	var err error
	ctx, span := tracing.StartSpan(ctx, "supervisor.Spawn", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	if err = request.Validate(); err != nil {
		return "", nil, err
	}

	id := idgen.New()
	span.WithAttributes(map[string]string{"process.id": id, "process.title": request.Title})

	record := &model.ManagedProcess{
		ID:        id,
		Title:     request.Title,
		Name:      request.Name,
		Command:   append([]string(nil), request.Command...),
		Status:    model.ProcessStarting,
		StartTime: clock.Now(),
		Metadata:  copyMap(request.Metadata),
	}
	proc := &managed{
		record: record,
		logs:   newLogRing(s.config.MaxLogEntries),
		done:   make(chan struct{}),
	}

	cmd := exec.Command(request.Command[0], request.Command[1:]...)
	cmd.Env = mergedEnv(request.Env)
	stdout, pipeErr := cmd.StdoutPipe()
	if pipeErr == nil {
		var stderr io.ReadCloser
		stderr, pipeErr = cmd.StderrPipe()
		if pipeErr == nil {
			pipeErr = cmd.Start()
		}
		if pipeErr == nil {
			proc.cmd = cmd
			record.PID = cmd.Process.Pid
			record.Status = model.ProcessRunning

			s.mux.Lock()
			s.processes[id] = proc
			s.mux.Unlock()

			var captureWg sync.WaitGroup
			captureWg.Add(2)
			go s.capture(proc, stdout, model.LogStdout, &captureWg)
			go s.capture(proc, stderr, model.LogStderr, &captureWg)
			go s.monitor(proc, &captureWg)

			s.events.Publish(event.ProcessSpawnedEvent{ProcessID: id, Title: request.Title, PID: record.PID})
			return id, s.snapshot(proc), nil
		}
	}

	// The OS refused to start the process: the record never leaves
	// `starting` so it is finalised as failed right away.
	now := clock.Now()
	record.Status = model.ProcessFailed
	record.EndTime = &now
	proc.logs.Append(model.LogSystem, fmt.Sprintf("spawn failed: %v", pipeErr))
	close(proc.done)

	s.mux.Lock()
	s.processes[id] = proc
	s.mux.Unlock()

	err = types.NewSpawnError(request.Command[0], pipeErr)
	return id, s.snapshot(proc), err
}

// capture reads one output stream line by line into the log ring until EOF.
func (s *Service) capture(proc *managed, reader io.Reader, entryType string, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		proc.logs.Append(entryType, scanner.Text())
	}
}

// monitor waits for the process to exit, finalises the record and signals
// every waiter. It doubles as the liveness check: the blocking Wait observes
// process death regardless of who initiated it.
func (s *Service) monitor(proc *managed, captureWg *sync.WaitGroup) {
	captureWg.Wait()
	waitErr := proc.cmd.Wait()

	s.mux.Lock()
	record := proc.record
	now := clock.Now()
	record.EndTime = &now

	exitCode := proc.cmd.ProcessState.ExitCode()
	if exitCode >= 0 {
		record.ExitCode = &exitCode
	}
	if status, ok := proc.cmd.ProcessState.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		record.ExitSignal = status.Signal().String()
	}

	// A clean exit, or any exit after termination was requested, counts as
	// stopped; everything else is a failure.
	if exitCode == 0 || proc.stopRequested {
		record.Status = model.ProcessStopped
	} else {
		record.Status = model.ProcessFailed
	}
	finalStatus := record.Status
	exitSignal := record.ExitSignal
	codeCopy := record.ExitCode
	s.mux.Unlock()

	if waitErr != nil && exitCode < 0 && exitSignal == "" {
		proc.logs.Append(model.LogSystem, fmt.Sprintf("wait failed: %v", waitErr))
	}
	proc.logs.Append(model.LogSystem, fmt.Sprintf("process exited with status %s", finalStatus))
	close(proc.done)

	s.events.Publish(event.ProcessExitedEvent{
		ProcessID:  record.ID,
		Status:     finalStatus,
		ExitCode:   codeCopy,
		ExitSignal: exitSignal,
	})
}

// Stop terminates a process: graceful signal first (or a hard kill when
// forced), escalating to SIGKILL once the timeout elapses. Stopping an
// already-terminal process is a logged no-op, and concurrent calls for the
// same id are safe: only the first effective call signals and escalates,
// later callers wait for the already-running termination to finish.
func (s *Service) Stop(ctx context.Context, id string, options StopOptions) error {
	var err error
	ctx, span := tracing.StartSpan(ctx, "supervisor.Stop", "INTERNAL")
	span.WithAttributes(map[string]string{"process.id": id})
	defer func() { tracing.EndSpan(span, err) }()

	s.mux.Lock()
	proc, ok := s.processes[id]
	if !ok {
		s.mux.Unlock()
		err = types.NewNotFoundError("process", id)
		return err
	}
	if proc.record.IsTerminal() {
		s.mux.Unlock()
		proc.logs.Append(model.LogSystem, "stop requested but process already terminated")
		return nil
	}
	if proc.stopping {
		// Another stop is in flight; wait for it to take effect.
		s.mux.Unlock()
		return s.waitDone(ctx, proc)
	}
	proc.stopping = true
	proc.stopRequested = true
	proc.record.Status = model.ProcessStopping
	cmd := proc.cmd
	s.mux.Unlock()

	timeout := options.Timeout
	if timeout <= 0 {
		timeout = s.config.StopTimeout
	}

	signal := syscall.SIGTERM
	if options.Force {
		signal = syscall.SIGKILL
	}
	proc.logs.Append(model.LogSystem, fmt.Sprintf("termination started with %s", signal))

	if sigErr := cmd.Process.Signal(signal); sigErr != nil {
		// The process may already be gone; the monitor will finalise it.
		if !isProcessDone(sigErr) {
			err = types.NewTerminationError(id, sigErr)
			return err
		}
	}

	select {
	case <-proc.done:
	case <-time.After(timeout):
		proc.logs.Append(model.LogSystem, fmt.Sprintf("graceful termination timed out after %s, escalating to SIGKILL", timeout))
		if killErr := cmd.Process.Kill(); killErr != nil && !isProcessDone(killErr) {
			err = types.NewTerminationError(id, killErr)
			return err
		}
		if waitErr := s.waitDone(ctx, proc); waitErr != nil {
			err = waitErr
			return err
		}
	case <-ctx.Done():
		err = ctx.Err()
		return err
	}

	proc.logs.Append(model.LogSystem, "termination cleanup complete")
	return nil
}

// waitDone blocks until the monitor finalises the process or ctx expires.
func (s *Service) waitDone(ctx context.Context, proc *managed) error {
	select {
	case <-proc.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ShutdownAll stops every non-terminal process, tolerating individual stop
// failures so one stuck process cannot abort the remaining teardown.
func (s *Service) ShutdownAll(ctx context.Context, options StopOptions) error {
	s.mux.RLock()
	var active []string
	for id, proc := range s.processes {
		if !proc.record.IsTerminal() {
			active = append(active, id)
		}
	}
	s.mux.RUnlock()

	var errs []string
	for _, id := range active {
		if err := s.Stop(ctx, id, options); err != nil {
			errs = append(errs, fmt.Sprintf("failed to stop %s: %v", id, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Logs returns a tail-limited, optionally type-filtered copy of the
// process's log buffer.
func (s *Service) Logs(id string, limit int, entryType string) ([]model.LogEntry, error) {
	s.mux.RLock()
	proc, ok := s.processes[id]
	s.mux.RUnlock()
	if !ok {
		return nil, types.NewNotFoundError("process", id)
	}
	return proc.logs.Snapshot(limit, entryType), nil
}

// Status returns a copy of one process record.
func (s *Service) Status(id string) (*model.ManagedProcess, error) {
	s.mux.RLock()
	proc, ok := s.processes[id]
	s.mux.RUnlock()
	if !ok {
		return nil, types.NewNotFoundError("process", id)
	}
	return s.snapshot(proc), nil
}

// ListByStatus returns copies of every process currently in the given
// status; an empty status lists everything.
func (s *Service) ListByStatus(status string) []*model.ManagedProcess {
	s.mux.RLock()
	defer s.mux.RUnlock()

	var out []*model.ManagedProcess
	for _, proc := range s.processes {
		if status == "" || proc.record.Status == status {
			out = append(out, s.snapshotLocked(proc))
		}
	}
	return out
}

// Count returns the number of known processes.
func (s *Service) Count() int {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return len(s.processes)
}

// Wait blocks until the process exits or ctx expires; used by callers that
// need the terminal record.
func (s *Service) Wait(ctx context.Context, id string) (*model.ManagedProcess, error) {
	s.mux.RLock()
	proc, ok := s.processes[id]
	s.mux.RUnlock()
	if !ok {
		return nil, types.NewNotFoundError("process", id)
	}
	if err := s.waitDone(ctx, proc); err != nil {
		return nil, err
	}
	return s.snapshot(proc), nil
}

func (s *Service) snapshot(proc *managed) *model.ManagedProcess {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.snapshotLocked(proc)
}

func (s *Service) snapshotLocked(proc *managed) *model.ManagedProcess {
	ret := proc.record.Clone()
	ret.Logs = proc.logs.Snapshot(0, "")
	return ret
}

func copyMap(src map[string]string) map[string]string {
	if src == nil {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// mergedEnv layers the request environment over the host environment.
func mergedEnv(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	merged := os.Environ()
	for k, v := range env {
		merged = append(merged, fmt.Sprintf("%s=%s", k, v))
	}
	return merged
}

// isProcessDone reports whether a signal error means the process has
// already exited.
func isProcessDone(err error) bool {
	return errors.Is(err, os.ErrProcessDone) || strings.Contains(err.Error(), "process already finished")
}
