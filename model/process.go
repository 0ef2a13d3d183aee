package model

import (
	"time"
)

// Process status constants
const (
	ProcessStarting = "starting"
	ProcessRunning  = "running"
	ProcessStopping = "stopping"
	ProcessStopped  = "stopped"
	ProcessFailed   = "failed"
)

// Log entry types
const (
	LogStdout = "stdout"
	LogStderr = "stderr"
	LogSystem = "system"
)

// LogEntry is a single captured output line or supervisor event. Entries are
// append-only; `system` entries record supervisor-internal events such as
// termination start, escalation and cleanup.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
}

// ManagedProcess is the supervisor's book-keeping record for one spawned OS
// process. The supervisor's registry exclusively owns the canonical instance;
// anything handed to callers is a Clone so external code cannot mutate engine
// state.
type ManagedProcess struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Name       string            `json:"name,omitempty"`
	Command    []string          `json:"command"`
	Status     string            `json:"status"`
	StartTime  time.Time         `json:"startTime"`
	EndTime    *time.Time        `json:"endTime,omitempty"`
	PID        int               `json:"pid,omitempty"`
	Logs       []LogEntry        `json:"logs,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	ExitCode   *int              `json:"exitCode,omitempty"`
	ExitSignal string            `json:"exitSignal,omitempty"`
}

// IsTerminal reports whether the process has reached a final status.
func (p *ManagedProcess) IsTerminal() bool {
	return p.Status == ProcessStopped || p.Status == ProcessFailed
}

// Clone returns a deep copy safe to hand outside the supervisor.
func (p *ManagedProcess) Clone() *ManagedProcess {
	if p == nil {
		return nil
	}
	ret := *p
	ret.Command = append([]string(nil), p.Command...)
	if p.Logs != nil {
		ret.Logs = append([]LogEntry(nil), p.Logs...)
	}
	if p.Metadata != nil {
		ret.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			ret.Metadata[k] = v
		}
	}
	if p.EndTime != nil {
		endTime := *p.EndTime
		ret.EndTime = &endTime
	}
	if p.ExitCode != nil {
		code := *p.ExitCode
		ret.ExitCode = &code
	}
	return &ret
}
