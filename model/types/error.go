package types

import "fmt"

// ValidationError rejects a malformed request before any state mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid request: %s", e.Message)
	}
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// CapacityError signals that the queue reached its configured maximum; the
// admission is rejected synchronously, never silently buffered.
type CapacityError struct {
	Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("queue is at capacity (%d)", e.Limit)
}

// NewCapacityError creates a CapacityError for the given limit.
func NewCapacityError(limit int) error {
	return &CapacityError{Limit: limit}
}

// NotFoundError signals an unknown process or queue entry id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// NewNotFoundError creates a NotFoundError for the given kind and id.
func NewNotFoundError(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// SpawnError signals that the OS failed to launch a process. It is
// surfaced as a value, never as a panic that would abort a caller's loop.
type SpawnError struct {
	Command string
	Cause   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s: %v", e.Command, e.Cause)
}

func (e *SpawnError) Unwrap() error { return e.Cause }

// NewSpawnError creates a SpawnError wrapping the OS failure.
func NewSpawnError(command string, cause error) error {
	return &SpawnError{Command: command, Cause: cause}
}

// TerminationError signals that signal delivery failed or the target process
// handle is missing.
type TerminationError struct {
	ProcessID string
	Cause     error
}

func (e *TerminationError) Error() string {
	return fmt.Sprintf("failed to terminate process %s: %v", e.ProcessID, e.Cause)
}

func (e *TerminationError) Unwrap() error { return e.Cause }

// NewTerminationError creates a TerminationError for the given process.
func NewTerminationError(processID string, cause error) error {
	return &TerminationError{ProcessID: processID, Cause: cause}
}

// PersistenceError signals an I/O failure while saving or loading a
// snapshot. Callers log it and carry on; it never corrupts in-memory state.
type PersistenceError struct {
	Location string
	Cause    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("snapshot persistence failed at %s: %v", e.Location, e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

// NewPersistenceError creates a PersistenceError for the given location.
func NewPersistenceError(location string, cause error) error {
	return &PersistenceError{Location: location, Cause: cause}
}
