// Package model defines the engine's domain records: ManagedProcess (the
// supervisor's view of a spawned OS process), QueuedProcess/QueueEntry (the
// scheduler's admission book-keeping) and BatchResult. All records returned
// to callers are defensive copies produced via Clone.
package model
