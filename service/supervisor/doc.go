// Package supervisor spawns and owns OS child processes. It captures their
// output streams into a bounded per-process log, watches for exit, and
// drives the graceful-then-forced termination state machine:
//
//	starting → running → stopping → {stopped | failed}
//
// The supervisor has no knowledge of the admission queue; the coordinator
// hands it work and routes results back.
package supervisor
