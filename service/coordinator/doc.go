// Package coordinator binds the scheduler and the supervisor together. A
// periodic drain loop pulls admitted entries up to the concurrency limit and
// dispatches them to the supervisor concurrently, routing spawn results back
// into the scheduler. It also owns the persistence timer that snapshots
// queue state for restart recovery, and an immediate-bypass path that skips
// admission control entirely.
package coordinator
