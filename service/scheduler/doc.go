// Package scheduler implements the in-memory, priority-ordered admission
// structure. It is a pure data component: no I/O, no OS interaction. Entries
// compare by priority descending, then by admission time ascending, so equal
// priorities drain in FIFO order. Next() returning nil is the backpressure
// signal when the concurrency limit is saturated; Admit rejects synchronously
// once the pending set hits its capacity.
package scheduler
