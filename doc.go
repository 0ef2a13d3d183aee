// Package jobq provides an embeddable local job-execution engine. It
// accepts requests to run external programs, admits them under a priority
// and concurrency policy, supervises their OS-level lifecycle and recovers
// admission state across restarts.
//
// The engine is built from three services:
//
//   - supervisor  – spawns and owns OS processes, captures their output and
//     drives graceful-then-forced termination
//   - scheduler   – pure in-memory, priority-ordered admission control with
//     retry policy and batch semantics
//   - coordinator – the drain loop binding the two, an immediate-bypass
//     path and crash-safe snapshot persistence
//
// Host applications interact through the high-level façade exposed by the
// root package:
//
//	srv, _ := jobq.New(jobq.WithSnapshotLocation("/var/lib/jobq"))
//	rt := srv.Runtime()
//	_ = rt.Start(ctx)
//	id, _ := rt.Admit(&model.QueuedProcess{Script: "backup.sh", Priority: 8})
//	entry, _ := rt.GetEntry(id)
//
// For details see the individual sub-packages.
package jobq
