package coordinator

import (
	"time"

	"github.com/jobq-io/jobq/service/dao"
	"github.com/jobq-io/jobq/service/dao/snapshot"
	"github.com/jobq-io/jobq/service/event"
	"github.com/jobq-io/jobq/service/scheduler"
	"github.com/jobq-io/jobq/service/supervisor"
)

// Option customises the coordinator service.
type Option func(*Service)

// WithConfig replaces the whole configuration.
func WithConfig(config Config) Option {
	return func(s *Service) { s.config = config }
}

// WithScheduler sets the admission scheduler.
func WithScheduler(svc *scheduler.Service) Option {
	return func(s *Service) { s.scheduler = svc }
}

// WithSupervisor sets the process supervisor.
func WithSupervisor(svc *supervisor.Service) Option {
	return func(s *Service) { s.supervisor = svc }
}

// WithSnapshotDAO sets the snapshot store used for crash-safe persistence;
// without one, persistence and restore are disabled.
func WithSnapshotDAO(store dao.Service[string, snapshot.Document]) Option {
	return func(s *Service) { s.snapshots = store }
}

// WithEventService wires lifecycle event publishing.
func WithEventService(events *event.Service) Option {
	return func(s *Service) { s.events = events }
}

// WithDrainInterval sets the drain loop polling interval.
func WithDrainInterval(interval time.Duration) Option {
	return func(s *Service) { s.config.DrainInterval = interval }
}

// WithPersistInterval sets the snapshot interval.
func WithPersistInterval(interval time.Duration) Option {
	return func(s *Service) { s.config.PersistInterval = interval }
}

// WithoutRestore disables snapshot restoration during Start.
func WithoutRestore() Option {
	return func(s *Service) { s.config.RestoreOnStart = false }
}
