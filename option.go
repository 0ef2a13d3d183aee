package jobq

import (
	"github.com/jobq-io/jobq/service/dao"
	"github.com/jobq-io/jobq/service/dao/snapshot"
	"github.com/jobq-io/jobq/service/event"
	"github.com/jobq-io/jobq/service/scheduler"
	"github.com/jobq-io/jobq/service/supervisor"
)

// Option customises engine assembly.
type Option func(s *Service)

// WithConfig sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithSupervisor injects a pre-built process supervisor.
func WithSupervisor(svc *supervisor.Service) Option {
	return func(s *Service) { s.supervisor = svc }
}

// WithScheduler injects a pre-built admission scheduler.
func WithScheduler(svc *scheduler.Service) Option {
	return func(s *Service) { s.scheduler = svc }
}

// WithEventService sets the engine event service. Pass one explicitly when
// several engine instances must not share listeners.
func WithEventService(svc *event.Service) Option {
	return func(s *Service) { s.events = svc }
}

// WithSnapshotDAO sets the snapshot store backing queue persistence.
func WithSnapshotDAO(store dao.Service[string, snapshot.Document]) Option {
	return func(s *Service) { s.snapshots = store }
}

// WithSnapshotLocation points queue persistence at an afs URL (file, mem or
// cloud scheme); ignored when a snapshot DAO is injected directly.
func WithSnapshotLocation(location string) Option {
	return func(s *Service) {
		if s.config == nil {
			s.config = DefaultConfig()
		}
		s.config.SnapshotLocation = location
	}
}

// WithoutRestore disables snapshot restoration during Start.
func WithoutRestore() Option {
	return func(s *Service) {
		if s.config == nil {
			s.config = DefaultConfig()
		}
		s.config.Coordinator.RestoreOnStart = false
	}
}
