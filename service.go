package jobq

import (
	"log"

	"github.com/jobq-io/jobq/service/coordinator"
	"github.com/jobq-io/jobq/service/dao"
	"github.com/jobq-io/jobq/service/dao/snapshot"
	snapshotfs "github.com/jobq-io/jobq/service/dao/snapshot/fs"
	"github.com/jobq-io/jobq/service/event"
	"github.com/jobq-io/jobq/service/scheduler"
	"github.com/jobq-io/jobq/service/supervisor"
)

// Service assembles the engine: one supervisor, one scheduler and the
// coordinator binding them, plus the event service they publish through.
type Service struct {
	config      *Config
	events      *event.Service
	supervisor  *supervisor.Service
	scheduler   *scheduler.Service
	coordinator *coordinator.Service
	snapshots   dao.Service[string, snapshot.Document]
	runtime     *Runtime
}

// New creates a fully wired engine. Every collaborator can be replaced via
// options; anything not supplied is built from the configuration.
func New(options ...Option) (*Service, error) {
	ret := &Service{}
	for _, option := range options {
		option(ret)
	}
	if err := ret.init(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) init() error {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.events == nil {
		s.events = event.New()
	}
	if s.supervisor == nil {
		s.supervisor = supervisor.New(
			supervisor.WithConfig(s.config.supervisorConfig()),
			supervisor.WithEventService(s.events))
	}
	if s.scheduler == nil {
		s.scheduler = scheduler.New(
			scheduler.WithConfig(s.config.schedulerConfig()),
			scheduler.WithEventService(s.events))
	}
	if s.snapshots == nil && s.config.SnapshotLocation != "" {
		store, err := snapshotfs.New(s.config.SnapshotLocation)
		if err != nil {
			// Persistence is best-effort; the engine still runs in-memory.
			log.Printf("snapshot store unavailable at %s: %v", s.config.SnapshotLocation, err)
		} else {
			s.snapshots = store
		}
	}

	coordinatorOptions := []coordinator.Option{
		coordinator.WithConfig(s.config.coordinatorConfig()),
		coordinator.WithScheduler(s.scheduler),
		coordinator.WithSupervisor(s.supervisor),
		coordinator.WithEventService(s.events),
	}
	if s.snapshots != nil {
		coordinatorOptions = append(coordinatorOptions, coordinator.WithSnapshotDAO(s.snapshots))
	}
	var err error
	if s.coordinator, err = coordinator.New(coordinatorOptions...); err != nil {
		return err
	}

	s.runtime = &Runtime{
		supervisor:  s.supervisor,
		scheduler:   s.scheduler,
		coordinator: s.coordinator,
		events:      s.events,
	}
	return nil
}

// Runtime returns the operational API exposed to protocol adapters.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}
