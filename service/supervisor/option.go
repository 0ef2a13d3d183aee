package supervisor

import (
	"time"

	"github.com/jobq-io/jobq/service/event"
)

// Option customises the supervisor service.
type Option func(*Service)

// WithConfig replaces the whole configuration.
func WithConfig(config Config) Option {
	return func(s *Service) { s.config = config }
}

// WithMaxLogEntries bounds the per-process log ring buffer.
func WithMaxLogEntries(max int) Option {
	return func(s *Service) { s.config.MaxLogEntries = max }
}

// WithStopTimeout sets the graceful termination window before escalation.
func WithStopTimeout(timeout time.Duration) Option {
	return func(s *Service) { s.config.StopTimeout = timeout }
}

// WithEventService wires lifecycle event publishing.
func WithEventService(events *event.Service) Option {
	return func(s *Service) { s.events = events }
}
