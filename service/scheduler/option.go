package scheduler

import "github.com/jobq-io/jobq/service/event"

// Option customises the scheduler service.
type Option func(*Service)

// WithConfig replaces the whole configuration.
func WithConfig(config Config) Option {
	return func(s *Service) { s.config = config }
}

// WithMaxQueueSize caps the pending set.
func WithMaxQueueSize(max int) Option {
	return func(s *Service) { s.config.MaxQueueSize = max }
}

// WithMaxConcurrent caps simultaneous processing entries.
func WithMaxConcurrent(max int) Option {
	return func(s *Service) { s.config.MaxConcurrent = max }
}

// WithMaxRetries sets the per-entry retry budget.
func WithMaxRetries(max int) Option {
	return func(s *Service) { s.config.MaxRetries = max }
}

// WithRetryDisabled turns the retry policy off.
func WithRetryDisabled() Option {
	return func(s *Service) { s.config.RetryEnabled = false }
}

// WithEventService wires lifecycle event publishing.
func WithEventService(events *event.Service) Option {
	return func(s *Service) { s.events = events }
}
