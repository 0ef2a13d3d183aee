package event

import "github.com/jobq-io/jobq/service/messaging"

// Option customises the event service.
type Option func(*Service)

// WithQueue sets the transport used to deliver events to the listener.
func WithQueue(queue messaging.Queue[Event]) Option {
	return func(s *Service) { s.queue = queue }
}
