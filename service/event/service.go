package event

import (
	"sync/atomic"

	"github.com/jobq-io/jobq/internal/clock"
	"github.com/jobq-io/jobq/internal/idgen"
	"github.com/jobq-io/jobq/service/messaging"
	"github.com/jobq-io/jobq/service/messaging/memory"
)

// Service delivers engine events to a single consumer through a bounded
// queue. Publishing never blocks the engine: when the queue is full the
// event is dropped and counted.
type Service struct {
	queue    messaging.Queue[Event]
	listener *Listener
	dropped  atomic.Int64
}

// New creates an event service. When no queue option is supplied an
// in-memory queue with default buffering is used.
func New(opts ...Option) *Service {
	ret := &Service{}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.queue == nil {
		ret.queue = memory.NewQueue[Event](memory.DefaultConfig())
	}
	return ret
}

// Publish enqueues an event for the listener. A full queue drops the event.
func (s *Service) Publish(payload Payload) {
	if s == nil || payload == nil {
		return
	}
	anEvent := Event{
		ID:        idgen.New(),
		CreatedAt: clock.Now(),
		Payload:   payload,
	}
	if !s.queue.TryPublish(&anEvent) {
		s.dropped.Add(1)
	}
}

// Dropped returns the number of events discarded because the queue was full.
func (s *Service) Dropped() int64 {
	return s.dropped.Load()
}

// SetListener installs the single consumer, replacing any previous one.
func (s *Service) SetListener(handler func(*Event)) {
	if s.listener != nil {
		s.listener.Stop()
	}
	s.listener = NewListener(s.queue, handler)
	s.listener.Start()
}

// Shutdown stops the listener and releases it.
func (s *Service) Shutdown() {
	if s.listener != nil {
		s.listener.Stop()
		s.listener = nil
	}
}

// Queue exposes the underlying queue, mainly for tests.
func (s *Service) Queue() messaging.Queue[Event] {
	return s.queue
}
