package event

import (
	"context"
	"errors"

	"github.com/jobq-io/jobq/service/messaging"
)

// Listener is the single consumer of the event queue. It runs one goroutine
// so handlers observe events in publish order.
type Listener struct {
	queue    messaging.Queue[Event]
	handler  func(*Event)
	ctx      context.Context
	cancelFn context.CancelFunc
	done     chan struct{}
}

// NewListener creates a listener for the supplied queue and handler.
func NewListener(queue messaging.Queue[Event], handler func(*Event)) *Listener {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener{
		queue:    queue,
		handler:  handler,
		ctx:      ctx,
		cancelFn: cancel,
		done:     make(chan struct{}),
	}
}

// Start launches the consumer goroutine.
func (l *Listener) Start() {
	go func() {
		defer close(l.done)
		for {
			msg, err := l.queue.Consume(l.ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				continue
			}
			if msg == nil {
				continue
			}
			_ = msg.Ack()
			l.handler(msg.T())
		}
	}()
}

// Stop cancels the consumer and waits for it to drain.
func (l *Listener) Stop() {
	l.cancelFn()
	<-l.done
}
