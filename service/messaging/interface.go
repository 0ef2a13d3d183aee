package messaging

import (
	"context"
)

// Queue is an abstract message queue for any payload type.
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue, blocking until
	// there is room or ctx is cancelled.
	Publish(ctx context.Context, t *T) error

	// TryPublish adds a new message without blocking; it reports false when
	// the queue is full and the message was dropped.
	TryPublish(t *T) bool

	// Consume retrieves a single message from the queue.
	Consume(ctx context.Context) (Message[T], error)
}

// Message represents a message retrieved from a queue.
type Message[T any] interface {
	// T returns the payload of this message.
	T() *T

	// Ack acknowledges successful processing of this message.
	Ack() error

	// Nack indicates failure in processing this message.
	Nack(err error) error
}
