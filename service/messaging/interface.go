package messaging

import (
	"context"
)

// Queue is an abstract message queue for any payload type.  The approval
// workflow publishes lifecycle events through it; the in-memory vendor is
// the default and a broker-backed implementation can be substituted without
// touching callers.
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue.
	Publish(ctx context.Context, t *T) error

	// TryPublish adds the message only when the queue can accept it
	// immediately, reporting whether it was enqueued.  Best-effort producers
	// that must never block use it instead of Publish.
	TryPublish(t *T) bool

	// Consume retrieves a single message from the queue, blocking until one
	// is available or ctx is done.
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
