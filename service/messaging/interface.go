// Package messaging defines the bounded in-process queues used to fan out
// progress events and to hand journal records to background writers.
package messaging

import (
	"context"
	"errors"
)

// ErrQueueFull is returned by non-blocking publishes when the buffer is full.
var ErrQueueFull = errors.New("messaging: queue full")

// Queue is a typed message queue.
type Queue[T any] interface {
	// Publish enqueues t, blocking while the buffer is full.
	Publish(ctx context.Context, t *T) error

	// TryPublish enqueues t or fails with ErrQueueFull without waiting.
	TryPublish(t *T) error

	// Consume waits for the next message.
	Consume(ctx context.Context) (Message[T], error)
}

// Message is a delivered queue item.
type Message[T any] interface {
	T() *T

	// Ack marks the message processed.
	Ack() error

	// Nack reports a processing failure; the queue may redeliver.
	Nack(err error) error
}
