// Package messaging defines the queue abstraction carrying inbound turns and outbound replies.
package messaging

import (
	"context"
	"errors"
)

// ErrProcessed is returned when a message is acknowledged twice
var ErrProcessed = errors.New("message already processed")

// Queue represents a message queue for any payload type
type Queue[T any] interface {
	// Publish adds a message with payload to the queue
	Publish(ctx context.Context, t *T) error

	// Consume retrieves a single message; a nil message with nil error means the queue is empty
	Consume(ctx context.Context) (Message[T], error)
}

// Message represents a message retrieved from a queue
type Message[T any] interface {
	// ID returns the message identifier, stable across retries
	ID() string

	// T returns the payload of this message
	T() *T

	// Attempts returns the number of failed deliveries so far
	Attempts() int

	// Ack acknowledges successful processing of this message
	Ack() error

	// Nack indicates failure; the queue retries or dead-letters the message
	Nack(err error) error
}
