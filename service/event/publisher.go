package event

import (
	"context"

	"github.com/viant/turnflow/service/messaging"
)

// Publisher publishes and consumes typed events
type Publisher[T any] struct {
	queue messaging.Queue[Event[T]]
}

// NewPublisher creates a publisher over queue
func NewPublisher[T any](queue messaging.Queue[Event[T]]) *Publisher[T] {
	return &Publisher[T]{queue: queue}
}

// Publish publishes event
func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	return p.queue.Publish(ctx, event)
}

// Consume returns the next event, acknowledging it; nil means no event is ready
func (p *Publisher[T]) Consume(ctx context.Context) (*Event[T], error) {
	msg, err := p.queue.Consume(ctx)
	if err != nil || msg == nil {
		return nil, err
	}
	if err = msg.Ack(); err != nil {
		return nil, err
	}
	return msg.T(), nil
}
