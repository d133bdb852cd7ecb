package event

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const idleDelay = 50 * time.Millisecond

// Listener drains a publisher and invokes a handler per event
type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	cancel    context.CancelFunc
	done      chan struct{}
	once      sync.Once
}

// NewListener creates a listener
func NewListener[T any](publisher *Publisher[T], handler func(*Event[T])) *Listener[T] {
	return &Listener[T]{publisher: publisher, handler: handler, done: make(chan struct{})}
}

// Start consumes events in a goroutine until ctx is done or Stop is called
func (l *Listener[T]) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	go func() {
		defer close(l.done)
		for {
			if ctx.Err() != nil {
				return
			}
			event, err := l.publisher.Consume(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				slog.Error("failed to consume event", "error", err)
			}
			if event == nil {
				select {
				case <-ctx.Done():
					return
				case <-time.After(idleDelay):
				}
				continue
			}
			l.handler(event)
		}
	}()
}

// Stop stops consuming and waits for the running handler to return
func (l *Listener[T]) Stop() {
	l.once.Do(func() {
		if l.cancel == nil {
			close(l.done)
			return
		}
		l.cancel()
	})
	<-l.done
}
