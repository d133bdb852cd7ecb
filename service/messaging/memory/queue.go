package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/turnflow/service/messaging"
)

// Config for memory queue implementation
type Config struct {
	MaxRetries  int           `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`
	RetryDelay  time.Duration `json:"retryDelay,omitempty" yaml:"retryDelay,omitempty"`
	DeadLetter  bool          `json:"deadLetter,omitempty" yaml:"deadLetter,omitempty"`
	QueueBuffer int           `json:"queueBuffer,omitempty" yaml:"queueBuffer,omitempty"`
}

// DefaultConfig returns a standard configuration for memory queue
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		RetryDelay:  100 * time.Millisecond,
		DeadLetter:  true,
		QueueBuffer: 100,
	}
}

// Message is an in-memory queue entry
type Message[T any] struct {
	id        string
	payload   T
	queue     *Queue[T]
	attempts  int
	lastError string
	mu        sync.Mutex
	processed bool
}

// ID returns message id
func (m *Message[T]) ID() string {
	return m.id
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.payload
}

// Attempts returns failed deliveries
func (m *Message[T]) Attempts() int {
	return m.attempts
}

// LastError returns the error passed to the latest Nack
func (m *Message[T]) LastError() string {
	return m.lastError
}

// Ack acknowledges the message as processed successfully
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return messaging.ErrProcessed
	}
	m.processed = true
	return nil
}

// Nack schedules a redelivery, or dead-letters the message once retries are exhausted
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return messaging.ErrProcessed
	}
	m.processed = true
	retry := &Message[T]{id: m.id, payload: m.payload, queue: m.queue, attempts: m.attempts + 1}
	if err != nil {
		retry.lastError = err.Error()
	}
	if retry.attempts <= m.queue.config.MaxRetries {
		time.AfterFunc(m.queue.config.RetryDelay, func() {
			m.queue.requeue(retry)
		})
		return nil
	}
	if m.queue.config.DeadLetter {
		m.queue.dlqMu.Lock()
		m.queue.dlq = append(m.queue.dlq, retry)
		m.queue.dlqMu.Unlock()
	}
	return nil
}

// Queue implements an in-memory messaging.Queue
type Queue[T any] struct {
	messages chan *Message[T]
	done     chan struct{}
	closed   sync.Once
	dlq      []*Message[T]
	config   Config
	dlqMu    sync.Mutex
}

// NewQueue creates a new in-memory queue
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.QueueBuffer),
		done:     make(chan struct{}),
		config:   config,
	}
}

// Publish adds a new item to the queue, blocking while the buffer is full
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &Message[T]{id: uuid.New().String(), payload: *t, queue: q}
	select {
	case q.messages <- msg:
		return nil
	case <-q.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue[T]) requeue(msg *Message[T]) {
	select {
	case q.messages <- msg:
	case <-q.done:
	}
}

// Consume blocks until a message is available
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-q.done:
		return nil, context.Canceled
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close releases blocked publishers and consumers
func (q *Queue[T]) Close() {
	q.closed.Do(func() { close(q.done) })
}

// Size returns the current number of messages in the queue
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

// DeadLetters returns dead-lettered messages
func (q *Queue[T]) DeadLetters() []*Message[T] {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	return append([]*Message[T]{}, q.dlq...)
}

// DLQSize returns the number of messages in the dead letter queue
func (q *Queue[T]) DLQSize() int {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	return len(q.dlq)
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
