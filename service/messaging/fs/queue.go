package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/turnflow/service/messaging"
)

// MessageState represents the state of a message in the filesystem queue
type MessageState string

const (
	MessageStatePending    MessageState = "pending"
	MessageStateProcessing MessageState = "processing"
	MessageStateCompleted  MessageState = "completed"
	MessageStateFailed     MessageState = "failed"
)

// Message is a queue entry persisted as a JSON file
type Message[T any] struct {
	MessageID string       `json:"id"`
	Data      T            `json:"data"`
	State     MessageState `json:"state"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Retries   int          `json:"retries"`

	queue     *Queue[T]
	processed bool
	mu        sync.Mutex
}

// ID returns message id
func (m *Message[T]) ID() string {
	return m.MessageID
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.Data
}

// Attempts returns failed deliveries
func (m *Message[T]) Attempts() int {
	return m.Retries
}

// filename orders messages by creation time
func (m *Message[T]) filename() string {
	return fmt.Sprintf("%020d-%s.json", m.CreatedAt.UnixNano(), m.MessageID)
}

// Ack moves the message out of processing
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return messaging.ErrProcessed
	}
	m.processed = true
	m.State = MessageStateCompleted
	m.UpdatedAt = time.Now()
	return m.queue.complete(context.Background(), m)
}

// Nack moves the message to failed for a later retry, or to the dead letter directory
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return messaging.ErrProcessed
	}
	m.processed = true
	m.State = MessageStateFailed
	if err != nil {
		m.Error = err.Error()
	}
	m.Retries++
	m.UpdatedAt = time.Now()
	return m.queue.fail(context.Background(), m)
}

// Config holds configuration for filesystem queue
type Config struct {
	// BaseURL is the queue root, e.g. file:///var/turnflow/queue or mem://localhost/queue
	BaseURL    string        `json:"baseURL" yaml:"baseURL"`
	MaxRetries int           `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`
	RetryDelay time.Duration `json:"retryDelay,omitempty" yaml:"retryDelay,omitempty"`
	// KeepCompleted retains acknowledged messages in the completed directory
	KeepCompleted bool `json:"keepCompleted,omitempty" yaml:"keepCompleted,omitempty"`
}

// DefaultConfig returns a default queue configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:    "/tmp/turnflow/queue",
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// Queue implements a filesystem-based messaging.Queue
type Queue[T any] struct {
	fs            afs.Service
	config        Config
	pendingDir    string
	processingDir string
	completedDir  string
	failedDir     string
	dlqDir        string
	mu            sync.Mutex
}

// NewQueue creates a filesystem-based queue, creating its directories
func NewQueue[T any](ctx context.Context, fs afs.Service, config Config) (*Queue[T], error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("queue base URL was empty")
	}
	baseURL := url.Normalize(config.BaseURL, file.Scheme)
	q := &Queue[T]{
		fs:            fs,
		config:        config,
		pendingDir:    url.Join(baseURL, "pending"),
		processingDir: url.Join(baseURL, "processing"),
		completedDir:  url.Join(baseURL, "completed"),
		failedDir:     url.Join(baseURL, "failed"),
		dlqDir:        url.Join(baseURL, "dlq"),
	}
	for _, dir := range []string{q.pendingDir, q.processingDir, q.completedDir, q.failedDir, q.dlqDir} {
		if exists, _ := fs.Exists(ctx, dir); exists {
			continue
		}
		if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return q, nil
}

// Publish writes a new message to the pending directory
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	now := time.Now()
	message := &Message[T]{
		MessageID: uuid.New().String(),
		Data:      *t,
		State:     MessageStatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return q.write(ctx, url.Join(q.pendingDir, message.filename()), message)
}

// Consume claims the oldest retry-eligible failed message, then the oldest pending one;
// it returns nil, nil when nothing is ready
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	message, err := q.claim(ctx, q.failedDir, q.retryReady)
	if err != nil || message != nil {
		return asMessage(message), err
	}
	message, err = q.claim(ctx, q.pendingDir, nil)
	return asMessage(message), err
}

func asMessage[T any](message *Message[T]) messaging.Message[T] {
	if message == nil {
		return nil
	}
	return message
}

func (q *Queue[T]) retryReady(message *Message[T]) bool {
	return time.Since(message.UpdatedAt) >= q.config.RetryDelay
}

func (q *Queue[T]) claim(ctx context.Context, dir string, ready func(*Message[T]) bool) (*Message[T], error) {
	objects, err := q.list(ctx, dir)
	if err != nil {
		return nil, err
	}
	for _, object := range objects {
		message, err := q.read(ctx, object.URL())
		if err != nil {
			_ = q.fs.Move(ctx, object.URL(), url.Join(q.dlqDir, "invalid-"+object.Name()))
			return nil, err
		}
		if ready != nil && !ready(message) {
			continue
		}
		message.State = MessageStateProcessing
		message.UpdatedAt = time.Now()
		message.queue = q
		if err := q.write(ctx, url.Join(q.processingDir, object.Name()), message); err != nil {
			return nil, fmt.Errorf("failed to move message to processing: %w", err)
		}
		if err := q.fs.Delete(ctx, object.URL()); err != nil {
			return nil, fmt.Errorf("failed to delete claimed message: %w", err)
		}
		return message, nil
	}
	return nil, nil
}

func (q *Queue[T]) complete(ctx context.Context, m *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.config.KeepCompleted {
		if err := q.write(ctx, url.Join(q.completedDir, m.filename()), m); err != nil {
			return fmt.Errorf("failed to write completed message: %w", err)
		}
	}
	return q.release(ctx, m)
}

func (q *Queue[T]) fail(ctx context.Context, m *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	dest := q.failedDir
	if m.Retries > q.config.MaxRetries {
		dest = q.dlqDir
	}
	if err := q.write(ctx, url.Join(dest, m.filename()), m); err != nil {
		return fmt.Errorf("failed to write failed message: %w", err)
	}
	return q.release(ctx, m)
}

func (q *Queue[T]) release(ctx context.Context, m *Message[T]) error {
	processing := url.Join(q.processingDir, m.filename())
	if exists, _ := q.fs.Exists(ctx, processing); !exists {
		return nil
	}
	if err := q.fs.Delete(ctx, processing); err != nil {
		return fmt.Errorf("failed to delete processing message: %w", err)
	}
	return nil
}

// Size returns the number of pending messages
func (q *Queue[T]) Size(ctx context.Context) (int, error) {
	objects, err := q.list(ctx, q.pendingDir)
	return len(objects), err
}

// DLQSize returns the number of dead-lettered messages
func (q *Queue[T]) DLQSize(ctx context.Context) (int, error) {
	objects, err := q.list(ctx, q.dlqDir)
	return len(objects), err
}

func (q *Queue[T]) list(ctx context.Context, dir string) ([]storage.Object, error) {
	objects, err := q.fs.List(ctx, dir, option.NewRecursive(false))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var ret []storage.Object
	for _, object := range objects {
		if !object.IsDir() && strings.HasSuffix(object.Name(), ".json") {
			ret = append(ret, object)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name() < ret[j].Name() })
	return ret, nil
}

func (q *Queue[T]) write(ctx context.Context, URL string, message *Message[T]) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return q.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data))
}

func (q *Queue[T]) read(ctx context.Context, URL string) (*Message[T], error) {
	data, err := q.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", URL, err)
	}
	var message Message[T]
	if err := json.Unmarshal(data, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", URL, err)
	}
	return &message, nil
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
