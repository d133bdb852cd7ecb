package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/viant/turnflow/model"
	"github.com/viant/turnflow/runtime/controller"
	"github.com/viant/turnflow/service/messaging"
	"github.com/viant/turnflow/tracing"
)

// Handler handles a single turn
type Handler interface {
	HandleTurn(ctx context.Context, conversationID string, input *model.TurnInput) (*model.TurnReport, error)
}

// ReportListener observes processed turns; report is nil when the turn failed before running a step
type ReportListener func(turn *model.Turn, report *model.TurnReport, err error)

// Config represents processor configuration
type Config struct {
	// WorkerCount is the number of workers consuming turns; a single worker keeps queue order
	WorkerCount int `json:"workerCount,omitempty" yaml:"workerCount,omitempty"`

	// PollInterval is the pause after an empty consume
	PollInterval time.Duration `json:"pollInterval,omitempty" yaml:"pollInterval,omitempty"`
}

// DefaultConfig returns the default processor configuration
func DefaultConfig() Config {
	return Config{
		WorkerCount:  1,
		PollInterval: 50 * time.Millisecond,
	}
}

// Service consumes queued turns
type Service struct {
	config    Config
	queue     messaging.Queue[model.Turn]
	handler   Handler
	listeners []ReportListener
	logger    *slog.Logger

	mux      sync.Mutex
	workers  []*worker
	workerWg sync.WaitGroup
	running  bool
}

type worker struct {
	id       int
	service  *Service
	ctx      context.Context
	cancelFn context.CancelFunc
}

// New creates a processor
func New(options ...Option) (*Service, error) {
	s := &Service{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.handler == nil {
		return nil, fmt.Errorf("turn handler is required")
	}
	if s.queue == nil {
		return nil, fmt.Errorf("message queue is required")
	}
	if s.config.WorkerCount <= 0 {
		s.config.WorkerCount = 1
	}
	if s.config.PollInterval <= 0 {
		s.config.PollInterval = DefaultConfig().PollInterval
	}
	return s, nil
}

// Submit publishes a turn for asynchronous handling
func (s *Service) Submit(ctx context.Context, conversationID string, input *model.TurnInput) error {
	if conversationID == "" {
		return controller.ErrInvalidConversationID
	}
	if input == nil {
		input = &model.TurnInput{}
	}
	return s.queue.Publish(ctx, &model.Turn{ConversationID: conversationID, Input: *input})
}

// Start launches the workers
func (s *Service) Start(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.running {
		return fmt.Errorf("processor already started")
	}
	s.running = true
	for i := 0; i < s.config.WorkerCount; i++ {
		workerCtx, cancel := context.WithCancel(ctx)
		w := &worker{id: i, service: s, ctx: workerCtx, cancelFn: cancel}
		s.workers = append(s.workers, w)
		s.workerWg.Add(1)
		go w.run()
	}
	return nil
}

// Shutdown stops the workers and waits for in-flight turns
func (s *Service) Shutdown() {
	s.mux.Lock()
	workers := s.workers
	s.workers = nil
	s.running = false
	s.mux.Unlock()
	for _, w := range workers {
		w.cancelFn()
	}
	s.workerWg.Wait()
}

func (w *worker) run() {
	defer w.service.workerWg.Done()
	for {
		msg, err := w.service.queue.Consume(w.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || w.ctx.Err() != nil {
				return
			}
			w.service.logger.Warn("failed to consume turn", "worker", w.id, "error", err)
			if !w.sleep() {
				return
			}
			continue
		}
		if msg == nil {
			if !w.sleep() {
				return
			}
			continue
		}
		if pErr := w.service.processMessage(w.ctx, msg); pErr != nil {
			w.service.logger.Error("failed to process turn", "worker", w.id, "message_id", msg.ID(), "error", pErr)
		}
	}
}

func (w *worker) sleep() bool {
	select {
	case <-w.ctx.Done():
		return false
	case <-time.After(w.service.config.PollInterval):
		return true
	}
}

func (s *Service) processMessage(ctx context.Context, message messaging.Message[model.Turn]) (err error) {
	turn := message.T()
	ctx, span := tracing.StartSpan(ctx, "processor.processMessage", "CONSUMER")
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"conversation.id": turn.ConversationID, "message.id": message.ID()})
	span.WithInt("message.attempts", message.Attempts())

	input := turn.Input
	report, handleErr := s.handler.HandleTurn(ctx, turn.ConversationID, &input)
	for _, listener := range s.listeners {
		listener(turn, report, handleErr)
	}
	if handleErr != nil && controller.IsRetryable(handleErr) {
		s.logger.Warn("turn will be retried", "conversation_id", turn.ConversationID, "attempts", message.Attempts(), "error", handleErr)
		return message.Nack(handleErr)
	}
	if handleErr != nil {
		s.logger.Error("turn dropped", "conversation_id", turn.ConversationID, "error", handleErr)
	}
	return message.Ack()
}
