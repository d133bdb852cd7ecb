package turnflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/afs"
	"github.com/viant/turnflow/dialog/maindialog"
	"github.com/viant/turnflow/log"
	"github.com/viant/turnflow/metrics"
	"github.com/viant/turnflow/model"
	"github.com/viant/turnflow/model/state"
	"github.com/viant/turnflow/progress"
	"github.com/viant/turnflow/runtime/controller"
	"github.com/viant/turnflow/runtime/interrupt"
	"github.com/viant/turnflow/service/channel"
	chmemory "github.com/viant/turnflow/service/channel/memory"
	chqueue "github.com/viant/turnflow/service/channel/queue"
	chwriter "github.com/viant/turnflow/service/channel/writer"
	"github.com/viant/turnflow/service/classifier"
	"github.com/viant/turnflow/service/classifier/keyword"
	"github.com/viant/turnflow/service/classifier/luis"
	"github.com/viant/turnflow/service/classifier/wit"
	"github.com/viant/turnflow/service/dao"
	stblob "github.com/viant/turnflow/service/dao/conversation/blob"
	stfs "github.com/viant/turnflow/service/dao/conversation/fs"
	stmemory "github.com/viant/turnflow/service/dao/conversation/memory"
	stredis "github.com/viant/turnflow/service/dao/conversation/redis"
	stsql "github.com/viant/turnflow/service/dao/conversation/sql"
	"github.com/viant/turnflow/service/event"
	"github.com/viant/turnflow/service/processor"
	"github.com/viant/turnflow/tracing"
)

// Version is reported in logs and traces
const Version = "0.1.0"

const (
	serviceName  = "turnflow"
	turnsQueue   = "turns"
	eventsQueue  = "events"
	repliesQueue = "replies"
)

// Service wires the flow controller with its store, classifier, channel and
// observers.
type Service struct {
	config       *Config
	store        dao.Service[string, state.Conversation]
	classifier   classifier.Classifier
	channel      channel.Channel
	output       io.Writer
	flows        []*model.Flow
	interrupts   *interrupt.Set
	eventHandler func(*event.Event[model.TurnReport])
	logger       *slog.Logger
	registry     *prometheus.Registry

	metrics    *metrics.Metrics
	progress   *progress.Progress
	controller *controller.Controller
	processor  *processor.Service
	listener   *event.Listener[model.TurnReport]
	closers    []func() error

	mux     sync.Mutex
	started bool
}

// NewFromConfig creates a service from config
func NewFromConfig(ctx context.Context, config *Config, options ...Option) (*Service, error) {
	return New(ctx, append([]Option{WithConfig(config)}, options...)...)
}

// New creates a service
func New(ctx context.Context, options ...Option) (*Service, error) {
	s := &Service{config: DefaultConfig(), output: os.Stdout}
	for _, opt := range options {
		opt(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if err := s.init(ctx); err != nil {
		_ = s.close()
		return nil, err
	}
	return s, nil
}

func (s *Service) init(ctx context.Context) (err error) {
	if s.logger == nil {
		level, _ := log.ParseLevel(s.config.Log.Level)
		s.logger = log.NewWithLevel(serviceName, s.config.Log.Env, Version, level)
	}
	if s.config.Tracing.Enabled {
		name := s.config.Tracing.ServiceName
		if name == "" {
			name = serviceName
		}
		if err = tracing.Init(name, Version, s.config.Tracing.OutputFile); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = metrics.New()
	if err = s.metrics.Register(s.registry); err != nil {
		return err
	}
	s.progress = progress.New(nil)
	if s.store == nil {
		if s.store, err = s.newStore(ctx); err != nil {
			return err
		}
	}
	if s.classifier == nil {
		if s.classifier, err = s.newClassifier(ctx); err != nil {
			return err
		}
	}
	if s.channel == nil {
		if s.channel, err = s.newChannel(ctx); err != nil {
			return err
		}
	}
	if s.interrupts == nil && !s.config.Interrupts.Disabled {
		s.interrupts = interrupt.New(interrupt.Help(s.config.Interrupts.Help), interrupt.Cancel())
	}
	booking, err := maindialog.NewFlow(metrics.InstrumentClassifier(s.classifier, s.metrics))
	if err != nil {
		return err
	}
	options := []controller.Option{
		controller.WithStore(s.store),
		controller.WithChannel(s.channel),
		controller.WithDefaultFlow(s.config.Flow.Default),
		controller.WithFlows(append([]*model.Flow{booking}, s.flows...)...),
		controller.WithInterrupts(s.interrupts),
		controller.WithProgress(s.progress),
		controller.WithMetrics(s.metrics),
		controller.WithLogger(s.logger),
		controller.WithMaxStepsPerTurn(s.config.Flow.MaxStepsPerTurn),
	}
	if s.publishesEvents() {
		publisher, err := event.PublisherOf[model.TurnReport](ctx, s.config.Events.Queue, eventsQueue)
		if err != nil {
			return fmt.Errorf("failed to create event publisher: %w", err)
		}
		options = append(options, controller.WithEventPublisher(publisher))
		if s.eventHandler != nil {
			s.listener = event.NewListener[model.TurnReport](publisher, s.eventHandler)
		}
	}
	if s.controller, err = controller.New(options...); err != nil {
		return err
	}
	if _, ok := s.controller.Flow(s.config.Flow.Default); !ok {
		return fmt.Errorf("%w: default flow %s", controller.ErrUnknownFlow, s.config.Flow.Default)
	}
	turns, err := event.QueueOf[model.Turn](ctx, s.config.Processor.Queue, turnsQueue)
	if err != nil {
		return fmt.Errorf("failed to create turn queue: %w", err)
	}
	s.processor, err = processor.New(
		processor.WithMessageQueue(turns),
		processor.WithHandler(s.controller),
		processor.WithLogger(s.logger),
		processor.WithConfig(processor.Config{
			WorkerCount:  s.config.Processor.WorkerCount,
			PollInterval: s.config.Processor.PollInterval,
		}),
	)
	return err
}

// publishesEvents returns true when turn events have a consumer: an in-process handler or a durable queue
func (s *Service) publishesEvents() bool {
	if s.eventHandler != nil {
		return true
	}
	if !s.config.Events.Enabled {
		return false
	}
	if s.config.Events.Queue.Vendor == event.VendorFS {
		return true
	}
	s.logger.Warn("events enabled without a handler on a memory queue, publishing skipped")
	return false
}

func (s *Service) newStore(ctx context.Context) (dao.Service[string, state.Conversation], error) {
	cfg := s.config.Store
	switch cfg.Kind {
	case StoreFS:
		return stfs.New(ctx, cfg.URL, afs.New())
	case StoreRedis:
		redisConfig := cfg.Redis
		if redisConfig.TTL == 0 {
			redisConfig.TTL = cfg.TTL
		}
		if redisConfig.Prefix == "" {
			redisConfig.Prefix = cfg.Prefix
		}
		ret, err := stredis.New(ctx, redisConfig)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, ret.Close)
		return ret, nil
	case StoreBlob:
		ret, err := stblob.New(ctx, cfg.URL, cfg.Prefix)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, ret.Close)
		return ret, nil
	case StoreSQL:
		ret, err := stsql.New(ctx, cfg.SQL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, ret.Close)
		return ret, nil
	}
	ret := stmemory.New(cfg.TTL)
	s.closers = append(s.closers, ret.Close)
	return ret, nil
}

func (s *Service) newClassifier(ctx context.Context) (classifier.Classifier, error) {
	cfg := s.config.Classifier
	switch cfg.Kind {
	case ClassifierLUIS:
		return luis.New(ctx, cfg.LUIS)
	case ClassifierWit:
		return wit.New(cfg.Wit.Token), nil
	case ClassifierKeyword:
		rules := cfg.Keyword
		if len(rules) == 0 {
			rules = keyword.DefaultRules()
		}
		return keyword.New(rules), nil
	}
	return classifier.Nop(), nil
}

func (s *Service) newChannel(ctx context.Context) (channel.Channel, error) {
	cfg := s.config.Channel
	switch cfg.Kind {
	case ChannelWriter:
		var options []chwriter.Option
		if cfg.Prefix != "" {
			options = append(options, chwriter.WithPrefix(cfg.Prefix))
		}
		return chwriter.New(s.output, options...), nil
	case ChannelQueue:
		queue, err := event.QueueOf[channel.Message](ctx, cfg.Queue, repliesQueue)
		if err != nil {
			return nil, fmt.Errorf("failed to create reply queue: %w", err)
		}
		return chqueue.New(queue), nil
	}
	return chmemory.New(), nil
}

// HandleTurn handles a single turn synchronously
func (s *Service) HandleTurn(ctx context.Context, conversationID, text string) (*model.TurnReport, error) {
	return s.controller.HandleTurn(ctx, conversationID, model.NewTurnInput(text))
}

// Submit queues a turn for the processor workers
func (s *Service) Submit(ctx context.Context, conversationID, text string) error {
	return s.processor.Submit(ctx, conversationID, model.NewTurnInput(text))
}

// Start launches queued turn processing and the event listener
func (s *Service) Start(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.started {
		return nil
	}
	if err := s.processor.Start(ctx); err != nil {
		return err
	}
	if s.listener != nil {
		s.listener.Start(ctx)
	}
	s.started = true
	return nil
}

// Shutdown stops background workers and releases store connections
func (s *Service) Shutdown() error {
	s.mux.Lock()
	started := s.started
	s.started = false
	s.mux.Unlock()
	if started {
		s.processor.Shutdown()
		if s.listener != nil {
			s.listener.Stop()
		}
	}
	return s.close()
}

func (s *Service) close() error {
	var err error
	for _, closer := range s.closers {
		if cErr := closer(); cErr != nil && err == nil {
			err = cErr
		}
	}
	s.closers = nil
	return err
}

// Store returns the conversation store
func (s *Service) Store() dao.Service[string, state.Conversation] {
	return s.store
}

// Controller returns the flow controller
func (s *Service) Controller() *controller.Controller {
	return s.controller
}

// Channel returns the reply channel
func (s *Service) Channel() channel.Channel {
	return s.channel
}

// Classifier returns the configured classifier
func (s *Service) Classifier() classifier.Classifier {
	return s.classifier
}

// Progress returns turn outcome counters
func (s *Service) Progress() *progress.Progress {
	return s.progress
}

// Registry returns the prometheus registry holding turn metrics
func (s *Service) Registry() *prometheus.Registry {
	return s.registry
}

// Config returns the active configuration
func (s *Service) Config() *Config {
	return s.config
}

// Logger returns the service logger
func (s *Service) Logger() *slog.Logger {
	return s.logger
}
