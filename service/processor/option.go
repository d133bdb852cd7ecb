package processor

import (
	"log/slog"

	"github.com/viant/turnflow/model"
	"github.com/viant/turnflow/service/messaging"
)

// Option customises the service
type Option func(*Service)

// WithMessageQueue sets the inbound turn queue
func WithMessageQueue(queue messaging.Queue[model.Turn]) Option {
	return func(s *Service) {
		s.queue = queue
	}
}

// WithHandler sets the turn handler, usually the flow controller
func WithHandler(handler Handler) Option {
	return func(s *Service) {
		s.handler = handler
	}
}

// WithWorkers sets the number of worker goroutines
func WithWorkers(count int) Option {
	return func(s *Service) {
		s.config.WorkerCount = count
	}
}

// WithReportListener registers a callback invoked after every processed turn
func WithReportListener(fn ReportListener) Option {
	return func(s *Service) {
		s.listeners = append(s.listeners, fn)
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConfig sets the configuration for the service
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}
