package turnflow

import (
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/turnflow/model"
	"github.com/viant/turnflow/model/state"
	"github.com/viant/turnflow/runtime/interrupt"
	"github.com/viant/turnflow/service/channel"
	"github.com/viant/turnflow/service/classifier"
	"github.com/viant/turnflow/service/dao"
	"github.com/viant/turnflow/service/event"
)

// Option customises the service
type Option func(s *Service)

// WithConfig sets the configuration; DefaultConfig is used otherwise
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithStore overrides the configured state store
func WithStore(store dao.Service[string, state.Conversation]) Option {
	return func(s *Service) { s.store = store }
}

// WithClassifier overrides the configured classifier
func WithClassifier(c classifier.Classifier) Option {
	return func(s *Service) { s.classifier = c }
}

// WithChannel overrides the configured reply channel
func WithChannel(ch channel.Channel) Option {
	return func(s *Service) { s.channel = ch }
}

// WithOutput sets the writer used by the writer channel
func WithOutput(w io.Writer) Option {
	return func(s *Service) { s.output = w }
}

// WithFlows registers additional flows next to the booking flow
func WithFlows(flows ...*model.Flow) Option {
	return func(s *Service) { s.flows = append(s.flows, flows...) }
}

// WithInterrupts overrides the configured global commands
func WithInterrupts(set *interrupt.Set) Option {
	return func(s *Service) { s.interrupts = set }
}

// WithEventHandler enables turn events and invokes handler for each one
func WithEventHandler(handler func(*event.Event[model.TurnReport])) Option {
	return func(s *Service) { s.eventHandler = handler }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithRegistry sets the prometheus registry used for metrics
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Service) { s.registry = registry }
}
