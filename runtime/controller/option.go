package controller

import (
	"log/slog"

	"github.com/viant/turnflow/internal/clock"
	"github.com/viant/turnflow/metrics"
	"github.com/viant/turnflow/model"
	"github.com/viant/turnflow/model/state"
	"github.com/viant/turnflow/progress"
	"github.com/viant/turnflow/runtime/interrupt"
	"github.com/viant/turnflow/runtime/lock"
	"github.com/viant/turnflow/service/channel"
	"github.com/viant/turnflow/service/dao"
)

// Option customises the controller
type Option func(c *Controller)

// WithStore sets the conversation state store
func WithStore(store dao.Service[string, state.Conversation]) Option {
	return func(c *Controller) {
		c.store = store
	}
}

// WithChannel sets the reply channel
func WithChannel(ch channel.Channel) Option {
	return func(c *Controller) {
		c.channel = ch
	}
}

// WithDefaultFlow sets the flow started for idle conversations
func WithDefaultFlow(flowID string) Option {
	return func(c *Controller) {
		c.defaultFlowID = flowID
	}
}

// WithFlows registers flows when the controller is created
func WithFlows(flows ...*model.Flow) Option {
	return func(c *Controller) {
		c.pending = append(c.pending, flows...)
	}
}

// WithLocker overrides the per-conversation lock
func WithLocker(locker lock.Locker) Option {
	return func(c *Controller) {
		c.locker = locker
	}
}

// WithInterrupts sets global commands evaluated before step dispatch
func WithInterrupts(interrupts *interrupt.Set) Option {
	return func(c *Controller) {
		c.interrupts = interrupts
	}
}

// WithEventPublisher publishes a turn completed event per handled turn
func WithEventPublisher(publisher EventPublisher) Option {
	return func(c *Controller) {
		c.events = publisher
	}
}

// WithProgress sets the turn counters
func WithProgress(p *progress.Progress) Option {
	return func(c *Controller) {
		c.progress = p
	}
}

// WithMetrics sets prometheus collectors
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithClock sets the time source
func WithClock(now clock.Func) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithMaxStepsPerTurn lets Next and Restart continue into following steps within one turn
func WithMaxStepsPerTurn(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxStepsPerTurn = n
		}
	}
}
