// Package metrics exposes Prometheus collectors for handled turns.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/turnflow/model"
	"github.com/viant/turnflow/service/classifier"
)

const namespace = "turnflow"

// Error kinds
const (
	ErrorKindStore   = "store"
	ErrorKindChannel = "channel"
	ErrorKindStep    = "step"
	ErrorKindFlow    = "flow"
	ErrorKindLock    = "lock"
)

// Metrics holds turn collectors
type Metrics struct {
	turns              *prometheus.CounterVec
	errors             *prometheus.CounterVec
	duration           *prometheus.HistogramVec
	classifierRequests *prometheus.CounterVec
}

// New creates unregistered collectors
func New() *Metrics {
	return &Metrics{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Count of handled turns by flow and result.",
		}, []string{"flow", "result"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turn_errors_total",
			Help:      "Count of failed turns by error kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Turn handling latency in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"flow"}),
		classifierRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_requests_total",
			Help:      "Count of classifier queries by classifier and status.",
		}, []string{"classifier", "status"}),
	}
}

// Register registers all collectors with reg
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, collector := range []prometheus.Collector{m.turns, m.errors, m.duration, m.classifierRequests} {
		if err := reg.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

// RecordTurn records a handled turn
func (m *Metrics) RecordTurn(flowID string, result model.Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(flowID, string(result)).Inc()
	m.duration.WithLabelValues(flowID).Observe(elapsed.Seconds())
}

// RecordError records a failed turn
func (m *Metrics) RecordError(kind string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(kind).Inc()
}

// RecordClassification records a classifier query
func (m *Metrics) RecordClassification(name, status string) {
	if m == nil {
		return
	}
	m.classifierRequests.WithLabelValues(name, status).Inc()
}

// Classifier counts queries of the wrapped classifier
type Classifier struct {
	classifier.Classifier
	metrics *Metrics
}

// InstrumentClassifier wraps c so that every query is counted
func InstrumentClassifier(c classifier.Classifier, m *Metrics) *Classifier {
	return &Classifier{Classifier: c, metrics: m}
}

// Classify delegates to the wrapped classifier
func (c *Classifier) Classify(ctx context.Context, utterance string) (*classifier.Result, error) {
	result, err := c.Classifier.Classify(ctx, utterance)
	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case result != nil && result.Unconfigured:
		status = "unconfigured"
	}
	c.metrics.RecordClassification(c.Name(), status)
	return result, err
}
