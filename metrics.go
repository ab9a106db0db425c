package jwt

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric status labels.
const (
	StatusSuccess         = "success"
	StatusResolutionError = "resolution_error"
	StatusCreationError   = "creation_error"
	StatusParseError      = "parse_error"
	StatusValidationError = "validation_error"
	StatusUnvalidated     = "unvalidated"
)

// Metrics holds Prometheus metrics for manager operations.
type Metrics struct {
	createdTotal   *prometheus.CounterVec
	createDuration *prometheus.HistogramVec
	parsedTotal    *prometheus.CounterVec
	parseDuration  *prometheus.HistogramVec
	registry       *prometheus.Registry
}

// NewMetrics creates metrics registered on their own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "jwt"
	}

	buckets := []float64{.00005, .0001, .0005, .001, .005, .01, .025, .05, .1}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		createdTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "manager",
				Name:      "tokens_created_total",
				Help:      "Total number of token creation attempts",
			},
			[]string{"type", "configuration", "status"},
		),
		createDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "manager",
				Name:      "create_duration_seconds",
				Help:      "Token creation duration in seconds",
				Buckets:   buckets,
			},
			[]string{"type", "status"},
		),
		parsedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "manager",
				Name:      "tokens_parsed_total",
				Help:      "Total number of token parse attempts",
			},
			[]string{"type", "configuration", "status"},
		),
		parseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "manager",
				Name:      "parse_duration_seconds",
				Help:      "Token parse and validation duration in seconds",
				Buckets:   buckets,
			},
			[]string{"type", "status"},
		),
	}

	m.registry.MustRegister(
		m.createdTotal,
		m.createDuration,
		m.parsedTotal,
		m.parseDuration,
	)

	return m
}

// RecordCreate records a creation attempt.
func (m *Metrics) RecordCreate(typeName, configuration, status string, duration time.Duration) {
	m.createdTotal.WithLabelValues(typeName, configuration, status).Inc()
	m.createDuration.WithLabelValues(typeName, status).Observe(duration.Seconds())
}

// RecordParse records a parse attempt.
func (m *Metrics) RecordParse(typeName, configuration, status string, duration time.Duration) {
	m.parsedTotal.WithLabelValues(typeName, configuration, status).Inc()
	m.parseDuration.WithLabelValues(typeName, status).Observe(duration.Seconds())
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
