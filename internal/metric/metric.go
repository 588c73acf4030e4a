// Package metric exposes the parser's Prometheus instruments.
//
// A nil *Metrics is valid and records nothing, so metrics stay optional for
// callers that pass no registerer.
package metric

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "logdissect"

// Record statuses.
const (
	StatusOK       = "ok"
	StatusFailed   = "failed"
	StatusInternal = "internal_error"
)

// Metrics holds Prometheus metrics for record processing.
type Metrics struct {
	records        *prometheus.CounterVec // By status (ok/failed/internal_error)
	skipped        prometheus.Counter
	failures       *prometheus.CounterVec // By dissector
	deliveries     prometheus.Counter
	recordDuration prometheus.Histogram
}

// New creates and registers the metrics. A nil registerer disables metrics.
// Metrics already registered by another parser on the same registerer are
// shared.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil // Metrics disabled
	}

	m := &Metrics{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Total number of records parsed",
		}, []string{"status"}),

		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_skipped_total",
			Help:      "Total number of dissector steps skipped because their input was missing",
		}),

		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dissection_failures_total",
			Help:      "Total number of values a dissector could not dissect",
		}, []string{"dissector"}),

		deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Total number of values delivered to sinks",
		}),

		recordDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "record_duration_seconds",
			Help:      "Time spent dissecting and delivering one record",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
	}

	var err error

	if m.records, err = register(reg, m.records); err != nil {
		return nil, err
	}

	if m.skipped, err = register(reg, m.skipped); err != nil {
		return nil, err
	}

	if m.failures, err = register(reg, m.failures); err != nil {
		return nil, err
	}

	if m.deliveries, err = register(reg, m.deliveries); err != nil {
		return nil, err
	}

	if m.recordDuration, err = register(reg, m.recordDuration); err != nil {
		return nil, err
	}

	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}

		return c, err
	}

	return c, nil
}

// RecordParsed records one parsed record.
func (m *Metrics) RecordParsed(status string, skipped, delivered int, duration time.Duration) {
	if m == nil {
		return
	}

	m.records.WithLabelValues(status).Inc()
	m.skipped.Add(float64(skipped))
	m.deliveries.Add(float64(delivered))
	m.recordDuration.Observe(duration.Seconds())
}

// RecordFailure records a dissection failure of the named dissector.
func (m *Metrics) RecordFailure(dissector string) {
	if m == nil {
		return
	}

	m.failures.WithLabelValues(dissector).Inc()
}
