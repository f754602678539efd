// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// It adapts the generic metrics.Backend interface to Prometheus by mapping
// the pipeline's known metric names onto client_golang collectors and
// pushing the collected registry to a Pushgateway on Flush, instead of
// exposing an HTTP scrape endpoint (a batch run is gone before a scraper
// would find it). All Prometheus-specific dependencies stay inside this
// package.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"insights/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec // "insights_step_total"
	stepDuration *prometheus.SummaryVec // "insights_step_duration_seconds"
	rowCounter   *prometheus.CounterVec // "insights_rows_total"
}

// NewBackend constructs a Pushgateway backend. jobName doubles as the
// Pushgateway "job" grouping key.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "insights"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_step_total",
			Help: "Total pipeline stage executions, partitioned by job, step, and status.",
		},
		[]string{"job", "step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "insights_step_duration_seconds",
			Help: "Pipeline stage duration in seconds.",
		},
		[]string{"job", "step", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_rows_total",
			Help: "Row-level counts, partitioned by job and kind.",
		},
		[]string{"job", "kind"},
	)

	reg.MustRegister(stepCounter, stepDuration, rowCounter)

	return &Backend{
		gatewayURL:   gatewayURL,
		jobName:      jobName,
		reg:          reg,
		stepCounter:  stepCounter,
		stepDuration: stepDuration,
		rowCounter:   rowCounter,
	}, nil
}

// IncCounter implements metrics.Backend. Metric names outside the known
// set are dropped; the pipeline only emits the registered ones.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "insights_step_total":
		b.stepCounter.With(stepLabels(labels)).Add(delta)
	case "insights_rows_total":
		b.rowCounter.With(prometheus.Labels{
			"job":  labels["job"],
			"kind": labels["kind"],
		}).Add(delta)
	}
}

// ObserveHistogram implements metrics.Backend using a summary.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name == "insights_step_duration_seconds" {
		b.stepDuration.With(stepLabels(labels)).Observe(value)
	}
}

// Flush pushes all collected metrics to the Pushgateway.
func (b *Backend) Flush() error {
	if err := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}

func stepLabels(labels metrics.Labels) prometheus.Labels {
	return prometheus.Labels{
		"job":    labels["job"],
		"step":   labels["step"],
		"status": labels["status"],
	}
}
