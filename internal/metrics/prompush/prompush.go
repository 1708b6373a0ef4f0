// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// This package adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec and SummaryVec collectors.
//   - Mapping the pipeline labels (step, status, table) onto Prometheus labels.
//   - Pushing collected metrics to a Prometheus Pushgateway instance instead
//     of exposing an HTTP scrape endpoint, which fits a batch job that exits
//     when the run ends.
//
// The package intentionally contains all Prometheus-specific dependencies so
// that the rest of the project remains decoupled from Prometheus and can swap
// to alternative backends (e.g. Datadog, StatsD) without changes to the
// pipeline itself.
package prompush

import (
	"fmt"

	"songlake/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	// Step-level metrics
	stepCounter  *prometheus.CounterVec // "songlake_step_total"
	stepDuration *prometheus.SummaryVec // "songlake_step_duration_seconds"

	// Table-level metrics
	rowCounter       *prometheus.CounterVec // "songlake_rows_total"
	partitionCounter *prometheus.CounterVec // "songlake_partitions_total"
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name (often same as the run's job name).
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "songlake"
	}

	reg := prometheus.NewRegistry()

	// The run's job name is the Pushgateway grouping key, so the collectors
	// only carry the finer-grained labels.
	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songlake_step_total",
			Help: "Total number of pipeline step executions, partitioned by step and status.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "songlake_step_duration_seconds",
			Help:       "Duration of pipeline steps in seconds, partitioned by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songlake_rows_total",
			Help: "Rows written per star-schema table.",
		},
		[]string{"table"},
	)
	partitionCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songlake_partitions_total",
			Help: "Partition files published per star-schema table.",
		},
		[]string{"table"},
	)

	if err := reg.Register(stepCounter); err != nil {
		return nil, fmt.Errorf("prompush: register step counter: %w", err)
	}
	if err := reg.Register(stepDuration); err != nil {
		return nil, fmt.Errorf("prompush: register step summary: %w", err)
	}
	if err := reg.Register(rowCounter); err != nil {
		return nil, fmt.Errorf("prompush: register row counter: %w", err)
	}
	if err := reg.Register(partitionCounter); err != nil {
		return nil, fmt.Errorf("prompush: register partition counter: %w", err)
	}

	return &Backend{
		gatewayURL:       gatewayURL,
		jobName:          jobName,
		reg:              reg,
		stepCounter:      stepCounter,
		stepDuration:     stepDuration,
		rowCounter:       rowCounter,
		partitionCounter: partitionCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "songlake_step_total":
		if b.stepCounter == nil {
			return
		}
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)

	case "songlake_rows_total":
		if b.rowCounter == nil {
			return
		}
		b.rowCounter.WithLabelValues(labels["table"]).Add(delta)

	case "songlake_partitions_total":
		if b.partitionCounter == nil {
			return
		}
		b.partitionCounter.WithLabelValues(labels["table"]).Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "songlake_step_duration_seconds" || b.stepDuration == nil {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
