// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from pipeline runs.
//
// The package is intentionally minimal and opinionated:
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data.
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//   - It mirrors the warehouse factory pattern used elsewhere in the project,
//     so the pipeline depends only on this interface while concrete metric
//     systems stay isolated in subpackages.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
// It is intentionally generic so we can plug in Prometheus, Datadog, etc.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep is a convenience for the common pattern:
// measure latency + success/failure per pipeline step.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter("songlake_step_total", 1, lbls)
	backend.ObserveHistogram("songlake_step_duration_seconds", d.Seconds(), lbls)
}

// RecordTableRows counts rows written to a star-schema table ("songs",
// "artists", "users", "time", "songplays").
func RecordTableRows(job, table string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("songlake_rows_total", float64(delta), Labels{
		"job":   job,
		"table": table,
	})
}

// RecordPartitions counts partition files published for a table.
func RecordPartitions(job, table string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("songlake_partitions_total", float64(delta), Labels{
		"job":   job,
		"table": table,
	})
}
