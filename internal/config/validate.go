// This file adds a lightweight linter/validator for Config values. It
// performs static checks over a decoded Config and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
	"time"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Config.
//
// Path is a dotted path into the config (e.g. "warehouse.kind",
// "metrics.pushgateway_url"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static validation / linting of a Config.
//
// It does not mutate the config. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
func Validate(c Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}

	issues = append(issues, validateRoot("input_root", c.InputRoot, c.AWS)...)
	issues = append(issues, validateRoot("output_root", c.OutputRoot, c.AWS)...)
	issues = append(issues, validateTimeZone(c.TimeZone)...)
	issues = append(issues, validateSink(c.Sink)...)
	issues = append(issues, validateWarehouse(c.Warehouse)...)
	issues = append(issues, validateRuntime(c.Runtime)...)
	issues = append(issues, validateMetrics(c.Metrics)...)

	return issues
}

// validateRoot validates one of the lake roots. S3 roots need a bucket and,
// in practice, a region.
func validateRoot(path, root string, aws AWSConfig) []Issue {
	var issues []Issue

	if strings.TrimSpace(root) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path,
			Message:  path + " must not be empty",
		})
		return issues
	}

	if strings.HasPrefix(root, "s3://") {
		rest := strings.TrimPrefix(root, "s3://")
		bucket, _, _ := strings.Cut(rest, "/")
		if bucket == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  fmt.Sprintf("%q has no bucket name", root),
			})
		}
		if strings.TrimSpace(aws.Region) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "aws.region",
				Message:  "no region configured for an s3:// root; the SDK default chain must supply one",
			})
		}
	}

	return issues
}

func validateTimeZone(name string) []Issue {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	if _, err := time.LoadLocation(name); err != nil {
		return []Issue{{
			Severity: SeverityError,
			Path:     "time_zone",
			Message:  fmt.Sprintf("unknown time zone %q", name),
		}}
	}
	return nil
}

func validateSink(s SinkConfig) []Issue {
	known := map[string]struct{}{
		"": {}, "snappy": {}, "gzip": {}, "none": {}, "uncompressed": {},
	}
	if _, ok := known[strings.ToLower(s.Compression)]; !ok {
		return []Issue{{
			Severity: SeverityError,
			Path:     "sink.compression",
			Message:  fmt.Sprintf("unknown compression %q; use snappy, gzip, or none", s.Compression),
		}}
	}
	return nil
}

// validateWarehouse validates the optional warehouse destination. An empty
// kind disables the load entirely.
func validateWarehouse(w WarehouseConfig) []Issue {
	var issues []Issue

	if strings.TrimSpace(w.Kind) == "" {
		if strings.TrimSpace(w.DSN) != "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "warehouse.dsn",
				Message:  "dsn is set but warehouse.kind is empty; the warehouse load is disabled",
			})
		}
		return issues
	}

	known := map[string]struct{}{
		"postgres": {},
		"sqlite":   {},
		"mysql":    {},
		"mssql":    {},
	}
	if _, ok := known[w.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "warehouse.kind",
			Message:  fmt.Sprintf("unknown warehouse kind %q; ensure a matching backend is registered", w.Kind),
		})
	}

	if strings.TrimSpace(w.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "warehouse.dsn",
			Message:  "warehouse.dsn must not be empty when a kind is configured",
		})
	}

	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	if r.TableWorkers < 0 {
		return []Issue{{
			Severity: SeverityError,
			Path:     "runtime.table_workers",
			Message:  "table_workers must not be negative",
		}}
	}
	return nil
}

func validateMetrics(m MetricsConfig) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", "none":
		// metrics disabled
	case "prometheus":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway_url must not be empty for the prometheus backend",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog_addr must not be empty for the datadog backend",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics will be disabled", m.Backend),
		})
	}

	return issues
}
