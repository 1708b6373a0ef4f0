// Package config defines the canonical, JSON-serializable configuration model
// for the pipeline. It is intentionally small, explicit, and dependency-free
// so that a run can be described by a single file on disk and passed through
// the program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in config
//     files under configs/*.json.
//  3. Minimalism: No third-party config libraries; decoding is performed by
//     the standard library into fully typed structs.
//
// Credentials read from the environment are carried in the returned Config
// value; nothing is ever written back to the process environment.
//
// Example (trimmed):
//
//	{
//	  "job":         "sparkify-nightly",
//	  "input_root":  "s3://udacity-dend",
//	  "output_root": "s3://my-lake/analytics",
//	  "time_zone":   "UTC",
//	  "sink":        { "compression": "snappy" },
//	  "warehouse":   { "kind": "postgres", "dsn": "postgresql://..." }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config describes one full run: where the raw data lives, where the star
// schema goes, and which optional destinations and backends participate.
type Config struct {
	// Job labels the run in logs and metrics (Pushgateway grouping key).
	Job string `json:"job"`

	// InputRoot holds song_data/ and log_data/. Local path or s3://bucket/prefix.
	InputRoot string `json:"input_root"`

	// OutputRoot receives the five table directories. Local path or s3://bucket/prefix.
	OutputRoot string `json:"output_root"`

	// TimeZone is the IANA zone name used to derive calendar fields from
	// event timestamps. Empty means UTC.
	TimeZone string `json:"time_zone"`

	AWS       AWSConfig       `json:"aws"`
	Sink      SinkConfig      `json:"sink"`
	Warehouse WarehouseConfig `json:"warehouse"`
	Runtime   RuntimeConfig   `json:"runtime"`
	Metrics   MetricsConfig   `json:"metrics"`
}

// AWSConfig carries credentials for s3:// roots. Empty fields fall back to
// the conventional environment variables at load time.
type AWSConfig struct {
	Region          string `json:"region"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
}

// SinkConfig controls the parquet output.
type SinkConfig struct {
	// Compression selects the parquet codec: "snappy" (default), "gzip",
	// or "none".
	Compression string `json:"compression"`
}

// WarehouseConfig optionally loads the star schema into a relational
// database after publishing. An empty Kind disables the load.
type WarehouseConfig struct {
	Kind string `json:"kind"` // registered backend, e.g. "postgres" or "sqlite"
	DSN  string `json:"dsn"`
}

// RuntimeConfig controls concurrency.
type RuntimeConfig struct {
	// TableWorkers bounds how many tables are written to the lake at once.
	// Zero means no limit.
	TableWorkers int `json:"table_workers"`
}

// MetricsConfig selects a metrics backend. The zero value disables metrics.
type MetricsConfig struct {
	// Backend is "", "none", "prometheus", or "datadog".
	Backend string `json:"backend"`

	// PushgatewayURL is required for the "prometheus" backend.
	PushgatewayURL string `json:"pushgateway_url"`

	// DatadogAddr is the DogStatsD address for the "datadog" backend.
	DatadogAddr string `json:"datadog_addr"`
}

// Load reads and decodes the config file at path, then fills empty AWS
// fields from AWS_REGION, AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY.
func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyEnvDefaults(&cfg)
	return cfg, nil
}

func applyEnvDefaults(cfg *Config) {
	if cfg.AWS.Region == "" {
		cfg.AWS.Region = os.Getenv("AWS_REGION")
	}
	if cfg.AWS.AccessKeyID == "" {
		cfg.AWS.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	}
	if cfg.AWS.SecretAccessKey == "" {
		cfg.AWS.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
}

// Location resolves the configured time zone. An empty name means UTC;
// anything else goes through time.LoadLocation, so IANA names and "Local"
// both work.
func (c Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.TimeZone) == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("time_zone: %w", err)
	}
	return loc, nil
}
