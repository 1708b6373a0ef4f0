package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"songlake/internal/config"
	"songlake/internal/metrics"
	"songlake/internal/metrics/datadog"
	"songlake/internal/metrics/prompush"
	"songlake/internal/pipeline"

	// register all backends with the warehouse factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "songlake/internal/warehouse/all"
)

// main is the entry point for the songlake binary. It loads the run config,
// optionally initializes a metrics backend, and executes one full run.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/sparkify.json", "run config JSON path")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend override (prometheus, datadog, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides config and env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}

	issues := config.Validate(cfg)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		fatalf("configuration is invalid: %v", cfgPath)
	}

	// If validate flag is set, only validate the configuration and exit
	if validate {
		fmt.Printf("configuration is valid: %v\n", cfgPath)
		return
	}

	setupMetrics(cfg, metricsBackendFlg, pushGatewayURLFlg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = pipeline.Run(ctx, cfg)
	if ferr := metrics.Flush(); ferr != nil {
		logrus.WithError(ferr).Warn("metrics flush failed")
	}
	if err != nil {
		fatalf("%v", err)
	}
}

// setupMetrics picks the metrics backend: flag, then environment, then
// config. A backend that cannot be built downgrades to a warning and the run
// proceeds without metrics.
func setupMetrics(cfg config.Config, backendFlg, gwURLFlg string) {
	backend := backendFlg
	if backend == "" {
		backend = os.Getenv("METRICS_BACKEND")
	}
	if backend == "" {
		backend = cfg.Metrics.Backend
	}

	switch backend {
	case "prometheus":
		// Decide Pushgateway URL: flag → env → config → default.
		gwURL := gwURLFlg
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = cfg.Metrics.PushgatewayURL
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(cfg.Job, gwURL)
		if err != nil {
			logrus.WithError(err).Warn("prometheus metrics unavailable")
			return
		}
		logrus.WithFields(logrus.Fields{"backend": backend, "url": gwURL, "job": cfg.Job}).Info("metrics enabled")
		metrics.SetBackend(b)

	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:      cfg.Metrics.DatadogAddr,
			Namespace: "songlake.",
		})
		if err != nil {
			logrus.WithError(err).Warn("datadog metrics unavailable")
			return
		}
		logrus.WithFields(logrus.Fields{"backend": backend, "addr": cfg.Metrics.DatadogAddr}).Info("metrics enabled")
		metrics.SetBackend(b)

	case "", "none":
		logrus.Debug("metrics disabled")

	default:
		logrus.Warnf("unknown metrics backend %q; metrics disabled", backend)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
