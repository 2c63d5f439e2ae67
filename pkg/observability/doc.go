// Package observability provides logrus logging setup and Prometheus metrics for merge runs.
//
// # Logging
//
// Components take a *logrus.Logger. Build one from configuration:
//
//	level, _ := observability.ParseLogLevel("debug")
//	log := observability.NewLogger(level, observability.FormatJSON, os.Stderr)
//
// Library callers that want silence can pass observability.NewDiscardLogger().
//
// # Metrics
//
// Metrics are registered on a caller-supplied registry so that separate runs never
// share global state:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMergeMetrics(registry)
//	merger := merge.NewMerger(opts, log, metrics)
//
// A nil *MergeMetrics is accepted everywhere and records nothing.
package observability
