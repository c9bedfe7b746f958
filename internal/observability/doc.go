// Package observability provides the observability infrastructure for the
// push dispatcher: structured logging, Prometheus metrics, and OpenTelemetry
// tracing.
//
// Subpackages:
//   - logging: structured logging utilities with slog
//   - tracing: OpenTelemetry tracer for dispatch run spans
//
// Prometheus metrics are registered next to the code they measure (see
// internal/usecase/dispatch/metrics.go) and exposed by the /metrics server
// in cmd/dispatcher.
package observability
