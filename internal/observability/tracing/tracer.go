// Package tracing provides the OpenTelemetry tracer used to create spans
// around dispatch runs and their pages. The tracer resolves against the
// globally registered TracerProvider, so deployments without a configured
// exporter get no-op spans at negligible cost.
package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the global tracer instance for the push dispatcher.
var tracer = otel.Tracer("newspush")

// GetTracer returns the global tracer for creating spans.
//
// Example usage:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "dispatch.run")
//	defer span.End()
func GetTracer() trace.Tracer {
	return tracer
}
