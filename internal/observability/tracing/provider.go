package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Setup installs a tracer provider as the global OpenTelemetry provider and
// returns a shutdown function to flush pending spans.
//
// The exporter is optional: passing nil installs a provider that records span
// context for log correlation without exporting anywhere, which is the default
// for batch runs. Deployments that ship spans pass a configured exporter.
func Setup(exporter sdktrace.SpanExporter) func(context.Context) error {
	var opts []sdktrace.TracerProviderOption
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	return tp.Shutdown
}
