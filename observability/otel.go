package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OtelObserver turns each Event into a span event on a tracer obtained
// from the global otel.Tracer(name). When the host has not configured a
// TracerProvider, otel/trace's no-op default applies and OnEvent costs
// almost nothing. Exporter setup is the host's concern; none is wired
// here.
type OtelObserver struct {
	tracer trace.Tracer
}

// NewOtelObserver builds an OtelObserver whose tracer is named after the
// scope identifying the emitting subsystem (e.g. "runtime", "workflow").
// Spans and span events are named after each Event's Type.
func NewOtelObserver(scope string) *OtelObserver {
	return &OtelObserver{tracer: otel.Tracer(scope)}
}

// OnEvent records event as a span event on the span active in ctx, if
// any; otherwise it starts and immediately ends a zero-duration span so
// the event is still recorded under its own name.
func (o *OtelObserver) OnEvent(ctx context.Context, event Event) {
	attrs := make([]attribute.KeyValue, 0, len(event.Data)+2)
	attrs = append(attrs,
		attribute.String("source", event.Source),
		attribute.String("level", event.Level.String()),
	)
	for k, v := range event.Data {
		attrs = append(attrs, attribute.String(k, toAttrString(v)))
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.AddEvent(string(event.Type), trace.WithAttributes(attrs...))
		return
	}

	_, span = o.tracer.Start(ctx, string(event.Type), trace.WithAttributes(attrs...))
	span.End()
}

func toAttrString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case error:
		return val.Error()
	default:
		return fmt.Sprintf("%v", val)
	}
}
