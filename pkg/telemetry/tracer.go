package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the default tracer name for the application
	TracerName = "github.com/insightflow/insightflow"
)

// Tracer returns the global tracer for the application
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// StartSpan starts a new span. The caller must call span.End().
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// SpanFromContext returns the current span, or a no-op span.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// SetSpanError records an error on the span and sets its status to error
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanOK sets the span status to OK
func SetSpanOK(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddSpanEvent adds an event to the span with optional attributes
func AddSpanEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// Attribute keys shared by export spans
var (
	AttrExportID      = attribute.Key("export.id")
	AttrExportKind    = attribute.Key("export.kind")
	AttrExportFormat  = attribute.Key("export.format")
	AttrExportSubject = attribute.Key("export.subject")
	AttrExportBytes   = attribute.Key("export.bytes")
	AttrFallback      = attribute.Key("export.fallback")
	AttrPDFEngine     = attribute.Key("pdf.engine")
	AttrPDFPages      = attribute.Key("pdf.pages")
	AttrResultID      = attribute.Key("result.id")
)

// WithExportAttributes returns span start options describing an export
func WithExportAttributes(exportID, kind, format string) trace.SpanStartOption {
	return trace.WithAttributes(
		AttrExportID.String(exportID),
		AttrExportKind.String(kind),
		AttrExportFormat.String(format),
	)
}
