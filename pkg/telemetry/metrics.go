package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/insightflow/insightflow/pkg/logger"
)

const (
	// MeterName is the default meter name for the application
	MeterName = "github.com/insightflow/insightflow"
)

// Metrics holds all application metrics
type Metrics struct {
	// Export metrics
	ExportsTotal       metric.Int64Counter
	ExportDuration     metric.Float64Histogram
	ExportBytes        metric.Int64Histogram
	PDFFallbacks       metric.Int64Counter
	ImageEmbedFailures metric.Int64Counter

	// Backend fetch metrics
	BackendFetchTotal    metric.Int64Counter
	BackendFetchDuration metric.Float64Histogram

	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
}

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// GetMetrics returns the global metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		var err error
		globalMetrics, err = initMetrics()
		if err != nil {
			logger.Error("Failed to initialize metrics", zap.Error(err))
			globalMetrics = &Metrics{}
		}
	})
	return globalMetrics
}

// instrumentBuilder stops at the first instrument creation error.
type instrumentBuilder struct {
	meter metric.Meter
	err   error
}

func (b *instrumentBuilder) counter(name, desc, unit string) metric.Int64Counter {
	if b.err != nil {
		return nil
	}
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	b.err = err
	return c
}

func (b *instrumentBuilder) seconds(name, desc string, bounds ...float64) metric.Float64Histogram {
	if b.err != nil {
		return nil
	}
	h, err := b.meter.Float64Histogram(name,
		metric.WithDescription(desc),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(bounds...),
	)
	b.err = err
	return h
}

func (b *instrumentBuilder) bytes(name, desc string, bounds ...float64) metric.Int64Histogram {
	if b.err != nil {
		return nil
	}
	h, err := b.meter.Int64Histogram(name,
		metric.WithDescription(desc),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(bounds...),
	)
	b.err = err
	return h
}

func initMetrics() (*Metrics, error) {
	b := &instrumentBuilder{meter: otel.Meter(MeterName)}
	m := &Metrics{
		ExportsTotal: b.counter("insightflow_exports_total",
			"Total number of report exports", "{export}"),
		ExportDuration: b.seconds("insightflow_export_duration_seconds",
			"Duration of report rendering in seconds",
			0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
		ExportBytes: b.bytes("insightflow_export_size_bytes",
			"Size of produced export artifacts",
			1<<10, 16<<10, 128<<10, 1<<20, 4<<20, 16<<20),
		PDFFallbacks: b.counter("insightflow_pdf_fallbacks_total",
			"PDF exports that degraded to plain text", "{export}"),
		ImageEmbedFailures: b.counter("insightflow_image_embed_failures_total",
			"Chart images that could not be embedded", "{image}"),
		BackendFetchTotal: b.counter("insightflow_backend_fetch_total",
			"Result fetches against the analysis backend", "{request}"),
		BackendFetchDuration: b.seconds("insightflow_backend_fetch_duration_seconds",
			"Duration of backend result fetches in seconds",
			0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
		HTTPRequestsTotal: b.counter("insightflow_http_requests_total",
			"Total number of HTTP requests", "{request}"),
		HTTPRequestDuration: b.seconds("insightflow_http_request_duration_seconds",
			"Duration of HTTP requests in seconds",
			0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	}
	if b.err != nil {
		return nil, b.err
	}

	logger.Info("Metrics initialized successfully")
	return m, nil
}

// RecordExport records one finished export
func (m *Metrics) RecordExport(ctx context.Context, kind, format string, success bool, size int, durationSeconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("format", format),
		attribute.Bool("success", success),
	)
	if m.ExportsTotal != nil {
		m.ExportsTotal.Add(ctx, 1, attrs)
	}
	if m.ExportDuration != nil {
		m.ExportDuration.Record(ctx, durationSeconds, attrs)
	}
	if success && m.ExportBytes != nil {
		m.ExportBytes.Record(ctx, int64(size),
			metric.WithAttributes(attribute.String("format", format)),
		)
	}
}

// RecordPDFFallback records a PDF export that was served as text
func (m *Metrics) RecordPDFFallback(ctx context.Context, engine, reason string) {
	if m.PDFFallbacks == nil {
		return
	}
	m.PDFFallbacks.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("engine", engine),
			attribute.String("reason", reason),
		),
	)
}

// RecordImageFailure records a chart image skipped during PDF layout
func (m *Metrics) RecordImageFailure(ctx context.Context, title string) {
	if m.ImageEmbedFailures == nil {
		return
	}
	m.ImageEmbedFailures.Add(ctx, 1,
		metric.WithAttributes(attribute.String("chart", title)),
	)
}

// RecordBackendFetch records a result fetch against the analysis backend
func (m *Metrics) RecordBackendFetch(ctx context.Context, kind string, statusCode int, durationSeconds float64) {
	if m.BackendFetchTotal != nil {
		m.BackendFetchTotal.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("kind", kind),
				attribute.Int("status_code", statusCode),
			),
		)
	}
	if m.BackendFetchDuration != nil {
		m.BackendFetchDuration.Record(ctx, durationSeconds,
			metric.WithAttributes(attribute.String("kind", kind)),
		)
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, durationSeconds float64) {
	if m.HTTPRequestsTotal != nil {
		m.HTTPRequestsTotal.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("method", method),
				attribute.String("path", path),
				attribute.Int("status_code", statusCode),
			),
		)
	}
	if m.HTTPRequestDuration != nil {
		m.HTTPRequestDuration.Record(ctx, durationSeconds,
			metric.WithAttributes(
				attribute.String("method", method),
				attribute.String("path", path),
			),
		)
	}
}
