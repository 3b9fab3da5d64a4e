// Package telemetry wires OpenTelemetry into the export service.
// Traces go to an OTLP collector, metrics are scraped by Prometheus.
package telemetry

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.uber.org/zap"

	"github.com/insightflow/insightflow/consts"
	"github.com/insightflow/insightflow/pkg/logger"
)

const (
	defaultExporterTimeout = 10 * time.Second
	defaultScrapeTimeout   = 10 * time.Second
	defaultPrometheusPort  = 9090
	defaultMetricsPath     = "/metrics"
)

// Config holds the telemetry configuration
type Config struct {
	// Enabled enables/disables telemetry
	Enabled bool `yaml:"enabled"`
	// ServiceName is the name of the service for telemetry
	ServiceName string `yaml:"service_name"`
	// SampleRatio is the fraction of root traces kept; 0 keeps all
	SampleRatio float64 `yaml:"sample_ratio"`
	// OTLP configuration for trace export
	OTLP OTLPConfig `yaml:"otlp"`
	// Prometheus configuration for metrics export
	Prometheus PrometheusConfig `yaml:"prometheus"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	// Enabled enables OTLP trace export
	Enabled bool `yaml:"enabled"`
	// Endpoint is the OTLP collector endpoint (e.g., "localhost:4317")
	Endpoint string `yaml:"endpoint"`
	// Insecure disables TLS for the connection
	Insecure bool `yaml:"insecure"`
}

// PrometheusConfig holds Prometheus metrics configuration
type PrometheusConfig struct {
	// Enabled enables Prometheus metrics export
	Enabled bool `yaml:"enabled"`
	// Port of the standalone metrics listener. 0 means 9090; a negative
	// port skips the listener and the API server mounts Handler instead.
	Port int `yaml:"port"`
	// Path is the scrape path, "/metrics" when empty
	Path string `yaml:"path"`
}

// Standalone reports whether metrics get their own listener
func (c PrometheusConfig) Standalone() bool {
	return c.Port >= 0
}

// activeRegistry is the registry of the running Telemetry, read by Handler
var activeRegistry atomic.Pointer[promclient.Registry]

// Telemetry owns the OpenTelemetry providers and the metrics listener
type Telemetry struct {
	config   Config
	registry *promclient.Registry
	// shutdowns run in reverse order on Shutdown
	shutdowns []func(context.Context) error
}

// New sets up tracing and metrics. A disabled config yields a no-op instance.
func New(cfg Config) (*Telemetry, error) {
	if !cfg.Enabled {
		logger.Info("Telemetry is disabled")
		return &Telemetry{config: cfg}, nil
	}

	cfg = withDefaults(cfg)
	t := &Telemetry{config: cfg}

	// resource.New avoids schema URL conflicts between semconv versions
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(consts.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp, err := t.tracerProvider(res)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer provider: %w", err)
	}
	otel.SetTracerProvider(tp)
	t.shutdowns = append(t.shutdowns, tp.Shutdown)

	mp, err := t.meterProvider(res)
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize meter provider: %w", err)
	}
	otel.SetMeterProvider(mp)
	t.shutdowns = append(t.shutdowns, mp.Shutdown)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if cfg.Prometheus.Enabled && cfg.Prometheus.Standalone() {
		t.serveMetrics()
	}

	logger.Info("Telemetry initialized",
		zap.String("service_name", cfg.ServiceName),
		zap.Float64("sample_ratio", cfg.SampleRatio),
		zap.Bool("otlp_enabled", cfg.OTLP.Enabled),
		zap.Bool("prometheus_enabled", cfg.Prometheus.Enabled),
		zap.String("metrics_path", cfg.Prometheus.Path),
	)
	return t, nil
}

func withDefaults(cfg Config) Config {
	if cfg.ServiceName == "" {
		cfg.ServiceName = consts.ServiceName
	}
	if cfg.SampleRatio <= 0 || cfg.SampleRatio > 1 {
		cfg.SampleRatio = 1
	}
	if cfg.Prometheus.Port == 0 {
		cfg.Prometheus.Port = defaultPrometheusPort
	}
	if cfg.Prometheus.Path == "" {
		cfg.Prometheus.Path = defaultMetricsPath
	}
	return cfg
}

func (t *Telemetry) tracerProvider(res *resource.Resource) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(t.config.SampleRatio))),
	}

	if t.config.OTLP.Enabled && t.config.OTLP.Endpoint != "" {
		ctx, cancel := context.WithTimeout(context.Background(), defaultExporterTimeout)
		defer cancel()

		exporterOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(t.config.OTLP.Endpoint)}
		if t.config.OTLP.Insecure {
			exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
		logger.Info("OTLP trace exporter initialized", zap.String("endpoint", t.config.OTLP.Endpoint))
	}

	return sdktrace.NewTracerProvider(opts...), nil
}

// meterProvider exports OTel instruments into a private registry that also
// carries the Go runtime, process and build info collectors.
func (t *Telemetry) meterProvider(res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if t.config.Prometheus.Enabled {
		reg := promclient.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)

		exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(exporter))

		t.registry = reg
		activeRegistry.Store(reg)
	}

	return sdkmetric.NewMeterProvider(opts...), nil
}

func (t *Telemetry) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle(t.config.Prometheus.Path, t.handler())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", t.config.Prometheus.Port),
		Handler:      mux,
		ReadTimeout:  defaultScrapeTimeout,
		WriteTimeout: defaultScrapeTimeout,
	}
	t.shutdowns = append(t.shutdowns, srv.Shutdown)

	go func() {
		logger.Info("Starting Prometheus metrics server", zap.Int("port", t.config.Prometheus.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Prometheus metrics server error", zap.Error(err))
		}
	}()
}

func (t *Telemetry) handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{Timeout: defaultScrapeTimeout})
}

// Handler serves the metrics of the running Telemetry. It answers 404
// until Prometheus export has been enabled.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reg := activeRegistry.Load()
		if reg == nil {
			http.NotFound(w, r)
			return
		}
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{Timeout: defaultScrapeTimeout}).ServeHTTP(w, r)
	})
}

// Shutdown flushes and stops the providers and the metrics listener
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if !t.config.Enabled {
		return nil
	}

	logger.Info("Shutting down telemetry")

	var errs []error
	for i := len(t.shutdowns) - 1; i >= 0; i-- {
		if err := t.shutdowns[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	t.shutdowns = nil
	if t.registry != nil {
		activeRegistry.CompareAndSwap(t.registry, nil)
	}

	if err := stderrors.Join(errs...); err != nil {
		logger.Error("Telemetry shutdown incomplete", zap.Error(err))
		return err
	}
	return nil
}

// IsEnabled returns whether telemetry is enabled
func (t *Telemetry) IsEnabled() bool {
	return t.config.Enabled
}
