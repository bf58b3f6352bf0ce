package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"switchrecon/internal/config"
)

const (
	ServiceName = config.AppName
	MeterName   = "switchrecon"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	MetricExporter string // "prometheus", "none"
	SampleRatio    float64

	// Registry receives the Prometheus collector. Nil means the process-wide
	// default registerer.
	Registry *promclient.Registry
}

// OTelProviders holds the OpenTelemetry providers. Tracer and Meter are
// never nil: disabled signals fall back to no-op implementations.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// DefaultOTelConfig returns a default OpenTelemetry configuration
func DefaultOTelConfig() *OTelConfig {
	return NewOTelConfig(config.Default().Telemetry)
}

// NewOTelConfig maps the telemetry section of the application config
func NewOTelConfig(cfg config.TelemetryConfig) *OTelConfig {
	env := cfg.Environment
	if env == "" {
		env = "development"
	}
	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: config.AppVersion,
		Environment:    env,
		TraceExporter:  cfg.TraceExporter,
		MetricExporter: cfg.MetricExporter,
		SampleRatio:    cfg.SampleRatio,
	}
}

// InitializeOTel sets up tracing and metrics according to cfg
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}

	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metric_exporter", cfg.MetricExporter))

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Tracer: tracenoop.NewTracerProvider().Tracer(MeterName),
		Meter:  metricnoop.NewMeterProvider().Meter(MeterName),
		Logger: logger,
	}

	if err := initializeTracing(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return providers, nil
}

func createResource(cfg *OTelConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))
	return nil
}

func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		var opts []prometheus.Option
		if cfg.Registry != nil {
			opts = append(opts, prometheus.WithRegisterer(cfg.Registry))
			providers.PrometheusHTTP = promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})
		} else {
			providers.PrometheusHTTP = promhttp.Handler()
		}

		exporter, err := prometheus.New(opts...)
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
		otel.SetMeterProvider(mp)
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.Logger.InfoContext(ctx, "Metrics initialized",
		slog.String("exporter", cfg.MetricExporter))
	return nil
}

// RunMetrics are the instruments recorded by the HTTP layer and the
// reconciliation runs.
type RunMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	RunsTotal        metric.Int64Counter
	RunDuration      metric.Float64Histogram
	ActiveRuns       metric.Int64UpDownCounter
	RecordsProcessed metric.Int64Counter
	TrailLookups     metric.Int64Counter
	FlagsRaised      metric.Int64Counter
	SourceWarnings   metric.Int64Counter

	WebSocketConnections metric.Int64UpDownCounter
}

// CreateRunMetrics registers the application instruments on meter
func CreateRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	m := &RunMetrics{}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}")); err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30)); err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration histogram: %w", err)
	}
	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter("http_active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
		metric.WithUnit("{request}")); err != nil {
		return nil, fmt.Errorf("failed to create http_active_requests counter: %w", err)
	}

	if m.RunsTotal, err = meter.Int64Counter("reconcile_runs_total",
		metric.WithDescription("Reconciliation runs by outcome"),
		metric.WithUnit("{run}")); err != nil {
		return nil, fmt.Errorf("failed to create reconcile_runs_total counter: %w", err)
	}
	if m.RunDuration, err = meter.Float64Histogram("reconcile_run_duration_seconds",
		metric.WithDescription("Wall time of a reconciliation run"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 10, 30, 60, 300, 900)); err != nil {
		return nil, fmt.Errorf("failed to create reconcile_run_duration histogram: %w", err)
	}
	if m.ActiveRuns, err = meter.Int64UpDownCounter("reconcile_active_runs",
		metric.WithDescription("Runs currently executing"),
		metric.WithUnit("{run}")); err != nil {
		return nil, fmt.Errorf("failed to create reconcile_active_runs counter: %w", err)
	}
	if m.RecordsProcessed, err = meter.Int64Counter("reconcile_records_total",
		metric.WithDescription("Switch records enriched"),
		metric.WithUnit("{record}")); err != nil {
		return nil, fmt.Errorf("failed to create reconcile_records_total counter: %w", err)
	}
	if m.TrailLookups, err = meter.Int64Counter("reconcile_trail_lookups_total",
		metric.WithDescription("Trail-rate lookups by column and status"),
		metric.WithUnit("{lookup}")); err != nil {
		return nil, fmt.Errorf("failed to create reconcile_trail_lookups_total counter: %w", err)
	}
	if m.FlagsRaised, err = meter.Int64Counter("reconcile_flags_total",
		metric.WithDescription("Records with a rule flag set"),
		metric.WithUnit("{record}")); err != nil {
		return nil, fmt.Errorf("failed to create reconcile_flags_total counter: %w", err)
	}
	if m.SourceWarnings, err = meter.Int64Counter("reconcile_source_warnings_total",
		metric.WithDescription("Non-fatal input problems reported by runs"),
		metric.WithUnit("{warning}")); err != nil {
		return nil, fmt.Errorf("failed to create reconcile_source_warnings_total counter: %w", err)
	}

	if m.WebSocketConnections, err = meter.Int64UpDownCounter("websocket_connections",
		metric.WithDescription("Open WebSocket connections"),
		metric.WithUnit("{connection}")); err != nil {
		return nil, fmt.Errorf("failed to create websocket_connections counter: %w", err)
	}

	return m, nil
}

// RunObservation is what a finished run reports to RecordRunMetrics
type RunObservation struct {
	Duration time.Duration
	Success  bool
	Records  int
	Warnings int
	// Lookups maps a trail column to its found and not-found counts.
	Lookups map[string][2]int
	// Flags maps a rule flag name to the number of records carrying it.
	Flags map[string]int
}

// RecordRunMetrics records the outcome of one reconciliation run
func RecordRunMetrics(ctx context.Context, m *RunMetrics, obs RunObservation) {
	if m == nil {
		return
	}

	status := "success"
	if !obs.Success {
		status = "failure"
	}
	statusAttr := metric.WithAttributes(attribute.String("status", status))

	m.RunsTotal.Add(ctx, 1, statusAttr)
	m.RunDuration.Record(ctx, obs.Duration.Seconds(), statusAttr)
	if !obs.Success {
		return
	}

	m.RecordsProcessed.Add(ctx, int64(obs.Records))
	m.SourceWarnings.Add(ctx, int64(obs.Warnings))
	for column, counts := range obs.Lookups {
		m.TrailLookups.Add(ctx, int64(counts[0]), metric.WithAttributes(
			attribute.String("column", column), attribute.String("status", "found")))
		m.TrailLookups.Add(ctx, int64(counts[1]), metric.WithAttributes(
			attribute.String("column", column), attribute.String("status", "not_found")))
	}
	for flag, n := range obs.Flags {
		m.FlagsRaised.Add(ctx, int64(n), metric.WithAttributes(attribute.String("flag", flag)))
	}
}

// RecordActiveRunChange moves the active-runs gauge by delta
func RecordActiveRunChange(ctx context.Context, m *RunMetrics, delta int64) {
	if m == nil {
		return
	}
	m.ActiveRuns.Add(ctx, delta)
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// AddSpanEvent adds an event to the current span with structured attributes
func AddSpanEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(toAttributes(attributes)...))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanAttributes sets attributes on the current span
func SetSpanAttributes(ctx context.Context, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(toAttributes(attributes)...)
}

func toAttributes(attributes map[string]interface{}) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
	return attrs
}
