package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchrecon/internal/config"
	"switchrecon/internal/shared/testutil"
)

func newTestProviders(t *testing.T, traceExporter string) *OTelProviders {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	cfg := NewOTelConfig(config.TelemetryConfig{
		MetricExporter: "prometheus",
		TraceExporter:  traceExporter,
		SampleRatio:    1.0,
	})
	cfg.Registry = promclient.NewRegistry()

	providers, err := InitializeOTel(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		providers.Shutdown(ctx)
	})
	return providers
}

func TestOTelInitialization(t *testing.T) {
	providers := newTestProviders(t, "none")

	assert.Nil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer, "disabled tracing falls back to a no-op tracer")
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)
}

func TestOTelDisabled(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers, err := InitializeOTel(&OTelConfig{ServiceName: ServiceName, MetricExporter: "none", TraceExporter: "none"}, logger)
	require.NoError(t, err)

	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.PrometheusHTTP)
	assert.NotNil(t, providers.Meter)

	metrics, err := CreateRunMetrics(providers.Meter)
	require.NoError(t, err)
	RecordRunMetrics(context.Background(), metrics, RunObservation{Success: true, Records: 3})
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestOTelUnsupportedExporter(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	_, err := InitializeOTel(&OTelConfig{TraceExporter: "jaeger"}, logger)
	assert.Error(t, err)
}

func TestTraceCorrelation(t *testing.T) {
	providers := newTestProviders(t, "stdout")

	ctx, span := providers.Tracer.Start(context.Background(), "test-operation")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	require.NotEmpty(t, traceID)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)

	ctx = WithTraceID(ctx, traceID)
	assert.Equal(t, traceID, GetTraceID(ctx))

	AddSpanEvent(ctx, "rows.loaded", map[string]interface{}{"rows": 12, "file": "switch.xlsx"})
	SetSpanAttributes(ctx, map[string]interface{}{"workers": int64(4), "strict": true})
	RecordError(ctx, assert.AnError)
}

func TestRunMetricsExposition(t *testing.T) {
	providers := newTestProviders(t, "none")

	metrics, err := CreateRunMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordActiveRunChange(ctx, metrics, 1)
	RecordRunMetrics(ctx, metrics, RunObservation{
		Duration: 1500 * time.Millisecond,
		Success:  true,
		Records:  7,
		Warnings: 1,
		Lookups:  map[string][2]int{"switch in TRAIL_1ST_YEAR": {5, 2}},
		Flags:    map[string]int{"TRAIL_INCREASE": 3},
	})
	RecordActiveRunChange(ctx, metrics, -1)
	RecordRunMetrics(ctx, nil, RunObservation{})

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "reconcile_runs_total")
	assert.Contains(t, body, `status="success"`)
	assert.Contains(t, body, "reconcile_records_total")
	assert.Contains(t, body, `flag="TRAIL_INCREASE"`)
	assert.Contains(t, body, `status="not_found"`)
}
