package operations

import (
	"context"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"switchrecon/internal/infrastructure"
	"switchrecon/internal/reconcile"
)

const (
	TracerName = "switchrecon.operations"
)

// RunTracer provides OpenTelemetry spans for reconciliation runs
type RunTracer struct {
	tracer trace.Tracer
}

// NewRunTracer creates a tracer from providers; nil providers use the
// global tracer provider.
func NewRunTracer(providers *infrastructure.OTelProviders) *RunTracer {
	if providers != nil && providers.Tracer != nil {
		return &RunTracer{tracer: providers.Tracer}
	}
	return &RunTracer{tracer: otel.Tracer(TracerName)}
}

// StartRun opens the span covering one run
func (t *RunTracer) StartRun(ctx context.Context, runID string, in reconcile.Inputs) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "reconcile.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.primary", filepath.Base(in.Primary)),
			attribute.Int("run.current_files", len(in.Current)),
			attribute.Int("run.previous_files", len(in.Previous)),
			attribute.Int("run.funding_files", len(in.Funding)),
			attribute.Int("run.brokerage_files", len(in.Brokerage)),
			attribute.Bool("run.scheme_master", in.SchemeMaster != ""),
		),
	)
}

// EndRun records the outcome of run on span and ends it
func (t *RunTracer) EndRun(span trace.Span, run Run, err error) {
	span.SetAttributes(attribute.String("run.status", string(run.Status)))
	if run.Summary != nil {
		span.SetAttributes(
			attribute.Int("run.records", run.Summary.TotalRecords),
			attribute.Int("run.highlighted", run.Summary.Highlighted),
		)
	}
	span.SetAttributes(attribute.Int("run.warnings", len(run.Warnings)))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
