// Package tracing starts the OpenTelemetry spans that wrap benchmark runs and
// trace evaluations. Without an exporter every span is a no-op.
package tracing

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/nextlevelbuilder/droidbench/internal/evaluator"
)

// Tracer starts droidbench spans. The zero value is not usable; use New or Noop.
type Tracer struct {
	tracer trace.Tracer
}

// New wraps an OpenTelemetry tracer. A nil tracer yields a no-op Tracer.
func New(t trace.Tracer) *Tracer {
	if t == nil {
		return Noop()
	}
	return &Tracer{tracer: t}
}

// Noop returns a Tracer whose spans are discarded.
func Noop() *Tracer {
	return &Tracer{tracer: noop.NewTracerProvider().Tracer("droidbench")}
}

// StartRun opens the span covering one (llm, mode) benchmark run.
func (t *Tracer) StartRun(ctx context.Context, runID, llm, mode string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "bench.run",
		trace.WithAttributes(
			attribute.String("droidbench.run_id", runID),
			attribute.String("droidbench.llm", llm),
			attribute.String("droidbench.mode", mode),
		),
	)
}

// StartEvaluate opens the span covering the evaluation of one trace.
func (t *Tracer) StartEvaluate(ctx context.Context, taskID int, app string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "evaluate",
		trace.WithAttributes(
			attribute.Int("droidbench.task_id", taskID),
			attribute.String("droidbench.app", app),
		),
	)
}

// EndEvaluate records the verdict (or the failure to produce one) and ends the span.
func EndEvaluate(span trace.Span, v evaluator.Verdict, steps int, err error) {
	defer span.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetAttributes(
		attribute.Bool("droidbench.success", v.Success),
		attribute.Float64("droidbench.completion", v.Completion),
		attribute.Int("droidbench.steps", steps),
		attribute.Int("droidbench.rules", len(v.Rules)),
		attribute.Int("droidbench.rules_passed", v.Passed()),
	)
	span.SetStatus(codes.Ok, "")
}

// EndRun records the aggregate scores and ends the run span.
func EndRun(span trace.Span, tasks int, successRate, avgCompletion float64, err error) {
	defer span.End()
	span.SetAttributes(
		attribute.Int("droidbench.tasks", tasks),
		attribute.Float64("droidbench.success_rate", successRate),
		attribute.Float64("droidbench.avg_completion", avgCompletion),
	)
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, context.Canceled):
		span.SetStatus(codes.Error, "canceled")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
