package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "gitlab.com/yelinaung/finance-bot"

// StartSpan starts a span from the global tracer provider.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Actions counts user actions per domain, split by outcome.
type Actions struct {
	domain string
	total  metric.Int64Counter
}

// NewActions creates the action counter for domain.
func NewActions(domain string) *Actions {
	counter, err := otel.Meter(instrumentationName).Int64Counter(
		"finance.actions",
		metric.WithDescription("User actions by domain, action and outcome"),
	)
	if err != nil {
		otel.Handle(err)
	}
	return &Actions{domain: domain, total: counter}
}

// Record counts one action.
func (a *Actions) Record(ctx context.Context, action string, err error) {
	if a == nil || a.total == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	a.total.Add(ctx, 1, metric.WithAttributes(
		attribute.String("domain", a.domain),
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}
