package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "contextd"

// StartAssembleSpan starts a span for one context assembly run.
func StartAssembleSpan(ctx context.Context, maxTokens, sectionCount int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "context.assemble",
		trace.WithAttributes(
			attribute.Int("context.max_tokens", maxTokens),
			attribute.Int("context.sections_active", sectionCount),
		),
	)
}

// StartSectionSpan starts a span for one section fetch.
func StartSectionSpan(ctx context.Context, section, table string, limit int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "context.section",
		trace.WithAttributes(
			attribute.String("section.name", section),
			attribute.String("section.table", table),
			attribute.Int("section.limit", limit),
		),
	)
}
