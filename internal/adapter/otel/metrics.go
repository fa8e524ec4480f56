package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "contextd"

// Metrics holds the retrieval pipeline metric instruments.
type Metrics struct {
	ContextRequests  metric.Int64Counter
	SectionsIncluded metric.Int64Counter
	SectionFailures  metric.Int64Counter
	ContextTokens    metric.Int64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ContextRequests, err = meter.Int64Counter("contextd.context.requests",
		metric.WithDescription("Number of context assembly requests"))
	if err != nil {
		return nil, err
	}

	m.SectionsIncluded, err = meter.Int64Counter("contextd.context.sections_included",
		metric.WithDescription("Number of sections included in assembled contexts"))
	if err != nil {
		return nil, err
	}

	m.SectionFailures, err = meter.Int64Counter("contextd.context.section_failures",
		metric.WithDescription("Number of per-section fetch failures"))
	if err != nil {
		return nil, err
	}

	m.ContextTokens, err = meter.Int64Histogram("contextd.context.tokens",
		metric.WithDescription("Estimated token cost of assembled contexts"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
