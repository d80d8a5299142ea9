package breaker

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// otelMetrics counts transitions and fast-failed calls. Nil receiver means
// metrics are disabled.
type otelMetrics struct {
	breaker     string
	transitions metric.Int64Counter
	rejected    metric.Int64Counter
}

// WithMeter enables OpenTelemetry counters for this breaker.
func WithMeter(meter metric.Meter) Option {
	return func(b *Breaker) {
		if meter == nil {
			return
		}
		m := &otelMetrics{breaker: b.name}
		var err error
		m.transitions, err = meter.Int64Counter(
			"breaker_transitions_total",
			metric.WithDescription("Circuit breaker state transitions"),
		)
		if err != nil {
			b.log.Warn("register transition counter failed")
			return
		}
		m.rejected, err = meter.Int64Counter(
			"breaker_rejected_total",
			metric.WithDescription("Calls rejected while the breaker was open"),
			metric.WithUnit("{call}"),
		)
		if err != nil {
			b.log.Warn("register rejected counter failed")
			return
		}
		b.metrics = m
	}
}

func (m *otelMetrics) recordTransition(ctx context.Context, from, to State) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("breaker", m.breaker),
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
	))
}

func (m *otelMetrics) recordRejected(ctx context.Context) {
	if m == nil {
		return
	}
	m.rejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("breaker", m.breaker),
	))
}
