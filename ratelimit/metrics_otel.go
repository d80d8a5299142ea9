package ratelimit

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// otelMetrics records admission decisions. Nil receiver means metrics are
// disabled, so call sites never need a guard.
type otelMetrics struct {
	limiter  string
	admitted metric.Int64Counter
	rejected metric.Int64Counter
}

// WithMeter enables OpenTelemetry counters for admitted/rejected requests.
func WithMeter(meter metric.Meter) Option {
	return func(l *Limiter) {
		if meter == nil {
			return
		}
		m := &otelMetrics{limiter: l.name}
		var err error
		m.admitted, err = meter.Int64Counter(
			"ratelimit_admitted_total",
			metric.WithDescription("Requests admitted by the rate limiter"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			l.log.Warn("register admitted counter failed")
			return
		}
		m.rejected, err = meter.Int64Counter(
			"ratelimit_rejected_total",
			metric.WithDescription("Acquire calls that gave up before admission"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			l.log.Warn("register rejected counter failed")
			return
		}
		l.metrics = m
	}
}

func (m *otelMetrics) recordAdmitted(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	m.admitted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("limiter", m.limiter),
		attribute.String("endpoint", endpoint),
	))
}

func (m *otelMetrics) recordRejected(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	m.rejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("limiter", m.limiter),
		attribute.String("endpoint", endpoint),
	))
}
