package exec

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records per-dispatch counters and latency through an
// OpenTelemetry Meter, the same graceful-no-op-when-unconfigured style as
// bus.Tracer: every method is safe to call on a zero-value Metrics.
type Metrics struct {
	dispatched metric.Int64Counter
	failed     metric.Int64Counter
	duration   metric.Float64Histogram
}

// NewMetrics builds a Metrics recorder from meter. Passing nil yields a
// Metrics whose RecordDispatch is a no-op, so callers need not branch on
// whether a MeterProvider is configured.
func NewMetrics(meter metric.Meter) *Metrics {
	if meter == nil {
		return &Metrics{}
	}
	dispatched, _ := meter.Int64Counter(
		"pera.exec.dispatched",
		metric.WithDescription("number of tasks dispatched to a tool"),
	)
	failed, _ := meter.Int64Counter(
		"pera.exec.failed",
		metric.WithDescription("number of dispatched tasks that did not succeed"),
	)
	duration, _ := meter.Float64Histogram(
		"pera.exec.duration_ms",
		metric.WithDescription("task dispatch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	return &Metrics{dispatched: dispatched, failed: failed, duration: duration}
}

// RecordDispatch records the outcome of one Dispatch call.
func (m *Metrics) RecordDispatch(ctx context.Context, toolName string, success bool, durationMS int64) {
	if m == nil || m.dispatched == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("tool", toolName))
	m.dispatched.Add(ctx, 1, attrs)
	if !success {
		m.failed.Add(ctx, 1, attrs)
	}
	m.duration.Record(ctx, float64(durationMS), attrs)
}
