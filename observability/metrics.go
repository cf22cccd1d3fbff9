package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instrumentation scope used by the parallel map engine.
const MeterName = "github.com/adamthedash/iterators/parmap"

// Outcome statuses recorded on parmap.outcomes.
const (
	StatusSuccess      = "success"
	StatusFailed       = "failed"
	StatusPanicked     = "panicked"
	StatusSourceFailed = "source_failed"
)

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// PipelineMetrics holds the instruments of one engine instance. Every
// measurement carries the pipeline name attribute.
type PipelineMetrics struct {
	dispatched metric.Int64Counter
	inflight   metric.Int64UpDownCounter
	outcomes   metric.Int64Counter
	duration   metric.Float64Histogram
	attrs      attribute.Set
}

// NewPipelineMetrics creates metric instruments on the given meter.
func NewPipelineMetrics(meter metric.Meter, pipeline string) (*PipelineMetrics, error) {
	dispatched, err := meter.Int64Counter("parmap.tasks.dispatched",
		metric.WithDescription("Tasks handed to the worker pool"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating parmap.tasks.dispatched counter: %w", err)
	}

	inflight, err := meter.Int64UpDownCounter("parmap.tasks.inflight",
		metric.WithDescription("Tasks dispatched but not yet released to the consumer"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating parmap.tasks.inflight counter: %w", err)
	}

	outcomes, err := meter.Int64Counter("parmap.outcomes",
		metric.WithDescription("Completed tasks by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating parmap.outcomes counter: %w", err)
	}

	duration, err := meter.Float64Histogram("parmap.task.duration",
		metric.WithDescription("Duration of one transformation call in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating parmap.task.duration histogram: %w", err)
	}

	return &PipelineMetrics{
		dispatched: dispatched,
		inflight:   inflight,
		outcomes:   outcomes,
		duration:   duration,
		attrs:      attribute.NewSet(attribute.String(AttrPipeline, pipeline)),
	}, nil
}

// RecordDispatch counts one task entering the pool.
func (m *PipelineMetrics) RecordDispatch(ctx context.Context) {
	opt := metric.WithAttributeSet(m.attrs)
	m.dispatched.Add(ctx, 1, opt)
	m.inflight.Add(ctx, 1, opt)
}

// RecordRelease counts n tasks leaving the in-flight set, either released
// to the consumer or discarded at shutdown.
func (m *PipelineMetrics) RecordRelease(ctx context.Context, n int64) {
	if n == 0 {
		return
	}
	m.inflight.Add(ctx, -n, metric.WithAttributeSet(m.attrs))
}

// RecordOutcome records a finished transformation call.
func (m *PipelineMetrics) RecordOutcome(ctx context.Context, status string, d time.Duration) {
	attrs := metric.WithAttributes(append(m.attrs.ToSlice(), attribute.String(AttrStatus, status))...)
	m.outcomes.Add(ctx, 1, attrs)
	if status != StatusSourceFailed {
		m.duration.Record(ctx, d.Seconds(), metric.WithAttributeSet(m.attrs))
	}
}
