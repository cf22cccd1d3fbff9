package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Enabled() {
		t.Error("expected export to be disabled without an endpoint")
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
}

func TestInit_Disabled(t *testing.T) {
	before := otel.GetTracerProvider()
	shutdown, err := Init(context.Background(), DefaultConfig("svc"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Error("disabled Init must not replace the global tracer provider")
	}
}

func TestInit_Enabled(t *testing.T) {
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	}()

	cfg := DefaultConfig("svc")
	cfg.Endpoint = "localhost:4318"
	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Error("expected an SDK tracer provider to be installed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	// Nothing listens on the endpoint; only check that shutdown returns.
	_ = shutdown(ctx)
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
	}
	for _, tc := range tests {
		if got := samplerFor(tc.rate).Description(); got != tc.want {
			t.Errorf("samplerFor(%v) = %s, want %s", tc.rate, got, tc.want)
		}
	}
	if d := samplerFor(0.5).Description(); d == "AlwaysOnSampler" || d == "AlwaysOffSampler" {
		t.Errorf("expected ratio sampler, got %s", d)
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource(Config{ServiceName: "svc", ServiceVersion: "1.2.3", Environment: "test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := res.Set().Value(attribute.Key(AttrServiceName))
	if !ok || v.AsString() != "svc" {
		t.Errorf("expected service.name=svc, got %v", v)
	}
}

func TestPipelineMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewPipelineMetrics(mp.Meter(MeterName), "digest")
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		m.RecordDispatch(ctx)
	}
	m.RecordOutcome(ctx, StatusSuccess, 10*time.Millisecond)
	m.RecordOutcome(ctx, StatusFailed, 5*time.Millisecond)
	m.RecordOutcome(ctx, StatusSourceFailed, 0)
	m.RecordRelease(ctx, 2)
	m.RecordRelease(ctx, 0)

	got := collect(t, reader)

	dispatched := got["parmap.tasks.dispatched"].Data.(metricdata.Sum[int64])
	if v := dispatched.DataPoints[0].Value; v != 3 {
		t.Errorf("dispatched = %d, want 3", v)
	}
	pipeline, _ := dispatched.DataPoints[0].Attributes.Value(AttrPipeline)
	if pipeline.AsString() != "digest" {
		t.Errorf("expected pipeline attribute 'digest', got %v", pipeline)
	}

	inflight := got["parmap.tasks.inflight"].Data.(metricdata.Sum[int64])
	if v := inflight.DataPoints[0].Value; v != 1 {
		t.Errorf("inflight = %d, want 1", v)
	}

	outcomes := got["parmap.outcomes"].Data.(metricdata.Sum[int64])
	if len(outcomes.DataPoints) != 3 {
		t.Errorf("expected one outcome series per status, got %d", len(outcomes.DataPoints))
	}

	duration := got["parmap.task.duration"].Data.(metricdata.Histogram[float64])
	if c := duration.DataPoints[0].Count; c != 2 {
		t.Errorf("duration count = %d, want 2 (source failures are not timed)", c)
	}
}

func TestPipelineMetrics_Noop(t *testing.T) {
	m, err := NewPipelineMetrics(noop.NewMeterProvider().Meter("test"), "p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()
	m.RecordDispatch(ctx)
	m.RecordOutcome(ctx, StatusPanicked, time.Millisecond)
	m.RecordRelease(ctx, 1)
}

func TestStartSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx, span := StartSpan(context.Background(), SpanParmapRun)
	SetSpanAttribute(ctx, AttrWorkers, 4)
	SetSpanAttribute(ctx, AttrPipelineID, "abc")
	SetSpanAttribute(ctx, "released", uint64(9))
	span.End()

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if ended[0].Name() != SpanParmapRun {
		t.Errorf("expected span %q, got %q", SpanParmapRun, ended[0].Name())
	}
	if n := len(ended[0].Attributes()); n != 3 {
		t.Errorf("expected 3 attributes, got %d", n)
	}
}

func TestSetSpanError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	SetSpanError(ctx, errors.New("boom"))
	SetSpanError(ctx, nil)
	span.End()

	s := rec.Ended()[0]
	if s.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", s.Status().Code)
	}
	if len(s.Events()) != 1 {
		t.Errorf("expected 1 error event, got %d", len(s.Events()))
	}
}

func TestSpanHelpers_NoSpan(t *testing.T) {
	ctx := context.Background()
	SetSpanAttribute(ctx, "k", "v")
	SetSpanError(ctx, errors.New("ignored"))
	if SpanFromContext(ctx).IsRecording() {
		t.Error("expected non-recording span without a tracer")
	}
}
