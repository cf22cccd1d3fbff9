// Package observability provides OpenTelemetry tracing and metrics
// integration.
//
// Init installs OTLP HTTP exporters when an endpoint is configured and
// leaves the global no-op providers in place otherwise:
//
//	shutdown, err := observability.Init(ctx, observability.DefaultConfig("pardigest"))
//	defer shutdown(ctx)
//
// Each parallel map engine reports through PipelineMetrics and opens a
// parmap.run span for its lifetime:
//
//	m, err := observability.NewPipelineMetrics(observability.Meter(observability.MeterName), "digest")
//	m.RecordDispatch(ctx)
//	m.RecordOutcome(ctx, observability.StatusSuccess, elapsed)
package observability
