// Package metrics provides OpenTelemetry tracing and metrics integration for
// the pipeline engine's runs and node executions.
//
// Tracing:
//
//	tp, err := metrics.InitTracer(ctx, metrics.DefaultTracerConfig("my-pipeline"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := metrics.StartSpan(ctx, metrics.SpanPipelineRun)
//	defer span.End()
//
// Metrics:
//
//	meterCfg := metrics.DefaultMeterConfig("my-pipeline")
//	mp, err := metrics.InitMeter(ctx, &meterCfg)
//	defer mp.Shutdown(ctx)
//
//	m, err := metrics.NewMetrics(metrics.Meter("my-pipeline"))
//	m.RecordElementsProcessed(ctx, "map-1", 42)
package metrics
