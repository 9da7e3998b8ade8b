// Package observability wires the engine to OpenTelemetry.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("ingest"))
//	defer tp.Shutdown(ctx)
//
// Every pipeline run opens a pipex.run span and one pipex.stage span per
// stage, tagged with the run ID, stage name, mode, item and failure counts.
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &cfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("pipex"))
//
// Metrics implements strategy.Observer and memo.Observer, so the same value
// records stage, reducer and cache activity.
package observability
