// Package observability provides OpenTelemetry tracing and metrics for
// storestream.
//
// Metrics cover the fan-out path (active streams, broadcasts,
// per-client delivery outcomes) and traces cover the publish path.
//
//	mp, _ := observability.InitMeter(ctx, observability.DefaultMeterConfig("storestream"))
//	metrics, _ := observability.NewStreamMetrics(observability.Meter("storestream"))
package observability
