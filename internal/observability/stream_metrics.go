package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// StreamMetrics holds the instruments covering the SSE fan-out path.
// It satisfies broadcast.Metrics.
type StreamMetrics struct {
	streamsActive     metric.Int64UpDownCounter
	broadcastTotal    metric.Int64Counter
	deliveredTotal    metric.Int64Counter
	failedTotal       metric.Int64Counter
	broadcastDuration metric.Float64Histogram
}

// NewStreamMetrics creates the fan-out instruments on the given meter.
func NewStreamMetrics(meter metric.Meter) (*StreamMetrics, error) {
	streamsActive, err := meter.Int64UpDownCounter("stream.active",
		metric.WithDescription("Number of currently open event streams"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.active gauge: %w", err)
	}

	broadcastTotal, err := meter.Int64Counter("broadcast.total",
		metric.WithDescription("Total number of broadcast calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating broadcast.total counter: %w", err)
	}

	deliveredTotal, err := meter.Int64Counter("broadcast.delivered",
		metric.WithDescription("Total per-client deliveries that succeeded"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating broadcast.delivered counter: %w", err)
	}

	failedTotal, err := meter.Int64Counter("broadcast.failed",
		metric.WithDescription("Total per-client deliveries that failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating broadcast.failed counter: %w", err)
	}

	broadcastDuration, err := meter.Float64Histogram("broadcast.duration",
		metric.WithDescription("Duration of one fan-out in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating broadcast.duration histogram: %w", err)
	}

	return &StreamMetrics{
		streamsActive:     streamsActive,
		broadcastTotal:    broadcastTotal,
		deliveredTotal:    deliveredTotal,
		failedTotal:       failedTotal,
		broadcastDuration: broadcastDuration,
	}, nil
}

// RecordStreamOpen increments the active stream count.
func (m *StreamMetrics) RecordStreamOpen(ctx context.Context) {
	m.streamsActive.Add(ctx, 1)
}

// RecordStreamClose decrements the active stream count.
func (m *StreamMetrics) RecordStreamClose(ctx context.Context) {
	m.streamsActive.Add(ctx, -1)
}

// RecordBroadcast records one fan-out and its per-client outcomes.
func (m *StreamMetrics) RecordBroadcast(roomKey string, delivered, failed int, duration time.Duration) {
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("room", roomKey))
	m.broadcastTotal.Add(ctx, 1, attrs)
	m.deliveredTotal.Add(ctx, int64(delivered), attrs)
	if failed > 0 {
		m.failedTotal.Add(ctx, int64(failed), attrs)
	}
	m.broadcastDuration.Record(ctx, duration.Seconds(), attrs)
}
