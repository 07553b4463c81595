package broadcast

import (
	"runtime"
	"time"

	"github.com/skillsenselab/storestream/internal/logging"
)

// Metrics receives fan-out measurements. Implemented by
// observability.StreamMetrics; the core only knows this interface.
type Metrics interface {
	RecordBroadcast(roomKey string, delivered, failed int, duration time.Duration)
}

// Broadcaster delivers encoded events to room members, isolating
// per-client write failures: a failed write marks that one client
// closed and never affects delivery to the rest.
type Broadcaster struct {
	registry   *Registry
	log        *logging.Logger
	metrics    Metrics
	yieldEvery int
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithMetrics attaches a metrics recorder to the broadcaster.
func WithMetrics(m Metrics) Option {
	return func(b *Broadcaster) { b.metrics = m }
}

// WithYieldEvery makes the fan-out loop yield the processor after every
// n writes. This is a fairness knob for very large rooms, not a
// correctness requirement: delivery order and per-client outcomes are
// unaffected. Zero disables yielding.
func WithYieldEvery(n int) Option {
	return func(b *Broadcaster) { b.yieldEvery = n }
}

// NewBroadcaster creates a broadcaster backed by the given registry.
func NewBroadcaster(registry *Registry, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		registry: registry,
		log:      logging.WithComponent("broadcaster"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SendToOne encodes data as an SSE frame named event and writes it to a
// single client, independent of room membership. It returns false
// without touching the sink if the client is already closed; on a write
// failure the client is marked closed and false is returned.
//
// This is the primitive behind the initial connected acknowledgment.
func (b *Broadcaster) SendToOne(client *Client, event string, data any) bool {
	if client == nil || client.Closed() {
		return false
	}

	frame, err := EncodeFrame(event, data)
	if err != nil {
		b.log.Error("frame encode failed", logging.ErrorFields("send_to_one", err))
		return false
	}

	if err := client.sink.Write(frame); err != nil {
		client.close()
		b.log.Debug("write failed, client closed", map[string]interface{}{
			logging.FieldClientID: client.id,
			logging.FieldError:    err.Error(),
		})
		return false
	}
	return true
}

// Broadcast delivers payload to every live member of the room and
// returns the number of successful deliveries.
//
// The payload is serialized exactly once and the identical bytes are
// written to every member. Members found closed are skipped; a write
// failure marks that member closed and the loop continues. Delivery is
// best-effort and unordered: partial delivery is a normal outcome, not
// an error.
func (b *Broadcaster) Broadcast(roomKey string, payload any) int {
	members := b.registry.RoomClients(roomKey)
	if len(members) == 0 {
		return 0
	}

	start := time.Now()
	frame, err := EncodeFrame(EventEntity, payload)
	if err != nil {
		b.log.Error("frame encode failed", logging.ErrorFields("broadcast", err))
		return 0
	}

	delivered := 0
	failed := 0
	for i, client := range members {
		if client.Closed() {
			continue
		}
		if err := client.sink.Write(frame); err != nil {
			client.close()
			failed++
			b.log.Debug("write failed, client closed", map[string]interface{}{
				logging.FieldClientID: client.id,
				logging.FieldRoom:     roomKey,
				logging.FieldError:    err.Error(),
			})
			continue
		}
		delivered++

		if b.yieldEvery > 0 && (i+1)%b.yieldEvery == 0 {
			runtime.Gosched()
		}
	}

	if b.metrics != nil {
		b.metrics.RecordBroadcast(roomKey, delivered, failed, time.Since(start))
	}

	b.log.Debug("broadcast complete", map[string]interface{}{
		logging.FieldRoom: roomKey,
		"members":         len(members),
		"delivered":       delivered,
		"failed":          failed,
		"frame_bytes":     len(frame),
	})
	return delivered
}

// Registry returns the registry this broadcaster reads memberships from.
func (b *Broadcaster) Registry() *Registry {
	return b.registry
}
