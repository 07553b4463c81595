// Package broadcast implements the client registry and fan-out engine
// behind storestream's SSE endpoints.
//
// It manages client registration, room membership indexing, and the
// delivery loop that writes an encoded event to every member of a room.
// A failed write disables only that client; delivery to the remaining
// members always continues.
//
// # Architecture
//
//   - Sink: write/close capability abstracting a client's connection
//   - Registry: client index + room membership index under one lock
//   - Broadcaster: serialize-once, write-many fan-out with per-client
//     failure isolation
//
// # Usage
//
//	reg := broadcast.NewRegistry()
//	b := broadcast.NewBroadcaster(reg)
//	client := reg.Register(sink, broadcast.BuildRoomKey("shop-1", "branch-1"))
//	b.SendToOne(client, broadcast.EventConnected, ack)
//	delivered := b.Broadcast("shop-1:branch-1", envelope)
package broadcast
