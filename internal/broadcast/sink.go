package broadcast

// Sink is the write/close capability abstracting a client's outbound
// connection. The registry and broadcaster depend only on this
// interface, never on a concrete transport type.
//
// Write delivers one complete frame. It may block briefly while the
// transport flushes, but implementations must not queue indefinitely:
// an unwritable connection must surface an error so the client can be
// reclassified as closed.
type Sink interface {
	// Write sends a chunk of bytes to the client. A returned error
	// means the connection is unusable and the client will receive no
	// further writes.
	Write(p []byte) error

	// Close releases the underlying connection. Safe to call more
	// than once.
	Close() error
}
