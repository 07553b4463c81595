package broadcast

import (
	"strconv"
	"sync/atomic"
	"time"
)

// Client represents one connected subscriber.
//
// A client owns its Sink exclusively and belongs to one or more rooms
// (the current handlers always subscribe it to exactly one). The closed
// flag is monotonic: once set it is never reset, and no further writes
// are attempted on the sink.
type Client struct {
	id          uint64
	sink        Sink
	rooms       map[string]struct{}
	connectedAt time.Time
	closed      atomic.Bool
}

// ID returns the client's unique numeric identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// IDString returns the identifier as a decimal string, the form used on
// the wire and in logs.
func (c *Client) IDString() string {
	return strconv.FormatUint(c.id, 10)
}

// ConnectedAt returns the registration timestamp.
func (c *Client) ConnectedAt() time.Time {
	return c.connectedAt
}

// Rooms returns the room keys this client belongs to.
func (c *Client) Rooms() []string {
	keys := make([]string, 0, len(c.rooms))
	for k := range c.rooms {
		keys = append(keys, k)
	}
	return keys
}

// Closed reports whether the client has been marked dead.
func (c *Client) Closed() bool {
	return c.closed.Load()
}

// close marks the client dead and closes its sink. The first caller
// performs the sink close; a close failure is swallowed. Subsequent
// calls are no-ops.
func (c *Client) close() {
	if c.closed.CompareAndSwap(false, true) {
		_ = c.sink.Close()
	}
}
