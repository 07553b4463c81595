package broadcast

import (
	"sync"
	"time"

	"github.com/skillsenselab/storestream/internal/logging"
)

// Registry owns the two-way mapping between clients and rooms.
//
// Both indices are guarded by a single mutex so they always stay
// consistent as a pair: a client id appears in a room's member set if
// and only if that room key is in the client's room set. Rooms are
// created implicitly on first member registration and deleted as soon
// as their last member leaves.
type Registry struct {
	mu      sync.Mutex
	nextID  uint64
	clients map[uint64]*Client
	rooms   map[string]map[uint64]*Client
	log     *logging.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[uint64]*Client),
		rooms:   make(map[string]map[uint64]*Client),
		log:     logging.WithComponent("registry"),
	}
}

// Register creates a new client bound to sink and subscribes it to
// roomKey. Identifiers are assigned monotonically and never reused
// within a process lifetime.
func (r *Registry) Register(sink Sink, roomKey string) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	client := &Client{
		id:          r.nextID,
		sink:        sink,
		rooms:       map[string]struct{}{roomKey: {}},
		connectedAt: time.Now().UTC(),
	}

	r.clients[client.id] = client

	members, ok := r.rooms[roomKey]
	if !ok {
		members = make(map[uint64]*Client)
		r.rooms[roomKey] = members
	}
	members[client.id] = client

	r.log.Debug("client registered", map[string]interface{}{
		logging.FieldClientID: client.id,
		logging.FieldRoom:     roomKey,
		"total_clients":       len(r.clients),
	})
	return client
}

// Unregister removes the client from every room it belongs to, deletes
// now-empty rooms, and drops it from the client index. Unknown
// identifiers are a no-op, so it is safe to call more than once.
func (r *Registry) Unregister(id uint64) {
	r.mu.Lock()
	client, ok := r.clients[id]
	if !ok {
		r.mu.Unlock()
		return
	}

	for roomKey := range client.rooms {
		if members, ok := r.rooms[roomKey]; ok {
			delete(members, id)
			if len(members) == 0 {
				delete(r.rooms, roomKey)
			}
		}
	}
	delete(r.clients, id)
	remaining := len(r.clients)
	r.mu.Unlock()

	// Close outside the lock: a slow transport teardown must not block
	// concurrent registrations.
	client.close()

	r.log.Debug("client unregistered", map[string]interface{}{
		logging.FieldClientID: id,
		"total_clients":       remaining,
	})
}

// Client returns the client with the given id, or nil if unknown.
func (r *Registry) Client(id uint64) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clients[id]
}

// RoomClients returns a snapshot of the room's current members. The
// returned slice is owned by the caller; concurrent register/unregister
// cannot corrupt an iteration over it.
func (r *Registry) RoomClients(roomKey string) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomKey]
	if !ok {
		return nil
	}
	snapshot := make([]*Client, 0, len(members))
	for _, c := range members {
		snapshot = append(snapshot, c)
	}
	return snapshot
}

// ClientCount returns the total number of live clients.
func (r *Registry) ClientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// RoomMemberCount returns the size of one room's member set, 0 if the
// room is absent.
func (r *Registry) RoomMemberCount(roomKey string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[roomKey])
}

// RoomCount returns the number of rooms with at least one member.
func (r *Registry) RoomCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// ResetAll closes every known sink (best-effort), clears both indices,
// and resets the identifier counter. Used for full shutdown and test
// teardown only.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.clients = make(map[uint64]*Client)
	r.rooms = make(map[string]map[uint64]*Client)
	r.nextID = 0
	r.mu.Unlock()

	for _, c := range clients {
		c.close()
	}

	r.log.Debug("registry reset", map[string]interface{}{
		"closed_clients": len(clients),
	})
}
