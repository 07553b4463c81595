package broadcast

import (
	"errors"
	"sync"
	"testing"
)

// memSink collects written frames in memory and can be told to fail.
type memSink struct {
	mu        sync.Mutex
	frames    [][]byte
	failWrite bool
	failClose bool
	closed    int
}

func (s *memSink) Write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite {
		return errors.New("write: connection reset")
	}
	frame := make([]byte, len(p))
	copy(frame, p)
	s.frames = append(s.frames, frame)
	return nil
}

func (s *memSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	if s.failClose {
		return errors.New("close failed")
	}
	return nil
}

func (s *memSink) Frames() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.frames))
	copy(out, s.frames)
	return out
}

func (s *memSink) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func TestRegistry_RegisterRoundTrip(t *testing.T) {
	reg := NewRegistry()

	client := reg.Register(&memSink{}, "s1:b1")
	if client == nil {
		t.Fatal("expected non-nil client")
	}

	if got := reg.RoomMemberCount("s1:b1"); got != 1 {
		t.Errorf("expected 1 room member, got %d", got)
	}
	if got := reg.ClientCount(); got != 1 {
		t.Errorf("expected 1 client, got %d", got)
	}
	if client.Closed() {
		t.Error("new client should not be closed")
	}
	if client.ConnectedAt().IsZero() {
		t.Error("expected connectedAt to be set")
	}
}

func TestRegistry_MonotonicIDs(t *testing.T) {
	reg := NewRegistry()

	a := reg.Register(&memSink{}, "s1:b1")
	b := reg.Register(&memSink{}, "s1:b1")
	if b.ID() <= a.ID() {
		t.Errorf("expected monotonic ids, got %d then %d", a.ID(), b.ID())
	}

	// An unregistered id is never reused within a process lifetime.
	reg.Unregister(a.ID())
	c := reg.Register(&memSink{}, "s1:b1")
	if c.ID() == a.ID() {
		t.Errorf("id %d was reused after unregister", a.ID())
	}
	if c.ID() <= b.ID() {
		t.Errorf("expected id above %d, got %d", b.ID(), c.ID())
	}
}

func TestRegistry_UnregisterIdempotent(t *testing.T) {
	reg := NewRegistry()

	a := reg.Register(&memSink{}, "s1:b1")
	reg.Register(&memSink{}, "s1:b1")

	reg.Unregister(a.ID())
	if got := reg.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}
	if got := reg.RoomMemberCount("s1:b1"); got != 1 {
		t.Fatalf("expected 1 member after unregister, got %d", got)
	}

	// Second call is a no-op.
	reg.Unregister(a.ID())
	if got := reg.ClientCount(); got != 1 {
		t.Errorf("expected counts unchanged after double unregister, got %d", got)
	}
	if got := reg.RoomMemberCount("s1:b1"); got != 1 {
		t.Errorf("expected members unchanged after double unregister, got %d", got)
	}

	// Unknown id is also a no-op.
	reg.Unregister(99999)
	if got := reg.ClientCount(); got != 1 {
		t.Errorf("expected counts unchanged after unknown unregister, got %d", got)
	}
}

func TestRegistry_UnregisterClosesSink(t *testing.T) {
	reg := NewRegistry()
	sink := &memSink{}

	client := reg.Register(sink, "s1:b1")
	reg.Unregister(client.ID())

	if !client.Closed() {
		t.Error("expected client closed after unregister")
	}
	if sink.CloseCount() != 1 {
		t.Errorf("expected sink closed once, got %d", sink.CloseCount())
	}

	// Double unregister must not close the sink again.
	reg.Unregister(client.ID())
	if sink.CloseCount() != 1 {
		t.Errorf("expected sink still closed once, got %d", sink.CloseCount())
	}
}

func TestRegistry_EmptyRoomCleanup(t *testing.T) {
	reg := NewRegistry()

	a := reg.Register(&memSink{}, "s1:b1")
	b := reg.Register(&memSink{}, "s1:b1")

	reg.Unregister(a.ID())
	if got := reg.RoomCount(); got != 1 {
		t.Fatalf("expected room to survive first unregister, got %d rooms", got)
	}

	reg.Unregister(b.ID())
	if got := reg.RoomMemberCount("s1:b1"); got != 0 {
		t.Errorf("expected 0 members after last unregister, got %d", got)
	}
	if got := reg.RoomCount(); got != 0 {
		t.Errorf("expected empty room to be deleted, got %d rooms", got)
	}
	if members := reg.RoomClients("s1:b1"); members != nil {
		t.Errorf("expected nil snapshot for deleted room, got %d members", len(members))
	}
}

func TestRegistry_RoomsAreIndependent(t *testing.T) {
	reg := NewRegistry()

	reg.Register(&memSink{}, "s1:b1")
	reg.Register(&memSink{}, "s1:b2")
	reg.Register(&memSink{}, "s2:b1")

	if got := reg.RoomMemberCount("s1:b1"); got != 1 {
		t.Errorf("s1:b1: expected 1 member, got %d", got)
	}
	if got := reg.RoomMemberCount("s1:b2"); got != 1 {
		t.Errorf("s1:b2: expected 1 member, got %d", got)
	}
	if got := reg.RoomCount(); got != 3 {
		t.Errorf("expected 3 rooms, got %d", got)
	}
}

func TestRegistry_ClientLookup(t *testing.T) {
	reg := NewRegistry()

	client := reg.Register(&memSink{}, "s1:b1")
	if got := reg.Client(client.ID()); got != client {
		t.Error("expected lookup to return the registered client")
	}
	if got := reg.Client(12345); got != nil {
		t.Error("expected nil for unknown id")
	}
}

func TestRegistry_ResetAll(t *testing.T) {
	reg := NewRegistry()
	sinks := []*memSink{{}, {failClose: true}, {}}

	for _, s := range sinks {
		reg.Register(s, "s1:b1")
	}

	// A close failure during teardown is swallowed; reset always
	// completes and clears all state.
	reg.ResetAll()

	if got := reg.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after reset, got %d", got)
	}
	if got := reg.RoomCount(); got != 0 {
		t.Errorf("expected 0 rooms after reset, got %d", got)
	}
	for i, s := range sinks {
		if s.CloseCount() != 1 {
			t.Errorf("sink %d: expected 1 close, got %d", i, s.CloseCount())
		}
	}

	// Counter resets only on full state reset.
	client := reg.Register(&memSink{}, "s1:b1")
	if client.ID() != 1 {
		t.Errorf("expected id counter reset to 1, got %d", client.ID())
	}
}

func TestRegistry_SnapshotSafeIteration(t *testing.T) {
	reg := NewRegistry()

	for i := 0; i < 10; i++ {
		reg.Register(&memSink{}, "s1:b1")
	}

	snapshot := reg.RoomClients("s1:b1")
	if len(snapshot) != 10 {
		t.Fatalf("expected 10 members in snapshot, got %d", len(snapshot))
	}

	// Mutating the registry mid-iteration must not corrupt the snapshot.
	for _, c := range snapshot {
		reg.Unregister(c.ID())
	}
	if len(snapshot) != 10 {
		t.Errorf("snapshot changed under mutation: %d", len(snapshot))
	}
	if got := reg.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients, got %d", got)
	}
}

func TestRegistry_ConcurrentOperations(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := reg.Register(&memSink{}, "s1:b1")
			reg.RoomClients("s1:b1")
			reg.Unregister(c.ID())
		}()
	}
	wg.Wait()

	if got := reg.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent churn, got %d", got)
	}
	if got := reg.RoomCount(); got != 0 {
		t.Errorf("expected 0 rooms after concurrent churn, got %d", got)
	}
}

func TestClient_Rooms(t *testing.T) {
	reg := NewRegistry()

	client := reg.Register(&memSink{}, "s1:b1")
	rooms := client.Rooms()
	if len(rooms) != 1 || rooms[0] != "s1:b1" {
		t.Errorf("expected rooms [s1:b1], got %v", rooms)
	}
}
