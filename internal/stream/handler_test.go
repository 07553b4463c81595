package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/storestream/internal/auth"
	"github.com/skillsenselab/storestream/internal/broadcast"
)

const testSecret = "unit-test-secret-0123456789"

type testStack struct {
	server      *httptest.Server
	registry    *broadcast.Registry
	broadcaster *broadcast.Broadcaster
	auth        *auth.Service
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, err := auth.NewService(auth.Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}

	registry := broadcast.NewRegistry()
	broadcaster := broadcast.NewBroadcaster(registry)
	handler := NewHandler(broadcaster, WithKeepAliveInterval(50*time.Millisecond))

	engine := gin.New()
	handler.Register(engine, auth.Middleware(svc))

	ts := httptest.NewServer(engine)
	t.Cleanup(ts.Close)
	t.Cleanup(registry.ResetAll)

	return &testStack{
		server:      ts,
		registry:    registry,
		broadcaster: broadcaster,
		auth:        svc,
	}
}

func (s *testStack) mint(t *testing.T, shopID, branchID string) string {
	t.Helper()
	token, err := s.auth.Mint(auth.Identity{ShopID: shopID, BranchID: branchID, Subject: "tester"})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	return token
}

func (s *testStack) publish(t *testing.T, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/api/publish", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("publish request: %v", err)
	}
	return resp
}

// sseReader consumes a stream body line by line in a single background
// goroutine.
type sseReader struct {
	lines  chan string
	errs   chan error
	cancel context.CancelFunc
}

func newSSEReader(body *bufio.Reader, cancel context.CancelFunc) *sseReader {
	r := &sseReader{
		lines:  make(chan string, 64),
		errs:   make(chan error, 1),
		cancel: cancel,
	}
	go func() {
		for {
			line, err := body.ReadString('\n')
			if err != nil {
				r.errs <- err
				return
			}
			r.lines <- line
		}
	}()
	return r
}

// frame reads one complete SSE frame, skipping keepalive comments.
func (r *sseReader) frame(t *testing.T) (event, data string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	comment := false
	for {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for frame")
		case err := <-r.errs:
			t.Fatalf("reading frame: %v", err)
		case line := <-r.lines:
			line = strings.TrimSuffix(line, "\n")
			switch {
			case strings.HasPrefix(line, ":"):
				comment = true
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			case line == "":
				if comment && event == "" && data == "" {
					comment = false
					continue
				}
				return event, data
			}
		}
	}
}

// comment reads lines until an SSE comment arrives.
func (r *sseReader) comment(t *testing.T) string {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for comment")
		case err := <-r.errs:
			t.Fatalf("reading comment: %v", err)
		case line := <-r.lines:
			if strings.HasPrefix(line, ":") {
				return strings.TrimSuffix(line, "\n")
			}
		}
	}
}

// openStream connects an SSE stream. The connection is torn down at
// test cleanup; tests can also cancel it explicitly via sseReader.cancel.
func (s *testStack) openStream(t *testing.T, token string) *sseReader {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	url := fmt.Sprintf("%s/api/stream?access_token=%s", s.server.URL, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("stream request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}
	return newSSEReader(bufio.NewReader(resp.Body), cancel)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestStream_ConnectedAck(t *testing.T) {
	stack := newTestStack(t)
	token := stack.mint(t, "shop-1", "branch-1")

	sr := stack.openStream(t, token)
	event, data := sr.frame(t)

	if event != "connected" {
		t.Errorf("event = %q, want connected", event)
	}
	var ack broadcast.ConnectedAck
	if err := json.Unmarshal([]byte(data), &ack); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if ack.ClientID != "1" {
		t.Errorf("clientId = %q, want 1", ack.ClientID)
	}
	if ack.Room != "shop-1:branch-1" {
		t.Errorf("room = %q, want shop-1:branch-1", ack.Room)
	}

	waitFor(t, func() bool { return stack.registry.ClientCount() == 1 }, "client not registered")
}

func TestStream_RequiresToken(t *testing.T) {
	stack := newTestStack(t)

	resp, err := http.Get(stack.server.URL + "/api/stream")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestStream_RejectsBadToken(t *testing.T) {
	stack := newTestStack(t)

	resp, err := http.Get(stack.server.URL + "/api/stream?access_token=not-a-token")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestStream_DisconnectUnregisters(t *testing.T) {
	stack := newTestStack(t)
	token := stack.mint(t, "shop-1", "branch-1")

	sr := stack.openStream(t, token)
	sr.frame(t)
	waitFor(t, func() bool { return stack.registry.ClientCount() == 1 }, "client not registered")

	sr.cancel()
	waitFor(t, func() bool { return stack.registry.ClientCount() == 0 }, "client not unregistered after disconnect")
	waitFor(t, func() bool { return stack.registry.RoomCount() == 0 }, "room not cleaned up after disconnect")
}

func TestStream_Keepalive(t *testing.T) {
	stack := newTestStack(t)
	token := stack.mint(t, "shop-1", "branch-1")

	sr := stack.openStream(t, token)
	sr.frame(t) // connected

	if c := sr.comment(t); !strings.HasPrefix(c, ": keepalive") {
		t.Errorf("comment = %q, want keepalive prefix", c)
	}
}

func TestPublish_DeliversToRoom(t *testing.T) {
	stack := newTestStack(t)
	token := stack.mint(t, "shop-1", "branch-1")

	sr := stack.openStream(t, token)
	sr.frame(t) // connected

	resp := stack.publish(t, token, `{"entity":"order","action":"created","data":{"id":"o-77"}}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("publish status = %d, want 200", resp.StatusCode)
	}
	var pr PublishResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		t.Fatalf("decode publish response: %v", err)
	}
	if pr.Delivered != 1 {
		t.Errorf("delivered = %d, want 1", pr.Delivered)
	}

	event, data := sr.frame(t)
	if event != "entity-event" {
		t.Errorf("event = %q, want entity-event", event)
	}
	var envelope broadcast.Envelope
	if err := json.Unmarshal([]byte(data), &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope.Type != "event" {
		t.Errorf("type = %q, want event", envelope.Type)
	}
	if envelope.Metadata.Entity != "order" || envelope.Metadata.Action != "created" {
		t.Errorf("metadata = %+v, want entity=order action=created", envelope.Metadata)
	}
	if envelope.Data["id"] != "o-77" {
		t.Errorf("data id = %v, want o-77", envelope.Data["id"])
	}
	if envelope.Metadata.ShopID != "shop-1" || envelope.Metadata.BranchID != "branch-1" {
		t.Errorf("scope = %s/%s, want shop-1/branch-1", envelope.Metadata.ShopID, envelope.Metadata.BranchID)
	}
}

func TestPublish_FanOut(t *testing.T) {
	stack := newTestStack(t)
	token := stack.mint(t, "shop-1", "branch-1")

	readers := make([]*sseReader, 3)
	for i := range readers {
		readers[i] = stack.openStream(t, token)
		readers[i].frame(t)
	}
	waitFor(t, func() bool { return stack.registry.ClientCount() == 3 }, "clients not registered")

	resp := stack.publish(t, token, `{"entity":"product","action":"updated","data":{"sku":"p-1"}}`)
	defer resp.Body.Close()
	var pr PublishResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		t.Fatalf("decode publish response: %v", err)
	}
	if pr.Delivered != 3 {
		t.Errorf("delivered = %d, want 3", pr.Delivered)
	}

	for i, sr := range readers {
		event, _ := sr.frame(t)
		if event != "entity-event" {
			t.Errorf("reader %d: event = %q, want entity-event", i, event)
		}
	}
}

func TestPublish_RoomIsolation(t *testing.T) {
	stack := newTestStack(t)
	subToken := stack.mint(t, "shop-1", "branch-1")
	pubToken := stack.mint(t, "shop-1", "branch-2")

	sr := stack.openStream(t, subToken)
	sr.frame(t)

	resp := stack.publish(t, pubToken, `{"entity":"order","action":"created","data":{}}`)
	defer resp.Body.Close()
	var pr PublishResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		t.Fatalf("decode publish response: %v", err)
	}
	if pr.Delivered != 0 {
		t.Errorf("delivered = %d, want 0 for a different room", pr.Delivered)
	}
	if pr.Room != "shop-1:branch-2" {
		t.Errorf("room = %q, want shop-1:branch-2", pr.Room)
	}
}

func TestPublish_ValidationError(t *testing.T) {
	stack := newTestStack(t)
	token := stack.mint(t, "shop-1", "branch-1")

	resp := stack.publish(t, token, `{"entity":"order","action":"exploded","data":{}}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	var errResp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Error.Code != "INVALID_INPUT" {
		t.Errorf("code = %q, want INVALID_INPUT", errResp.Error.Code)
	}
}

func TestPublish_MalformedJSON(t *testing.T) {
	stack := newTestStack(t)
	token := stack.mint(t, "shop-1", "branch-1")

	resp := stack.publish(t, token, `{"entity":`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestStats(t *testing.T) {
	stack := newTestStack(t)
	token := stack.mint(t, "shop-1", "branch-1")

	sr := stack.openStream(t, token)
	sr.frame(t)

	req, err := http.NewRequest(http.MethodGet, stack.server.URL+"/api/stream/stats", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("stats request: %v", err)
	}
	defer resp.Body.Close()

	var stats StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Room != "shop-1:branch-1" {
		t.Errorf("room = %q, want shop-1:branch-1", stats.Room)
	}
	if stats.RoomClients != 1 || stats.TotalClients != 1 || stats.TotalRooms != 1 {
		t.Errorf("stats = %+v, want one client in one room", stats)
	}
}
