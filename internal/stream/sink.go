package stream

import (
	"errors"
	"net/http"
	"sync"
)

// errSinkClosed is returned by Write after the sink has been closed.
var errSinkClosed = errors.New("stream: sink closed")

// flushSink adapts an http.ResponseWriter to broadcast.Sink. Every
// write is flushed immediately so frames reach the client without
// buffering delay.
//
// The broadcaster, the keepalive loop, and the registry teardown all
// touch the sink concurrently; the mutex serializes them. Close is
// idempotent and makes later writes fail fast, which is how a
// disconnected client gets culled from its room on the next broadcast.
type flushSink struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	closed  bool
	done    chan struct{}
}

// newFlushSink wraps a response writer. The writer must implement
// http.Flusher; the stream handler checks this before registering.
func newFlushSink(w http.ResponseWriter, flusher http.Flusher) *flushSink {
	return &flushSink{
		w:       w,
		flusher: flusher,
		done:    make(chan struct{}),
	}
}

// Write writes one complete frame and flushes it.
func (s *flushSink) Write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSinkClosed
	}
	if _, err := s.w.Write(p); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Close marks the sink closed and wakes the stream handler. The
// underlying connection belongs to the HTTP server; returning from the
// handler releases it.
func (s *flushSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	return nil
}

// Done is closed when the sink has been closed from either side.
func (s *flushSink) Done() <-chan struct{} {
	return s.done
}
