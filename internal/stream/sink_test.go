package stream

import (
	"net/http/httptest"
	"testing"
)

func TestFlushSink_WriteThenClose(t *testing.T) {
	rec := httptest.NewRecorder()
	sink := newFlushSink(rec, rec)

	if err := sink.Write([]byte("data: x\n\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !rec.Flushed {
		t.Error("expected write to flush the response")
	}
	if got := rec.Body.String(); got != "data: x\n\n" {
		t.Errorf("body = %q, want %q", got, "data: x\n\n")
	}

	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sink.Write([]byte("late")); err != errSinkClosed {
		t.Errorf("Write after Close = %v, want errSinkClosed", err)
	}
}

func TestFlushSink_CloseIdempotent(t *testing.T) {
	rec := httptest.NewRecorder()
	sink := newFlushSink(rec, rec)

	if err := sink.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	select {
	case <-sink.Done():
	default:
		t.Error("Done channel should be closed after Close")
	}
}
