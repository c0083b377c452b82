package sse

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type countingWriter struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (c *countingWriter) WriteKeepAlive() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.fail {
		return errors.New("broken pipe")
	}
	return nil
}

func TestKeepAliveStopsOnWriteError(t *testing.T) {
	w := &countingWriter{fail: true}
	k := StartKeepAlive(w, time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))

	select {
	case <-k.Done():
	case <-time.After(time.Second):
		t.Fatal("keep-alive did not stop after a failed write")
	}
	k.Stop()
	k.Stop()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.calls != 1 {
		t.Errorf("calls = %d, want 1", w.calls)
	}
}

func TestKeepAliveStopWaits(t *testing.T) {
	w := &countingWriter{}
	k := StartKeepAlive(w, time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))

	time.Sleep(5 * time.Millisecond)
	k.Stop()

	w.mu.Lock()
	after := w.calls
	w.mu.Unlock()

	time.Sleep(5 * time.Millisecond)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.calls != after {
		t.Errorf("keep-alive wrote after Stop returned (%d -> %d)", after, w.calls)
	}
}

func TestStreamWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	sw, err := NewStreamWriter(rec)
	if err != nil {
		t.Fatalf("NewStreamWriter() error = %v", err)
	}

	if err := sw.WriteFrame([]byte("data: {\"type\":\"start\"}\n\n")); err != nil {
		t.Fatalf("WriteFrame() error = %v", err)
	}
	if err := sw.WriteKeepAlive(); err != nil {
		t.Fatalf("WriteKeepAlive() error = %v", err)
	}

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "data: ") || !strings.HasSuffix(body, ": keepalive\n\n") {
		t.Errorf("body = %q", body)
	}
}
