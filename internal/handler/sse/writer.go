package sse

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// ErrClosed is returned after a write to the client has failed.
var ErrClosed = errors.New("sse: connection closed")

// StreamWriter writes SSE frames to one client. Frame and keep-alive writes
// come from different goroutines and are serialized by mu.
type StreamWriter struct {
	mu   sync.Mutex
	w    http.ResponseWriter
	rc   *http.ResponseController
	dead bool
}

// NewStreamWriter sets the UI message stream headers and flushes them so the
// client sees the response open before the first chunk.
func NewStreamWriter(w http.ResponseWriter) (*StreamWriter, error) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // Disable nginx buffering
	h.Set("X-Vercel-AI-UI-Message-Stream", "v1")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		return nil, fmt.Errorf("streaming unsupported: %w", err)
	}
	return &StreamWriter{w: w, rc: rc}, nil
}

// WriteFrame writes one pre-encoded frame and flushes it.
func (s *StreamWriter) WriteFrame(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dead {
		return ErrClosed
	}
	if _, err := s.w.Write(frame); err != nil {
		s.dead = true
		return fmt.Errorf("write frame: %w", err)
	}
	if err := s.rc.Flush(); err != nil {
		s.dead = true
		return fmt.Errorf("flush frame: %w", err)
	}
	return nil
}

// WriteKeepAlive implements KeepAliveWriter with an SSE comment line.
// Lines starting with ':' are ignored by clients.
func (s *StreamWriter) WriteKeepAlive() error {
	return s.WriteFrame([]byte(": keepalive\n\n"))
}
