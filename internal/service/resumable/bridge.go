// Package resumable lets a client that lost its connection replay a running
// generation. Producers mirror every SSE frame into a Store; readers replay
// the backlog and then follow live frames until the producer finishes.
package resumable

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	domainllm "chatbot/internal/domain/services/llm"
)

// pollInterval bounds how long a reader waits when a wake-up is lost.
const pollInterval = time.Second

// Bridge implements domainllm.ResumableStreams. A Bridge without a store is
// disabled.
type Bridge struct {
	store  Store
	logger *slog.Logger
}

// NewBridge creates a bridge. Pass a nil store to disable resumable streams.
func NewBridge(store Store, logger *slog.Logger) *Bridge {
	return &Bridge{store: store, logger: logger}
}

var _ domainllm.ResumableStreams = (*Bridge)(nil)

func (b *Bridge) Enabled() bool {
	return b != nil && b.store != nil
}

// Publish returns the sink for a new stream.
func (b *Bridge) Publish(ctx context.Context, streamID string) (domainllm.FrameSink, error) {
	if !b.Enabled() {
		return nil, fmt.Errorf("resumable streams are disabled")
	}
	return &sink{store: b.store, streamID: streamID}, nil
}

// Resume returns a reader over the stream, or nil when it is unknown or
// already finished.
func (b *Bridge) Resume(ctx context.Context, streamID string) (domainllm.FrameReader, error) {
	if !b.Enabled() {
		return nil, nil
	}

	// Subscribe first so frames appended while the backlog is read still
	// produce a wake-up.
	signals, cancel, err := b.store.Subscribe(ctx, streamID)
	if err != nil {
		return nil, err
	}

	started, done, err := b.store.State(ctx, streamID)
	if err != nil {
		cancel()
		return nil, err
	}
	if !started || done {
		cancel()
		return nil, nil
	}

	b.logger.Debug("resuming stream", "stream_id", streamID)
	return &reader{
		store:    b.store,
		streamID: streamID,
		signals:  signals,
		cancel:   cancel,
		logger:   b.logger,
	}, nil
}

type sink struct {
	store    Store
	streamID string
}

func (s *sink) Append(ctx context.Context, frame []byte) error {
	return s.store.Append(ctx, s.streamID, frame)
}

func (s *sink) Close(ctx context.Context) error {
	return s.store.Finish(ctx, s.streamID)
}

// reader implements domainllm.FrameReader.
type reader struct {
	store    Store
	streamID string
	signals  <-chan struct{}
	cancel   func()
	logger   *slog.Logger

	next    int64 // sequence number of the next frame to deliver
	pending [][]byte
	sawDone bool
	closed  bool
}

func (r *reader) Next(ctx context.Context) ([]byte, bool) {
	for {
		if r.closed {
			return nil, false
		}
		if len(r.pending) > 0 {
			frame := r.pending[0]
			r.pending = r.pending[1:]
			return frame, true
		}

		frames, err := r.store.Range(ctx, r.streamID, r.next)
		if err != nil {
			r.logger.Warn("failed to read resumable frames", "stream_id", r.streamID, "error", err)
			return nil, false
		}
		if len(frames) > 0 {
			r.next += int64(len(frames))
			r.pending = frames
			continue
		}

		// Everything up to the finish marker has been delivered.
		if r.sawDone {
			return nil, false
		}

		_, done, err := r.store.State(ctx, r.streamID)
		if err != nil {
			r.logger.Warn("failed to read stream state", "stream_id", r.streamID, "error", err)
			return nil, false
		}
		if done {
			r.sawDone = true
			continue
		}

		timer := time.NewTimer(pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, false
		case <-r.signals:
		case <-timer.C:
		}
		timer.Stop()
	}
}

func (r *reader) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.cancel()
}
