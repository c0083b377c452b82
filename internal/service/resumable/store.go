package resumable

import (
	"context"
	"errors"
)

// ErrClosed is returned by a store that has been shut down.
var ErrClosed = errors.New("resumable: store closed")

// Store keeps the frames of each stream in order. Sequence numbers are the
// zero-based positions of frames in that order.
type Store interface {
	// Append adds a frame and wakes up subscribers
	Append(ctx context.Context, streamID string, frame []byte) error

	// Finish marks the stream complete and wakes up subscribers
	Finish(ctx context.Context, streamID string) error

	// State reports whether any frame was written and whether the stream finished
	State(ctx context.Context, streamID string) (started, done bool, err error)

	// Range returns the frames from sequence number from onwards
	Range(ctx context.Context, streamID string, from int64) ([][]byte, error)

	// Subscribe delivers a signal whenever the stream changes. The channel
	// closes when cancel is called.
	Subscribe(ctx context.Context, streamID string) (signals <-chan struct{}, cancel func(), err error)
}
