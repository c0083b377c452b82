package resumable

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store.
type memStore struct {
	mu     sync.Mutex
	frames map[string][][]byte
	done   map[string]bool
	subs   map[string][]chan struct{}
	failOn string
}

func newMemStore() *memStore {
	return &memStore{
		frames: map[string][][]byte{},
		done:   map[string]bool{},
		subs:   map[string][]chan struct{}{},
	}
}

func (m *memStore) wake(id string) {
	for _, ch := range m.subs[id] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (m *memStore) Append(_ context.Context, id string, frame []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == "append" {
		return errors.New("append failed")
	}
	m.frames[id] = append(m.frames[id], frame)
	m.wake(id)
	return nil
}

func (m *memStore) Finish(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done[id] = true
	m.wake(id)
	return nil
}

func (m *memStore) State(_ context.Context, id string) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames[id]) > 0, m.done[id], nil
}

func (m *memStore) Range(_ context.Context, id string, from int64) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.frames[id]
	if from >= int64(len(all)) {
		return nil, nil
	}
	return append([][]byte(nil), all[from:]...), nil
}

func (m *memStore) Subscribe(_ context.Context, id string) (<-chan struct{}, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == "subscribe" {
		return nil, nil, errors.New("subscribe failed")
	}
	ch := make(chan struct{}, 1)
	m.subs[id] = append(m.subs[id], ch)
	return ch, func() {}, nil
}

func newTestBridge(store Store) *Bridge {
	return NewBridge(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func readAll(t *testing.T, r interface {
	Next(context.Context) ([]byte, bool)
}) []string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out []string
	for {
		f, ok := r.Next(ctx)
		if !ok {
			break
		}
		out = append(out, string(f))
	}
	require.NoError(t, ctx.Err())
	return out
}

func TestDisabledBridge(t *testing.T) {
	b := newTestBridge(nil)
	assert.False(t, b.Enabled())

	_, err := b.Publish(context.Background(), "s1")
	assert.Error(t, err)

	r, err := b.Resume(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestResumeUnknownOrFinished(t *testing.T) {
	store := newMemStore()
	b := newTestBridge(store)
	ctx := context.Background()

	r, err := b.Resume(ctx, "never-started")
	require.NoError(t, err)
	assert.Nil(t, r)

	sink, err := b.Publish(ctx, "finished")
	require.NoError(t, err)
	require.NoError(t, sink.Append(ctx, []byte("data: a\n\n")))
	require.NoError(t, sink.Close(ctx))

	r, err = b.Resume(ctx, "finished")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestResumeReplaysBacklogThenLiveFrames(t *testing.T) {
	store := newMemStore()
	b := newTestBridge(store)
	ctx := context.Background()

	sink, err := b.Publish(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, sink.Append(ctx, []byte("1")))
	require.NoError(t, sink.Append(ctx, []byte("2")))

	r, err := b.Resume(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, r)
	defer r.Close()

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = sink.Append(ctx, []byte("3"))
		_ = sink.Append(ctx, []byte("4"))
		_ = sink.Close(ctx)
	}()

	assert.Equal(t, []string{"1", "2", "3", "4"}, readAll(t, r))
}

func TestResumeStopsOnContext(t *testing.T) {
	store := newMemStore()
	b := newTestBridge(store)

	sink, _ := b.Publish(context.Background(), "s1")
	require.NoError(t, sink.Append(context.Background(), []byte("1")))

	r, err := b.Resume(context.Background(), "s1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	f, ok := r.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, "1", string(f))

	cancel()
	_, ok = r.Next(ctx)
	assert.False(t, ok)
}

func TestResumeSubscribeFailure(t *testing.T) {
	store := newMemStore()
	store.failOn = "subscribe"
	_, err := newTestBridge(store).Resume(context.Background(), "s1")
	assert.Error(t, err)
}
