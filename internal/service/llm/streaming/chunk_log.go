package streaming

import (
	"context"
	"sync"

	"chatbot/internal/domain/models"
)

// chunkLog is the append-only record of one generation's UI chunks. Every
// subscriber reads it from the beginning at its own pace, so a reader that
// attaches late still sees the whole message.
type chunkLog struct {
	mu     sync.Mutex
	chunks []models.UIChunk
	done   bool
	notify chan struct{} // closed and replaced on every append
}

func newChunkLog() *chunkLog {
	return &chunkLog{notify: make(chan struct{})}
}

func (l *chunkLog) append(c models.UIChunk) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return
	}
	l.chunks = append(l.chunks, c)
	close(l.notify)
	l.notify = make(chan struct{})
}

// finish marks the log complete. Later appends are dropped.
func (l *chunkLog) finish() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return
	}
	l.done = true
	close(l.notify)
}

func (l *chunkLog) subscribe() *subscription {
	return &subscription{log: l}
}

// subscription implements domainllm.Subscription.
type subscription struct {
	log    *chunkLog
	next   int
	closed bool
}

func (s *subscription) Next(ctx context.Context) (models.UIChunk, bool) {
	for {
		s.log.mu.Lock()
		if s.closed {
			s.log.mu.Unlock()
			return models.UIChunk{}, false
		}
		if s.next < len(s.log.chunks) {
			c := s.log.chunks[s.next]
			s.next++
			s.log.mu.Unlock()
			return c, true
		}
		if s.log.done {
			s.log.mu.Unlock()
			return models.UIChunk{}, false
		}
		wait := s.log.notify
		s.log.mu.Unlock()

		select {
		case <-ctx.Done():
			return models.UIChunk{}, false
		case <-wait:
		}
	}
}

// Close detaches the reader. The generation keeps running.
func (s *subscription) Close() {
	s.log.mu.Lock()
	defer s.log.mu.Unlock()
	s.closed = true
}
