package streaming

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	mstream "github.com/haowjy/meridian-stream-go"
)

// liveReader attaches to a generation running in this process. It first
// yields the stream's catch-up events (the persisted assistant message, if
// any, followed by the buffered events), then the live events that follow.
// It implements domainllm.FrameReader.
type liveReader struct {
	stream   *mstream.Stream
	clientID string
	events   <-chan mstream.Event
	backlog  []mstream.Event
	lastSeq  int
	ended    bool
}

// newLiveReader registers a client before reading the catch-up events, so no
// event is lost between the two. Events seen twice are dropped by sequence.
func newLiveReader(stream *mstream.Stream) *liveReader {
	r := &liveReader{stream: stream, clientID: uuid.NewString()}
	r.events = stream.AddClient(r.clientID)

	// A stream that finished before AddClient never closes the new channel.
	r.ended = stream.Status() != mstream.StatusRunning

	r.backlog = stream.GetCatchupEvents("")
	for _, ev := range r.backlog {
		n := eventSeq(ev)
		if n == 0 {
			// The assistant message is persisted only once generation is done.
			r.ended = true
		}
		if n > r.lastSeq {
			r.lastSeq = n
		}
	}
	return r
}

func (r *liveReader) Next(ctx context.Context) ([]byte, bool) {
	if len(r.backlog) > 0 {
		ev := r.backlog[0]
		r.backlog = r.backlog[1:]
		return eventFrame(ev), true
	}
	if r.ended {
		return nil, false
	}

	for {
		select {
		case <-ctx.Done():
			return nil, false
		case ev, ok := <-r.events:
			if !ok {
				r.ended = true
				return nil, false
			}
			n := eventSeq(ev)
			if n != 0 && n <= r.lastSeq {
				continue
			}
			if n > r.lastSeq {
				r.lastSeq = n
			}
			return eventFrame(ev), true
		}
	}
}

func (r *liveReader) Close() {
	r.stream.RemoveClient(r.clientID)
}

// eventSeq is the broadcast sequence number of ev, 0 for catch-up events.
func eventSeq(ev mstream.Event) int {
	n, err := strconv.Atoi(ev.ID)
	if err != nil {
		return 0
	}
	return n
}

// eventFrame renders ev the way frames are written to the resumable store.
func eventFrame(ev mstream.Event) []byte {
	frame := make([]byte, 0, len(ev.Data)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, ev.Data...)
	return append(frame, '\n', '\n')
}
