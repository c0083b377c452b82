package llm

import (
	"context"
	"encoding/json"

	"chatbot/internal/domain/models"
)

// StreamingService runs generations and exposes their UI message streams.
type StreamingService interface {
	// StartGeneration validates the request, persists the user message and
	// starts the model in the background. The returned subscription yields
	// the UI chunks of this generation.
	StartGeneration(ctx context.Context, req *ChatRequest) (*Generation, error)

	// StopGeneration cancels the in-flight generation of a chat owned by userID.
	StopGeneration(ctx context.Context, userID, chatID string) error

	// ResumeStream returns a reader over the latest stream of a chat, or a
	// fallback when nothing is live.
	ResumeStream(ctx context.Context, session *models.Session, chatID string) (*ResumedStream, error)
}

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	ID                     string            `json:"id"`
	Message                IncomingMessage   `json:"message"`
	SelectedChatModel      string            `json:"selectedChatModel"`
	SelectedVisibilityType models.Visibility `json:"selectedVisibilityType"`

	// Set by the handler, not from the body
	Session   *models.Session `json:"-"`
	Geo       Geo             `json:"-"`
	RequestID string          `json:"-"`
}

// IncomingMessage is the user message of a chat request.
type IncomingMessage struct {
	ID    string            `json:"id"`
	Role  models.Role       `json:"role"`
	Parts []json.RawMessage `json:"parts"`
}

// Geo holds request location hints used in the system prompt.
type Geo struct {
	Latitude  string
	Longitude string
	City      string
	Country   string
}

// ChunkWriter accepts UI chunks produced while a generation runs. Tools use it
// to emit data-* events next to the model output.
type ChunkWriter interface {
	Write(chunk models.UIChunk)
}

// Subscription is a per-reader view of a running generation.
type Subscription interface {
	// Next blocks until a chunk is available. ok is false once the generation
	// has finished and every chunk was delivered, or ctx is done.
	Next(ctx context.Context) (chunk models.UIChunk, ok bool)
	Close()
}

// Generation is a started generation.
type Generation struct {
	ChatID   string
	StreamID string
	Chunks   Subscription
}

// FrameReader yields raw SSE frames replayed from the resumable store.
type FrameReader interface {
	Next(ctx context.Context) (frame []byte, ok bool)
	Close()
}

// ResumedStream is either a live replay or a fallback chunk, or empty.
type ResumedStream struct {
	// Disabled reports that resumable streams are not configured.
	Disabled bool

	Frames   FrameReader
	Fallback *models.UIChunk
}

// FrameSink receives the SSE frames of one generation for later replay.
type FrameSink interface {
	Append(ctx context.Context, frame []byte) error
	Close(ctx context.Context) error
}

// ResumableStreams stores stream frames so a reconnecting client can replay them.
type ResumableStreams interface {
	Enabled() bool
	Publish(ctx context.Context, streamID string) (FrameSink, error)

	// Resume returns nil when the stream is unknown or already finished.
	Resume(ctx context.Context, streamID string) (FrameReader, error)
}
