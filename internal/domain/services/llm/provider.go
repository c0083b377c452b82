package llm

import (
	"context"
	"encoding/json"

	"chatbot/internal/domain/models"
)

// LLMProvider defines the interface every model backend implements.
// Providers translate GenerateRequest into their own wire format and emit
// StreamEvents in order, closing the channel after the final event.
type LLMProvider interface {
	// Name returns the provider name (e.g., "anthropic", "lorem")
	Name() string

	// SupportsModel returns true if the provider serves the given model id.
	SupportsModel(model string) bool

	// StreamResponse starts a generation. The returned channel ends with
	// exactly one event carrying either Finish or Error.
	StreamResponse(ctx context.Context, req *GenerateRequest) (<-chan StreamEvent, error)
}

// GenerateRequest contains the parameters for one model call.
type GenerateRequest struct {
	Model     string
	System    string
	Messages  []Message
	Tools     []ToolSpec
	MaxTokens int

	// Thinking enables extended reasoning where the provider supports it.
	Thinking bool
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn in provider-neutral form.
type Message struct {
	Role    Role
	Content []ContentBlock
}

type BlockType string

const (
	BlockText       BlockType = "text"
	BlockImage      BlockType = "image"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// ContentBlock is one element of a message. Only the fields for Type are set.
type ContentBlock struct {
	Type BlockType

	Text string

	// Image
	MediaType string
	URL       string

	// Tool use and tool result
	ToolCallID string
	ToolName   string
	Input      json.RawMessage
	Output     string
	IsError    bool
}

// ToolSpec describes a tool offered to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  *Schema
}

// Schema is the subset of JSON Schema the tools use.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
}

type EventType string

const (
	EventTextDelta      EventType = "text_delta"
	EventReasoningDelta EventType = "reasoning_delta"
	EventToolCall       EventType = "tool_call"
	EventFinish         EventType = "finish"
	EventError          EventType = "error"
)

// FinishReason values shared by every provider.
const (
	FinishStop      = "stop"
	FinishToolCalls = "tool_calls"
	FinishLength    = "length"
)

// StreamEvent is one event of a provider stream.
type StreamEvent struct {
	Type EventType

	// Delta carries text for text and reasoning deltas.
	Delta string

	// ToolCall is set for EventToolCall once the input is complete.
	ToolCall *ToolCall

	// Finish
	FinishReason string
	Usage        *models.Usage

	Err error
}

// ToolCall is a complete tool invocation requested by the model.
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}
