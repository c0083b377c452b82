package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"chatbot/internal/domain/models"
	domainllm "chatbot/internal/domain/services/llm"
)

// ToolExecutor defines the interface for executing a tool.
// Implementations must be thread-safe and respect context cancellation.
type ToolExecutor interface {
	// Execute runs the tool with the JSON input produced by the model.
	// The returned interface{} must be JSON-serializable.
	// Returns an error if execution fails or context is cancelled.
	Execute(ctx context.Context, input json.RawMessage) (interface{}, error)
}

// Tool is an executor that can describe itself to the model.
type Tool interface {
	ToolExecutor
	Definition() domainllm.ToolSpec
}

// decodeInput unmarshals tool input, reporting malformed JSON to the model.
func decodeInput(input json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(input, v); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	return nil
}

// discardWriter drops chunks. Used when a tool is built without a stream.
type discardWriter struct{}

func (discardWriter) Write(models.UIChunk) {}
