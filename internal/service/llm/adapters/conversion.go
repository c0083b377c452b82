package adapters

import (
	"strings"

	llmprovider "github.com/haowjy/meridian-llm-go"

	"chatbot/internal/domain/models"
	domainllm "chatbot/internal/domain/services/llm"
)

const (
	libBlockText     = "text"
	libBlockThinking = "thinking"
)

// convertToLibraryRequest converts a domain request to the library format.
// Tool traffic from earlier steps is folded into text so the conversation
// stays readable for providers that are not offered tools.
func convertToLibraryRequest(req *domainllm.GenerateRequest) *llmprovider.GenerateRequest {
	messages := make([]llmprovider.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		var blocks []*llmprovider.Block
		for _, b := range msg.Content {
			text := blockText(b)
			if text == "" {
				continue
			}
			blocks = append(blocks, &llmprovider.Block{
				BlockType:   libBlockText,
				Sequence:    len(blocks),
				TextContent: &text,
			})
		}
		if len(blocks) == 0 {
			continue
		}
		messages = append(messages, llmprovider.Message{
			Role:   string(msg.Role),
			Blocks: blocks,
		})
	}

	params := &llmprovider.RequestParams{}
	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		params.MaxTokens = &maxTokens
	}
	if req.System != "" {
		system := req.System
		params.System = &system
	}
	if req.Thinking {
		enabled := true
		params.ThinkingEnabled = &enabled
	}

	return &llmprovider.GenerateRequest{
		Messages: messages,
		Model:    req.Model,
		Params:   params,
	}
}

func blockText(b domainllm.ContentBlock) string {
	switch b.Type {
	case domainllm.BlockText:
		return b.Text
	case domainllm.BlockToolResult:
		return "[tool result] " + b.Output
	case domainllm.BlockImage:
		return "[image] " + b.URL
	default:
		return ""
	}
}

// eventConverter tracks block types by index; the library only names the
// type on the first delta of a block.
type eventConverter struct {
	model      string
	blockTypes map[int]string
}

func newEventConverter(model string) *eventConverter {
	return &eventConverter{model: model, blockTypes: map[int]string{}}
}

func (c *eventConverter) convert(event llmprovider.StreamEvent) (domainllm.StreamEvent, bool) {
	if event.Error != nil {
		return domainllm.StreamEvent{Type: domainllm.EventError, Err: event.Error}, true
	}
	if d := event.Delta; d != nil {
		return c.delta(d.BlockIndex, d.BlockType, d.DeltaType, d.TextDelta)
	}
	if m := event.Metadata; m != nil {
		return c.finish(m.Model, m.InputTokens, m.OutputTokens, m.StopReason), true
	}
	return domainllm.StreamEvent{}, false
}

func (c *eventConverter) delta(index int, blockType *string, deltaType string, text *string) (domainllm.StreamEvent, bool) {
	if blockType != nil {
		c.blockTypes[index] = *blockType
	}
	if text == nil || *text == "" {
		return domainllm.StreamEvent{}, false
	}
	if c.blockTypes[index] == libBlockThinking || deltaType == "thinking_delta" {
		return domainllm.StreamEvent{Type: domainllm.EventReasoningDelta, Delta: *text}, true
	}
	return domainllm.StreamEvent{Type: domainllm.EventTextDelta, Delta: *text}, true
}

func (c *eventConverter) finish(model string, inputTokens, outputTokens int, reason string) domainllm.StreamEvent {
	if model == "" {
		model = c.model
	}
	return domainllm.StreamEvent{
		Type:         domainllm.EventFinish,
		FinishReason: stopReason(reason),
		Usage: &models.Usage{
			InputTokens:  int64(inputTokens),
			OutputTokens: int64(outputTokens),
			TotalTokens:  int64(inputTokens + outputTokens),
			ModelID:      model,
		},
	}
}

func stopReason(reason string) string {
	switch {
	case reason == "max_tokens" || reason == "length":
		return domainllm.FinishLength
	case strings.Contains(reason, "tool"):
		return domainllm.FinishToolCalls
	default:
		return domainllm.FinishStop
	}
}
