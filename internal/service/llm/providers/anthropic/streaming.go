package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"chatbot/internal/domain/models"
	domainllm "chatbot/internal/domain/services/llm"
)

// StreamResponse generates a streaming response from Claude.
// Text and thinking deltas are forwarded as they arrive; tool calls are
// emitted after the message completes, once their input JSON is whole.
func (p *Provider) StreamResponse(ctx context.Context, req *domainllm.GenerateRequest) (<-chan domainllm.StreamEvent, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by Anthropic provider", req.Model)
	}

	params, err := buildParams(req)
	if err != nil {
		return nil, err
	}

	eventChan := make(chan domainllm.StreamEvent, 10)

	go func() {
		defer close(eventChan)

		emit := func(ev domainllm.StreamEvent) bool {
			select {
			case <-ctx.Done():
				return false
			case eventChan <- ev:
				return true
			}
		}
		fail := func(err error) {
			// Terminal event goes out even after cancellation
			eventChan <- domainllm.StreamEvent{Type: domainllm.EventError, Err: err}
		}

		stream := p.client.Messages.NewStreaming(ctx, params)
		defer stream.Close()

		message := anthropic.Message{}

		for stream.Next() {
			event := stream.Current()

			if err := message.Accumulate(event); err != nil {
				fail(fmt.Errorf("failed to accumulate message: %w", err))
				return
			}

			ev, ok := transformAnthropicStreamEvent(event)
			if !ok {
				continue
			}
			if !emit(ev) {
				fail(ctx.Err())
				return
			}
		}

		if err := stream.Err(); err != nil {
			fail(fmt.Errorf("anthropic streaming error: %w", err))
			return
		}

		for _, call := range toolCallsFrom(&message) {
			call := call
			if !emit(domainllm.StreamEvent{Type: domainllm.EventToolCall, ToolCall: &call}) {
				fail(ctx.Err())
				return
			}
		}

		eventChan <- domainllm.StreamEvent{
			Type:         domainllm.EventFinish,
			FinishReason: finishReason(message.StopReason),
			Usage: &models.Usage{
				InputTokens:  message.Usage.InputTokens,
				OutputTokens: message.Usage.OutputTokens,
				TotalTokens:  message.Usage.InputTokens + message.Usage.OutputTokens,
				ModelID:      string(message.Model),
			},
		}
	}()

	return eventChan, nil
}

// transformAnthropicStreamEvent converts content deltas to domain events.
// Block boundaries and message-level events carry nothing the UI stream needs.
func transformAnthropicStreamEvent(event anthropic.MessageStreamEventUnion) (domainllm.StreamEvent, bool) {
	e, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
	if !ok {
		return domainllm.StreamEvent{}, false
	}

	switch e.Delta.Type {
	case "text_delta":
		return domainllm.StreamEvent{Type: domainllm.EventTextDelta, Delta: e.Delta.Text}, true
	case "thinking_delta":
		return domainllm.StreamEvent{Type: domainllm.EventReasoningDelta, Delta: e.Delta.Thinking}, true
	default:
		return domainllm.StreamEvent{}, false
	}
}
