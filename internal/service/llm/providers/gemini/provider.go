package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"chatbot/internal/domain/models"
	domainllm "chatbot/internal/domain/services/llm"
)

// Provider implements the LLMProvider interface for Google Gemini models.
type Provider struct {
	client *genai.Client
}

// NewProvider creates a Gemini client. Close releases its connections.
func NewProvider(ctx context.Context, apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Provider{client: client}, nil
}

func (p *Provider) Name() string {
	return "gemini"
}

// SupportsModel returns true for "gemini-" models.
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "gemini-")
}

func (p *Provider) Close() error {
	return p.client.Close()
}

// StreamResponse streams a chat turn. The last message is sent; everything
// before it becomes chat history.
func (p *Provider) StreamResponse(ctx context.Context, req *domainllm.GenerateRequest) (<-chan domainllm.StreamEvent, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by Gemini provider", req.Model)
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("gemini request has no messages")
	}

	model := p.client.GenerativeModel(req.Model)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if len(req.Tools) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: convertTools(req.Tools)}}
	}

	contents := convertMessages(req.Messages)
	last := contents[len(contents)-1]

	cs := model.StartChat()
	cs.History = contents[:len(contents)-1]

	eventChan := make(chan domainllm.StreamEvent, 10)

	go func() {
		defer close(eventChan)

		iter := cs.SendMessageStream(ctx, last.Parts...)
		usage := &models.Usage{ModelID: req.Model}
		finish := domainllm.FinishStop
		var calls []domainllm.ToolCall

		for {
			resp, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				eventChan <- domainllm.StreamEvent{Type: domainllm.EventError, Err: fmt.Errorf("gemini streaming error: %w", err)}
				return
			}

			if resp.UsageMetadata != nil {
				usage.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
				usage.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
			}

			for _, cand := range resp.Candidates {
				if cand.FinishReason == genai.FinishReasonMaxTokens {
					finish = domainllm.FinishLength
				}
				if cand.Content == nil {
					continue
				}
				for _, part := range cand.Content.Parts {
					switch v := part.(type) {
					case genai.Text:
						select {
						case <-ctx.Done():
							eventChan <- domainllm.StreamEvent{Type: domainllm.EventError, Err: ctx.Err()}
							return
						case eventChan <- domainllm.StreamEvent{Type: domainllm.EventTextDelta, Delta: string(v)}:
						}
					case genai.FunctionCall:
						input, err := json.Marshal(v.Args)
						if err != nil {
							input = []byte(`{}`)
						}
						calls = append(calls, domainllm.ToolCall{
							ID:    "call_" + uuid.NewString(),
							Name:  v.Name,
							Input: input,
						})
					}
				}
			}
		}

		for i := range calls {
			eventChan <- domainllm.StreamEvent{Type: domainllm.EventToolCall, ToolCall: &calls[i]}
		}
		if len(calls) > 0 {
			finish = domainllm.FinishToolCalls
		}

		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
		eventChan <- domainllm.StreamEvent{Type: domainllm.EventFinish, FinishReason: finish, Usage: usage}
	}()

	return eventChan, nil
}
