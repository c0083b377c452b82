package anthropic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	domainllm "chatbot/internal/domain/services/llm"
)

const (
	defaultMaxTokens = 4096
	// thinkingBudgetTokens has to stay below max_tokens or the API rejects
	// the request, so thinking is skipped for small MaxTokens.
	thinkingBudgetTokens = 2048
)

// Provider streams Claude models through the official SDK.
type Provider struct {
	client anthropic.Client
}

// NewProvider returns an error when apiKey is empty.
func NewProvider(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	return &Provider{client: anthropic.NewClient(option.WithAPIKey(apiKey))}, nil
}

func (p *Provider) Name() string { return "anthropic" }

// SupportsModel accepts claude-* model ids.
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "claude-")
}

func buildParams(req *domainllm.GenerateRequest) (anthropic.MessageNewParams, error) {
	var params anthropic.MessageNewParams

	messages, err := convertToAnthropicMessages(req.Messages)
	if err != nil {
		return params, fmt.Errorf("anthropic: convert messages: %w", err)
	}

	params.Model = anthropic.Model(req.Model)
	params.Messages = messages
	params.MaxTokens = defaultMaxTokens
	if req.MaxTokens > 0 {
		params.MaxTokens = int64(req.MaxTokens)
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = convertTools(req.Tools)
	}
	if req.Thinking && params.MaxTokens > thinkingBudgetTokens {
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(thinkingBudgetTokens)
	}
	return params, nil
}
