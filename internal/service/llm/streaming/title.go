package streaming

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"unicode/utf8"

	"chatbot/internal/config"
	domainllm "chatbot/internal/domain/services/llm"
	llmservice "chatbot/internal/service/llm"
)

// DefaultChatTitle is used when the title model fails.
const DefaultChatTitle = "New Chat"

const titlePrompt = `
- you will generate a short title based on the first message a user begins a conversation with
- ensure it is not more than 80 characters long
- the title should be a summary of the user's message
- do not use quotes or colons`

// TitleGenerator names new chats from their first message.
type TitleGenerator struct {
	models ModelSource
	logger *slog.Logger
}

func NewTitleGenerator(models ModelSource, logger *slog.Logger) *TitleGenerator {
	return &TitleGenerator{models: models, logger: logger}
}

// Generate blocks until the title model answers. It never fails: any error
// yields DefaultChatTitle.
func (g *TitleGenerator) Generate(ctx context.Context, msg domainllm.IncomingMessage) string {
	provider, model, err := g.models.ForModel(ctx, llmservice.ModelTitle)
	if err != nil {
		g.logger.Warn("title model unavailable", "error", err)
		return DefaultChatTitle
	}

	prompt, err := json.Marshal(msg)
	if err != nil {
		return DefaultChatTitle
	}

	text, err := domainllm.GenerateText(ctx, provider, &domainllm.GenerateRequest{
		Model:     model,
		System:    titlePrompt,
		MaxTokens: 64,
		Messages: []domainllm.Message{{
			Role:    domainllm.RoleUser,
			Content: []domainllm.ContentBlock{{Type: domainllm.BlockText, Text: string(prompt)}},
		}},
	})
	if err != nil {
		g.logger.Warn("title generation failed", "error", err, "model", model)
		return DefaultChatTitle
	}

	return sanitizeTitle(text)
}

// sanitizeTitle keeps the first non-empty line without quotes or colons,
// capped at config.MaxGeneratedTitleLength characters.
func sanitizeTitle(raw string) string {
	var line string
	for _, l := range strings.Split(raw, "\n") {
		if strings.TrimSpace(l) != "" {
			line = l
			break
		}
	}

	line = strings.Map(func(r rune) rune {
		switch r {
		case '"', '\'', '`', ':', '“', '”':
			return -1
		}
		return r
	}, line)
	line = strings.Join(strings.Fields(line), " ")

	if utf8.RuneCountInString(line) > config.MaxGeneratedTitleLength {
		line = strings.TrimSpace(string([]rune(line)[:config.MaxGeneratedTitleLength]))
	}
	if line == "" {
		return DefaultChatTitle
	}
	return line
}
