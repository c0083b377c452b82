package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"chatbot/internal/domain/models"
	domainllm "chatbot/internal/domain/services/llm"
	"chatbot/internal/service/llm/formatting"
)

const toolPartPrefix = "tool-"

// contextWarningPercent is the share of the context window after which the
// model is told to wrap up.
const contextWarningPercent = 75

// MessageBuilderService converts conversation history (UI messages) to LLM messages.
// This is a pure conversion service - data loading happens in the caller.
type MessageBuilderService struct {
	formatterRegistry *formatting.FormatterRegistry
	logger            *slog.Logger
}

// NewMessageBuilderService creates a new MessageBuilderService
func NewMessageBuilderService(formatterRegistry *formatting.FormatterRegistry, logger *slog.Logger) *MessageBuilderService {
	return &MessageBuilderService{
		formatterRegistry: formatterRegistry,
		logger:            logger,
	}
}

// BuildMessages converts normalized history, oldest first, to provider messages.
// lastContext is the usage snapshot stored on the chat; when it shows the
// conversation is close to the context window a warning is appended.
func (mb *MessageBuilderService) BuildMessages(
	ctx context.Context,
	history []models.UIMessage,
	lastContext json.RawMessage,
) ([]domainllm.Message, error) {
	messages := make([]domainllm.Message, 0, len(history))

	for _, msg := range history {
		parts := models.DecodeParts(msg.Parts)

		switch msg.Role {
		case models.RoleUser:
			blocks := mb.userBlocks(parts)
			if len(blocks) == 0 {
				mb.logger.Warn("skipping message with no content", "message_id", msg.ID)
				continue
			}
			messages = append(messages, domainllm.Message{Role: domainllm.RoleUser, Content: blocks})

		case models.RoleAssistant:
			messages = append(messages, mb.assistantMessages(msg.ID, parts)...)

		case models.RoleSystem:
			// System text comes from the prompt builder, never from history
			continue

		default:
			return nil, fmt.Errorf("unsupported message role: %s", msg.Role)
		}
	}

	mb.injectContextWarningIfNeeded(lastContext, &messages)

	return messages, nil
}

func (mb *MessageBuilderService) userBlocks(parts []models.Part) []domainllm.ContentBlock {
	var blocks []domainllm.ContentBlock
	for _, p := range parts {
		switch p.Type {
		case models.PartText:
			if p.Text != "" {
				blocks = append(blocks, domainllm.ContentBlock{Type: domainllm.BlockText, Text: p.Text})
			}
		case models.PartFile:
			if strings.HasPrefix(p.MediaType, "image/") && p.URL != "" {
				blocks = append(blocks, domainllm.ContentBlock{
					Type:      domainllm.BlockImage,
					MediaType: p.MediaType,
					URL:       p.URL,
				})
			}
		}
	}
	return blocks
}

// assistantMessages splits one UI message into provider turns. Tool calls end
// an assistant turn and their results form the following user turn, so text
// written after a tool result starts a new assistant turn.
func (mb *MessageBuilderService) assistantMessages(messageID string, parts []models.Part) []domainllm.Message {
	var out []domainllm.Message
	var current, results []domainllm.ContentBlock

	flush := func() {
		if len(current) > 0 {
			out = append(out, domainllm.Message{Role: domainllm.RoleAssistant, Content: current})
		}
		if len(results) > 0 {
			out = append(out, domainllm.Message{Role: domainllm.RoleUser, Content: results})
		}
		current, results = nil, nil
	}

	for _, p := range parts {
		switch {
		case p.Type == models.PartText:
			if p.Text == "" {
				continue
			}
			if len(results) > 0 {
				flush()
			}
			current = append(current, domainllm.ContentBlock{Type: domainllm.BlockText, Text: p.Text})

		case p.Type == models.PartStepStart:
			if len(results) > 0 {
				flush()
			}

		case strings.HasPrefix(p.Type, toolPartPrefix) && p.ToolCallID != "":
			name := strings.TrimPrefix(p.Type, toolPartPrefix)
			input := p.Input
			if len(input) == 0 {
				input = json.RawMessage("{}")
			}
			current = append(current, domainllm.ContentBlock{
				Type:       domainllm.BlockToolUse,
				ToolCallID: p.ToolCallID,
				ToolName:   name,
				Input:      input,
			})
			results = append(results, mb.toolResult(messageID, name, p))
		}
	}
	flush()

	return out
}

// toolResult builds the result block for a stored tool part. A tool part
// without output means the stream was interrupted; providers reject a tool_use
// with no matching tool_result, so a synthetic error result is injected.
func (mb *MessageBuilderService) toolResult(messageID, name string, p models.Part) domainllm.ContentBlock {
	block := domainllm.ContentBlock{
		Type:       domainllm.BlockToolResult,
		ToolCallID: p.ToolCallID,
		ToolName:   name,
	}

	switch p.State {
	case "output-available":
		block.Output = mb.formatOutput(name, p.Output)
	case "output-error":
		block.IsError = true
		block.Output = p.ErrorText
	default:
		mb.logger.Warn("injecting error tool_result for dangling tool call",
			"message_id", messageID,
			"tool_call_id", p.ToolCallID,
			"tool_name", name,
		)
		block.IsError = true
		block.Output = "Tool execution was interrupted"
	}
	return block
}

// formatOutput applies tool-specific formatting to a stored output.
// Formatting happens on message build (not at storage time), so the full result stays in the database.
func (mb *MessageBuilderService) formatOutput(toolName string, raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var result interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return string(raw)
	}
	if mb.formatterRegistry != nil {
		result = mb.formatterRegistry.Format(toolName, result)
	}
	if s, ok := result.(string); ok {
		return s
	}
	formatted, err := json.Marshal(result)
	if err != nil {
		return string(raw)
	}
	return string(formatted)
}

// injectContextWarningIfNeeded appends a user note when the previous
// generation used more than contextWarningPercent of the context window.
func (mb *MessageBuilderService) injectContextWarningIfNeeded(lastContext json.RawMessage, messages *[]domainllm.Message) {
	if len(lastContext) == 0 || len(*messages) == 0 {
		return
	}

	var usage models.Usage
	if err := json.Unmarshal(lastContext, &usage); err != nil {
		mb.logger.Warn("ignoring unreadable last context", "error", err)
		return
	}
	if usage.ContextWindow <= 0 {
		return
	}

	totalTokens := usage.InputTokens + usage.OutputTokens
	usagePercent := float64(totalTokens) / float64(usage.ContextWindow) * 100
	if usagePercent <= contextWarningPercent {
		return
	}

	warningText := fmt.Sprintf("Note: You're approaching the context limit (%.1f%% used, %d/%d tokens). Consider wrapping up.",
		usagePercent, totalTokens, usage.ContextWindow)

	*messages = append(*messages, domainllm.Message{
		Role:    domainllm.RoleUser,
		Content: []domainllm.ContentBlock{{Type: domainllm.BlockText, Text: warningText}},
	})

	mb.logger.Info("injected token limit warning",
		"usage_percent", usagePercent,
		"total_tokens", totalTokens,
		"context_limit", usage.ContextWindow,
	)
}
