package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	domainllm "chatbot/internal/domain/services/llm"
)

// convertToAnthropicMessages converts domain messages to Anthropic SDK format.
func convertToAnthropicMessages(messages []domainllm.Message) ([]anthropic.MessageParam, error) {
	result := make([]anthropic.MessageParam, 0, len(messages))

	for i, msg := range messages {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Content))

		for _, block := range msg.Content {
			switch block.Type {
			case domainllm.BlockText:
				if block.Text == "" {
					continue
				}
				blocks = append(blocks, anthropic.NewTextBlock(block.Text))

			case domainllm.BlockImage:
				blocks = append(blocks, anthropic.NewImageBlock(anthropic.URLImageSourceParam{URL: block.URL}))

			case domainllm.BlockToolUse:
				var input any = map[string]any{}
				if len(block.Input) > 0 {
					input = block.Input
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(block.ToolCallID, input, block.ToolName))

			case domainllm.BlockToolResult:
				blocks = append(blocks, anthropic.NewToolResultBlock(block.ToolCallID, block.Output, block.IsError))
			}
		}

		if len(blocks) == 0 {
			continue
		}

		switch msg.Role {
		case domainllm.RoleUser:
			result = append(result, anthropic.NewUserMessage(blocks...))
		case domainllm.RoleAssistant:
			result = append(result, anthropic.NewAssistantMessage(blocks...))
		default:
			return nil, fmt.Errorf("message %d: unsupported role '%s'", i, msg.Role)
		}
	}

	return result, nil
}

// convertTools converts tool specs into Anthropic tool definitions.
func convertTools(specs []domainllm.ToolSpec) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		schema := anthropic.ToolInputSchemaParam{}
		if spec.Parameters != nil {
			schema.Properties = spec.Parameters.Properties
			schema.Required = spec.Parameters.Required
		}

		tool := anthropic.ToolParam{
			Name:        spec.Name,
			Description: anthropic.String(spec.Description),
			InputSchema: schema,
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return tools
}

// finishReason maps Anthropic stop reasons onto the shared vocabulary.
func finishReason(reason anthropic.StopReason) string {
	switch reason {
	case anthropic.StopReasonToolUse:
		return domainllm.FinishToolCalls
	case anthropic.StopReasonMaxTokens:
		return domainllm.FinishLength
	default:
		return domainllm.FinishStop
	}
}

// toolCallsFrom extracts complete tool calls from an accumulated message.
func toolCallsFrom(msg *anthropic.Message) []domainllm.ToolCall {
	var calls []domainllm.ToolCall
	for _, block := range msg.Content {
		if block.Type != "tool_use" {
			continue
		}
		input := json.RawMessage(block.Input)
		if len(input) == 0 {
			input = json.RawMessage(`{}`)
		}
		calls = append(calls, domainllm.ToolCall{
			ID:    block.ID,
			Name:  block.Name,
			Input: input,
		})
	}
	return calls
}
