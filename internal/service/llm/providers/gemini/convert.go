package gemini

import (
	"encoding/json"

	"github.com/google/generative-ai-go/genai"

	domainllm "chatbot/internal/domain/services/llm"
)

// convertMessages maps domain messages to Gemini contents. Gemini calls the
// assistant role "model" and identifies function results by name.
func convertMessages(messages []domainllm.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := "user"
		if msg.Role == domainllm.RoleAssistant {
			role = "model"
		}

		var parts []genai.Part
		for _, b := range msg.Content {
			switch b.Type {
			case domainllm.BlockText:
				if b.Text != "" {
					parts = append(parts, genai.Text(b.Text))
				}
			case domainllm.BlockImage:
				parts = append(parts, genai.FileData{MIMEType: b.MediaType, URI: b.URL})
			case domainllm.BlockToolUse:
				args := map[string]any{}
				_ = json.Unmarshal(b.Input, &args)
				parts = append(parts, genai.FunctionCall{Name: b.ToolName, Args: args})
			case domainllm.BlockToolResult:
				response := map[string]any{}
				if err := json.Unmarshal([]byte(b.Output), &response); err != nil {
					response = map[string]any{"result": b.Output}
				}
				if b.IsError {
					response = map[string]any{"error": b.Output}
				}
				parts = append(parts, genai.FunctionResponse{Name: b.ToolName, Response: response})
			}
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	if len(contents) == 0 {
		contents = append(contents, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text("")}})
	}
	return contents
}

func convertTools(specs []domainllm.ToolSpec) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, spec := range specs {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  convertSchema(spec.Parameters),
		})
	}
	return decls
}

func convertSchema(s *domainllm.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        schemaType(s.Type),
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
		Items:       convertSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = convertSchema(prop)
		}
	}
	return out
}

func schemaType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	default:
		return genai.TypeObject
	}
}
