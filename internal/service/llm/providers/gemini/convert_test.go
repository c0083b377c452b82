package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"

	domainllm "chatbot/internal/domain/services/llm"
)

func TestConvertMessagesRoles(t *testing.T) {
	contents := convertMessages([]domainllm.Message{
		{Role: domainllm.RoleUser, Content: []domainllm.ContentBlock{{Type: domainllm.BlockText, Text: "weather?"}}},
		{Role: domainllm.RoleAssistant, Content: []domainllm.ContentBlock{{
			Type: domainllm.BlockToolUse, ToolName: "getWeather", Input: []byte(`{"latitude":1}`),
		}}},
		{Role: domainllm.RoleUser, Content: []domainllm.ContentBlock{{
			Type: domainllm.BlockToolResult, ToolName: "getWeather", Output: `{"temp":20}`,
		}}},
	})

	if len(contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(contents))
	}
	if contents[1].Role != "model" {
		t.Errorf("assistant role = %q, want model", contents[1].Role)
	}
	call, ok := contents[1].Parts[0].(genai.FunctionCall)
	if !ok || call.Args["latitude"] != float64(1) {
		t.Errorf("unexpected function call part: %#v", contents[1].Parts[0])
	}
	resp, ok := contents[2].Parts[0].(genai.FunctionResponse)
	if !ok || resp.Response["temp"] != float64(20) {
		t.Errorf("unexpected function response part: %#v", contents[2].Parts[0])
	}
}

func TestConvertSchema(t *testing.T) {
	s := convertSchema(&domainllm.Schema{
		Type: "object",
		Properties: map[string]*domainllm.Schema{
			"kind": {Type: "string", Enum: []string{"text", "code"}},
			"tags": {Type: "array", Items: &domainllm.Schema{Type: "string"}},
		},
		Required: []string{"kind"},
	})

	if s.Type != genai.TypeObject {
		t.Errorf("type = %v", s.Type)
	}
	if s.Properties["kind"].Type != genai.TypeString || len(s.Properties["kind"].Enum) != 2 {
		t.Error("kind property not converted")
	}
	if s.Properties["tags"].Items.Type != genai.TypeString {
		t.Error("array items not converted")
	}
}
