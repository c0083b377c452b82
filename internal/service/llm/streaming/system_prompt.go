package streaming

import (
	"fmt"
	"strings"

	domainllm "chatbot/internal/domain/services/llm"
	llmservice "chatbot/internal/service/llm"
)

const regularPrompt = "You are a friendly assistant! Keep your responses concise and helpful."

const artifactsPrompt = `Artifacts is a special user interface mode that helps users with writing, editing, and other content creation tasks. When an artifact is open, it is on the right side of the screen, while the conversation is on the left side. Changes made with createDocument and updateDocument are reflected in real time and visible to the user.

When asked to write code, always use artifacts. Specify the language in the backticks, e.g. ` + "```python`code here`" + `. The default language is Python.

Do not update a document right after creating it. Wait for user feedback or a request to update it.

Use createDocument for substantial content (over 10 lines) or code, for content users will likely save or reuse (emails, code, essays), and when explicitly asked to create a document.
Do not use createDocument for informational or explanatory content, conversational responses, or when asked to keep it in chat.

Use updateDocument with full rewrites for major changes and targeted updates for specific changes. Follow the user's instructions about which parts to modify.
Do not use updateDocument immediately after creating a document.

Use requestSuggestions when the user asks for feedback on an existing document.`

// requestHints renders the request origin so the model can answer
// location-dependent questions such as the weather.
func requestHints(geo domainllm.Geo) string {
	return fmt.Sprintf(`About the origin of user's request:
- lat: %s
- lon: %s
- city: %s
- country: %s`, orUnknown(geo.Latitude), orUnknown(geo.Longitude), orUnknown(geo.City), orUnknown(geo.Country))
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

// SystemPrompt builds the system prompt for the selected model. The reasoning
// model gets no tools, so it is not told about artifacts.
func SystemPrompt(selectedModel string, geo domainllm.Geo) string {
	if llmservice.IsReasoning(selectedModel) {
		return regularPrompt + "\n\n" + requestHints(geo)
	}
	return regularPrompt + "\n\n" + requestHints(geo) + "\n\n" + artifactsPrompt
}
