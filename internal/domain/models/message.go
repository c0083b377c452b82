package models

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a stored message row. Parts and Attachments are kept as raw JSON
// so part shapes the server does not interpret survive a round trip.
type Message struct {
	ID          string          `json:"id"`
	ChatID      string          `json:"-"` // internal chat id
	Role        Role            `json:"role"`
	Parts       json.RawMessage `json:"parts"`
	Attachments json.RawMessage `json:"attachments"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// UIMessage is the client-facing shape of a message.
type UIMessage struct {
	ID          string            `json:"id"`
	ChatID      string            `json:"chatId"` // external chat id
	Role        Role              `json:"role"`
	Parts       []json.RawMessage `json:"parts"`
	Attachments []json.RawMessage `json:"attachments"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Part is one element of a message's parts array. Only the fields for the
// part's type are set.
type Part struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
	Name      string `json:"name,omitempty"`
	URL       string `json:"url,omitempty"`

	// Tool parts ("tool-<name>")
	ToolCallID string          `json:"toolCallId,omitempty"`
	State      string          `json:"state,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
	ErrorText  string          `json:"errorText,omitempty"`
}

const (
	PartText      = "text"
	PartFile      = "file"
	PartReasoning = "reasoning"
	PartStepStart = "step-start"
)

// DecodeParts parses the raw parts array, skipping entries that are not objects.
func DecodeParts(raw []json.RawMessage) []Part {
	parts := make([]Part, 0, len(raw))
	for _, r := range raw {
		var p Part
		if err := json.Unmarshal(r, &p); err != nil {
			continue
		}
		parts = append(parts, p)
	}
	return parts
}
