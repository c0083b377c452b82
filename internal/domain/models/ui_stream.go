package models

import "encoding/json"

// UIChunk is one event of the UI message stream protocol. Only the fields for
// the chunk's type are set.
type UIChunk struct {
	Type       string      `json:"type"`
	ID         string      `json:"id,omitempty"`
	MessageID  string      `json:"messageId,omitempty"`
	Delta      string      `json:"delta,omitempty"`
	ToolCallID string      `json:"toolCallId,omitempty"`
	ToolName   string      `json:"toolName,omitempty"`
	Input      interface{} `json:"input,omitempty"`
	Output     interface{} `json:"output,omitempty"`
	ErrorText  string      `json:"errorText,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Transient  bool        `json:"transient,omitempty"`
}

const (
	ChunkStart               = "start"
	ChunkStartStep           = "start-step"
	ChunkFinishStep          = "finish-step"
	ChunkFinish              = "finish"
	ChunkError               = "error"
	ChunkTextStart           = "text-start"
	ChunkTextDelta           = "text-delta"
	ChunkTextEnd             = "text-end"
	ChunkReasoningStart      = "reasoning-start"
	ChunkReasoningDelta      = "reasoning-delta"
	ChunkReasoningEnd        = "reasoning-end"
	ChunkToolInputAvailable  = "tool-input-available"
	ChunkToolOutputAvailable = "tool-output-available"
	ChunkToolOutputError     = "tool-output-error"
)

// Data chunk types emitted by tools and the orchestrator.
const (
	DataKind          = "data-kind"
	DataID            = "data-id"
	DataTitle         = "data-title"
	DataClear         = "data-clear"
	DataFinish        = "data-finish"
	DataTextDelta     = "data-textDelta"
	DataCodeDelta     = "data-codeDelta"
	DataSheetDelta    = "data-sheetDelta"
	DataSuggestion    = "data-suggestion"
	DataUsage         = "data-usage"
	DataAppendMessage = "data-appendMessage"
)

// DataChunk builds a data-* chunk.
func DataChunk(typ string, data interface{}, transient bool) UIChunk {
	return UIChunk{Type: typ, Data: data, Transient: transient}
}

// StreamErrorText is sent to clients when generation fails after streaming began.
const StreamErrorText = "Oops, an error occurred!"

// DoneFrame terminates every UI message stream.
var DoneFrame = []byte("data: [DONE]\n\n")

// Frame encodes the chunk as one SSE data frame.
func (c UIChunk) Frame() ([]byte, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 0, len(payload)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, payload...)
	return append(frame, '\n', '\n'), nil
}
