package streaming

import (
	"encoding/json"
	"strings"

	"chatbot/internal/domain/models"
)

// messageAssembler folds the UI chunks of one generation into the parts of
// the assistant message that is stored when the generation ends. Data chunks
// are display-only and are not stored.
type messageAssembler struct {
	parts []models.Part

	// open text and reasoning parts by chunk id
	open map[string]int
	// tool parts by call id
	tools map[string]int
}

func newMessageAssembler() *messageAssembler {
	return &messageAssembler{open: map[string]int{}, tools: map[string]int{}}
}

func (a *messageAssembler) add(c models.UIChunk) {
	switch c.Type {
	case models.ChunkStartStep:
		a.parts = append(a.parts, models.Part{Type: models.PartStepStart})

	case models.ChunkTextStart:
		a.open[c.ID] = len(a.parts)
		a.parts = append(a.parts, models.Part{Type: models.PartText})

	case models.ChunkReasoningStart:
		a.open[c.ID] = len(a.parts)
		a.parts = append(a.parts, models.Part{Type: models.PartReasoning})

	case models.ChunkTextDelta, models.ChunkReasoningDelta:
		if i, ok := a.open[c.ID]; ok {
			a.parts[i].Text += c.Delta
		}

	case models.ChunkTextEnd, models.ChunkReasoningEnd:
		delete(a.open, c.ID)

	case models.ChunkToolInputAvailable:
		a.tools[c.ToolCallID] = len(a.parts)
		a.parts = append(a.parts, models.Part{
			Type:       "tool-" + c.ToolName,
			ToolCallID: c.ToolCallID,
			State:      "input-available",
			Input:      toRaw(c.Input),
		})

	case models.ChunkToolOutputAvailable:
		if i, ok := a.tools[c.ToolCallID]; ok {
			a.parts[i].State = "output-available"
			a.parts[i].Output = toRaw(c.Output)
		}

	case models.ChunkToolOutputError:
		if i, ok := a.tools[c.ToolCallID]; ok {
			a.parts[i].State = "output-error"
			a.parts[i].ErrorText = c.ErrorText
		}
	}
}

// hasContent reports whether anything besides step markers was produced.
func (a *messageAssembler) hasContent() bool {
	for _, p := range a.parts {
		if p.Type != models.PartStepStart {
			return true
		}
	}
	return false
}

// text returns the visible text of the message.
func (a *messageAssembler) text() string {
	var sb strings.Builder
	for _, p := range a.parts {
		if p.Type == models.PartText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// marshal encodes the parts. A message of step markers alone encodes as [].
func (a *messageAssembler) marshal() (json.RawMessage, error) {
	if !a.hasContent() {
		return json.RawMessage("[]"), nil
	}
	return json.Marshal(a.parts)
}

func toRaw(v interface{}) json.RawMessage {
	switch t := v.(type) {
	case nil:
		return nil
	case json.RawMessage:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil
		}
		return b
	}
}
