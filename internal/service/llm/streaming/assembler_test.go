package streaming

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbot/internal/domain/models"
)

func TestMessageAssembler(t *testing.T) {
	a := newMessageAssembler()
	assert.False(t, a.hasContent())

	for _, c := range []models.UIChunk{
		{Type: models.ChunkStart},
		{Type: models.ChunkStartStep},
		{Type: models.ChunkReasoningStart, ID: "r1"},
		{Type: models.ChunkReasoningDelta, ID: "r1", Delta: "thinking"},
		{Type: models.ChunkReasoningEnd, ID: "r1"},
		{Type: models.ChunkTextStart, ID: "t1"},
		{Type: models.ChunkTextDelta, ID: "t1", Delta: "Let me "},
		{Type: models.ChunkTextDelta, ID: "t1", Delta: "check."},
		{Type: models.ChunkTextEnd, ID: "t1"},
		{Type: models.ChunkToolInputAvailable, ToolCallID: "c1", ToolName: "getWeather", Input: json.RawMessage(`{"latitude":1}`)},
		{Type: models.ChunkToolOutputAvailable, ToolCallID: "c1", Output: map[string]int{"temp": 20}},
		{Type: models.ChunkToolInputAvailable, ToolCallID: "c2", ToolName: "createDocument", Input: json.RawMessage(`{}`)},
		{Type: models.ChunkToolOutputError, ToolCallID: "c2", ErrorText: "boom"},
		models.DataChunk(models.DataUsage, models.Usage{}, false),
		{Type: models.ChunkFinishStep},
	} {
		a.add(c)
	}

	require.True(t, a.hasContent())
	assert.Equal(t, "Let me check.", a.text())

	raw, err := a.marshal()
	require.NoError(t, err)

	var parts []models.Part
	require.NoError(t, json.Unmarshal(raw, &parts))
	require.Len(t, parts, 5)

	assert.Equal(t, models.PartStepStart, parts[0].Type)
	assert.Equal(t, models.PartReasoning, parts[1].Type)
	assert.Equal(t, "thinking", parts[1].Text)
	assert.Equal(t, "tool-getWeather", parts[3].Type)
	assert.Equal(t, "output-available", parts[3].State)
	assert.JSONEq(t, `{"temp":20}`, string(parts[3].Output))
	assert.Equal(t, "output-error", parts[4].State)
	assert.Equal(t, "boom", parts[4].ErrorText)
}

func TestMessageAssemblerEmpty(t *testing.T) {
	a := newMessageAssembler()
	a.add(models.UIChunk{Type: models.ChunkStartStep})
	assert.False(t, a.hasContent())

	raw, err := a.marshal()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}
