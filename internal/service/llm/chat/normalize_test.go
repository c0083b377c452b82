package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbot/internal/domain/models"
)

func TestNormalizeMessages(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := []models.Message{
		{ID: "m3", Role: models.RoleAssistant, Parts: json.RawMessage(`[{"type":"text","text":"c"}]`), CreatedAt: base.Add(2 * time.Second)},
		{ID: "m1", Role: models.RoleUser, Parts: json.RawMessage(`[{"type":"text","text":"a"}]`), CreatedAt: base},
		{ID: "m2a", Role: models.RoleUser, CreatedAt: base.Add(time.Second)},
		{ID: "m2b", Role: models.RoleUser, Parts: json.RawMessage(`not json`), CreatedAt: base.Add(time.Second)},
	}

	got := NormalizeMessages(rows, "chat-ext")

	wantOrder := []string{"m1", "m2a", "m2b", "m3"}
	require.Len(t, got, len(wantOrder))
	for i, id := range wantOrder {
		assert.Equal(t, id, got[i].ID, "position %d", i)
		assert.Equal(t, "chat-ext", got[i].ChatID)
		assert.NotNil(t, got[i].Parts, "message %s parts", got[i].ID)
		assert.NotNil(t, got[i].Attachments, "message %s attachments", got[i].ID)
	}

	assert.Len(t, got[0].Parts, 1)
	assert.Empty(t, got[2].Parts, "malformed parts normalize to empty")

	// input is not reordered in place
	assert.Equal(t, "m3", rows[0].ID)
}

func TestNormalizeMessagesEmpty(t *testing.T) {
	got := NormalizeMessages(nil, "x")
	require.NotNil(t, got)
	assert.Empty(t, got)
}
