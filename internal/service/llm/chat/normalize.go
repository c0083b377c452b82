package chat

import (
	"encoding/json"
	"sort"

	"chatbot/internal/domain/models"
)

// NormalizeMessages converts stored rows into client messages ordered oldest
// first. Rows with equal timestamps keep their storage order. Missing or
// malformed parts and attachments become empty arrays.
func NormalizeMessages(rows []models.Message, externalChatID string) []models.UIMessage {
	sorted := make([]models.Message, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	out := make([]models.UIMessage, 0, len(sorted))
	for _, m := range sorted {
		out = append(out, models.UIMessage{
			ID:          m.ID,
			ChatID:      externalChatID,
			Role:        m.Role,
			Parts:       rawArray(m.Parts),
			Attachments: rawArray(m.Attachments),
			CreatedAt:   m.CreatedAt,
		})
	}
	return out
}

func rawArray(raw json.RawMessage) []json.RawMessage {
	if len(raw) == 0 {
		return []json.RawMessage{}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return []json.RawMessage{}
	}
	return items
}
