package models

import "time"

// StreamHandle records that a generation was started for a chat.
type StreamHandle struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"` // internal chat id
	CreatedAt time.Time `json:"createdAt"`
}
