package models

// Vote is a thumbs up/down on an assistant message.
type Vote struct {
	ChatID    string `json:"chatId"` // external chat id in responses
	MessageID string `json:"messageId"`
	IsUpvoted bool   `json:"isUpvoted"`
}
