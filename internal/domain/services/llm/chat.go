package llm

import (
	"context"

	"chatbot/internal/domain/models"
)

// ChatService handles chat reads and mutations outside of generation.
type ChatService interface {
	// GetChat returns a chat and its messages. Private chats are visible to
	// their owner only; public chats to any signed-in user.
	GetChat(ctx context.Context, session *models.Session, id string) (*ChatWithMessages, error)

	// DeleteChat removes an owned chat and its messages, returning the deleted chat
	DeleteChat(ctx context.Context, userID, id string) (*models.Chat, error)

	UpdateVisibility(ctx context.Context, userID, id string, visibility models.Visibility) error

	// DeleteTrailingMessages removes a message and everything after it in its chat
	DeleteTrailingMessages(ctx context.Context, userID, messageID string) error

	ListHistory(ctx context.Context, query models.HistoryQuery) (*models.ChatPage, error)

	ListVotes(ctx context.Context, userID, chatID string) ([]models.Vote, error)
	Vote(ctx context.Context, userID string, req *VoteRequest) error
}

// ChatWithMessages is the response of GET /api/chat/{id}
type ChatWithMessages struct {
	Chat     *models.Chat       `json:"chat"`
	Messages []models.UIMessage `json:"messages"`
}

// VoteRequest is the body of POST/PATCH /api/vote
type VoteRequest struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
	Type      string `json:"type"` // "up" or "down"
}
