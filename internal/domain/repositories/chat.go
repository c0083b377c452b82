package repositories

import (
	"context"
	"encoding/json"
	"time"

	"chatbot/internal/domain/models"
)

// ChatRepository defines data access for chats
type ChatRepository interface {
	// CreateChat inserts a chat keyed by ExternalID. When a chat with the same
	// external id already exists nothing is written and the existing row is
	// loaded into chat (created=false).
	CreateChat(ctx context.Context, chat *models.Chat) (created bool, err error)

	// GetChatByExternalID returns domain.ErrNotFound if missing
	GetChatByExternalID(ctx context.Context, externalID string) (*models.Chat, error)

	// GetChatByID looks up by internal id. Returns domain.ErrNotFound if missing
	GetChatByID(ctx context.Context, id string) (*models.Chat, error)

	// ListChatIDsByUser returns internal ids of every chat owned by the user
	ListChatIDsByUser(ctx context.Context, userID string) ([]string, error)

	// ListChatsByUser returns a page of chats ordered newest first
	ListChatsByUser(ctx context.Context, query models.HistoryQuery) (*models.ChatPage, error)

	// UpdateVisibility returns domain.ErrNotFound if missing
	UpdateVisibility(ctx context.Context, id string, visibility models.Visibility) error

	// UpdateLastContext stores the usage snapshot of the latest generation
	UpdateLastContext(ctx context.Context, id string, usage json.RawMessage) error

	// DeleteChat removes the chat. Messages, votes and stream handles cascade.
	DeleteChat(ctx context.Context, id string) error
}

// MessageRepository defines data access for messages
type MessageRepository interface {
	// SaveMessages inserts messages in order
	SaveMessages(ctx context.Context, messages []models.Message) error

	// GetMessage returns domain.ErrNotFound if missing
	GetMessage(ctx context.Context, id string) (*models.Message, error)

	// ListMessagesByChat returns messages of a chat ordered by created_at
	ListMessagesByChat(ctx context.Context, chatID string) ([]models.Message, error)

	// CountUserMessagesSince counts role=user messages in a chat created at or after since
	CountUserMessagesSince(ctx context.Context, chatID string, since time.Time) (int, error)

	// DeleteMessagesByChat removes every message of a chat
	DeleteMessagesByChat(ctx context.Context, chatID string) (int64, error)

	// DeleteMessagesSince removes messages of a chat created at or after since
	DeleteMessagesSince(ctx context.Context, chatID string, since time.Time) (int64, error)
}

// VoteRepository defines data access for votes
type VoteRepository interface {
	// UpsertVote writes one row per (chat, message)
	UpsertVote(ctx context.Context, chatID, messageID string, isUpvoted bool) error

	// ListVotesByChat returns votes keyed by internal chat id
	ListVotesByChat(ctx context.Context, chatID string) ([]models.Vote, error)
}

// StreamRepository defines data access for stream handles
type StreamRepository interface {
	// CreateStream records a new handle and fills ID and CreatedAt
	CreateStream(ctx context.Context, stream *models.StreamHandle) error

	// ListStreamIDsByChat returns handle ids ordered oldest first
	ListStreamIDsByChat(ctx context.Context, chatID string) ([]string, error)

	// DeleteStreamsBefore removes handles older than cutoff
	DeleteStreamsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
