package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	"chatbot/internal/domain/repositories"
)

// PostgresMessageRepository implements repositories.MessageRepository
type PostgresMessageRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewMessageRepository creates a new PostgresMessageRepository
func NewMessageRepository(config *RepositoryConfig) repositories.MessageRepository {
	return &PostgresMessageRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const messageColumns = `id, chat_id, role, parts, attachments, created_at`

func scanMessage(row pgx.Row) (*models.Message, error) {
	var msg models.Message
	var parts, attachments []byte
	if err := row.Scan(&msg.ID, &msg.ChatID, &msg.Role, &parts, &attachments, &msg.CreatedAt); err != nil {
		return nil, err
	}
	msg.Parts = parts
	msg.Attachments = attachments
	return &msg, nil
}

// SaveMessages inserts messages in a single batch
func (r *PostgresMessageRepository) SaveMessages(ctx context.Context, messages []models.Message) error {
	if len(messages) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, chat_id, role, parts, attachments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.Messages)

	batch := &pgx.Batch{}
	for i := range messages {
		m := &messages[i]
		if m.ID == "" {
			m.ID = NewID()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now().UTC()
		}
		batch.Queue(query, m.ID, m.ChatID, m.Role, jsonOrEmpty(m.Parts), jsonOrEmpty(m.Attachments), m.CreatedAt)
	}

	executor := GetExecutor(ctx, r.pool)
	results := executor.SendBatch(ctx, batch)
	defer results.Close()

	for range messages {
		if _, err := results.Exec(); err != nil {
			if IsPgDuplicateError(err) {
				return &domain.ConflictError{Message: "message already exists", ResourceType: "message"}
			}
			if IsPgForeignKeyError(err) {
				return fmt.Errorf("save messages: chat: %w", domain.ErrNotFound)
			}
			return fmt.Errorf("save messages: %w", err)
		}
	}
	return nil
}

// GetMessage retrieves a message by ID
func (r *PostgresMessageRepository) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, messageColumns, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	msg, err := scanMessage(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return msg, nil
}

// ListMessagesByChat returns a chat's messages oldest first
func (r *PostgresMessageRepository) ListMessagesByChat(ctx context.Context, chatID string) ([]models.Message, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE chat_id = $1
		ORDER BY created_at ASC
	`, messageColumns, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// CountUserMessagesSince counts user-authored messages in one chat
func (r *PostgresMessageRepository) CountUserMessagesSince(ctx context.Context, chatID string, since time.Time) (int, error) {
	query := fmt.Sprintf(`
		SELECT count(*) FROM %s
		WHERE chat_id = $1 AND role = 'user' AND created_at >= $2
	`, r.tables.Messages)

	var n int
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, chatID, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

// DeleteMessagesByChat removes every message of a chat
func (r *PostgresMessageRepository) DeleteMessagesByChat(ctx context.Context, chatID string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE chat_id = $1`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, chatID)
	if err != nil {
		return 0, fmt.Errorf("delete messages: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteMessagesSince removes messages created at or after since
func (r *PostgresMessageRepository) DeleteMessagesSince(ctx context.Context, chatID string, since time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE chat_id = $1 AND created_at >= $2`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, chatID, since)
	if err != nil {
		return 0, fmt.Errorf("delete messages since: %w", err)
	}
	return tag.RowsAffected(), nil
}

func jsonOrEmpty(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte("[]")
	}
	return raw
}
