package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	"chatbot/internal/domain/repositories"
)

// PostgresChatRepository implements repositories.ChatRepository
type PostgresChatRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewChatRepository creates a new PostgresChatRepository
func NewChatRepository(config *RepositoryConfig) repositories.ChatRepository {
	return &PostgresChatRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const chatColumns = `id, external_id, title, user_id, visibility, last_context, created_at`

func scanChat(row pgx.Row) (*models.Chat, error) {
	var chat models.Chat
	var lastContext []byte
	if err := row.Scan(
		&chat.ID,
		&chat.ExternalID,
		&chat.Title,
		&chat.UserID,
		&chat.Visibility,
		&lastContext,
		&chat.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(lastContext) > 0 {
		chat.LastContext = json.RawMessage(lastContext)
	}
	return &chat, nil
}

// CreateChat inserts the chat, or loads the existing one with the same external id
func (r *PostgresChatRepository) CreateChat(ctx context.Context, chat *models.Chat) (bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, external_id, title, user_id, visibility, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (external_id) DO NOTHING
		RETURNING id, created_at
	`, r.tables.Chats)

	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now().UTC()
	}

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		NewID(),
		chat.ExternalID,
		chat.Title,
		chat.UserID,
		chat.Visibility,
		chat.CreatedAt,
	).Scan(&chat.ID, &chat.CreatedAt)

	if err == nil {
		return true, nil
	}
	if !IsPgNoRowsError(err) {
		return false, fmt.Errorf("create chat: %w", err)
	}

	// Conflict on external_id: another request created it first
	existing, err := r.GetChatByExternalID(ctx, chat.ExternalID)
	if err != nil {
		return false, err
	}
	*chat = *existing
	return false, nil
}

// GetChatByExternalID retrieves a chat by the client-chosen id
func (r *PostgresChatRepository) GetChatByExternalID(ctx context.Context, externalID string) (*models.Chat, error) {
	return r.getBy(ctx, "external_id", externalID)
}

// GetChatByID retrieves a chat by internal id
func (r *PostgresChatRepository) GetChatByID(ctx context.Context, id string) (*models.Chat, error) {
	return r.getBy(ctx, "id", id)
}

func (r *PostgresChatRepository) getBy(ctx context.Context, column, value string) (*models.Chat, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, chatColumns, r.tables.Chats, column)

	executor := GetExecutor(ctx, r.pool)
	chat, err := scanChat(executor.QueryRow(ctx, query, value))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("chat %s: %w", value, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get chat: %w", err)
	}
	return chat, nil
}

// ListChatIDsByUser returns the internal ids of the user's chats
func (r *PostgresChatRepository) ListChatIDsByUser(ctx context.Context, userID string) ([]string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE user_id = $1`, r.tables.Chats)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list chat ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan chat ids: %w", err)
	}
	return ids, nil
}

// ListChatsByUser returns one page of the user's chats, newest first.
// An unknown cursor is ignored and the first page is returned.
func (r *PostgresChatRepository) ListChatsByUser(ctx context.Context, q models.HistoryQuery) (*models.ChatPage, error) {
	executor := GetExecutor(ctx, r.pool)

	where := "user_id = $1"
	args := []interface{}{q.UserID}

	cursorID, cursorOp := q.StartingAfter, "<"
	if q.EndingBefore != "" {
		cursorID, cursorOp = q.EndingBefore, ">"
	}
	if cursorID != "" {
		var createdAt time.Time
		var id string
		cursorQuery := fmt.Sprintf(`
			SELECT created_at, id FROM %s
			WHERE user_id = $1 AND (external_id = $2 OR id = $2)
		`, r.tables.Chats)
		err := executor.QueryRow(ctx, cursorQuery, q.UserID, cursorID).Scan(&createdAt, &id)
		switch {
		case err == nil:
			where += fmt.Sprintf(" AND (created_at, id) %s ($2, $3)", cursorOp)
			args = append(args, createdAt, id)
		case IsPgNoRowsError(err):
			r.logger.Debug("history cursor not found", "cursor", cursorID, "user_id", q.UserID)
		default:
			return nil, fmt.Errorf("load history cursor: %w", err)
		}
	}

	// Fetch one extra row to learn whether more pages exist
	args = append(args, q.Limit+1)
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d
	`, chatColumns, r.tables.Chats, where, len(args))

	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	page := &models.ChatPage{Chats: []models.Chat{}}
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		page.Chats = append(page.Chats, *chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}

	if len(page.Chats) > q.Limit {
		page.Chats = page.Chats[:q.Limit]
		page.HasMore = true
	}
	return page, nil
}

// UpdateVisibility changes who may read the chat
func (r *PostgresChatRepository) UpdateVisibility(ctx context.Context, id string, visibility models.Visibility) error {
	query := fmt.Sprintf(`UPDATE %s SET visibility = $2 WHERE id = $1`, r.tables.Chats)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id, visibility)
	if err != nil {
		return fmt.Errorf("update visibility: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("chat %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// UpdateLastContext stores the latest usage snapshot
func (r *PostgresChatRepository) UpdateLastContext(ctx context.Context, id string, usage json.RawMessage) error {
	query := fmt.Sprintf(`UPDATE %s SET last_context = $2 WHERE id = $1`, r.tables.Chats)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, id, []byte(usage)); err != nil {
		return fmt.Errorf("update last context: %w", err)
	}
	return nil
}

// DeleteChat removes a chat; dependent rows cascade
func (r *PostgresChatRepository) DeleteChat(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Chats)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("chat %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
