package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatbot/internal/domain/models"
	"chatbot/internal/domain/repositories"
)

// PostgresStreamRepository implements repositories.StreamRepository
type PostgresStreamRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewStreamRepository creates a new PostgresStreamRepository
func NewStreamRepository(config *RepositoryConfig) repositories.StreamRepository {
	return &PostgresStreamRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// CreateStream records a stream handle
func (r *PostgresStreamRepository) CreateStream(ctx context.Context, stream *models.StreamHandle) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, chat_id, created_at) VALUES ($1, $2, $3)
	`, r.tables.Streams)

	if stream.ID == "" {
		stream.ID = NewID()
	}
	if stream.CreatedAt.IsZero() {
		stream.CreatedAt = time.Now().UTC()
	}

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, stream.ID, stream.ChatID, stream.CreatedAt); err != nil {
		return fmt.Errorf("create stream: %w", err)
	}
	return nil
}

// ListStreamIDsByChat returns handle ids oldest first
func (r *PostgresStreamRepository) ListStreamIDsByChat(ctx context.Context, chatID string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT id FROM %s WHERE chat_id = $1 ORDER BY created_at ASC
	`, r.tables.Streams)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("list streams: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan streams: %w", err)
	}
	return ids, nil
}

// DeleteStreamsBefore prunes stale handles
func (r *PostgresStreamRepository) DeleteStreamsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE created_at < $1`, r.tables.Streams)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete streams: %w", err)
	}
	return tag.RowsAffected(), nil
}
