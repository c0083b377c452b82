package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	"chatbot/internal/domain/repositories"
)

// PostgresVoteRepository implements repositories.VoteRepository
type PostgresVoteRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewVoteRepository creates a new PostgresVoteRepository
func NewVoteRepository(config *RepositoryConfig) repositories.VoteRepository {
	return &PostgresVoteRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// UpsertVote writes or overwrites the vote for (chat, message)
func (r *PostgresVoteRepository) UpsertVote(ctx context.Context, chatID, messageID string, isUpvoted bool) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (chat_id, message_id, is_upvoted)
		VALUES ($1, $2, $3)
		ON CONFLICT (chat_id, message_id) DO UPDATE SET is_upvoted = EXCLUDED.is_upvoted
	`, r.tables.Votes)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, chatID, messageID, isUpvoted); err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
		}
		return fmt.Errorf("upsert vote: %w", err)
	}
	return nil
}

// ListVotesByChat returns all votes of a chat
func (r *PostgresVoteRepository) ListVotesByChat(ctx context.Context, chatID string) ([]models.Vote, error) {
	query := fmt.Sprintf(`
		SELECT chat_id, message_id, is_upvoted FROM %s WHERE chat_id = $1
	`, r.tables.Votes)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.ChatID, &v.MessageID, &v.IsUpvoted); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}
