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

// PostgresSuggestionRepository implements repositories.SuggestionRepository
type PostgresSuggestionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewSuggestionRepository creates a new PostgresSuggestionRepository
func NewSuggestionRepository(config *RepositoryConfig) repositories.SuggestionRepository {
	return &PostgresSuggestionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// SaveSuggestions inserts suggestions in one batch
func (r *PostgresSuggestionRepository) SaveSuggestions(ctx context.Context, suggestions []models.Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, document_created_at, original_text, suggested_text,
			description, is_resolved, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tables.Suggestions)

	batch := &pgx.Batch{}
	for i := range suggestions {
		s := &suggestions[i]
		if s.ID == "" {
			s.ID = NewID()
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = time.Now().UTC()
		}
		batch.Queue(query, s.ID, s.DocumentID, s.DocumentCreatedAt, s.OriginalText, s.SuggestedText,
			s.Description, s.IsResolved, s.UserID, s.CreatedAt)
	}

	executor := GetExecutor(ctx, r.pool)
	results := executor.SendBatch(ctx, batch)
	defer results.Close()

	for range suggestions {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("save suggestions: %w", err)
		}
	}
	return nil
}

// ListByDocument returns suggestions for a document
func (r *PostgresSuggestionRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Suggestion, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, document_created_at, original_text, suggested_text,
			description, is_resolved, user_id, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY created_at ASC
	`, r.tables.Suggestions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer rows.Close()

	suggestions := []models.Suggestion{}
	for rows.Next() {
		var s models.Suggestion
		if err := rows.Scan(
			&s.ID,
			&s.DocumentID,
			&s.DocumentCreatedAt,
			&s.OriginalText,
			&s.SuggestedText,
			&s.Description,
			&s.IsResolved,
			&s.UserID,
			&s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		suggestions = append(suggestions, s)
	}
	return suggestions, rows.Err()
}

// DeleteAfter removes suggestions on revisions newer than ts
func (r *PostgresSuggestionRepository) DeleteAfter(ctx context.Context, documentID string, ts time.Time) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE document_id = $1 AND document_created_at > $2
	`, r.tables.Suggestions)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, documentID, ts)
	if err != nil {
		return 0, fmt.Errorf("delete suggestions: %w", err)
	}
	return tag.RowsAffected(), nil
}
