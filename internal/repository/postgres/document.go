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

// PostgresDocumentRepository implements repositories.DocumentRepository
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new PostgresDocumentRepository
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const documentColumns = `id, external_id, title, content, kind, user_id, created_at`

func scanDocument(row pgx.Row) (*models.Document, error) {
	var doc models.Document
	if err := row.Scan(
		&doc.ID,
		&doc.ExternalID,
		&doc.Title,
		&doc.Content,
		&doc.Kind,
		&doc.UserID,
		&doc.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &doc, nil
}

// CreateRevision appends a document revision
func (r *PostgresDocumentRepository) CreateRevision(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, external_id, title, content, kind, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.tables.Documents)

	doc.ID = NewID()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		doc.ID,
		doc.ExternalID,
		doc.Title,
		doc.Content,
		doc.Kind,
		doc.UserID,
		doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create document revision: %w", err)
	}
	return nil
}

// GetLatestByExternalID returns the current revision
func (r *PostgresDocumentRepository) GetLatestByExternalID(ctx context.Context, externalID string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE external_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, documentColumns, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, externalID))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", externalID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// GetRevisionByID looks up a revision by internal id
func (r *PostgresDocumentRepository) GetRevisionByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, documentColumns, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// ListRevisions returns every revision oldest first
func (r *PostgresDocumentRepository) ListRevisions(ctx context.Context, externalID string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE external_id = $1
		ORDER BY created_at ASC
	`, documentColumns, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, externalID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// DeleteRevisionsAfter removes revisions created strictly after ts
func (r *PostgresDocumentRepository) DeleteRevisionsAfter(ctx context.Context, externalID string, ts time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE external_id = $1 AND created_at > $2`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, externalID, ts)
	if err != nil {
		return 0, fmt.Errorf("delete revisions: %w", err)
	}
	return tag.RowsAffected(), nil
}
