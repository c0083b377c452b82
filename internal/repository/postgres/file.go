package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	"chatbot/internal/domain/repositories"
)

// PostgresFileRepository stores uploads in Postgres. Blobs are bounded by the
// upload ceiling, which keeps them well within bytea limits.
type PostgresFileRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	tx     repositories.TransactionManager
	logger *slog.Logger
}

// NewFileRepository creates a new PostgresFileRepository
func NewFileRepository(config *RepositoryConfig, tx repositories.TransactionManager) repositories.FileRepository {
	return &PostgresFileRepository{
		pool:   config.Pool,
		tables: config.Tables,
		tx:     tx,
		logger: config.Logger,
	}
}

// SaveFile writes the blob and its metadata in one transaction
func (r *PostgresFileRepository) SaveFile(ctx context.Context, file *models.File, blob *models.Blob) error {
	blobQuery := fmt.Sprintf(`
		INSERT INTO %s (storage_id, content, content_type) VALUES ($1, $2, $3)
	`, r.tables.FileBlobs)
	fileQuery := fmt.Sprintf(`
		INSERT INTO %s (id, storage_id, name, type, size, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.tables.Files)

	if blob.StorageID == "" {
		blob.StorageID = NewID()
	}
	file.ID = NewID()
	file.StorageID = blob.StorageID
	file.CreatedAt = time.Now().UTC()

	return r.tx.ExecTx(ctx, func(ctx context.Context) error {
		executor := GetExecutor(ctx, r.pool)
		if _, err := executor.Exec(ctx, blobQuery, blob.StorageID, blob.Content, blob.ContentType); err != nil {
			return fmt.Errorf("store blob: %w", err)
		}
		if _, err := executor.Exec(ctx, fileQuery,
			file.ID, file.StorageID, file.Name, file.Type, file.Size, file.UserID, file.CreatedAt,
		); err != nil {
			return fmt.Errorf("store file metadata: %w", err)
		}
		return nil
	})
}

// GetBlob retrieves stored content
func (r *PostgresFileRepository) GetBlob(ctx context.Context, storageID string) (*models.Blob, error) {
	query := fmt.Sprintf(`
		SELECT storage_id, content_type, content FROM %s WHERE storage_id = $1
	`, r.tables.FileBlobs)

	var blob models.Blob
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, storageID).Scan(&blob.StorageID, &blob.ContentType, &blob.Content)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("blob %s: %w", storageID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get blob: %w", err)
	}
	return &blob, nil
}
