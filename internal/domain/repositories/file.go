package repositories

import (
	"context"

	"chatbot/internal/domain/models"
)

// FileRepository stores uploaded blobs and their metadata
type FileRepository interface {
	// SaveFile writes blob and metadata atomically and fills ID and CreatedAt
	SaveFile(ctx context.Context, file *models.File, blob *models.Blob) error

	// GetBlob returns domain.ErrNotFound if missing
	GetBlob(ctx context.Context, storageID string) (*models.Blob, error)
}
