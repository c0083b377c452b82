package repositories

import (
	"context"
	"time"

	"chatbot/internal/domain/models"
)

// DocumentRepository defines data access for document revisions
type DocumentRepository interface {
	// CreateRevision appends a revision and fills ID and CreatedAt
	CreateRevision(ctx context.Context, doc *models.Document) error

	// GetLatestByExternalID returns the newest revision.
	// Returns domain.ErrNotFound if there is none.
	GetLatestByExternalID(ctx context.Context, externalID string) (*models.Document, error)

	// GetRevisionByID looks up one revision by internal id
	GetRevisionByID(ctx context.Context, id string) (*models.Document, error)

	// ListRevisions returns every revision oldest first
	ListRevisions(ctx context.Context, externalID string) ([]models.Document, error)

	// DeleteRevisionsAfter removes revisions created strictly after ts and
	// returns how many were removed
	DeleteRevisionsAfter(ctx context.Context, externalID string, ts time.Time) (int64, error)
}

// SuggestionRepository defines data access for suggestions
type SuggestionRepository interface {
	SaveSuggestions(ctx context.Context, suggestions []models.Suggestion) error

	// ListByDocument returns suggestions for a document, oldest first
	ListByDocument(ctx context.Context, documentID string) ([]models.Suggestion, error)

	// DeleteAfter removes suggestions attached to revisions created after ts
	DeleteAfter(ctx context.Context, documentID string, ts time.Time) (int64, error)
}
