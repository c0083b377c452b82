package docsystem

import (
	"context"
	"time"

	"chatbot/internal/domain/models"
)

// DocumentService handles artifact documents outside of generation.
type DocumentService interface {
	// ListRevisions returns every revision of an owned document, oldest first
	ListRevisions(ctx context.Context, userID, id string) ([]models.Document, error)

	// SaveDocument appends a revision, creating the document on first save
	SaveDocument(ctx context.Context, userID string, req *SaveDocumentRequest) (*models.Document, error)

	// DeleteRevisionsAfter removes revisions newer than ts together with their suggestions
	DeleteRevisionsAfter(ctx context.Context, userID, id string, ts time.Time) (*DeleteRevisionsResult, error)

	// ListSuggestions returns the suggestions of an owned document
	ListSuggestions(ctx context.Context, userID, documentID string) ([]models.Suggestion, error)
}

// SaveDocumentRequest is the body of POST /api/document?id=
type SaveDocumentRequest struct {
	ID      string              `json:"-"` // from the query string
	Title   string              `json:"title"`
	Content *string             `json:"content"`
	Kind    models.DocumentKind `json:"kind"`
}

// DeleteRevisionsResult is the response of DELETE /api/document
type DeleteRevisionsResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
