package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"chatbot/internal/config"
	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	"chatbot/internal/domain/repositories"
	docsysSvc "chatbot/internal/domain/services/docsystem"
)

// DocumentResolver finds the latest revision of a document by external or
// internal id.
type DocumentResolver interface {
	Resolve(ctx context.Context, id string) (*models.Document, error)
}

// documentService implements the DocumentService interface
type documentService struct {
	docRepo        repositories.DocumentRepository
	suggestionRepo repositories.SuggestionRepository
	resolver       DocumentResolver
	txManager      repositories.TransactionManager
	logger         *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo repositories.DocumentRepository,
	suggestionRepo repositories.SuggestionRepository,
	resolver DocumentResolver,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) docsysSvc.DocumentService {
	return &documentService{
		docRepo:        docRepo,
		suggestionRepo: suggestionRepo,
		resolver:       resolver,
		txManager:      txManager,
		logger:         logger,
	}
}

// ListRevisions returns every revision of the document
func (s *documentService) ListRevisions(ctx context.Context, userID, id string) ([]models.Document, error) {
	latest, err := s.ownedDocument(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.docRepo.ListRevisions(ctx, latest.ExternalID)
}

// SaveDocument appends a revision. The first save creates the document for
// userID; later saves must come from the owner and keep the original kind.
func (s *documentService) SaveDocument(ctx context.Context, userID string, req *docsysSvc.SaveDocumentRequest) (*models.Document, error) {
	if err := validateSaveDocument(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	externalID := req.ID
	existing, err := s.resolver.Resolve(ctx, req.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return nil, err
	case existing.UserID != userID:
		return nil, domain.NewChatError("forbidden:document")
	default:
		externalID = existing.ExternalID
	}

	doc := &models.Document{
		ExternalID: externalID,
		Title:      strings.TrimSpace(req.Title),
		Content:    req.Content,
		Kind:       req.Kind,
		UserID:     userID,
	}
	if existing != nil {
		doc.Kind = existing.Kind
	}

	if err := s.docRepo.CreateRevision(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document saved",
		"id", doc.ExternalID,
		"revision", doc.ID,
		"kind", doc.Kind,
		"user_id", userID,
	)
	return doc, nil
}

// DeleteRevisionsAfter removes revisions created after ts along with their
// suggestions. Deleted is false when no revision was newer than ts.
func (s *documentService) DeleteRevisionsAfter(ctx context.Context, userID, id string, ts time.Time) (*docsysSvc.DeleteRevisionsResult, error) {
	latest, err := s.ownedDocument(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	result := &docsysSvc.DeleteRevisionsResult{ID: latest.ExternalID}
	if !latest.CreatedAt.After(ts) {
		return result, nil
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if _, err := s.suggestionRepo.DeleteAfter(txCtx, latest.ExternalID, ts); err != nil {
			return fmt.Errorf("delete suggestions: %w", err)
		}
		n, err := s.docRepo.DeleteRevisionsAfter(txCtx, latest.ExternalID, ts)
		if err != nil {
			return fmt.Errorf("delete revisions: %w", err)
		}
		result.Deleted = n > 0
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document revisions deleted", "id", latest.ExternalID, "after", ts, "deleted", result.Deleted)
	return result, nil
}

// ListSuggestions returns suggestions for a document. An unknown document has
// no suggestions; suggestions owned by someone else are forbidden.
func (s *documentService) ListSuggestions(ctx context.Context, userID, documentID string) ([]models.Suggestion, error) {
	suggestions, err := s.suggestionRepo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(suggestions) == 0 {
		return []models.Suggestion{}, nil
	}
	if suggestions[0].UserID != userID {
		return nil, domain.NewChatError("forbidden:api")
	}
	return suggestions, nil
}

func (s *documentService) ownedDocument(ctx context.Context, userID, id string) (*models.Document, error) {
	doc, err := s.resolver.Resolve(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewChatError("not_found:document").Wrap(err)
	}
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		return nil, domain.NewChatError("forbidden:document")
	}
	return doc, nil
}

func validateSaveDocument(req *docsysSvc.SaveDocumentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ID, validation.Required),
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, config.MaxChatTitleLength),
		),
		validation.Field(&req.Kind,
			validation.Required,
			validation.In(models.DocumentKinds...),
		),
	)
}
