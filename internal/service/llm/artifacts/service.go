package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"chatbot/internal/domain/models"
	"chatbot/internal/domain/repositories"
	domainllm "chatbot/internal/domain/services/llm"
)

// ModelSource resolves a model alias to a provider and concrete model id.
type ModelSource interface {
	ForModel(ctx context.Context, aliasOrModel string) (domainllm.LLMProvider, string, error)
}

// Service drafts and persists artifact documents and suggestions.
type Service struct {
	models      ModelSource
	modelAlias  string
	handlers    map[models.DocumentKind]Handler
	documents   repositories.DocumentRepository
	suggestions repositories.SuggestionRepository
	logger      *slog.Logger
}

// NewService creates the artifact service. modelAlias selects the model used
// for drafting (normally "artifact-model").
func NewService(
	source ModelSource,
	modelAlias string,
	handlers []Handler,
	documents repositories.DocumentRepository,
	suggestions repositories.SuggestionRepository,
	logger *slog.Logger,
) *Service {
	byKind := make(map[models.DocumentKind]Handler, len(handlers))
	for _, h := range handlers {
		byKind[h.Kind()] = h
	}
	return &Service{
		models:      source,
		modelAlias:  modelAlias,
		handlers:    byKind,
		documents:   documents,
		suggestions: suggestions,
		logger:      logger,
	}
}

// Kinds returns the kinds that can be drafted.
func (s *Service) Kinds() []string {
	kinds := make([]string, 0, len(s.handlers))
	for _, k := range []models.DocumentKind{models.KindText, models.KindCode, models.KindSheet} {
		if _, ok := s.handlers[k]; ok {
			kinds = append(kinds, string(k))
		}
	}
	return kinds
}

func (s *Service) generation(ctx context.Context, w domainllm.ChunkWriter) (Generation, error) {
	p, model, err := s.models.ForModel(ctx, s.modelAlias)
	if err != nil {
		return Generation{}, fmt.Errorf("resolve %s: %w", s.modelAlias, err)
	}
	return Generation{Provider: p, Model: model, Writer: w}, nil
}

func (s *Service) handler(kind models.DocumentKind) (Handler, error) {
	h, ok := s.handlers[kind]
	if !ok {
		return nil, fmt.Errorf("no document handler for kind %q", kind)
	}
	return h, nil
}

// Create drafts a new document and saves it as the first revision of
// externalID. Nothing is saved when userID is empty.
func (s *Service) Create(ctx context.Context, w domainllm.ChunkWriter, userID, externalID, title string, kind models.DocumentKind) (*models.Document, error) {
	h, err := s.handler(kind)
	if err != nil {
		return nil, err
	}
	gen, err := s.generation(ctx, w)
	if err != nil {
		return nil, err
	}

	content, err := h.Create(ctx, gen, title)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		ExternalID: externalID,
		Title:      title,
		Content:    &content,
		Kind:       kind,
		UserID:     userID,
	}
	if userID == "" {
		return doc, nil
	}
	if err := s.documents.CreateRevision(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document %s: %w", externalID, err)
	}

	s.logger.Debug("document created", "document_id", externalID, "kind", kind, "chars", len(content))
	return doc, nil
}

// Update drafts a new revision of doc following description.
func (s *Service) Update(ctx context.Context, w domainllm.ChunkWriter, userID string, doc *models.Document, description string) (*models.Document, error) {
	h, err := s.handler(doc.Kind)
	if err != nil {
		return nil, err
	}
	gen, err := s.generation(ctx, w)
	if err != nil {
		return nil, err
	}

	content, err := h.Update(ctx, gen, doc, description)
	if err != nil {
		return nil, err
	}

	rev := &models.Document{
		ExternalID: doc.ExternalID,
		Title:      doc.Title,
		Content:    &content,
		Kind:       doc.Kind,
		UserID:     userID,
	}
	if userID == "" {
		return rev, nil
	}
	if err := s.documents.CreateRevision(ctx, rev); err != nil {
		return nil, fmt.Errorf("save revision of %s: %w", doc.ExternalID, err)
	}

	s.logger.Debug("document updated", "document_id", doc.ExternalID, "kind", doc.Kind)
	return rev, nil
}

// MaxSuggestions bounds the suggestions generated per request.
const MaxSuggestions = 5

const suggestionsPrompt = `You are a helpful writing assistant. Given a piece of writing, offer suggestions to improve it and describe each change. Edits must contain full sentences instead of just words. Max 5 suggestions.

Reply with a JSON array only. Each element has the keys "originalSentence", "suggestedSentence" and "description".`

type suggestionDraft struct {
	OriginalSentence  string `json:"originalSentence"`
	SuggestedSentence string `json:"suggestedSentence"`
	Description       string `json:"description"`
}

// Suggest asks the model for edits to doc, streams each one as a
// data-suggestion chunk and saves them for userID.
func (s *Service) Suggest(ctx context.Context, w domainllm.ChunkWriter, userID string, doc *models.Document) ([]models.Suggestion, error) {
	if doc.Content == nil || *doc.Content == "" {
		return nil, fmt.Errorf("document %s has no content", doc.ExternalID)
	}
	gen, err := s.generation(ctx, w)
	if err != nil {
		return nil, err
	}

	raw, err := domainllm.GenerateText(ctx, gen.Provider, &domainllm.GenerateRequest{
		Model:  gen.Model,
		System: suggestionsPrompt,
		Messages: []domainllm.Message{{
			Role:    domainllm.RoleUser,
			Content: []domainllm.ContentBlock{{Type: domainllm.BlockText, Text: *doc.Content}},
		}},
		MaxTokens: artifactMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generate suggestions: %w", err)
	}

	drafts, err := parseSuggestions(raw)
	if err != nil {
		return nil, err
	}

	suggestions := make([]models.Suggestion, 0, len(drafts))
	for _, d := range drafts {
		desc := d.Description
		sg := models.Suggestion{
			ID:                uuid.NewString(),
			DocumentID:        doc.ExternalID,
			DocumentCreatedAt: doc.CreatedAt,
			OriginalText:      d.OriginalSentence,
			SuggestedText:     d.SuggestedSentence,
			Description:       &desc,
			UserID:            userID,
		}
		w.Write(models.DataChunk(models.DataSuggestion, sg, true))
		suggestions = append(suggestions, sg)
	}

	if userID != "" && len(suggestions) > 0 {
		if err := s.suggestions.SaveSuggestions(ctx, suggestions); err != nil {
			return nil, fmt.Errorf("save suggestions: %w", err)
		}
	}
	return suggestions, nil
}

// parseSuggestions extracts the JSON array from the model reply, tolerating
// prose or fences around it.
func parseSuggestions(raw string) ([]suggestionDraft, error) {
	start := strings.IndexByte(raw, '[')
	end := strings.LastIndexByte(raw, ']')
	if start < 0 || end < start {
		return nil, fmt.Errorf("suggestions reply has no JSON array")
	}

	var drafts []suggestionDraft
	if err := json.Unmarshal([]byte(raw[start:end+1]), &drafts); err != nil {
		return nil, fmt.Errorf("parse suggestions: %w", err)
	}

	kept := drafts[:0]
	for _, d := range drafts {
		if strings.TrimSpace(d.OriginalSentence) == "" || strings.TrimSpace(d.SuggestedSentence) == "" {
			continue
		}
		kept = append(kept, d)
		if len(kept) == MaxSuggestions {
			break
		}
	}
	return kept, nil
}
