package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	domainllm "chatbot/internal/domain/services/llm"
)

// ArtifactService drafts and stores artifact documents.
type ArtifactService interface {
	Kinds() []string
	Create(ctx context.Context, w domainllm.ChunkWriter, userID, externalID, title string, kind models.DocumentKind) (*models.Document, error)
	Update(ctx context.Context, w domainllm.ChunkWriter, userID string, doc *models.Document, description string) (*models.Document, error)
	Suggest(ctx context.Context, w domainllm.ChunkWriter, userID string, doc *models.Document) ([]models.Suggestion, error)
}

// DocumentResolver finds the current revision of a document by external or
// internal id.
type DocumentResolver interface {
	Resolve(ctx context.Context, id string) (*models.Document, error)
}

// documentNotFound is returned to the model as a normal result so it can
// tell the user instead of retrying.
var documentNotFound = map[string]interface{}{"error": "Document not found"}

// lookupOwned resolves id and hides documents of other users.
func lookupOwned(ctx context.Context, docs DocumentResolver, userID, id string) (*models.Document, error) {
	doc, err := docs.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID != "" && doc.UserID != userID {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return doc, nil
}

// CreateDocumentTool implements the 'createDocument' tool.
type CreateDocumentTool struct {
	artifacts ArtifactService
	userID    string
	writer    domainllm.ChunkWriter
	config    *ToolConfig
}

// NewCreateDocumentTool creates a tool bound to one user and stream.
func NewCreateDocumentTool(artifacts ArtifactService, userID string, writer domainllm.ChunkWriter, config *ToolConfig) *CreateDocumentTool {
	if config == nil {
		config = DefaultToolConfig()
	}
	if writer == nil {
		writer = discardWriter{}
	}
	return &CreateDocumentTool{artifacts: artifacts, userID: userID, writer: writer, config: config}
}

func (t *CreateDocumentTool) Definition() domainllm.ToolSpec {
	return domainllm.ToolSpec{
		Name: "createDocument",
		Description: "Create a document for writing or content creation activities. " +
			"This tool will call other functions that will generate the contents of the document based on the title and kind.",
		Parameters: &domainllm.Schema{
			Type: "object",
			Properties: map[string]*domainllm.Schema{
				"title": {Type: "string"},
				"kind":  {Type: "string", Enum: t.artifacts.Kinds()},
			},
			Required: []string{"title", "kind"},
		},
	}
}

type createDocumentInput struct {
	Title string `json:"title"`
	Kind  string `json:"kind"`
}

// Execute implements ToolExecutor interface.
// Streams data-kind, data-id, data-title and data-clear, then the drafted
// content, then data-finish.
func (t *CreateDocumentTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var in createDocumentInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, errors.New("missing required parameter: title (string)")
	}
	if runes := []rune(title); len(runes) > t.config.MaxTitleLength {
		title = string(runes[:t.config.MaxTitleLength])
	}
	if !slices.Contains(t.artifacts.Kinds(), in.Kind) {
		return nil, fmt.Errorf("invalid kind '%s': must be one of %s", in.Kind, strings.Join(t.artifacts.Kinds(), ", "))
	}
	kind := models.DocumentKind(in.Kind)

	id := uuid.NewString()

	t.writer.Write(models.DataChunk(models.DataKind, kind, true))
	t.writer.Write(models.DataChunk(models.DataID, id, true))
	t.writer.Write(models.DataChunk(models.DataTitle, title, true))
	t.writer.Write(models.DataChunk(models.DataClear, nil, true))

	if _, err := t.artifacts.Create(ctx, t.writer, t.userID, id, title, kind); err != nil {
		return nil, err
	}

	t.writer.Write(models.DataChunk(models.DataFinish, nil, true))

	return map[string]interface{}{
		"id":      id,
		"title":   title,
		"kind":    kind,
		"content": "A document was created and is now visible to the user.",
	}, nil
}

// UpdateDocumentTool implements the 'updateDocument' tool.
type UpdateDocumentTool struct {
	artifacts ArtifactService
	documents DocumentResolver
	userID    string
	writer    domainllm.ChunkWriter
}

// NewUpdateDocumentTool creates a tool bound to one user and stream.
func NewUpdateDocumentTool(artifacts ArtifactService, documents DocumentResolver, userID string, writer domainllm.ChunkWriter) *UpdateDocumentTool {
	if writer == nil {
		writer = discardWriter{}
	}
	return &UpdateDocumentTool{artifacts: artifacts, documents: documents, userID: userID, writer: writer}
}

func (t *UpdateDocumentTool) Definition() domainllm.ToolSpec {
	return domainllm.ToolSpec{
		Name:        "updateDocument",
		Description: "Update a document with the given description.",
		Parameters: &domainllm.Schema{
			Type: "object",
			Properties: map[string]*domainllm.Schema{
				"id":          {Type: "string", Description: "The ID of the document to update"},
				"description": {Type: "string", Description: "The description of changes that need to be made"},
			},
			Required: []string{"id", "description"},
		},
	}
}

type updateDocumentInput struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Execute implements ToolExecutor interface.
func (t *UpdateDocumentTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var in updateDocumentInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ID) == "" {
		return nil, errors.New("missing required parameter: id (string)")
	}

	doc, err := lookupOwned(ctx, t.documents, t.userID, in.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return documentNotFound, nil
	}
	if err != nil {
		return nil, err
	}

	t.writer.Write(models.DataChunk(models.DataClear, nil, true))

	if _, err := t.artifacts.Update(ctx, t.writer, t.userID, doc, in.Description); err != nil {
		return nil, err
	}

	t.writer.Write(models.DataChunk(models.DataFinish, nil, true))

	return map[string]interface{}{
		"id":      in.ID,
		"title":   doc.Title,
		"kind":    doc.Kind,
		"content": "The document has been updated successfully.",
	}, nil
}

// RequestSuggestionsTool implements the 'requestSuggestions' tool.
type RequestSuggestionsTool struct {
	artifacts ArtifactService
	documents DocumentResolver
	userID    string
	writer    domainllm.ChunkWriter
}

// NewRequestSuggestionsTool creates a tool bound to one user and stream.
func NewRequestSuggestionsTool(artifacts ArtifactService, documents DocumentResolver, userID string, writer domainllm.ChunkWriter) *RequestSuggestionsTool {
	if writer == nil {
		writer = discardWriter{}
	}
	return &RequestSuggestionsTool{artifacts: artifacts, documents: documents, userID: userID, writer: writer}
}

func (t *RequestSuggestionsTool) Definition() domainllm.ToolSpec {
	return domainllm.ToolSpec{
		Name:        "requestSuggestions",
		Description: "Request suggestions for a document",
		Parameters: &domainllm.Schema{
			Type: "object",
			Properties: map[string]*domainllm.Schema{
				"documentId": {Type: "string", Description: "The ID of the document to request edits"},
			},
			Required: []string{"documentId"},
		},
	}
}

type requestSuggestionsInput struct {
	DocumentID string `json:"documentId"`
}

// Execute implements ToolExecutor interface.
func (t *RequestSuggestionsTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var in requestSuggestionsInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}

	doc, err := lookupOwned(ctx, t.documents, t.userID, in.DocumentID)
	if errors.Is(err, domain.ErrNotFound) {
		return documentNotFound, nil
	}
	if err != nil {
		return nil, err
	}
	if doc.Content == nil || *doc.Content == "" {
		return documentNotFound, nil
	}

	if _, err := t.artifacts.Suggest(ctx, t.writer, t.userID, doc); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":      in.DocumentID,
		"title":   doc.Title,
		"kind":    doc.Kind,
		"message": "Suggestions have been added to the document",
	}, nil
}
