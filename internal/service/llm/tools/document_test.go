package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	domainllm "chatbot/internal/domain/services/llm"
)

type chunkRecorder struct {
	mu     sync.Mutex
	chunks []models.UIChunk
}

func (r *chunkRecorder) Write(c models.UIChunk) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = append(r.chunks, c)
}

func (r *chunkRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.chunks))
	for i, c := range r.chunks {
		out[i] = c.Type
	}
	return out
}

// mockArtifacts records calls and writes one delta per draft.
type mockArtifacts struct {
	created   []string
	updated   []string
	suggested []string
	err       error
}

func (m *mockArtifacts) Kinds() []string { return []string{"text", "code", "sheet"} }

func (m *mockArtifacts) Create(_ context.Context, w domainllm.ChunkWriter, userID, externalID, title string, kind models.DocumentKind) (*models.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.created = append(m.created, externalID)
	w.Write(models.DataChunk(models.DataTextDelta, "draft", true))
	content := "draft"
	return &models.Document{ExternalID: externalID, Title: title, Kind: kind, Content: &content, UserID: userID}, nil
}

func (m *mockArtifacts) Update(_ context.Context, w domainllm.ChunkWriter, userID string, doc *models.Document, description string) (*models.Document, error) {
	m.updated = append(m.updated, doc.ExternalID)
	w.Write(models.DataChunk(models.DataTextDelta, description, true))
	return doc, nil
}

func (m *mockArtifacts) Suggest(_ context.Context, w domainllm.ChunkWriter, userID string, doc *models.Document) ([]models.Suggestion, error) {
	m.suggested = append(m.suggested, doc.ExternalID)
	w.Write(models.DataChunk(models.DataSuggestion, "s", true))
	return []models.Suggestion{{DocumentID: doc.ExternalID}}, nil
}

type mockDocuments map[string]*models.Document

func (m mockDocuments) Resolve(_ context.Context, id string) (*models.Document, error) {
	if d, ok := m[id]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
}

func strPtr(s string) *string { return &s }

func TestCreateDocumentTool(t *testing.T) {
	artifacts := &mockArtifacts{}
	w := &chunkRecorder{}
	tool := NewCreateDocumentTool(artifacts, "user-1", w, nil)

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"title":"Essay about dogs","kind":"text"}`))
	require.NoError(t, err)

	want := []string{models.DataKind, models.DataID, models.DataTitle, models.DataClear, models.DataTextDelta, models.DataFinish}
	assert.Equal(t, want, w.types())

	res := out.(map[string]interface{})
	assert.Equal(t, w.chunks[1].Data, res["id"], "result id matches data-id")
	assert.Len(t, artifacts.created, 1)
}

func TestCreateDocumentToolTruncatesTitleByRune(t *testing.T) {
	w := &chunkRecorder{}
	tool := NewCreateDocumentTool(&mockArtifacts{}, "user-1", w, &ToolConfig{MaxTitleLength: 255})

	input, _ := json.Marshal(map[string]string{"title": strings.Repeat("é", 300), "kind": "text"})
	out, err := tool.Execute(context.Background(), input)
	require.NoError(t, err)

	title := out.(map[string]interface{})["title"].(string)
	require.True(t, utf8.ValidString(title), "title is not valid UTF-8: %q", title)
	assert.Equal(t, 255, utf8.RuneCountInString(title))
	assert.Equal(t, title, w.chunks[2].Data)
}

func TestCreateDocumentToolValidation(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"title":`},
		{"missing title", `{"kind":"text"}`},
		{"image kind", `{"title":"x","kind":"image"}`},
		{"unknown kind", `{"title":"x","kind":"video"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &chunkRecorder{}
			tool := NewCreateDocumentTool(&mockArtifacts{}, "user-1", w, nil)
			_, err := tool.Execute(context.Background(), json.RawMessage(tt.input))
			assert.Error(t, err)
			assert.Empty(t, w.chunks, "no chunks before validation passes")
		})
	}
}

func TestCreateDocumentToolDraftFailure(t *testing.T) {
	w := &chunkRecorder{}
	tool := NewCreateDocumentTool(&mockArtifacts{err: errors.New("model down")}, "user-1", w, nil)

	_, err := tool.Execute(context.Background(), json.RawMessage(`{"title":"t","kind":"code"}`))
	require.Error(t, err)
	assert.NotContains(t, w.types(), models.DataFinish, "data-finish is not sent when drafting fails")
}

func TestUpdateDocumentTool(t *testing.T) {
	docs := mockDocuments{
		"doc-1":   {ExternalID: "doc-1", Title: "Mine", Kind: models.KindText, UserID: "user-1", Content: strPtr("a")},
		"doc-2":   {ExternalID: "doc-2", Title: "Theirs", Kind: models.KindText, UserID: "user-2", Content: strPtr("b")},
		"abc0123": {ExternalID: "doc-3", Title: "By internal id", Kind: models.KindCode, UserID: "user-1"},
	}

	t.Run("updates owned document", func(t *testing.T) {
		artifacts := &mockArtifacts{}
		w := &chunkRecorder{}
		tool := NewUpdateDocumentTool(artifacts, docs, "user-1", w)

		out, err := tool.Execute(context.Background(), json.RawMessage(`{"id":"doc-1","description":"shorter"}`))
		require.NoError(t, err)
		assert.Equal(t, "Mine", out.(map[string]interface{})["title"])
		assert.Equal(t, []string{models.DataClear, models.DataTextDelta, models.DataFinish}, w.types())
	})

	t.Run("resolves internal id", func(t *testing.T) {
		artifacts := &mockArtifacts{}
		tool := NewUpdateDocumentTool(artifacts, docs, "user-1", nil)

		_, err := tool.Execute(context.Background(), json.RawMessage(`{"id":"abc0123","description":"x"}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"doc-3"}, artifacts.updated)
	})

	for _, id := range []string{"missing", "doc-2"} {
		t.Run("not found "+id, func(t *testing.T) {
			artifacts := &mockArtifacts{}
			tool := NewUpdateDocumentTool(artifacts, docs, "user-1", &chunkRecorder{})

			out, err := tool.Execute(context.Background(), json.RawMessage(`{"id":"`+id+`","description":"x"}`))
			require.NoError(t, err)
			assert.Equal(t, "Document not found", out.(map[string]interface{})["error"])
			assert.Empty(t, artifacts.updated, "document of another user is not updated")
		})
	}
}

func TestRequestSuggestionsTool(t *testing.T) {
	docs := mockDocuments{
		"doc-1": {ExternalID: "doc-1", Title: "Essay", Kind: models.KindText, UserID: "user-1", Content: strPtr("I has a dog.")},
		"empty": {ExternalID: "empty", Kind: models.KindText, UserID: "user-1"},
	}

	artifacts := &mockArtifacts{}
	w := &chunkRecorder{}
	tool := NewRequestSuggestionsTool(artifacts, docs, "user-1", w)

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"documentId":"doc-1"}`))
	require.NoError(t, err)
	assert.Equal(t, "Suggestions have been added to the document", out.(map[string]interface{})["message"])
	assert.Equal(t, []string{models.DataSuggestion}, w.types())

	out, err = tool.Execute(context.Background(), json.RawMessage(`{"documentId":"empty"}`))
	require.NoError(t, err)
	assert.Equal(t, "Document not found", out.(map[string]interface{})["error"],
		"document without content reports not found")
	assert.Len(t, artifacts.suggested, 1)
}

type fakeWeather struct {
	lat, lon float64
}

func (f *fakeWeather) Forecast(_ context.Context, lat, lon float64) (json.RawMessage, error) {
	f.lat, f.lon = lat, lon
	return json.RawMessage(`{"current":{"temperature_2m":18}}`), nil
}

func TestGetWeatherTool(t *testing.T) {
	client := &fakeWeather{}
	tool := NewGetWeatherTool(client)

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"latitude":48.85,"longitude":2.35}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"current":{"temperature_2m":18}}`, string(out.(json.RawMessage)))
	assert.Equal(t, 48.85, client.lat)
	assert.Equal(t, 2.35, client.lon)

	for _, input := range []string{`{}`, `{"latitude":91,"longitude":0}`, `{"latitude":"x"}`} {
		_, err := tool.Execute(context.Background(), json.RawMessage(input))
		assert.Error(t, err, "input %s", input)
	}
}

func TestToolRegistryBuilder(t *testing.T) {
	names := func(r *ToolRegistry) []string {
		var out []string
		for _, d := range r.Definitions() {
			out = append(out, d.Name)
		}
		return out
	}

	off := NewToolRegistryBuilder().
		WithWeather(&fakeWeather{}).
		WithArtifactTools(&mockArtifacts{}, mockDocuments{}, "user-1", nil).
		Build()
	assert.Equal(t, []string{"createDocument", "updateDocument", "requestSuggestions"}, names(off), "weather flag off")

	on := NewToolRegistryBuilder().
		WithConfig(&ToolConfig{WeatherEnabled: true, MaxTitleLength: 100}).
		WithWeather(&fakeWeather{}).
		WithArtifactTools(&mockArtifacts{}, mockDocuments{}, "user-1", nil).
		Build()
	assert.Equal(t, []string{"getWeather", "createDocument", "updateDocument", "requestSuggestions"}, names(on), "weather flag on")
}
