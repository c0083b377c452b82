package streaming

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	domainllm "chatbot/internal/domain/services/llm"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "Weather in Paris", "Weather in Paris"},
		{"quotes and colons", `"Title: Weather in Paris"`, "Title Weather in Paris"},
		{"curly quotes", "“Trip planning”", "Trip planning"},
		{"first non-empty line", "\n\n  Line one  \nLine two", "Line one"},
		{"collapsed spaces", "a   b\tc", "a b c"},
		{"empty", "  \n ", DefaultChatTitle},
		{"only punctuation", `"":`, DefaultChatTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeTitle(tt.raw))
		})
	}
}

func TestSanitizeTitleTruncates(t *testing.T) {
	got := sanitizeTitle(strings.Repeat("word ", 40))
	assert.LessOrEqual(t, len([]rune(got)), 80)
}

type failingSource struct{}

func (failingSource) ForModel(context.Context, string) (domainllm.LLMProvider, string, error) {
	return nil, "", errors.New("no provider configured")
}

func TestTitleGeneratorFallsBack(t *testing.T) {
	g := NewTitleGenerator(failingSource{}, discard)
	assert.Equal(t, DefaultChatTitle, g.Generate(context.Background(), domainllm.IncomingMessage{ID: "m1"}))
}
