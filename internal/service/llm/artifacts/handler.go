package artifacts

import (
	"context"
	"fmt"
	"strings"

	"chatbot/internal/domain/models"
	domainllm "chatbot/internal/domain/services/llm"
)

// Handler drafts document content of one kind while streaming progress to
// the client.
type Handler interface {
	Kind() models.DocumentKind

	// Create drafts a new document about title and returns its content.
	Create(ctx context.Context, gen Generation, title string) (string, error)

	// Update rewrites doc according to description and returns the new content.
	Update(ctx context.Context, gen Generation, doc *models.Document, description string) (string, error)
}

// Generation bundles what a handler needs to run the artifact model.
type Generation struct {
	Provider domainllm.LLMProvider
	Model    string
	Writer   domainllm.ChunkWriter
}

// streamHandler is shared by the text, code and sheet kinds. Text streams
// each delta; code and sheet resend the whole draft so the client can render
// partial documents without reassembling them.
type streamHandler struct {
	kind         models.DocumentKind
	deltaType    string
	cumulative   bool
	createSystem string
	updateSystem func(content string) string
	clean        func(string) string
}

func (h *streamHandler) Kind() models.DocumentKind {
	return h.kind
}

func (h *streamHandler) Create(ctx context.Context, gen Generation, title string) (string, error) {
	return h.generate(ctx, gen, h.createSystem, title)
}

func (h *streamHandler) Update(ctx context.Context, gen Generation, doc *models.Document, description string) (string, error) {
	current := ""
	if doc.Content != nil {
		current = *doc.Content
	}
	return h.generate(ctx, gen, h.updateSystem(current), description)
}

func (h *streamHandler) generate(ctx context.Context, gen Generation, system, prompt string) (string, error) {
	events, err := gen.Provider.StreamResponse(ctx, &domainllm.GenerateRequest{
		Model:  gen.Model,
		System: system,
		Messages: []domainllm.Message{{
			Role:    domainllm.RoleUser,
			Content: []domainllm.ContentBlock{{Type: domainllm.BlockText, Text: prompt}},
		}},
		MaxTokens: artifactMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("start %s draft: %w", h.kind, err)
	}

	var draft strings.Builder
	for ev := range events {
		switch ev.Type {
		case domainllm.EventTextDelta:
			draft.WriteString(ev.Delta)
			if h.cumulative {
				gen.Writer.Write(models.DataChunk(h.deltaType, h.clean(draft.String()), true))
			} else {
				gen.Writer.Write(models.DataChunk(h.deltaType, ev.Delta, true))
			}
		case domainllm.EventError:
			for range events {
			}
			return "", fmt.Errorf("%s draft: %w", h.kind, ev.Err)
		}
	}

	return h.clean(draft.String()), nil
}

const artifactMaxTokens = 4096

const textPrompt = "Write about the given topic. Markdown is supported. Use headings wherever appropriate."

const codePrompt = `You are a code generator that creates self-contained, executable code snippets. When writing code:

1. Each snippet should be complete and runnable on its own
2. Prefer using print statements to display outputs
3. Include helpful comments explaining the code
4. Keep snippets concise (generally under 15 lines)
5. Avoid external dependencies, use the standard library
6. Handle potential errors gracefully
7. Return meaningful output that demonstrates the code's functionality
8. Don't use input() or other interactive functions
9. Don't access files or network resources

Reply with the code only, without markdown fences.`

const sheetPrompt = `You are a spreadsheet creation assistant. Create a spreadsheet in csv format based on the given prompt. The spreadsheet should contain meaningful column headers and data. Reply with the csv only.`

func updatePrompt(kind models.DocumentKind) func(string) string {
	var intro string
	switch kind {
	case models.KindCode:
		intro = "Improve the following code snippet based on the given prompt. Reply with the code only, without markdown fences."
	case models.KindSheet:
		intro = "Improve the following spreadsheet based on the given prompt. Reply with the csv only."
	default:
		intro = "Improve the following contents of the document based on the given prompt."
	}
	return func(content string) string {
		return intro + "\n\n" + content
	}
}

// stripFences removes a surrounding markdown code fence if the model added one.
func stripFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		t = t[nl+1:]
	} else {
		return ""
	}
	t = strings.TrimSuffix(strings.TrimRight(t, " \n"), "```")
	return strings.TrimRight(t, "\n")
}

func identity(s string) string { return s }

// DefaultHandlers returns the handlers for every persisted kind. Image
// artifacts are stream-only and have no handler.
func DefaultHandlers() []Handler {
	return []Handler{
		&streamHandler{
			kind:         models.KindText,
			deltaType:    models.DataTextDelta,
			createSystem: textPrompt,
			updateSystem: updatePrompt(models.KindText),
			clean:        identity,
		},
		&streamHandler{
			kind:         models.KindCode,
			deltaType:    models.DataCodeDelta,
			cumulative:   true,
			createSystem: codePrompt,
			updateSystem: updatePrompt(models.KindCode),
			clean:        stripFences,
		},
		&streamHandler{
			kind:         models.KindSheet,
			deltaType:    models.DataSheetDelta,
			cumulative:   true,
			createSystem: sheetPrompt,
			updateSystem: updatePrompt(models.KindSheet),
			clean:        stripFences,
		},
	}
}
