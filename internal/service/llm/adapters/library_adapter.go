package adapters

import (
	"context"
	"fmt"

	llmprovider "github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/providers/lorem"
	"github.com/haowjy/meridian-llm-go/providers/openrouter"

	domainllm "chatbot/internal/domain/services/llm"
)

// LibraryAdapter wraps a meridian-llm-go provider and implements LLMProvider.
// Library providers receive text-only conversations; tools are not offered
// through them.
type LibraryAdapter struct {
	provider llmprovider.Provider
}

// NewLoremAdapter creates the offline provider used by the test environment.
func NewLoremAdapter() *LibraryAdapter {
	return &LibraryAdapter{provider: lorem.NewProvider()}
}

// NewOpenRouterAdapter creates an OpenRouter-backed provider.
func NewOpenRouterAdapter(apiKey string) (*LibraryAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY environment variable not set")
	}
	provider, err := openrouter.NewProvider(apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenRouter provider: %w", err)
	}
	return &LibraryAdapter{provider: provider}, nil
}

// NewLibraryAdapter wraps an existing library provider.
func NewLibraryAdapter(provider llmprovider.Provider) *LibraryAdapter {
	return &LibraryAdapter{provider: provider}
}

// Name returns the provider name.
func (a *LibraryAdapter) Name() string {
	return a.provider.Name().String()
}

// SupportsModel returns true if this provider supports the given model.
func (a *LibraryAdapter) SupportsModel(model string) bool {
	return a.provider.SupportsModel(model)
}

// StreamResponse streams from the library provider, translating its
// block deltas into domain events.
func (a *LibraryAdapter) StreamResponse(ctx context.Context, req *domainllm.GenerateRequest) (<-chan domainllm.StreamEvent, error) {
	libReq := convertToLibraryRequest(req)

	libEventCh, err := a.provider.StreamResponse(ctx, libReq)
	if err != nil {
		return nil, err
	}

	eventCh := make(chan domainllm.StreamEvent)

	go func() {
		defer close(eventCh)

		conv := newEventConverter(req.Model)
		finished := false
		for libEvent := range libEventCh {
			if finished {
				continue
			}
			ev, ok := conv.convert(libEvent)
			if !ok {
				continue
			}
			if ev.Type == domainllm.EventFinish || ev.Type == domainllm.EventError {
				finished = true
			}
			eventCh <- ev
		}

		if !finished {
			eventCh <- domainllm.StreamEvent{
				Type: domainllm.EventError,
				Err:  fmt.Errorf("%s stream closed without metadata", a.Name()),
			}
		}
	}()

	return eventCh, nil
}
