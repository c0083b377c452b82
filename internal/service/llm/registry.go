package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"chatbot/internal/config"
	domainllm "chatbot/internal/domain/services/llm"
)

// Model aliases the client may send.
const (
	ModelChat          = "chat-model"
	ModelChatReasoning = "chat-model-reasoning"
	ModelTitle         = "title-model"
	ModelArtifact      = "artifact-model"
)

// Models maps aliases to concrete model ids.
type Models struct {
	Chat      string
	Reasoning string
	Title     string
	Artifact  string
}

// ModelsFromConfig reads the alias targets.
func ModelsFromConfig(cfg *config.Config) Models {
	return Models{
		Chat:      cfg.ChatModel,
		Reasoning: cfg.ReasoningModel,
		Title:     cfg.TitleModel,
		Artifact:  cfg.ArtifactModel,
	}
}

// Resolve returns the concrete id for an alias. Anything else is returned as is.
func (m Models) Resolve(alias string) string {
	switch alias {
	case ModelChat:
		return m.Chat
	case ModelChatReasoning:
		return m.Reasoning
	case ModelTitle:
		return m.Title
	case ModelArtifact:
		return m.Artifact
	default:
		return alias
	}
}

// IsReasoning reports whether alias selects the reasoning model.
func IsReasoning(alias string) bool {
	return alias == ModelChatReasoning
}

// ProviderRegistry routes model requests to the appropriate provider.
// Uses ParseModel to extract the provider from the model string, then the
// factory to create instances, which are cached for reuse.
type ProviderRegistry struct {
	factory *ProviderFactory
	models  Models
	cache   map[string]domainllm.LLMProvider
	mu      sync.RWMutex
	logger  *slog.Logger
}

// NewProviderRegistry creates a new provider registry.
func NewProviderRegistry(factory *ProviderFactory, models Models, logger *slog.Logger) *ProviderRegistry {
	return &ProviderRegistry{
		factory: factory,
		models:  models,
		cache:   make(map[string]domainllm.LLMProvider),
		logger:  logger,
	}
}

// Models returns the alias table.
func (r *ProviderRegistry) Models() Models {
	return r.models
}

// ForModel resolves an alias or model id to its provider and concrete model.
func (r *ProviderRegistry) ForModel(ctx context.Context, aliasOrModel string) (domainllm.LLMProvider, string, error) {
	model := r.models.Resolve(aliasOrModel)

	info, err := ParseModel(model)
	if err != nil {
		return nil, "", err
	}

	provider, err := r.GetProvider(ctx, info.Provider)
	if err != nil {
		return nil, "", err
	}
	return provider, info.Model, nil
}

// GetProvider returns the provider for the given provider name, creating it on first use.
func (r *ProviderRegistry) GetProvider(ctx context.Context, provider string) (domainllm.LLMProvider, error) {
	if provider == "" {
		return nil, fmt.Errorf("provider cannot be empty")
	}

	r.mu.RLock()
	if cached, exists := r.cache[provider]; exists {
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have created the provider while we waited for the lock
	if cached, exists := r.cache[provider]; exists {
		return cached, nil
	}

	// Providers outlive the request that first needed them
	created, err := r.factory.GetProvider(context.WithoutCancel(ctx), provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider '%s': %w", provider, err)
	}

	r.logger.Info("provider initialized", "name", created.Name())
	r.cache[provider] = created
	return created, nil
}

// Close releases providers that hold connections.
func (r *ProviderRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, p := range r.cache {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				r.logger.Warn("failed to close provider", "name", name, "error", err)
			}
		}
	}
}
