package llm

import (
	"context"
	"fmt"
	"sort"

	"chatbot/internal/config"
	domainllm "chatbot/internal/domain/services/llm"
	"chatbot/internal/service/llm/adapters"
	"chatbot/internal/service/llm/providers/anthropic"
	"chatbot/internal/service/llm/providers/gemini"
)

type providerCtor func(ctx context.Context, cfg *config.Config) (domainllm.LLMProvider, error)

// providerCtors maps provider names used in model ids ("anthropic/claude-...")
// to their constructors. "lorem" needs no key and backs the test environment.
var providerCtors = map[string]providerCtor{
	"anthropic": func(_ context.Context, cfg *config.Config) (domainllm.LLMProvider, error) {
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		return anthropic.NewProvider(cfg.AnthropicAPIKey)
	},
	"gemini": func(ctx context.Context, cfg *config.Config) (domainllm.LLMProvider, error) {
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY not set")
		}
		return gemini.NewProvider(ctx, cfg.GeminiAPIKey)
	},
	"openrouter": func(_ context.Context, cfg *config.Config) (domainllm.LLMProvider, error) {
		return adapters.NewOpenRouterAdapter(cfg.OpenRouterAPIKey)
	},
	"lorem": func(context.Context, *config.Config) (domainllm.LLMProvider, error) {
		return adapters.NewLoremAdapter(), nil
	},
}

// ProviderFactory builds providers on demand from the API keys in config.
type ProviderFactory struct {
	config *config.Config
}

func NewProviderFactory(cfg *config.Config) *ProviderFactory {
	return &ProviderFactory{config: cfg}
}

// GetProvider constructs the named provider. A missing API key is an error
// here rather than at startup so unused providers need no configuration.
func (f *ProviderFactory) GetProvider(ctx context.Context, providerName string) (domainllm.LLMProvider, error) {
	ctor, ok := providerCtors[providerName]
	if !ok {
		return nil, fmt.Errorf("unsupported provider %q (known: %v)", providerName, knownProviders())
	}
	return ctor(ctx, f.config)
}

func knownProviders() []string {
	names := make([]string, 0, len(providerCtors))
	for name := range providerCtors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
