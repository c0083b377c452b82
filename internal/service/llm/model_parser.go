package llm

import (
	"fmt"
	"strings"
)

// ModelInfo is a concrete model id and the provider that serves it.
type ModelInfo struct {
	Provider string
	Model    string
}

// providerPrefixes maps bare model name prefixes to providers. Any other
// provider must be named explicitly as "provider/model".
var providerPrefixes = []struct {
	prefix   string
	provider string
}{
	{"claude-", "anthropic"},
	{"gemini-", "gemini"},
	{"lorem-", "lorem"},
}

// ParseModel splits "openrouter/openai/gpt-4o" on the first slash and
// infers the provider of bare names such as "claude-haiku-4-5" from their
// prefix, ignoring case.
func ParseModel(model string) (*ModelInfo, error) {
	if model == "" {
		return nil, fmt.Errorf("empty model name")
	}

	if provider, rest, ok := strings.Cut(model, "/"); ok {
		if provider == "" || rest == "" {
			return nil, fmt.Errorf("model %q: want provider/model", model)
		}
		return &ModelInfo{Provider: provider, Model: rest}, nil
	}

	lower := strings.ToLower(model)
	for _, p := range providerPrefixes {
		if strings.HasPrefix(lower, p.prefix) {
			return &ModelInfo{Provider: p.provider, Model: model}, nil
		}
	}
	return nil, fmt.Errorf("model %q: unknown provider", model)
}
