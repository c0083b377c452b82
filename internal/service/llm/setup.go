package llm

import (
	"log/slog"

	"chatbot/internal/config"
)

// SetupProviders initializes the provider factory and registry for routing.
func SetupProviders(cfg *config.Config, logger *slog.Logger) *ProviderRegistry {
	registry := NewProviderRegistry(NewProviderFactory(cfg), ModelsFromConfig(cfg), logger)

	if cfg.AnthropicAPIKey != "" {
		logger.Info("provider available", "name", "anthropic", "models", "claude-*")
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set - Anthropic provider not available")
	}
	if cfg.GeminiAPIKey != "" {
		logger.Info("provider available", "name", "gemini", "models", "gemini-*")
	}
	if cfg.OpenRouterAPIKey != "" {
		logger.Info("provider available", "name", "openrouter", "models", "openrouter/*")
	}

	logger.Info("provider registry initialized",
		"chat_model", cfg.ChatModel,
		"reasoning_model", cfg.ReasoningModel,
		"title_model", cfg.TitleModel,
		"artifact_model", cfg.ArtifactModel,
	)

	return registry
}
