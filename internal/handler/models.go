package handler

import (
	"log/slog"
	"net/http"

	"chatbot/internal/capabilities"
	"chatbot/internal/config"
	"chatbot/internal/httputil"
	llmservice "chatbot/internal/service/llm"
)

// ChatModelResponse is one model the client can select.
type ChatModelResponse struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Provider      string       `json:"provider"`
	Model         string       `json:"model"`
	ContextWindow int          `json:"context_window,omitempty"`
	Pricing       *PricingInfo `json:"pricing,omitempty"`
}

// PricingInfo represents model pricing
type PricingInfo struct {
	InputPer1M  float64                    `json:"input_per_1m"`  // First tier, text modality
	OutputPer1M float64                    `json:"output_per_1m"` // First tier, text modality
	Tiers       []capabilities.PricingTier `json:"tiers"`
}

// ProviderResponse represents a configured provider with its catalog models
type ProviderResponse struct {
	ID     string                           `json:"id"`
	Models []capabilities.ModelCapabilities `json:"models"`
}

var chatModels = []struct {
	alias, name, description string
}{
	{llmservice.ModelChat, "Claude 4 - Sonnet", "Advanced multimodal model with vision and text capabilities"},
	{llmservice.ModelChatReasoning, "Claude 4 - Sonnet (Reasoning)", "Uses advanced chain-of-thought reasoning for complex problems"},
}

// ModelsHandler handles HTTP requests for model metadata
type ModelsHandler struct {
	config  *config.Config
	models  llmservice.Models
	catalog *capabilities.Catalog
	logger  *slog.Logger
}

// NewModelsHandler creates a new models handler
func NewModelsHandler(cfg *config.Config, models llmservice.Models, catalog *capabilities.Catalog, logger *slog.Logger) *ModelsHandler {
	return &ModelsHandler{
		config:  cfg,
		models:  models,
		catalog: catalog,
		logger:  logger,
	}
}

// GetModels returns the selectable chat models and the configured providers' catalogs
// GET /api/models
func (h *ModelsHandler) GetModels(w http.ResponseWriter, r *http.Request) {
	registry, err := h.catalog.Get(r.Context())
	if err != nil {
		// Model ids are still useful without pricing.
		h.logger.Warn("model catalog unavailable", "error", err)
	}

	selectable := make([]ChatModelResponse, 0, len(chatModels))
	for _, m := range chatModels {
		resp := ChatModelResponse{
			ID:          m.alias,
			Name:        m.name,
			Description: m.description,
			Model:       h.models.Resolve(m.alias),
		}
		if info, err := llmservice.ParseModel(resp.Model); err == nil {
			resp.Provider, resp.Model = info.Provider, info.Model
			if registry != nil {
				if caps, err := registry.GetModelCapabilities(info.Provider, info.Model); err == nil {
					resp.Name = caps.DisplayName
					resp.ContextWindow = caps.ContextWindow
					resp.Pricing = pricingOf(caps)
				}
			}
		}
		selectable = append(selectable, resp)
	}

	var providers []ProviderResponse
	if registry != nil {
		for _, p := range h.configuredProviders() {
			if models, err := registry.ListProviderModels(p); err == nil {
				providers = append(providers, ProviderResponse{ID: p, Models: models})
			}
		}
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"models":    selectable,
		"providers": providers,
	})
}

func (h *ModelsHandler) configuredProviders() []string {
	var out []string
	if h.config.AnthropicAPIKey != "" {
		out = append(out, "anthropic")
	}
	if h.config.GeminiAPIKey != "" {
		out = append(out, "gemini")
	}
	if h.config.OpenRouterAPIKey != "" {
		out = append(out, "openrouter")
	}
	if h.config.IsTest() {
		out = append(out, "lorem")
	}
	return out
}

// pricingOf extracts the first tier's text price alongside the full tiers
func pricingOf(caps *capabilities.ModelCapabilities) *PricingInfo {
	if len(caps.PricingTiers) == 0 {
		return nil
	}
	first := caps.PricingTiers[0]
	return &PricingInfo{
		InputPer1M:  first.InputPrice["text"],
		OutputPer1M: first.OutputPrice["text"],
		Tiers:       caps.PricingTiers,
	}
}
