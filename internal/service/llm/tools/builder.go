package tools

import (
	domainllm "chatbot/internal/domain/services/llm"
	"chatbot/internal/service/llm/tools/external"
)

// ToolRegistryBuilder provides a fluent API for building tool registries.
// Registries are built per request because document tools are bound to the
// requesting user and its stream.
type ToolRegistryBuilder struct {
	registry *ToolRegistry
	config   *ToolConfig
}

// NewToolRegistryBuilder creates a new builder with a fresh registry.
func NewToolRegistryBuilder() *ToolRegistryBuilder {
	return &ToolRegistryBuilder{
		registry: NewToolRegistry(),
		config:   DefaultToolConfig(),
	}
}

// WithConfig sets custom tool configuration.
// If not called, defaults will be used.
func (b *ToolRegistryBuilder) WithConfig(config *ToolConfig) *ToolRegistryBuilder {
	if config != nil {
		b.config = config
	}
	return b
}

// WithWeather registers getWeather when the weather flag is on and a client is provided.
func (b *ToolRegistryBuilder) WithWeather(client external.WeatherClient) *ToolRegistryBuilder {
	if b.config.WeatherEnabled && client != nil {
		b.registry.RegisterTool(NewGetWeatherTool(client))
	}
	return b
}

// WithArtifactTools registers createDocument, updateDocument and requestSuggestions.
func (b *ToolRegistryBuilder) WithArtifactTools(
	artifacts ArtifactService,
	documents DocumentResolver,
	userID string,
	writer domainllm.ChunkWriter,
) *ToolRegistryBuilder {
	if artifacts == nil {
		return b
	}
	b.registry.RegisterTool(NewCreateDocumentTool(artifacts, userID, writer, b.config))
	b.registry.RegisterTool(NewUpdateDocumentTool(artifacts, documents, userID, writer))
	b.registry.RegisterTool(NewRequestSuggestionsTool(artifacts, documents, userID, writer))
	return b
}

// Build returns the constructed tool registry.
func (b *ToolRegistryBuilder) Build() *ToolRegistry {
	return b.registry
}
