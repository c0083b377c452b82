package tools

// ToolConfig centralizes configuration for all tools.
type ToolConfig struct {
	// Weather tool
	WeatherEnabled bool // APP_ENABLE_WEATHER_TOOL

	// Document tools
	MaxTitleLength int // Longest document title accepted from the model
}

// DefaultToolConfig returns the default tool configuration.
func DefaultToolConfig() *ToolConfig {
	return &ToolConfig{
		WeatherEnabled: false,
		MaxTitleLength: 255,
	}
}
