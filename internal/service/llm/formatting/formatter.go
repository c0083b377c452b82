// Package formatting trims tool outputs before they are replayed to the model
// as part of the conversation history.
package formatting

// ToolResultFormatter rewrites the decoded output of one tool.
type ToolResultFormatter interface {
	Format(result interface{}) interface{}
}

// FormatterRegistry maps tool names to formatters. It is filled once at
// startup and read concurrently by every generation afterwards.
type FormatterRegistry struct {
	formatters map[string]ToolResultFormatter
}

// NewFormatterRegistry creates an empty registry.
func NewFormatterRegistry() *FormatterRegistry {
	return &FormatterRegistry{formatters: make(map[string]ToolResultFormatter)}
}

// Register sets the formatter of toolName, replacing any previous one.
// Not safe to call once the registry is shared.
func (r *FormatterRegistry) Register(toolName string, formatter ToolResultFormatter) {
	r.formatters[toolName] = formatter
}

// Format applies the formatter of toolName. Outputs of tools without a
// formatter pass through unchanged.
func (r *FormatterRegistry) Format(toolName string, result interface{}) interface{} {
	formatter, ok := r.formatters[toolName]
	if !ok {
		return result
	}
	return formatter.Format(result)
}

// DefaultRegistry returns a registry with the formatters of every built-in tool.
func DefaultRegistry() *FormatterRegistry {
	r := NewFormatterRegistry()
	r.Register("getWeather", &WeatherFormatter{})
	r.Register("createDocument", &DocumentFormatter{})
	r.Register("updateDocument", &DocumentFormatter{})
	r.Register("requestSuggestions", &DocumentFormatter{})
	return r
}
