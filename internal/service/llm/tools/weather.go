package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	domainllm "chatbot/internal/domain/services/llm"
	"chatbot/internal/service/llm/tools/external"
)

// GetWeatherTool implements the 'getWeather' tool via an external forecast API.
type GetWeatherTool struct {
	client external.WeatherClient
}

// NewGetWeatherTool creates a new GetWeatherTool instance.
func NewGetWeatherTool(client external.WeatherClient) *GetWeatherTool {
	return &GetWeatherTool{client: client}
}

func (t *GetWeatherTool) Definition() domainllm.ToolSpec {
	return domainllm.ToolSpec{
		Name:        "getWeather",
		Description: "Get the current weather at a location",
		Parameters: &domainllm.Schema{
			Type: "object",
			Properties: map[string]*domainllm.Schema{
				"latitude":  {Type: "number"},
				"longitude": {Type: "number"},
			},
			Required: []string{"latitude", "longitude"},
		},
	}
}

type weatherInput struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Execute implements ToolExecutor interface.
// Returns the forecast document as received from the API.
func (t *GetWeatherTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var in weatherInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	if in.Latitude == nil || in.Longitude == nil {
		return nil, errors.New("missing required parameters: latitude, longitude (number)")
	}
	if *in.Latitude < -90 || *in.Latitude > 90 || *in.Longitude < -180 || *in.Longitude > 180 {
		return nil, fmt.Errorf("coordinates out of range: %v, %v", *in.Latitude, *in.Longitude)
	}

	forecast, err := t.client.Forecast(ctx, *in.Latitude, *in.Longitude)
	if err != nil {
		return nil, fmt.Errorf("weather lookup failed: %w", err)
	}
	return forecast, nil
}
