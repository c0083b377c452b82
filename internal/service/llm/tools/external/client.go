package external

import (
	"context"
	"encoding/json"
)

// WeatherClient defines the interface for external forecast APIs.
type WeatherClient interface {
	// Forecast returns the provider's forecast document for a coordinate.
	// The document is passed to the model unchanged.
	Forecast(ctx context.Context, latitude, longitude float64) (json.RawMessage, error)
}
