package formatting

// WeatherFormatter trims getWeather results before they are sent back to the
// model. The hourly series is the bulk of an Open-Meteo response and the model
// only needs the current reading and the daily summary.
// Keeps: latitude, longitude, timezone, current, current_units, daily.
type WeatherFormatter struct{}

// Format filters the forecast to the fields above.
func (f *WeatherFormatter) Format(result interface{}) interface{} {
	resultMap, ok := result.(map[string]interface{})
	if !ok {
		return result // Pass through if not expected format
	}

	filtered := make(map[string]interface{}, 6)
	for _, key := range []string{"latitude", "longitude", "timezone", "current", "current_units", "daily"} {
		if v, ok := resultMap[key]; ok {
			filtered[key] = v
		}
	}
	if len(filtered) == 0 {
		return result
	}
	return filtered
}

// DocumentFormatter drops echoed fields from document tool results. The model
// already knows the title and kind it asked for; the id and status message are
// what it needs to refer to the document later.
type DocumentFormatter struct{}

// Format keeps id, content, message and error.
func (f *DocumentFormatter) Format(result interface{}) interface{} {
	resultMap, ok := result.(map[string]interface{})
	if !ok {
		return result
	}

	filtered := make(map[string]interface{}, 4)
	for _, key := range []string{"id", "content", "message", "error"} {
		if v, ok := resultMap[key]; ok {
			filtered[key] = v
		}
	}
	return filtered
}
