package config

import (
	"os"
	"strings"
)

// FeatureFlags are toggled through APP_ENABLE_* environment variables.
type FeatureFlags struct {
	GuestAccounts      bool `json:"guestAccounts"`
	ShareConversations bool `json:"shareConversations"`
	UploadFiles        bool `json:"uploadFiles"`
	WeatherTool        bool `json:"weatherTool"`
}

const (
	EnvGuestAccounts      = "APP_ENABLE_GUEST_ACCOUNTS"
	EnvShareConversations = "APP_ENABLE_SHARE_CONVERSATIONS"
	EnvUploadFiles        = "APP_ENABLE_UPLOAD_FILES"
	EnvWeatherTool        = "APP_ENABLE_WEATHER_TOOL"
)

// LoadFeatureFlags reads flags from the process environment.
func LoadFeatureFlags() FeatureFlags {
	return FeatureFlagsFrom(os.Getenv)
}

// FeatureFlagsFrom reads flags through lookup so tests can supply a map.
func FeatureFlagsFrom(lookup func(string) string) FeatureFlags {
	return FeatureFlags{
		GuestAccounts:      ParseFlag(lookup(EnvGuestAccounts)),
		ShareConversations: ParseFlag(lookup(EnvShareConversations)),
		UploadFiles:        ParseFlag(lookup(EnvUploadFiles)),
		WeatherTool:        ParseFlag(lookup(EnvWeatherTool)),
	}
}

// ParseFlag accepts 1/true/on/yes as enabled. Everything else, including
// unrecognized values, is disabled.
func ParseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}
