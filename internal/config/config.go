package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	RedisURL    string // Empty disables resumable streams and the mail queue
	CORSOrigins string
	TablePrefix string
	PublicURL   string // Base URL used to build signed file links

	// Auth
	AuthSecret  string
	AuthJWKSURL string // Optional external identity provider

	// LLM Configuration
	AnthropicAPIKey  string
	GeminiAPIKey     string
	OpenRouterAPIKey string
	ChatModel        string
	ReasoningModel   string
	TitleModel       string
	ArtifactModel    string
	CatalogURL       string // Empty uses the catalog compiled into the binary

	// Tools
	WeatherBaseURL string

	// Limits
	MaxUploadSize       uint64
	GuestMessagesPerDay int
	UserMessagesPerDay  int
	RateLimitRPS        float64
	RateLimitBurst      int

	// Background jobs
	StreamPruneSchedule string
	StreamRetention     time.Duration

	// Logging
	LogDir      string
	LogMaxFiles int

	Flags FeatureFlags
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)
	chatModel := getEnv("CHAT_MODEL", defaultModel(env))

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: tablePrefix,
		PublicURL:   strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8080"), "/"),

		AuthSecret:  getEnv("AUTH_SECRET", ""),
		AuthJWKSURL: getEnv("AUTH_JWKS_URL", ""),

		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		ChatModel:        chatModel,
		ReasoningModel:   getEnv("REASONING_MODEL", chatModel),
		TitleModel:       getEnv("TITLE_MODEL", chatModel),
		ArtifactModel:    getEnv("ARTIFACT_MODEL", chatModel),
		CatalogURL:       getEnv("MODEL_CATALOG_URL", ""),

		WeatherBaseURL: getEnv("WEATHER_BASE_URL", "https://api.open-meteo.com"),

		MaxUploadSize:       getBytes("MAX_UPLOAD_SIZE", DefaultMaxUploadSize),
		GuestMessagesPerDay: getInt("GUEST_MAX_MESSAGES_PER_DAY", DefaultGuestMessagesPerDay),
		UserMessagesPerDay:  getInt("REGULAR_MAX_MESSAGES_PER_DAY", DefaultRegularMessagesPerDay),
		RateLimitRPS:        getFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:      getInt("RATE_LIMIT_BURST", 20),

		StreamPruneSchedule: getEnv("STREAM_PRUNE_SCHEDULE", "0 * * * *"),
		StreamRetention:     getDuration("STREAM_RETENTION", 24*time.Hour),

		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getInt("LOG_MAX_FILES", 10),

		Flags: LoadFeatureFlags(),
	}
}

// IsTest reports whether the server runs against the offline model provider.
func (c *Config) IsTest() bool {
	return c.Environment == "test"
}

// defaultModel picks the offline lorem model for tests so no API key is needed
func defaultModel(env string) string {
	if env == "test" {
		return "lorem-fast"
	}
	return "claude-sonnet-4-20250514"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return d
}

// getBytes accepts human sizes such as "7MiB" or "5 MB"
func getBytes(key string, defaultValue uint64) uint64 {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := humanize.ParseBytes(raw)
	if err != nil || n == 0 {
		return defaultValue
	}
	return n
}
