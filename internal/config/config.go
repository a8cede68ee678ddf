package config

import "os"

// Defaults for every tunable. Each can be overridden by environment
// variable or config.toml.
const (
	DefaultListenAddr  = ":8080"
	DefaultUpstreamURL = "https://openrouter.ai/api/v1"
	DefaultModel       = "openai/gpt-4o-mini"
	DefaultReferer     = "http://localhost:8080"
	DefaultTitle       = "OpenRouter Relay"
)

// Config holds application configuration loaded from environment and file.
// Priority: Env vars → config.toml → defaults
type Config struct {
	// ListenAddr is the address to bind the server to (e.g., ":8080")
	ListenAddr string

	// APIKey is the OpenRouter key attached to every upstream call.
	// When empty, relay requests are refused with 401 at request time;
	// startup still succeeds.
	APIKey string

	// UpstreamURL is the OpenRouter API root
	UpstreamURL string

	// DefaultModel is applied when a request omits the model field
	DefaultModel string

	// Referer is the HTTP-Referer attribution header sent upstream when
	// the inbound request carries no Origin
	Referer string

	// Title is the X-Title attribution header sent upstream
	Title string

	// LogRequests enables request logging to SQLite
	LogRequests bool
}

// Load reads configuration from file and environment variables.
// Environment variables override file config values.
func Load() *Config {
	fileConfig, _ := LoadFile() // Ignore error, use defaults

	return &Config{
		ListenAddr:   getEnvOrFile("RELAY_ADDR", fileConfig.ListenAddr, DefaultListenAddr),
		APIKey:       getEnvOrFile("OPENROUTER_API_KEY", fileConfig.APIKey, ""),
		UpstreamURL:  getEnvOrFile("RELAY_UPSTREAM_URL", fileConfig.UpstreamURL, DefaultUpstreamURL),
		DefaultModel: getEnvOrFile("RELAY_DEFAULT_MODEL", fileConfig.DefaultModel, DefaultModel),
		Referer:      getEnvOrFile("RELAY_REFERER", fileConfig.Referer, DefaultReferer),
		Title:        getEnvOrFile("RELAY_TITLE", fileConfig.Title, DefaultTitle),
		LogRequests:  getEnvBoolOrFile("RELAY_LOG_REQUESTS", fileConfig.LogRequests, true),
	}
}

// getEnvOrFile returns env value, file value, or default (in priority order)
func getEnvOrFile(key, fileValue, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// getEnvBoolOrFile returns env bool, file bool, or default (in priority order)
func getEnvBoolOrFile(key string, fileValue *bool, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	if fileValue != nil {
		return *fileValue
	}
	return defaultValue
}
