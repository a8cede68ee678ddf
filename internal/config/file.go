package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file structure.
type FileConfig struct {
	ListenAddr   string `toml:"listen_addr"`
	APIKey       string `toml:"api_key"`
	UpstreamURL  string `toml:"upstream_url"`
	DefaultModel string `toml:"default_model"`
	Referer      string `toml:"referer"`
	Title        string `toml:"title"`
	LogRequests  *bool  `toml:"log_requests"`
}

// ConfigPath returns the path to the config file (~/.openrouter-relay/config.toml).
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// LoadFile loads configuration from the TOML file.
// Returns an empty FileConfig if the file doesn't exist.
func LoadFile() (*FileConfig, error) {
	cfg := &FileConfig{}

	path := ConfigPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// EnsureConfigFile creates a default config file with commented examples if none exists.
func EnsureConfigFile() error {
	path := ConfigPath()

	// If config already exists, do nothing
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	// Ensure directory exists
	if err := EnsureDataDir(); err != nil {
		return err
	}

	defaultConfig := `# OpenRouter Relay Configuration
# Environment variables override these values.

# listen_addr = ":8080"

# OpenRouter API key. Also settable via OPENROUTER_API_KEY.
# api_key = "sk-or-v1-..."

# upstream_url = "https://openrouter.ai/api/v1"

# Model used when a request omits the model field
# default_model = "openai/gpt-4o-mini"

# Attribution headers sent to OpenRouter. The referer is only used when
# the inbound request has no Origin header.
# referer = "http://localhost:8080"
# title = "OpenRouter Relay"

# Log relayed requests to SQLite (~/.openrouter-relay/relay.db)
# log_requests = true
`

	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
