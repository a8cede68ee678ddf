package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DataDir returns the path to the relay data directory.
// - Windows: %APPDATA%\openrouter-relay
// - Other OS: ~/.openrouter-relay
func DataDir() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "openrouter-relay")
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".openrouter-relay"
	}
	return filepath.Join(home, ".openrouter-relay")
}

// DBPath returns the path to the SQLite database file.
func DBPath() string {
	return filepath.Join(DataDir(), "relay.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0700)
}
