package main

import (
	"log/slog"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/tooniez/openrouter-relay/internal/config"
	"github.com/tooniez/openrouter-relay/internal/storage"
)

// newCache builds the model-catalog cache.
func newCache() *ristretto.Cache[string, []byte] {
	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1e7,
		MaxCost:     1 << 30,
		BufferItems: 64,
	})
	if err != nil {
		panic(err)
	}
	return cache
}

// openStorage opens the SQLite request log. Failures degrade to running
// without logging rather than refusing to start.
func openStorage(cfg *config.Config, logger *slog.Logger) storage.Storage {
	if !cfg.LogRequests {
		return nil
	}

	if err := config.EnsureDataDir(); err != nil {
		logger.Warn("request logging disabled: cannot create data dir",
			"path", config.DataDir(), "error", err)
		return nil
	}

	store, err := storage.NewSQLiteStorage(config.DBPath())
	if err != nil {
		logger.Warn("request logging disabled: cannot open database",
			"path", config.DBPath(), "error", err)
		return nil
	}

	logger.Info("request logging enabled", "db", config.DBPath())
	return store
}
