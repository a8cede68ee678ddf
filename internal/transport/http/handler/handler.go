package handler

import (
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/tooniez/openrouter-relay/internal/storage"
	"github.com/tooniez/openrouter-relay/internal/tokenizer"
	"github.com/tooniez/openrouter-relay/internal/transport/http/handler/infra"
	"github.com/tooniez/openrouter-relay/internal/transport/http/handler/relay"
	"github.com/tooniez/openrouter-relay/internal/upstream/openrouter"
)

// Repo composes all domain-specific handlers.
type Repo struct {
	Relay *relay.Handlers
	Infra *infra.Handlers
}

// NewRepo creates a new instance of the composed handler repository.
func NewRepo(cache *ristretto.Cache[string, []byte], client *openrouter.Client, store storage.Storage, tok tokenizer.Tokenizer, defaultModel string, logger *slog.Logger) *Repo {
	startTime := time.Now()
	return &Repo{
		Relay: relay.New(client, store, tok, defaultModel, logger),
		Infra: infra.New(client, store, cache, startTime),
	}
}
