package infra

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/tooniez/openrouter-relay/internal/storage"
	"github.com/tooniez/openrouter-relay/internal/upstream/openrouter"
)

// Handlers holds the dependencies for infrastructure HTTP handlers.
type Handlers struct {
	Client    *openrouter.Client
	Storage   storage.Storage
	Cache     *ristretto.Cache[string, []byte]
	StartTime time.Time
}

// New creates a new instance of infrastructure handlers. Storage may be nil
// when request logging is disabled; Cache may be nil in tests.
func New(client *openrouter.Client, store storage.Storage, cache *ristretto.Cache[string, []byte], startTime time.Time) *Handlers {
	return &Handlers{
		Client:    client,
		Storage:   store,
		Cache:     cache,
		StartTime: startTime,
	}
}
