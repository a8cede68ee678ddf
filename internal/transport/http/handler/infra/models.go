package infra

import (
	"io"
	"net/http"
	"time"

	"github.com/tooniez/openrouter-relay/internal/types"
)

// Model catalog responses are cached briefly so a client polling the relay
// does not hammer the upstream endpoint. Relayed completions are never cached.
const (
	modelsCacheKey = "models:openrouter"
	modelsCacheTTL = 5 * time.Minute
)

// ListModels proxies GET /v1/models to OpenRouter.
// Returns the list of available models in OpenAI-compatible format.
func (h *Handlers) ListModels(w http.ResponseWriter, r *http.Request) {
	if h.Cache != nil {
		if body, found := h.Cache.Get(modelsCacheKey); found {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "HIT")
			_, _ = w.Write(body)
			return
		}
	}

	resp, err := h.Client.ListModels(r.Context())
	if err != nil {
		types.WriteError(w, http.StatusBadGateway, types.ErrServer("upstream error: "+err.Error()))
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		types.WriteError(w, http.StatusBadGateway, types.ErrServer("failed to read upstream response"))
		return
	}

	if resp.StatusCode != http.StatusOK {
		if ct := resp.Header.Get("Content-Type"); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write(body)
		return
	}

	if h.Cache != nil {
		h.Cache.SetWithTTL(modelsCacheKey, body, int64(len(body)), modelsCacheTTL)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	_, _ = w.Write(body)
}
