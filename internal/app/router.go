package app

import (
	"log/slog"
	"net/http"

	"github.com/tooniez/openrouter-relay/internal/transport/http/handler"
	"github.com/tooniez/openrouter-relay/internal/transport/http/middleware"
)

// RouterOptions configures the HTTP router behavior.
type RouterOptions struct {
	Logger *slog.Logger
}

// NewRouter creates and configures the HTTP router with all application
// routes. Returns an http.Handler with middleware applied.
//
// POST on any path reaches the relay; the /v1/chat/completions form is the
// conventional alias. Supplementary GET endpoints live on their own routes.
func NewRouter(repo *handler.Repo, opts *RouterOptions) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", repo.Infra.HealthCheck)
	mux.HandleFunc("GET /api/usage", repo.Infra.GetUsageStats)
	mux.HandleFunc("GET /api/usage/daily", repo.Infra.GetDailyUsage)
	mux.HandleFunc("GET /api/logs", repo.Infra.GetRequestLogs)

	mux.HandleFunc("GET /v1/models", repo.Infra.ListModels)
	mux.HandleFunc("POST /v1/chat/completions", repo.Relay.ChatCompletions)

	// GET on the bare root returns the status document; POST on any path
	// relays. Non-POST on unregistered paths falls out of the mux as 405.
	mux.HandleFunc("GET /{$}", repo.Infra.RootStatus)
	mux.HandleFunc("POST /", repo.Relay.ChatCompletions)

	// Apply middleware chain (order: outer to inner)
	var h http.Handler = mux

	if opts != nil && opts.Logger != nil {
		h = middleware.RequestLogger(opts.Logger)(h)
	}

	h = middleware.RequestID(h)
	h = middleware.CORS(h)

	return h
}
