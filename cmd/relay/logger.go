package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/tooniez/openrouter-relay/internal/config"
	"github.com/tooniez/openrouter-relay/internal/version"
)

func setupLogger() *slog.Logger {
	// Use sensible defaults: info level, text format
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(handler)
}

func printStartupBanner(cfg *config.Config) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "OpenRouter Relay %s - Streaming Chat Completion Proxy\n", version.Version)
	fmt.Fprintln(os.Stderr, "════════════════════════════════════════════════")
	fmt.Fprintf(os.Stderr, "Relay API:  http://localhost%s/v1/chat/completions\n", cfg.ListenAddr)
	fmt.Fprintf(os.Stderr, "Models:     http://localhost%s/v1/models\n", cfg.ListenAddr)
	fmt.Fprintf(os.Stderr, "Health:     http://localhost%s/api/health\n", cfg.ListenAddr)
	if cfg.LogRequests {
		fmt.Fprintf(os.Stderr, "Data:       %s\n", config.DataDir())
	}
	fmt.Fprintln(os.Stderr, "════════════════════════════════════════════════")
	fmt.Fprintf(os.Stderr, "\n")
}
