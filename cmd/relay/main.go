package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tooniez/openrouter-relay/internal/app"
	"github.com/tooniez/openrouter-relay/internal/config"
	"github.com/tooniez/openrouter-relay/internal/tokenizer"
	"github.com/tooniez/openrouter-relay/internal/transport/http/handler"
	"github.com/tooniez/openrouter-relay/internal/upstream/openrouter"
)

// shutdownTimeout bounds how long in-flight streams get to drain on exit.
const shutdownTimeout = 10 * time.Second

func main() {
	logger := setupLogger()
	slog.SetDefault(logger)

	// The config file is optional; environment variables win over it.
	if err := config.EnsureConfigFile(); err != nil {
		logger.Warn("could not create config file", "path", config.ConfigPath(), "error", err)
	}
	cfg := config.Load()

	if cfg.APIKey == "" {
		logger.Warn("no OpenRouter API key configured; relay requests will be rejected until OPENROUTER_API_KEY is set")
	}

	cache := newCache()
	store := openStorage(cfg, logger)
	if store != nil {
		defer store.Close()
	}

	client := openrouter.New(openrouter.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.UpstreamURL,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	})

	repo := handler.NewRepo(cache, client, store, tokenizer.New(), cfg.DefaultModel, logger)
	router := app.NewRouter(repo, &app.RouterOptions{Logger: logger})
	srv := app.NewServer(cfg, router)

	printStartupBanner(cfg)
	logger.Info("server starting", "addr", cfg.ListenAddr,
		"upstream", cfg.UpstreamURL, "default_model", cfg.DefaultModel)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}
}
