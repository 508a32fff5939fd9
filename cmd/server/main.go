package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/asynkron/liveview/internal/api"
	"github.com/asynkron/liveview/internal/chat"
	"github.com/asynkron/liveview/internal/config"
	"github.com/asynkron/liveview/internal/handlers"
	"github.com/asynkron/liveview/internal/hub"
	"github.com/asynkron/liveview/internal/server"
	"github.com/asynkron/liveview/internal/store"
	"github.com/asynkron/liveview/internal/watcher"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}
	if cfg.MCPStdio {
		// stdout belongs to the MCP stdio transport.
		logger = logger.Output(os.Stderr)
	}

	// Shared state: broadcast hub, content store, chat log
	broadcast := hub.New(logger)
	contentStore := store.New(broadcast, logger)
	chatLog := chat.New(broadcast, cfg.ChatHistory, logger)

	// Mirror the watched directory into the store
	fileWatcher, err := watcher.New(cfg.MarkdownDir, contentStore, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.MarkdownDir).Msg("failed to start file watcher")
	}
	defer fileWatcher.Stop()

	// Command processor (MCP), shared by the HTTP and stdio transports
	baseURL := "http://localhost:" + cfg.Port
	mcpSrv := server.New(contentStore, chatLog, baseURL)

	// Create router
	h := handlers.NewHandler(contentStore, broadcast, chatLog, logger, cfg.SubscriberQueue, cfg.HeartbeatInterval)
	router := api.NewRouter(logger, h, mcpSrv)

	// Create server
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		// No WriteTimeout: the SSE and chunked stream responses are
		// long-lived by design.
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("dir", cfg.MarkdownDir).
			Msg("starting LiveView server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Optionally serve MCP over stdio for AI assistant integration
	if cfg.MCPStdio {
		go func() {
			logger.Info().Msg("starting MCP stdio server")
			if err := mcpserver.ServeStdio(mcpSrv); err != nil {
				logger.Error().Err(err).Msg("mcp stdio server stopped")
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	fileWatcher.Stop()
	broadcast.Close()

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
