package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/asynkron/liveview/internal/api/middleware"
	"github.com/asynkron/liveview/internal/handlers"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, mcp *mcpserver.MCPServer) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(1 << 20)) // 1MB max body
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS - allow all origins (viewers and agents connect from anywhere)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Last-Event-ID", "Mcp-Session-Id"},
		ExposedHeaders:   []string{"Mcp-Session-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Info and health
	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	// Live view API
	r.Get("/api/content", h.Content)
	r.Get("/api/file", h.File)
	r.Post("/api/delete", h.Delete)
	r.Get("/raw", h.Raw)

	// Transport adapters
	r.Get("/ws", h.WebSocket)
	r.Get("/mcp/chat/subscribe", h.ChatSubscribe)
	r.Post("/mcp/stream/{topic}", h.Stream)

	// MCP over HTTP (same command processor the stdio transport uses)
	if mcp != nil {
		streamable := mcpserver.NewStreamableHTTPServer(mcp,
			mcpserver.WithStateLess(true),
		)
		r.Handle("/mcp", streamable)
	}

	return r
}
