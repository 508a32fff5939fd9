package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/asynkron/liveview/internal/chat"
	"github.com/asynkron/liveview/internal/hub"
	"github.com/asynkron/liveview/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store     *store.Store
	hub       *hub.Hub
	chat      *chat.Log
	logger    zerolog.Logger
	queueSize int           // per-subscriber bounded queue capacity
	heartbeat time.Duration // SSE idle heartbeat interval
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(st *store.Store, h *hub.Hub, c *chat.Log, logger zerolog.Logger, queueSize int, heartbeat time.Duration) *Handler {
	return &Handler{
		store:     st,
		hub:       h,
		chat:      c,
		logger:    logger,
		queueSize: queueSize,
		heartbeat: heartbeat,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}
