package handlers

import (
	"net/http"
	"time"

	"github.com/asynkron/liveview/internal/models"
	"github.com/asynkron/liveview/internal/version"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string         `json:"status"`
	Version     string         `json:"version"`
	Documents   int            `json:"documents"`
	Subscribers map[string]int `json:"subscribers"`
	Timestamp   string         `json:"timestamp"`
}

// Health handles the health check endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   version.Version,
		Documents: h.store.Len(),
		Subscribers: map[string]int{
			string(models.TopicContent): h.hub.Subscribers(models.TopicContent),
			string(models.TopicChat):    h.hub.Subscribers(models.TopicChat),
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// RootResponse represents the root endpoint response.
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Root handles the root endpoint.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, RootResponse{
		Name:    "LiveView",
		Version: version.Version,
	})
}
