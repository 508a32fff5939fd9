package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/asynkron/liveview/internal/models"
)

// sseFrame is one data record on the chat event stream.
type sseFrame struct {
	Type      string `json:"type"`
	Message   string `json:"message,omitempty"`
	Seq       uint64 `json:"seq,omitempty"`
	Timestamp int64  `json:"ts,omitempty"`
}

// ChatSubscribe handles GET /mcp/chat/subscribe: a long-lived event stream
// of chat messages. The buffered history is replayed first, then live
// messages; a comment heartbeat keeps intermediaries from timing out the
// connection while the stream is idle.
func (h *Handler) ChatSubscribe(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// Register before reading the backlog so nothing published during
	// replay is lost; the cursor skip below removes the overlap.
	sub, err := h.hub.Subscribe(models.TopicChat, h.queueSize)
	if err != nil {
		h.Error(w, http.StatusServiceUnavailable, "server shutting down")
		return
	}
	defer h.hub.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	logger := h.logger.With().Str("subscription", sub.ID).Logger()
	logger.Info().Str("remote", r.RemoteAddr).Msg("sse client connected")
	defer logger.Info().Msg("sse client disconnected")

	writeData := func(frame sseFrame) error {
		data, err := json.Marshal(frame)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := writeData(sseFrame{Type: "connected", Message: "subscribed to chat stream"}); err != nil {
		return
	}

	var cursor uint64
	for _, msg := range h.chat.Messages() {
		if err := writeData(sseFrame{Type: "chat", Message: msg.Text, Seq: msg.Seq, Timestamp: msg.Timestamp}); err != nil {
			return
		}
		cursor = msg.Seq
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case ev := <-sub.Events():
			if ev.Seq <= cursor {
				continue // already sent during replay
			}
			if err := writeData(sseFrame{Type: "chat", Message: ev.Message, Seq: ev.Seq, Timestamp: ev.Timestamp}); err != nil {
				return
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-sub.Done():
			if err := sub.Err(); err != nil {
				logger.Warn().Err(err).Msg("closing sse stream")
			}
			return
		case <-r.Context().Done():
			return
		}
	}
}
