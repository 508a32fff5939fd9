package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/asynkron/liveview/internal/models"
)

// streamRecord is one newline-delimited record on a chunked stream,
// JSON-RPC-result shaped for line-oriented consumers.
type streamRecord struct {
	JSONRPC string       `json:"jsonrpc"`
	Result  models.Event `json:"result"`
}

// Stream handles POST /mcp/stream/{topic}: an unbounded chunked response
// body with one JSON record per delivered event. The topic is derived from
// the request path; chat streams replay the buffered history first.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	topic := models.Topic(chi.URLParam(r, "topic"))
	if topic != models.TopicChat && topic != models.TopicContent {
		h.Error(w, http.StatusNotFound, "unknown topic")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sub, err := h.hub.Subscribe(topic, h.queueSize)
	if err != nil {
		h.Error(w, http.StatusServiceUnavailable, "server shutting down")
		return
	}
	defer h.hub.Unsubscribe(sub)

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	logger := h.logger.With().Str("subscription", sub.ID).Str("topic", string(topic)).Logger()
	logger.Info().Str("remote", r.RemoteAddr).Msg("stream client connected")
	defer logger.Info().Msg("stream client disconnected")

	writeRecord := func(ev models.Event) error {
		data, err := json.Marshal(streamRecord{JSONRPC: "2.0", Result: ev})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	// Replay buffered chat history before live delivery; the cursor skip
	// removes any overlap with events queued during replay.
	var cursor uint64
	if topic == models.TopicChat {
		for _, msg := range h.chat.Messages() {
			ev := models.Event{
				Topic:     models.TopicChat,
				Kind:      models.EventMessage,
				MessageID: msg.ID,
				Message:   msg.Text,
				Seq:       msg.Seq,
				Timestamp: msg.Timestamp,
			}
			if err := writeRecord(ev); err != nil {
				return
			}
			cursor = msg.Seq
		}
	}

	for {
		select {
		case ev := <-sub.Events():
			if ev.Seq <= cursor {
				continue
			}
			if err := writeRecord(ev); err != nil {
				return
			}
		case <-sub.Done():
			if err := sub.Err(); err != nil {
				logger.Warn().Err(err).Msg("closing stream")
			}
			return
		case <-r.Context().Done():
			return
		}
	}
}
