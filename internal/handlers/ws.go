package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/asynkron/liveview/internal/hub"
	"github.com/asynkron/liveview/internal/models"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Cross-origin viewers are allowed; auth lives in the gateway.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsInbound is a frame received from the viewer UI.
type wsInbound struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// wsOutbound is a frame pushed to the viewer UI.
type wsOutbound struct {
	Type        string `json:"type"`
	Content     string `json:"content,omitempty"`
	ChangedFile string `json:"changed_file,omitempty"`
	Seq         uint64 `json:"seq,omitempty"`
	Timestamp   int64  `json:"ts,omitempty"`
}

// wsConn serializes writes; the reader and delivery loops both push frames.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) writeJSON(out wsOutbound) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(out)
}

func (c *wsConn) close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wsWriteTimeout))
}

// WebSocket handles GET /ws: the full-duplex push transport. Outbound, the
// connection receives the full merged view on connect and after every
// content change; inbound, chat frames are forwarded into the chat channel.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn := &wsConn{conn: raw}

	sub, err := h.hub.Subscribe(models.TopicContent, h.queueSize)
	if err != nil {
		_ = raw.Close()
		return
	}

	logger := h.logger.With().Str("subscription", sub.ID).Logger()
	logger.Info().Str("remote", r.RemoteAddr).Msg("websocket client connected")

	// The reader goroutine owns inbound frames; its exit tears down the
	// subscription, which in turn stops the delivery loop.
	go func() {
		defer h.hub.Unsubscribe(sub)
		for {
			_, data, err := raw.ReadMessage()
			if err != nil {
				return
			}
			var in wsInbound
			if err := json.Unmarshal(data, &in); err != nil {
				logger.Warn().Err(err).Msg("dropping malformed frame")
				continue
			}
			if in.Type == "chat" && in.Message != "" {
				msg := h.chat.Post(in.Message)
				_ = conn.writeJSON(wsOutbound{Type: "chat_ack", Seq: msg.Seq, Timestamp: msg.Timestamp})
			}
		}
	}()

	defer func() {
		h.hub.Unsubscribe(sub)
		_ = raw.Close()
		logger.Info().Msg("websocket client disconnected")
	}()

	// Initial full-state frame so a late joiner starts consistent. Content
	// frames are idempotent full-state updates, so this topic needs no
	// replay bookkeeping.
	if err := conn.writeJSON(wsOutbound{Type: "content_update", Content: h.store.Merged()}); err != nil {
		return
	}

	for {
		select {
		case ev := <-sub.Events():
			out := wsOutbound{
				Type:        "content_update",
				Content:     h.store.Merged(),
				ChangedFile: ev.FileID,
				Timestamp:   ev.Timestamp,
			}
			if err := conn.writeJSON(out); err != nil {
				return
			}
		case <-sub.Done():
			if errors.Is(sub.Err(), hub.ErrSlowConsumer) {
				logger.Warn().Msg("closing websocket: slow consumer")
				conn.close(websocket.ClosePolicyViolation, "slow consumer")
			}
			return
		}
	}
}
