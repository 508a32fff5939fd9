// Package chat layers a bounded message ring on top of the broadcast hub:
// push delivery goes through the hub's chat topic, pull/poll consumers read
// the ring with a sequence cursor.
package chat

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/asynkron/liveview/internal/metrics"
	"github.com/asynkron/liveview/internal/models"
)

// Publisher receives chat events. Satisfied by *hub.Hub.
type Publisher interface {
	Publish(ev models.Event) uint64
}

// Log is the fixed-capacity chat ring buffer. The oldest message is evicted
// when a post exceeds capacity.
type Log struct {
	logger   zerolog.Logger
	bus      Publisher
	capacity int

	// mu is held across publish + ring append so that ring order always
	// equals hub sequence order. Publish never blocks.
	mu  sync.Mutex
	buf []models.ChatMessage
}

// New creates a chat log retaining the most recent capacity messages.
func New(bus Publisher, capacity int, logger zerolog.Logger) *Log {
	if capacity <= 0 {
		capacity = 1
	}
	return &Log{
		logger:   logger.With().Str("component", "chat").Logger(),
		bus:      bus,
		capacity: capacity,
		buf:      make([]models.ChatMessage, 0, capacity),
	}
}

// Post appends the message to the ring and publishes it on the chat topic.
// The returned message carries the hub-assigned sequence number.
func (l *Log) Post(text string) models.ChatMessage {
	msg := models.ChatMessage{
		ID:        ulid.Make().String(),
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}

	l.mu.Lock()
	msg.Seq = l.bus.Publish(models.Event{
		Topic:     models.TopicChat,
		Kind:      models.EventMessage,
		MessageID: msg.ID,
		Message:   msg.Text,
		Timestamp: msg.Timestamp,
	})

	l.buf = append(l.buf, msg)
	if len(l.buf) > l.capacity {
		l.buf = l.buf[len(l.buf)-l.capacity:]
	}
	l.mu.Unlock()

	metrics.ChatMessagesPosted.Inc()
	l.logger.Debug().Uint64("seq", msg.Seq).Int("bytes", len(text)).Msg("chat message posted")
	return msg
}

// Since returns buffered messages with a sequence number greater than the
// given cursor, oldest first. It never blocks.
func (l *Log) Since(seq uint64) []models.ChatMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.ChatMessage, 0, len(l.buf))
	for _, msg := range l.buf {
		if msg.Seq > seq {
			out = append(out, msg)
		}
	}
	return out
}

// Messages returns a copy of the whole ring, oldest first.
func (l *Log) Messages() []models.ChatMessage {
	return l.Since(0)
}

// Capacity returns the ring size.
func (l *Log) Capacity() int {
	return l.capacity
}
