// Package hub implements the broadcast engine that fans change events out to
// transport subscribers. Publishing never blocks: every subscriber owns a
// bounded queue and a subscriber whose queue overflows is evicted rather than
// stalling the publisher or losing individual events.
package hub

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/asynkron/liveview/internal/metrics"
	"github.com/asynkron/liveview/internal/models"
)

var (
	// ErrSlowConsumer is reported on a subscription evicted for queue overflow.
	ErrSlowConsumer = errors.New("subscriber evicted: queue overflow")

	// ErrClosed is reported on subscriptions when the hub shuts down.
	ErrClosed = errors.New("hub closed")
)

// Subscription is the live binding between one transport connection and the
// hub. The owning adapter reads Events until Done is closed, then checks Err
// to distinguish eviction from normal shutdown.
type Subscription struct {
	ID    string
	Topic models.Topic

	ch   chan models.Event
	done chan struct{}

	mu  sync.Mutex
	err error
}

// Events returns the subscription's delivery queue.
func (s *Subscription) Events() <-chan models.Event {
	return s.ch
}

// Done is closed when the subscription is unsubscribed, evicted or the hub
// shuts down.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err reports why the subscription ended. It is nil after a plain
// Unsubscribe and non-nil after eviction or hub shutdown.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

// Hub delivers every published event to every registered subscriber of the
// event's topic, in publish order.
type Hub struct {
	logger zerolog.Logger

	mu     sync.Mutex
	seqs   map[models.Topic]uint64
	subs   map[models.Topic]map[string]*Subscription
	closed bool
}

// New creates an empty hub.
func New(logger zerolog.Logger) *Hub {
	return &Hub{
		logger: logger.With().Str("component", "hub").Logger(),
		seqs:   make(map[models.Topic]uint64),
		subs:   make(map[models.Topic]map[string]*Subscription),
	}
}

// Subscribe registers a new subscription for the given topic with a bounded
// queue of the given capacity. Adapters that need historical catch-up must
// register first, then read their backlog, then drain Events skipping
// entries with Seq at or below the backlog's highest sequence number; the
// hub assigns sequence numbers under the same lock that enqueues live
// events, so the skip is exact.
func (h *Hub) Subscribe(topic models.Topic, capacity int) (*Subscription, error) {
	if capacity <= 0 {
		capacity = 1
	}

	sub := &Subscription{
		ID:    uuid.NewString(),
		Topic: topic,
		ch:    make(chan models.Event, capacity),
		done:  make(chan struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}

	if h.subs[topic] == nil {
		h.subs[topic] = make(map[string]*Subscription)
	}
	h.subs[topic][sub.ID] = sub

	metrics.SubscribersActive.WithLabelValues(string(topic)).Inc()
	h.logger.Debug().
		Str("subscription", sub.ID).
		Str("topic", string(topic)).
		Int("capacity", capacity).
		Msg("subscriber registered")

	return sub, nil
}

// Unsubscribe removes the subscription. It is idempotent and safe to call
// after the transport has already failed or the subscriber was evicted.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	removed := h.remove(sub)
	h.mu.Unlock()

	if removed {
		close(sub.done)
		h.logger.Debug().
			Str("subscription", sub.ID).
			Str("topic", string(sub.Topic)).
			Msg("subscriber unregistered")
	}
}

// remove deletes the subscription from the registry. Caller holds h.mu.
// Returns false if it was already gone.
func (h *Hub) remove(sub *Subscription) bool {
	topic, ok := h.subs[sub.Topic]
	if !ok {
		return false
	}
	if _, ok := topic[sub.ID]; !ok {
		return false
	}
	delete(topic, sub.ID)
	metrics.SubscribersActive.WithLabelValues(string(sub.Topic)).Dec()
	return true
}

// Publish assigns the event's per-topic sequence number and enqueues it onto
// every matching subscriber's queue. It never blocks: a subscriber whose
// queue is full is evicted with ErrSlowConsumer. Returns the assigned
// sequence number.
func (h *Hub) Publish(ev models.Event) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seqs[ev.Topic]++
	ev.Seq = h.seqs[ev.Topic]

	metrics.EventsPublished.WithLabelValues(string(ev.Topic)).Inc()

	for _, sub := range h.subs[ev.Topic] {
		select {
		case sub.ch <- ev:
		default:
			// Queue overflow: evict this subscriber only. It must
			// resynchronize via full replay on reconnect.
			h.remove(sub)
			sub.fail(ErrSlowConsumer)
			close(sub.done)
			metrics.SlowConsumersEvicted.Inc()
			h.logger.Warn().
				Str("subscription", sub.ID).
				Str("topic", string(ev.Topic)).
				Uint64("seq", ev.Seq).
				Msg("slow consumer evicted")
		}
	}

	return ev.Seq
}

// Seq returns the last sequence number assigned on the topic.
func (h *Hub) Seq(topic models.Topic) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seqs[topic]
}

// Subscribers returns the number of live registrations on the topic.
func (h *Hub) Subscribers(topic models.Topic) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic])
}

// Close shuts the hub down. All live subscriptions end with ErrClosed and
// later Subscribe calls fail.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for topic, subs := range h.subs {
		for _, sub := range subs {
			sub.fail(ErrClosed)
			close(sub.done)
			metrics.SubscribersActive.WithLabelValues(string(topic)).Dec()
		}
		delete(h.subs, topic)
	}

	h.logger.Info().Msg("hub closed")
}
