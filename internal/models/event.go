package models

// Topic is a broadcast category subscribers filter on.
type Topic string

const (
	TopicContent Topic = "content"
	TopicChat    Topic = "chat"
)

// EventKind identifies what happened, in <resource action> form.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
	EventMessage EventKind = "message"
)

// Event is an immutable change notification. The hub assigns Seq per topic
// when the event is published; it is never mutated afterwards.
type Event struct {
	Topic     Topic     `json:"topic"`
	Kind      EventKind `json:"kind"`
	FileID    string    `json:"file_id,omitempty"`  // content events
	Revision  uint64    `json:"revision,omitempty"` // content events
	Seq       uint64    `json:"seq"`                // per-topic, assigned by the hub
	MessageID string    `json:"message_id,omitempty"`
	Message   string    `json:"message,omitempty"` // chat events
	Timestamp int64     `json:"ts"`                // Unix ms
}
