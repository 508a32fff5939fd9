package models

// ChatMessage is one entry in the chat ring buffer.
type ChatMessage struct {
	ID        string `json:"id"`  // ULID
	Seq       uint64 `json:"seq"` // hub sequence number on the chat topic
	Text      string `json:"message"`
	Timestamp int64  `json:"ts"` // Unix ms
}
