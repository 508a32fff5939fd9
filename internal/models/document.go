package models

import "time"

// Document is one markdown entry in the live view.
type Document struct {
	ID        string    `json:"id"`      // File Id, e.g. "a1b2c3d4.md"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created"` // ordering key, never changes
	UpdatedAt time.Time `json:"updated"`
	Revision  uint64    `json:"revision"` // increments on every successful mutation
}

// Size returns the content length in bytes.
func (d Document) Size() int {
	return len(d.Content)
}
