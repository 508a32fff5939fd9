// Package store holds the authoritative in-memory index of markdown
// documents. Mutations are serialized per document id, carry optimistic
// concurrency via revision counters, and emit exactly one change event to
// the broadcast hub after the mutation has been applied.
package store

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/asynkron/liveview/internal/metrics"
	"github.com/asynkron/liveview/internal/models"
)

// Sentinel errors returned by store operations.
var (
	// ErrNotFound is returned when a document id is unknown or deleted.
	ErrNotFound = errors.New("document not found")

	// ErrConflict is returned on a duplicate id or a stale expected revision.
	ErrConflict = errors.New("revision conflict")

	// ErrEmptyContent is returned when creating a document with no content.
	ErrEmptyContent = errors.New("content cannot be empty")
)

// ContentSeparator joins documents in the merged view.
const ContentSeparator = "\n\n---\n\n"

// FallbackContent is served when the index holds no documents.
const FallbackContent = "# No Content\n\nNo markdown entries yet. " +
	"Create one with the show_content tool or drop a .md file into the watched directory."

// Publisher receives change events after mutations. Satisfied by *hub.Hub.
type Publisher interface {
	Publish(ev models.Event) uint64
}

type entry struct {
	mu  sync.Mutex
	doc models.Document
}

// Store is the content store. The index mutex guards the maps only; each
// document carries its own mutex so mutations on different ids do not
// contend.
type Store struct {
	logger zerolog.Logger
	bus    Publisher

	mu        sync.RWMutex
	docs      map[string]*entry
	tombstone map[string]struct{} // deleted ids, never reused
}

// New creates an empty store publishing to bus.
func New(bus Publisher, logger zerolog.Logger) *Store {
	return &Store{
		logger:    logger.With().Str("component", "store").Logger(),
		bus:       bus,
		docs:      make(map[string]*entry),
		tombstone: make(map[string]struct{}),
	}
}

// SanitizeID reduces a caller-supplied File Id to a safe basename ending in
// ".md".
func SanitizeID(fileID string) string {
	id := path.Base(strings.ReplaceAll(fileID, "\\", "/"))
	if !strings.HasSuffix(id, ".md") {
		id += ".md"
	}
	return id
}

// Create inserts a new document under a freshly generated File Id and
// returns it at revision 1.
func (s *Store) Create(content string) (models.Document, error) {
	if content == "" {
		return models.Document{}, ErrEmptyContent
	}

	s.mu.Lock()
	id, err := s.generateID()
	if err != nil {
		s.mu.Unlock()
		return models.Document{}, err
	}
	e := s.insert(id, content)
	// Hold the fresh entry's lock across the index unlock and the publish so
	// a racing mutation on the same id cannot reach the hub first.
	e.mu.Lock()
	s.mu.Unlock()

	doc := e.doc
	s.emitContent(models.EventCreated, doc)
	e.mu.Unlock()
	return doc, nil
}

// CreateWithID inserts a document under a caller-supplied id. It fails with
// ErrConflict if the id exists or has been deleted before.
func (s *Store) CreateWithID(fileID, content string) (models.Document, error) {
	id := SanitizeID(fileID)

	s.mu.Lock()
	if _, exists := s.docs[id]; exists {
		s.mu.Unlock()
		return models.Document{}, fmt.Errorf("create %s: %w", id, ErrConflict)
	}
	if _, dead := s.tombstone[id]; dead {
		s.mu.Unlock()
		return models.Document{}, fmt.Errorf("create %s: id retired: %w", id, ErrConflict)
	}
	e := s.insert(id, content)
	e.mu.Lock()
	s.mu.Unlock()

	doc := e.doc
	s.emitContent(models.EventCreated, doc)
	e.mu.Unlock()
	return doc, nil
}

// insert adds the document to the index. Caller holds s.mu.
func (s *Store) insert(id, content string) *entry {
	now := time.Now()
	e := &entry{doc: models.Document{
		ID:        id,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
		Revision:  1,
	}}
	s.docs[id] = e

	metrics.DocumentMutations.WithLabelValues(string(models.EventCreated)).Inc()
	s.logger.Info().Str("file_id", id).Int("bytes", len(content)).Msg("document created")
	return e
}

// Update replaces the document's content. If expectedRevision is non-nil and
// does not match the current revision the update is rejected with
// ErrConflict instead of silently overwriting.
func (s *Store) Update(fileID, content string, expectedRevision *uint64) (models.Document, error) {
	return s.mutate(fileID, expectedRevision, func(old string) string { return content })
}

// Append adds content after the existing body, separated by a blank line.
func (s *Store) Append(fileID, content string, expectedRevision *uint64) (models.Document, error) {
	return s.mutate(fileID, expectedRevision, func(old string) string {
		if old == "" {
			return content
		}
		return old + "\n\n" + content
	})
}

func (s *Store) mutate(fileID string, expectedRevision *uint64, apply func(string) string) (models.Document, error) {
	id := SanitizeID(fileID)

	s.mu.RLock()
	e, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return models.Document{}, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}

	// The event is published while holding the entry lock so that per-id
	// revision order matches hub delivery order. Publish never blocks.
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc.Revision == 0 {
		// Deleted between lookup and lock.
		return models.Document{}, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	if expectedRevision != nil && *expectedRevision != e.doc.Revision {
		return models.Document{}, fmt.Errorf("update %s: expected revision %d, have %d: %w",
			id, *expectedRevision, e.doc.Revision, ErrConflict)
	}

	e.doc.Content = apply(e.doc.Content)
	e.doc.Revision++
	e.doc.UpdatedAt = time.Now()

	metrics.DocumentMutations.WithLabelValues(string(models.EventUpdated)).Inc()
	s.logger.Info().Str("file_id", id).Uint64("revision", e.doc.Revision).Msg("document updated")

	s.emitContent(models.EventUpdated, e.doc)
	return e.doc, nil
}

// Delete removes the document. The id is tombstoned and may not be reused;
// every later operation on it fails with ErrNotFound.
func (s *Store) Delete(fileID string) error {
	id := SanitizeID(fileID)

	s.mu.Lock()
	e, ok := s.docs[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	delete(s.docs, id)
	s.tombstone[id] = struct{}{}
	s.mu.Unlock()

	// Mark the entry dead for mutations that already hold a reference, and
	// publish under the entry lock so the deleted event cannot overtake an
	// in-flight update's event.
	e.mu.Lock()
	doc := e.doc
	e.doc.Revision = 0

	metrics.DocumentMutations.WithLabelValues(string(models.EventDeleted)).Inc()
	s.logger.Info().Str("file_id", id).Msg("document deleted")

	s.emitContent(models.EventDeleted, doc)
	e.mu.Unlock()
	return nil
}

// Get returns a copy of the document.
func (s *Store) Get(fileID string) (models.Document, error) {
	id := SanitizeID(fileID)

	s.mu.RLock()
	e, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return models.Document{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}

	e.mu.Lock()
	doc := e.doc
	e.mu.Unlock()
	if doc.Revision == 0 {
		return models.Document{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return doc, nil
}

// Snapshot returns a point-in-time copy of all documents ordered by creation
// time ascending, ties broken by id.
func (s *Store) Snapshot() []models.Document {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.docs))
	for _, e := range s.docs {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	docs := make([]models.Document, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		doc := e.doc
		e.mu.Unlock()
		if doc.Revision == 0 {
			continue
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})

	return docs
}

// Merged renders the snapshot as one markdown blob for the live view.
func (s *Store) Merged() string {
	docs := s.Snapshot()
	if len(docs) == 0 {
		return FallbackContent
	}

	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = doc.Content
	}
	return strings.Join(parts, ContentSeparator)
}

// Len returns the number of live documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *Store) emitContent(kind models.EventKind, doc models.Document) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(models.Event{
		Topic:     models.TopicContent,
		Kind:      kind,
		FileID:    doc.ID,
		Revision:  doc.Revision,
		Timestamp: time.Now().UnixMilli(),
	})
}

// generateID allocates an unused random File Id. Caller holds s.mu.
func (s *Store) generateID() (string, error) {
	for range 10 {
		buf := make([]byte, 4)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generating file id: %w", err)
		}
		id := hex.EncodeToString(buf) + ".md"
		if _, exists := s.docs[id]; exists {
			continue
		}
		if _, dead := s.tombstone[id]; dead {
			continue
		}
		return id, nil
	}
	return "", errors.New("unable to allocate a unique file id")
}
