// Package watcher mirrors a directory of markdown files into the content
// store. Raw filesystem events are debounced per path and mapped onto store
// operations with idempotent rules: a write for an unknown id becomes a
// create, duplicates and out-of-order events are absorbed, never surfaced.
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/asynkron/liveview/internal/metrics"
	"github.com/asynkron/liveview/internal/store"
)

const debounceDelay = 50 * time.Millisecond

// Watcher feeds filesystem changes into the store.
type Watcher struct {
	logger zerolog.Logger
	store  *store.Store
	dir    string

	fsw  *fsnotify.Watcher
	done chan struct{}

	mu       sync.Mutex
	pending  map[string]*time.Timer
	stopped  bool
	stopOnce sync.Once
}

// New creates a watcher for dir. The directory is created if missing and its
// existing markdown files are loaded into the store before watching starts.
func New(dir string, st *store.Store, logger zerolog.Logger) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	w := &Watcher{
		logger:  logger.With().Str("component", "watcher").Str("dir", dir).Logger(),
		store:   st,
		dir:     dir,
		done:    make(chan struct{}),
		pending: make(map[string]*time.Timer),
	}

	if err := w.loadExisting(); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	w.fsw = fsw

	go w.run()
	w.logger.Info().Msg("watching directory")
	return w, nil
}

// Stop shuts the watcher down and cancels pending debounce timers.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		for path, t := range w.pending {
			t.Stop()
			delete(w.pending, path)
		}
		w.mu.Unlock()

		_ = w.fsw.Close()
		<-w.done
		w.logger.Info().Msg("watcher stopped")
	})
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	name := filepath.Base(ev.Name)
	if !isMarkdown(name) {
		return
	}

	switch {
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		w.removeFile(name)
	case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write):
		// Editors fire bursts of writes; coalesce them per path.
		w.debounce(ev.Name)
	}
}

func (w *Watcher) debounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		stopped := w.stopped
		w.mu.Unlock()
		if !stopped {
			w.syncFile(path)
		}
	})
}

// syncFile upserts one file's content into the store.
func (w *Watcher) syncFile(path string) {
	name := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		// Deleted or renamed between the event and the read.
		if errors.Is(err, os.ErrNotExist) {
			w.removeFile(name)
			return
		}
		w.logger.Warn().Err(err).Str("file", name).Msg("read failed")
		return
	}

	if doc, err := w.store.Get(name); err == nil {
		if doc.Content == string(data) {
			return // duplicate event, nothing changed
		}
		if _, err := w.store.Update(name, string(data), nil); err != nil {
			w.logger.Debug().Err(err).Str("file", name).Msg("update absorbed")
			return
		}
		metrics.WatcherEvents.WithLabelValues("modified").Inc()
		return
	}

	// Unknown id: treat the write as a create.
	if _, err := w.store.CreateWithID(name, string(data)); err != nil {
		// Tombstoned or concurrently created ids are absorbed; removal
		// stays terminal and duplicate creates are harmless.
		w.logger.Debug().Err(err).Str("file", name).Msg("create absorbed")
		return
	}
	metrics.WatcherEvents.WithLabelValues("created").Inc()
}

func (w *Watcher) removeFile(name string) {
	if err := w.store.Delete(name); err != nil {
		w.logger.Debug().Err(err).Str("file", name).Msg("delete absorbed")
		return
	}
	metrics.WatcherEvents.WithLabelValues("deleted").Inc()
}

// loadExisting seeds the store from files already present in the directory.
func (w *Watcher) loadExisting() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !isMarkdown(e.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(w.dir, e.Name()))
		if err != nil {
			w.logger.Warn().Err(err).Str("file", e.Name()).Msg("skipping unreadable file")
			continue
		}
		if _, err := w.store.CreateWithID(e.Name(), string(data)); err != nil {
			w.logger.Debug().Err(err).Str("file", e.Name()).Msg("seed absorbed")
		}
	}
	return nil
}

// isMarkdown reports whether name is a visible markdown file.
func isMarkdown(name string) bool {
	return strings.HasSuffix(name, ".md") && !strings.HasPrefix(name, ".")
}
