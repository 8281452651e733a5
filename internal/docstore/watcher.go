package docstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceWindow = 500 * time.Millisecond

// Watcher reports the subdomains of documents modified on disk, so edits
// made outside the upload path (an operator editing the file directly)
// re-enter the enrichment pipeline. Events for the same document within the
// debounce window collapse into one.
type Watcher struct {
	fsw      *fsnotify.Watcher
	events   chan string
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// Watch starts monitoring the store's data directory. The returned channel
// closes when ctx is cancelled.
func (s *Store) Watch(ctx context.Context) (<-chan string, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(s.root); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		events:   make(chan string, 16),
		debounce: debounceWindow,
		pending:  make(map[string]*time.Timer),
	}
	go w.loop(ctx)
	return w.events, nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			sub := SubdomainFromPath(event.Name)
			if sub == "" {
				continue
			}
			w.schedule(ctx, sub)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Error("document watcher error", "error", err)
		}
	}
}

func (w *Watcher) schedule(ctx context.Context, sub string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[sub]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[sub] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, sub)
		w.mu.Unlock()

		select {
		case w.events <- sub:
		case <-ctx.Done():
		}
	})
}
