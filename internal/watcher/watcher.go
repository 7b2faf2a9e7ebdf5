// Package watcher keeps the index in sync with a live vault. File
// events from fsnotify are debounced per note and folded into
// single-note reindex or delete calls; failures are logged, never
// surfaced, since no caller is waiting on an automatic update.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/solvheim/munin/internal/indexer"
	"github.com/solvheim/munin/internal/notes"
	"github.com/solvheim/munin/internal/store"
)

// Options configures the watcher.
type Options struct {
	// Debounce is the per-note quiet period before re-embedding.
	Debounce time.Duration
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	if o.Debounce == 0 {
		o.Debounce = 2 * time.Second
	}
	return o
}

// Watcher mirrors vault changes into the index.
type Watcher struct {
	root     string
	provider *notes.Provider
	ix       *indexer.Indexer
	idx      *store.Index
	flush    func()

	fsw      *fsnotify.Watcher
	debounce *indexer.Debouncer

	mu    sync.Mutex
	byRel map[string]string // vault-relative path -> note id
}

// New creates a watcher over the vault root. flush is invoked after
// every applied index mutation; callers typically persist the snapshot
// there. It may be nil.
func New(root string, provider *notes.Provider, ix *indexer.Indexer, idx *store.Index, flush func(), opts Options) (*Watcher, error) {
	opts = opts.WithDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:     root,
		provider: provider,
		ix:       ix,
		idx:      idx,
		flush:    flush,
		fsw:      fsw,
		byRel:    make(map[string]string),
	}
	w.debounce = indexer.NewDebouncer(opts.Debounce, w.reembed)
	return w, nil
}

// Run watches until the context is cancelled. Blocking.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	defer w.debounce.Stop()

	w.seedLocations()
	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	slog.Info("watching vault", slog.String("root", w.root))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

// seedLocations rebuilds the path-to-id map from the loaded index so
// deletions of notes indexed in a previous run still resolve.
func (w *Watcher) seedLocations() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, noteID := range w.idx.NoteIDs() {
		chunks := w.idx.GetByNote(noteID)
		if len(chunks) > 0 {
			w.byRel[chunks[0].Metadata.Location] = noteID
		}
	}
}

// addRecursive watches every non-hidden directory under path.
func (w *Watcher) addRecursive(path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != path {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if w.hidden(ev.Name) {
		return
	}

	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(ev.Name); err != nil {
				slog.Warn("failed to watch new directory",
					slog.String("path", ev.Name),
					slog.String("error", err.Error()))
			}
			return
		}
	}

	if !strings.EqualFold(filepath.Ext(ev.Name), ".md") {
		return
	}
	rel := w.rel(ev.Name)

	switch {
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.debounce.Cancel(rel)
		w.remove(rel)
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.debounce.Trigger(rel)
	}
}

// reembed runs after a note's quiet period. A file that vanished in the
// meantime is treated as a delete.
func (w *Watcher) reembed(rel string) {
	path := filepath.Join(w.root, filepath.FromSlash(rel))
	note, err := w.provider.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			w.remove(rel)
			return
		}
		slog.Warn("failed to load changed note",
			slog.String("path", rel),
			slog.String("error", err.Error()))
		return
	}
	if note == nil {
		// Parses but no longer indexable. Stale chunks must go.
		w.remove(rel)
		return
	}

	if err := w.ix.ReindexOne(context.Background(), note); err != nil {
		slog.Warn("failed to reindex changed note",
			slog.String("note", note.Title),
			slog.String("error", err.Error()))
		return
	}
	w.mu.Lock()
	w.byRel[rel] = note.ID
	w.mu.Unlock()
	slog.Info("reindexed note", slog.String("note", note.Title))
	w.doFlush()
}

func (w *Watcher) remove(rel string) {
	w.mu.Lock()
	noteID, ok := w.byRel[rel]
	delete(w.byRel, rel)
	w.mu.Unlock()
	if !ok {
		return
	}
	w.ix.Delete(noteID)
	slog.Info("removed deleted note", slog.String("path", rel))
	w.doFlush()
}

func (w *Watcher) doFlush() {
	if w.flush != nil {
		w.flush()
	}
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

// hidden reports whether any path segment below the root is hidden.
func (w *Watcher) hidden(path string) bool {
	rel := w.rel(path)
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
