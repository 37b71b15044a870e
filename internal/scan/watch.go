package scan

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"musica/internal/logging"
	"musica/internal/queue"
)

const defaultDebounce = 500 * time.Millisecond

// HandlerFunc receives each file that settled after a create or write.
type HandlerFunc func(ctx context.Context, ref queue.FileRef) error

// Watcher reports files created or modified under the scanner root.
type Watcher struct {
	scanner  *Scanner
	debounce time.Duration
	logger   *slog.Logger

	watcher *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   map[string]time.Time
}

// NewWatcher starts watching every directory below the scanner root.
func NewWatcher(scanner *Scanner, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		scanner:  scanner,
		debounce: debounce,
		logger:   logging.NewComponentLogger(logger, "scan-watcher"),
		watcher:  fsw,
		pending:  make(map[string]time.Time),
	}
	if err := w.addWatchesRecursive(scanner.Root()); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run delivers settled files to handle until ctx ends. Handler errors are
// logged and do not stop the watch.
func (w *Watcher) Run(ctx context.Context, handle HandlerFunc) error {
	tick := w.debounce / 2
	if tick <= 0 {
		tick = w.debounce
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	w.logger.Info("watching input directory",
		logging.String("root", w.scanner.Root()),
		logging.Duration("debounce", w.debounce),
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", logging.Error(err))
		case now := <-ticker.C:
			w.flushSettled(ctx, now, handle)
		}
	}
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			w.logger.Warn("failed to watch directory", logging.String("path", p), logging.Error(err))
			return nil
		}
		w.logger.Debug("watching directory", logging.String("path", p))
		return nil
	})
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := w.addWatchesRecursive(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", logging.String("path", event.Name), logging.Error(err))
			}
		}
		return
	}
	rel, ok := w.scanner.relative(event.Name)
	if !ok || !w.scanner.Matches(rel) {
		return
	}
	w.pendingMu.Lock()
	w.pending[event.Name] = time.Now()
	w.pendingMu.Unlock()
}

func (w *Watcher) flushSettled(ctx context.Context, now time.Time, handle HandlerFunc) {
	w.pendingMu.Lock()
	var ready []string
	for p, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			ready = append(ready, p)
			delete(w.pending, p)
		}
	}
	w.pendingMu.Unlock()

	for _, p := range ready {
		if ctx.Err() != nil {
			return
		}
		ref := w.scanner.ref(p)
		if err := handle(ctx, ref); err != nil {
			w.logger.Error("failed to enqueue changed file",
				logging.String(logging.FieldFileName, ref.FileName),
				logging.Error(err),
				logging.String(logging.FieldEventType, "watch_enqueue_failed"),
			)
			continue
		}
		w.logger.Info("changed file enqueued", logging.String(logging.FieldFileName, ref.FileName))
	}
}
