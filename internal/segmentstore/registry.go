package segmentstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"musica/internal/config"
	"musica/internal/logging"
	"musica/internal/services"
	"musica/internal/textutil"
)

// Registry keeps one open Store per script name for the life of the process.
type Registry struct {
	mode   string
	dir    string
	logger *slog.Logger

	mu     sync.RWMutex
	stores map[string]*Store
	closed bool
}

// NewRegistry creates a registry. dir is only used in disk mode.
func NewRegistry(mode, dir string, logger *slog.Logger) *Registry {
	if mode == "" {
		mode = config.SegmentModeMemory
	}
	return &Registry{
		mode:   mode,
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "segmentstore"),
		stores: make(map[string]*Store),
	}
}

// NewRegistryFromConfig creates a registry using the configured segment mode.
func NewRegistryFromConfig(cfg *config.Config, logger *slog.Logger) *Registry {
	return NewRegistry(cfg.Segments.Mode, cfg.SegmentDir(), logger)
}

// Mode returns the backing mode, "memory" or "disk".
func (r *Registry) Mode() string {
	return r.mode
}

// OpenOrCreate returns the store for name, opening it and ensuring its schema
// on first use. Repeated calls return the same store.
func (r *Registry) OpenOrCreate(ctx context.Context, name string) (*Store, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, services.Wrap(services.ErrValidation, "", "open store", "script name is empty", nil)
	}

	r.mu.RLock()
	store, ok := r.stores[name]
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, services.Wrap(services.ErrStore, "", "open store", "registry closed", nil)
	}
	if ok {
		return store, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, services.Wrap(services.ErrStore, "", "open store", "registry closed", nil)
	}
	if store, ok := r.stores[name]; ok {
		return store, nil
	}

	store, err := r.open(name)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	r.stores[name] = store
	r.logger.Debug("segment store opened",
		logging.String(logging.FieldFileName, name),
		logging.String("mode", r.mode),
	)
	return store, nil
}

func (r *Registry) open(name string) (*Store, error) {
	switch r.mode {
	case config.SegmentModeMemory:
		return openStore(name, textutil.MemoryDSN(name), true)
	case config.SegmentModeDisk:
		if err := os.MkdirAll(r.dir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrStore, "", "open store", "create segment directory", err)
		}
		return openStore(name, filepath.Join(r.dir, textutil.StoreFileName(name)), false)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "", "open store", fmt.Sprintf("unsupported segment mode %q", r.mode), nil)
	}
}

// Get returns an already opened store.
func (r *Registry) Get(name string) (*Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	store, ok := r.stores[name]
	return store, ok
}

// Names returns the names of all open stores, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every store. Memory stores lose their data.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	var errs []error
	for name, store := range r.stores {
		if err := store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	r.stores = nil
	return errors.Join(errs...)
}

// OpenExisting opens the on-disk store for name without creating it.
func OpenExisting(ctx context.Context, dir, name string) (*Store, error) {
	path := filepath.Join(dir, textutil.StoreFileName(name))
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrStore, "", "open store", fmt.Sprintf("no segment store for %q at %s", name, path), err)
		}
		return nil, services.Wrap(services.ErrStore, "", "open store", path, err)
	}
	store, err := openStore(name, path, false)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
