package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"musica/internal/config"
	"musica/internal/logging"
	"musica/internal/metrics"
	"musica/internal/queue"
	"musica/internal/scan"
	"musica/internal/segmentstore"
	"musica/internal/workflow"
)

// Daemon coordinates the pipeline workers and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	registry *segmentstore.Registry
	workflow *workflow.Manager
	enqueuer *scan.Enqueuer
	server   *metrics.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents runner information.
type Status struct {
	Running      bool
	PID          int
	Workflow     workflow.StatusSummary
	QueueDBPath  string
	LockFilePath string
	SegmentMode  string
	Scripts      []string
}

// New constructs a daemon with initialized dependencies. m may be nil; the
// HTTP endpoint is only served when cfg.Metrics.Listen is set.
func New(cfg *config.Config, store *queue.Store, registry *segmentstore.Registry, wf *workflow.Manager, logger *slog.Logger, m *metrics.Metrics) (*Daemon, error) {
	if cfg == nil || store == nil || registry == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, registry, and workflow manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "daemon")

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		registry: registry,
		workflow: wf,
		enqueuer: scan.NewEnqueuer(registry, store, logger),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	if srv := metrics.NewServer(cfg.Metrics.Listen, m, logger); srv != nil {
		api := newAPIHandler(d)
		srv.Handle("/api/status", api.status())
		srv.Handle("/api/queue", api.queue())
		d.server = srv
	}
	return d, nil
}

// Start acquires the lock, launches the workflow manager and the HTTP endpoint.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another musica runner is already using this data directory")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		d.release()
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := d.server.Start(d.ctx); err != nil {
		d.workflow.Stop()
		d.release()
		return err
	}

	d.running.Store(true)
	d.logger.Info("musica runner started",
		logging.String("lock", d.lockPath),
		logging.String("queue_db", d.store.Path()),
		logging.String("segment_mode", d.registry.Mode()),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

func (d *Daemon) release() {
	if d.cancel != nil {
		d.cancel()
	}
	d.ctx = nil
	d.cancel = nil
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release runner lock", logging.Error(err))
	}
}

// Stop waits for in-flight jobs, stops the endpoint and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.workflow.Stop()
	d.server.Stop()
	d.release()
	d.running.Store(false)
	d.logger.Info("musica runner stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops the daemon and closes the segment stores and queue database.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	if d.registry != nil {
		errs = append(errs, d.registry.Close())
	}
	if d.store != nil {
		errs = append(errs, d.store.Close())
	}
	return errors.Join(errs...)
}

// EnqueueDir enumerates root and creates one parse job per matching file.
// An empty root falls back to the configured input directory.
func (d *Daemon) EnqueueDir(ctx context.Context, root string) (int, error) {
	scanner, err := d.scanner(root)
	if err != nil {
		return 0, err
	}
	refs, err := scanner.Files(ctx)
	if err != nil {
		return 0, err
	}
	return d.enqueuer.EnqueueAll(ctx, refs)
}

// Watch enqueues files created or modified under root until ctx ends.
func (d *Daemon) Watch(ctx context.Context, root string) error {
	scanner, err := d.scanner(root)
	if err != nil {
		return err
	}
	debounce := time.Duration(d.cfg.Input.WatchDebounceMillis) * time.Millisecond
	watcher, err := scan.NewWatcher(scanner, debounce, d.logger)
	if err != nil {
		return err
	}
	defer watcher.Close()
	return watcher.Run(ctx, func(ctx context.Context, ref queue.FileRef) error {
		_, err := d.enqueuer.Enqueue(ctx, ref)
		return err
	})
}

// WaitIdle blocks until no parse or dispatch job is pending or running.
func (d *Daemon) WaitIdle(ctx context.Context) error {
	return d.workflow.Drain(ctx, queue.StageParse, queue.StageDispatch)
}

// Addr reports the HTTP endpoint address, or "" when disabled.
func (d *Daemon) Addr() string {
	return d.server.Addr()
}

// Status reports the current runner state.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Workflow:     d.workflow.Status(ctx),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
		SegmentMode:  d.registry.Mode(),
		Scripts:      d.registry.Names(),
	}
}

func (d *Daemon) scanner(root string) (*scan.Scanner, error) {
	if strings.TrimSpace(root) == "" {
		root = d.cfg.Paths.InputDir
	}
	expanded, err := config.ExpandPath(root)
	if err != nil {
		return nil, err
	}
	return scan.NewFromConfig(d.cfg, expanded)
}
