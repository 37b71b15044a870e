package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"musica/internal/config"
	"musica/internal/daemon"
	"musica/internal/logging"
	"musica/internal/metrics"
	"musica/internal/preflight"
	"musica/internal/queue"
	"musica/internal/segmentstore"
	"musica/internal/services"
	"musica/internal/workflow"
)

// Options configures a runner invocation.
type Options struct {
	// InputDir overrides cfg.Paths.InputDir when set.
	InputDir string
	// Watch keeps running after the initial scan and enqueues new files.
	Watch bool
	// LogLevel overrides cfg.Logging.Level when set.
	LogLevel string
	// Logger replaces the configured logger; tests pass logging.NewNop().
	Logger *slog.Logger
}

// Result summarizes a finished run.
type Result struct {
	Enqueued int
	Stats    map[queue.Stage]queue.StageStats
}

// Run enumerates the input tree, processes every parse and dispatch job and
// returns when both queues are drained. In watch mode it runs until the
// context is cancelled or the process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) (Result, error) {
	var result Result
	if cfg == nil {
		return result, services.Errorf(services.ErrConfiguration, "config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}
	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = logging.NewFromConfig(cfg)
		if err != nil {
			return result, fmt.Errorf("init logger: %w", err)
		}
	}
	runID := uuid.NewString()
	logger = logger.With(logging.String(logging.FieldCorrelationID, runID))
	logConfigSnapshot(logger, cfg, opts)

	if err := cfg.EnsureDirectories(); err != nil {
		return result, err
	}
	checks := preflight.RunAll(signalCtx, cfg, opts.InputDir)
	for _, check := range checks {
		if !check.Passed {
			logger.Error("preflight check failed",
				logging.String("check", check.Name),
				logging.String("detail", check.Detail),
				logging.String(logging.FieldEventType, "preflight_failed"),
			)
		}
	}
	if err := preflight.Err(checks); err != nil {
		return result, err
	}
	pidPath := filepath.Join(cfg.Paths.LogDir, "musica.pid")
	if err := writePIDFile(pidPath); err != nil {
		return result, fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	m := metrics.New()
	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return result, err
	}
	store.OnEnqueue(func(st queue.Stage) {
		m.JobEnqueued(string(st))
	})
	registry := segmentstore.NewRegistryFromConfig(cfg, logger)

	mgr := workflow.NewManager(cfg, store, logger, workflow.WithMetrics(m))
	mgr.ConfigureStages(daemon.PipelineStages(cfg, store, registry, logger, m))

	d, err := daemon.New(cfg, store, registry, mgr, logger, m)
	if err != nil {
		_ = registry.Close()
		_ = store.Close()
		return result, fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("runner start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check for another runner and queue database access"),
		)
		return result, err
	}

	result.Enqueued, err = d.EnqueueDir(signalCtx, opts.InputDir)
	if err != nil {
		return result, err
	}

	if opts.Watch || cfg.Input.Watch {
		err = d.Watch(signalCtx, opts.InputDir)
	} else {
		err = d.WaitIdle(signalCtx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return result, err
	}
	if signalCtx.Err() != nil {
		logger.Info("musica runner shutting down")
	}

	// Let in-flight jobs land before reading final counts.
	d.Stop()
	stats, err := store.Stats(context.Background())
	if err != nil {
		return result, err
	}
	result.Stats = stats
	logSummary(logger, result)
	return result, nil
}

func logSummary(logger *slog.Logger, result Result) {
	attrs := []logging.Attr{
		logging.Int("enqueued", result.Enqueued),
		logging.String(logging.FieldEventType, "run_summary"),
	}
	for _, st := range queue.Stages() {
		s := result.Stats[st]
		if s.Total() == 0 {
			continue
		}
		attrs = append(attrs, logging.Group(string(st),
			logging.Int("pending", s.Pending),
			logging.Int("running", s.Running),
			logging.Int("failed", s.Failed),
		))
	}
	level := slog.LevelInfo
	if result.Stats[queue.StageParse].Failed > 0 || result.Stats[queue.StageDispatch].Failed > 0 {
		level = slog.LevelWarn
		attrs = append(attrs, logging.String(logging.FieldErrorHint, "inspect with 'musica queue list --status failed'"))
	}
	logger.Log(context.Background(), level, "run complete", logging.Args(attrs...)...)
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config, opts Options) {
	input := cfg.Paths.InputDir
	if strings.TrimSpace(opts.InputDir) != "" {
		input = opts.InputDir
	}
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("input_dir", input),
		logging.String("data_dir", cfg.Paths.DataDir),
		logging.String("encoding", cfg.Input.Encoding),
		logging.String("segment_mode", cfg.Segments.Mode),
		logging.Int("parse_workers", cfg.Pipeline.ParseWorkers),
		logging.Int("dispatch_workers", cfg.Pipeline.DispatchWorkers),
		logging.Bool("watch", opts.Watch || cfg.Input.Watch),
		logging.String("metrics_listen", cfg.Metrics.Listen),
	)
}
