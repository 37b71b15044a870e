package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"musica/internal/config"
	"musica/internal/logging"
	"musica/internal/metrics"
	"musica/internal/queue"
)

// Manager coordinates queue processing using registered stage handlers.
type Manager struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	metrics  *metrics.Metrics
	instance string

	heartbeat *HeartbeatMonitor

	pools []*stagePool

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	group   *errgroup.Group
	lastErr error
	lastJob *queue.Job
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithMetrics records job outcomes on m.
func WithMetrics(m *metrics.Metrics) ManagerOption {
	return func(mgr *Manager) {
		mgr.metrics = m
	}
}

// NewManager constructs a new workflow manager.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	interval := time.Duration(cfg.Pipeline.HeartbeatInterval) * time.Second
	timeout := time.Duration(cfg.Pipeline.HeartbeatTimeout) * time.Second
	base := logging.NewComponentLogger(logger, "workflow-manager")
	m := &Manager{
		cfg:       cfg,
		store:     store,
		logger:    base,
		instance:  uuid.NewString()[:8],
		heartbeat: NewHeartbeatMonitor(store, base, interval, timeout),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}
