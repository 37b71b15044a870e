package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"musica/internal/logging"
	"musica/internal/queue"
)

// Start resets jobs orphaned by a previous process and launches every
// configured pool. It returns once the workers are running.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	pools := append([]*stagePool(nil), m.pools...)
	if len(pools) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}

	local := make([]queue.Stage, 0, len(pools))
	for _, pool := range pools {
		local = append(local, pool.stage)
	}
	reset, err := m.store.ResetStuckProcessing(ctx, local...)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("reset stuck jobs: %w", err)
	}
	if reset > 0 {
		m.logger.Info("requeued jobs left running by a previous process",
			logging.Int64("count", reset),
			logging.String(logging.FieldEventType, "jobs_reset"),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)
	m.cancel = cancel
	m.group = group
	m.running = true
	for _, pool := range pools {
		pool.logger = m.poolLogger(pool)
	}
	m.mu.Unlock()

	for _, pool := range pools {
		pool.logger.Info("stage workers started",
			logging.Int("workers", pool.workers),
			logging.String("queue", pool.queue.Name()),
		)
		for slot := 1; slot <= pool.workers; slot++ {
			worker := m.workerID(pool, slot)
			group.Go(func() error {
				return m.runWorker(groupCtx, pool, worker)
			})
		}
	}
	group.Go(func() error {
		return m.runReclaimer(groupCtx, local)
	})
	return nil
}

// Stop cancels the worker loops and waits for in-flight jobs to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	group := m.group
	m.running = false
	m.cancel = nil
	m.group = nil
	m.mu.Unlock()

	cancel()
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Error("workflow stopped with error", logging.Error(err))
	}
}

// Drain blocks until the given stages hold no pending or running jobs, or
// ctx ends. Failed jobs do not count as outstanding.
func (m *Manager) Drain(ctx context.Context, stages ...queue.Stage) error {
	interval := m.store.PollInterval()
	if interval <= 0 || interval > time.Second {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		outstanding, err := m.store.Outstanding(ctx, stages...)
		if err != nil {
			return err
		}
		if outstanding == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (m *Manager) workerID(pool *stagePool, slot int) string {
	return fmt.Sprintf("%s/%s-%d", m.instance, pool.stage, slot)
}

func (m *Manager) runWorker(ctx context.Context, pool *stagePool, worker string) error {
	logger := pool.logger.With(logging.String(logging.FieldWorker, worker))
	for {
		if ctx.Err() != nil {
			return nil
		}
		job, err := pool.queue.Next(ctx, worker)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			m.handleNextJobError(ctx, logger, err)
			continue
		}
		if job == nil {
			continue
		}
		m.processJob(ctx, pool, logger, worker, job)
	}
}

func (m *Manager) runReclaimer(ctx context.Context, stages []queue.Stage) error {
	interval := m.heartbeat.heartbeatInterval
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := m.heartbeat.ReclaimStaleJobs(ctx, stages...); err != nil && ctx.Err() == nil {
			m.logger.Warn("reclaim stale jobs failed; stuck jobs may remain",
				logging.Error(err),
				logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
		}
		m.publishQueueDepth(ctx)
	}
}

func (m *Manager) handleNextJobError(ctx context.Context, logger *slog.Logger, err error) {
	m.setLastError(err)
	logger.Error("failed to claim next job",
		logging.Error(err),
		logging.String(logging.FieldEventType, "queue_fetch_failed"),
		logging.String(logging.FieldErrorHint, "check queue database access"),
	)
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(m.cfg.Pipeline.ErrorRetryInterval) * time.Second):
	}
}
