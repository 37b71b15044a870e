package workflow

import (
	"context"

	"musica/internal/logging"
	"musica/internal/queue"
	"musica/internal/stage"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running     bool
	LastError   string
	LastJob     *queue.Job
	Workers     map[queue.Stage]int
	QueueStats  map[queue.Stage]queue.StageStats
	StageHealth map[string]stage.Health
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastJob := m.lastJob
	pools := append([]*stagePool(nil), m.pools...)
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}

	workers := make(map[queue.Stage]int, len(pools))
	health := make(map[string]stage.Health, len(pools))
	for _, pool := range pools {
		workers[pool.stage] = pool.workers
		health[string(pool.stage)] = pool.handler.HealthCheck(ctx)
	}

	summary := StatusSummary{Running: running, Workers: workers, QueueStats: stats, StageHealth: health}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastJob != nil {
		copy := *lastJob
		summary.LastJob = &copy
	}
	return summary
}

func (m *Manager) publishQueueDepth(ctx context.Context) {
	if m.metrics == nil {
		return
	}
	stats, err := m.store.Stats(ctx)
	if err != nil {
		return
	}
	for st, s := range stats {
		m.metrics.SetQueueDepth(string(st), string(queue.StatusPending), s.Pending)
		m.metrics.SetQueueDepth(string(st), string(queue.StatusRunning), s.Running)
		m.metrics.SetQueueDepth(string(st), string(queue.StatusFailed), s.Failed)
	}
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(job *queue.Job) {
	m.mu.Lock()
	if job != nil {
		copy := *job
		m.lastJob = &copy
	} else {
		m.lastJob = nil
	}
	m.mu.Unlock()
}
