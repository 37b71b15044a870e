package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"musica/internal/logging"
	"musica/internal/queue"
	"musica/internal/stage"
)

// processJob runs one claimed job to completion. Shutdown does not interrupt
// a handler already running: it executes on a context detached from ctx's
// cancellation.
func (m *Manager) processJob(ctx context.Context, pool *stagePool, poolLogger *slog.Logger, worker string, job *queue.Job) {
	jobCtx := withJobContext(context.WithoutCancel(ctx), pool.stage, worker, job, uuid.NewString())
	logger := logging.WithContext(jobCtx, poolLogger)
	stageName := string(pool.stage)

	start := time.Now()
	m.metrics.JobStarted(stageName)
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("file_path", job.Payload.FilePath),
		logging.Int("attempt", job.Attempts),
	)

	if err := pool.handler.Prepare(jobCtx, job); err != nil {
		m.handleStageFailure(jobCtx, pool, logger, job, err, time.Since(start))
		return
	}

	if err := m.executeWithHeartbeat(jobCtx, pool.handler, job); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("stage interrupted by shutdown")
			m.metrics.JobFailed(stageName, "canceled", time.Since(start))
			return
		}
		m.handleStageFailure(jobCtx, pool, logger, job, err, time.Since(start))
		return
	}

	if err := pool.queue.Done(jobCtx, job); err != nil {
		logger.Error("failed to remove completed job", logging.Error(err))
		m.setLastError(err)
		m.metrics.JobFailed(stageName, "queue", time.Since(start))
		return
	}
	elapsed := time.Since(start)
	m.metrics.JobCompleted(stageName, elapsed)
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", elapsed),
	)
	m.setLastJob(job)
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, job *queue.Job) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, job.ID)

	execErr := handler.Execute(ctx, job)
	hbCancel()
	hbWG.Wait()
	return execErr
}
