package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"musica/internal/logging"
	"musica/internal/queue"
	"musica/internal/services"
)

func (m *Manager) poolLogger(pool *stagePool) *slog.Logger {
	name := string(pool.stage)
	logger := m.logger.With(
		logging.String(logging.FieldComponent, fmt.Sprintf("workflow-%s-runner", name)),
		logging.String(logging.FieldStage, name),
	)
	return logging.ForStage(logger, m.cfg, name)
}

func withJobContext(ctx context.Context, st queue.Stage, worker string, job *queue.Job, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithStage(ctx, string(st))
	ctx = services.WithWorker(ctx, worker)
	if job != nil {
		ctx = services.WithJobID(ctx, job.ID)
		ctx = services.WithFileName(ctx, job.Payload.FileName)
	}
	if requestID != "" {
		ctx = services.WithRequestID(ctx, requestID)
	}
	return ctx
}
