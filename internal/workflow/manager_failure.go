package workflow

import (
	"context"
	"log/slog"
	"time"

	"musica/internal/logging"
	"musica/internal/queue"
	"musica/internal/services"
)

func (m *Manager) handleStageFailure(ctx context.Context, pool *stagePool, logger *slog.Logger, job *queue.Job, stageErr error, elapsed time.Duration) {
	details := services.Details(stageErr)
	message := queue.FailureMessage(stageErr)

	attrs := []logging.Attr{
		logging.String("resolved_status", string(queue.StatusFailed)),
		logging.String("error_message", message),
		logging.Alert("stage_failure"),
		logging.String(logging.FieldErrorKind, string(details.Kind)),
		logging.String("error_operation", details.Operation),
		logging.Duration("stage_duration", elapsed),
	}
	if details.Cause != nil {
		attrs = append(attrs, logging.Error(details.Cause))
	} else {
		attrs = append(attrs, logging.Error(stageErr))
	}
	attrs = append(attrs, logging.String(logging.FieldEventType, "stage_failure"))
	logger.Error("stage failed", logging.Args(attrs...)...)

	m.metrics.JobFailed(string(pool.stage), string(details.Kind), elapsed)
	m.setLastError(stageErr)
	m.setLastJob(job)

	if err := pool.queue.Failed(ctx, job, stageErr); err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
	}
}
