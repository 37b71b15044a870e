// Package dispatch fans a parsed script out to the downstream stages.
package dispatch

import (
	"context"
	"log/slog"

	"musica/internal/logging"
	"musica/internal/queue"
	"musica/internal/services"
	"musica/internal/stage"
)

const stageName = "dispatch"

// Stage pushes one analyze job and one translate job per dispatch job. The
// downstream jobs are not awaited.
type Stage struct {
	targets []*queue.Queue
	logger  *slog.Logger
}

// NewStage builds the dispatch handler over the analyze and translate queues.
func NewStage(analyze, translate *queue.Queue, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stage{
		targets: []*queue.Queue{analyze, translate},
		logger:  logging.NewComponentLogger(logger, "dispatch-stage"),
	}
}

// NewStageForStore wires the handler to the store's shared queue handles.
func NewStageForStore(store *queue.Store, logger *slog.Logger) *Stage {
	return NewStage(store.Queue(queue.StageAnalyze), store.Queue(queue.StageTranslate), logger)
}

// Prepare checks that the job carries a file reference.
func (s *Stage) Prepare(_ context.Context, job *queue.Job) error {
	if job == nil {
		return services.Wrap(services.ErrValidation, stageName, "validate job", "job is nil", nil)
	}
	if job.Payload.FilePath == "" || job.Payload.FileName == "" {
		return services.Wrap(services.ErrValidation, stageName, "validate job", "file_path and file_name are required", nil)
	}
	return nil
}

// Execute enqueues the downstream jobs for the same file.
func (s *Stage) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, s.logger)
	for _, target := range s.targets {
		next, err := target.Push(ctx, job.Payload)
		if err != nil {
			return services.Wrap(services.ErrQueue, stageName, "enqueue "+string(target.Stage()), job.Payload.FileName, err)
		}
		logger.Debug("downstream job enqueued",
			logging.String("queue", target.Name()),
			logging.Int64("downstream_job", next.ID),
		)
	}
	return nil
}

// HealthCheck reports whether both downstream queues are wired.
func (s *Stage) HealthCheck(context.Context) stage.Health {
	for _, target := range s.targets {
		if target == nil {
			return stage.Unhealthy(stageName, "downstream queue not configured")
		}
	}
	return stage.Healthy(stageName)
}
