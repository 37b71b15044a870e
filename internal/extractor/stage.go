package extractor

import (
	"context"
	"log/slog"

	"musica/internal/logging"
	"musica/internal/queue"
	"musica/internal/services"
	"musica/internal/stage"
)

// Stage is the parse-stage handler: it extracts the job's script and then
// hands the same file to the dispatch queue.
type Stage struct {
	extractor *Extractor
	dispatch  *queue.Queue
	logger    *slog.Logger
}

// NewStage builds the parse handler pushing onto dispatch.
func NewStage(extractor *Extractor, dispatch *queue.Queue, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stage{
		extractor: extractor,
		dispatch:  dispatch,
		logger:    logging.NewComponentLogger(logger, "parse-stage"),
	}
}

// Prepare validates the job payload.
func (s *Stage) Prepare(_ context.Context, job *queue.Job) error {
	return stage.ValidateFileRef(stageName, job)
}

// Execute extracts the script and, only on success, enqueues one dispatch job.
func (s *Stage) Execute(ctx context.Context, job *queue.Job) error {
	ref := job.Payload
	if err := s.extractor.ParseFile(ctx, ref.FilePath, ref.FileName); err != nil {
		return err
	}
	next, err := s.dispatch.Push(ctx, ref)
	if err != nil {
		return services.Wrap(services.ErrQueue, stageName, "enqueue dispatch", ref.FileName, err)
	}
	logging.WithContext(ctx, s.logger).Debug("dispatch job enqueued",
		logging.Int64("dispatch_job", next.ID),
		logging.String("queue", s.dispatch.Name()),
	)
	return nil
}

// HealthCheck reports whether the handler has its collaborators.
func (s *Stage) HealthCheck(context.Context) stage.Health {
	switch {
	case s.extractor == nil:
		return stage.Unhealthy(stageName, "extractor not configured")
	case s.extractor.registry == nil:
		return stage.Unhealthy(stageName, "segment store registry not configured")
	case s.dispatch == nil:
		return stage.Unhealthy(stageName, "dispatch queue not configured")
	}
	return stage.Healthy(stageName)
}
