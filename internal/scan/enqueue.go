package scan

import (
	"context"
	"log/slog"

	"musica/internal/logging"
	"musica/internal/queue"
	"musica/internal/segmentstore"
)

// Enqueuer opens the segment store for a file and pushes its parse job.
type Enqueuer struct {
	registry *segmentstore.Registry
	parse    *queue.Queue
	logger   *slog.Logger
}

// NewEnqueuer builds an Enqueuer pushing onto the store's parse queue.
func NewEnqueuer(registry *segmentstore.Registry, store *queue.Store, logger *slog.Logger) *Enqueuer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Enqueuer{
		registry: registry,
		parse:    store.Queue(queue.StageParse),
		logger:   logging.NewComponentLogger(logger, "scan"),
	}
}

// Enqueue creates the parse job for one file.
func (e *Enqueuer) Enqueue(ctx context.Context, ref queue.FileRef) (*queue.Job, error) {
	if _, err := e.registry.OpenOrCreate(ctx, ref.FileName); err != nil {
		return nil, err
	}
	job, err := e.parse.Push(ctx, ref)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("parse job enqueued",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldFileName, ref.FileName),
		logging.String("file_path", ref.FilePath),
	)
	return job, nil
}

// EnqueueAll pushes a parse job per file and stops at the first error. It
// returns the number of jobs created.
func (e *Enqueuer) EnqueueAll(ctx context.Context, refs []queue.FileRef) (int, error) {
	count := 0
	for _, ref := range refs {
		if _, err := e.Enqueue(ctx, ref); err != nil {
			return count, err
		}
		count++
	}
	e.logger.Info("input files enqueued",
		logging.Int("count", count),
		logging.String(logging.FieldEventType, "scan_complete"),
	)
	return count, nil
}
