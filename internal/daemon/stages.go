package daemon

import (
	"log/slog"

	"musica/internal/config"
	"musica/internal/dispatch"
	"musica/internal/extractor"
	"musica/internal/metrics"
	"musica/internal/queue"
	"musica/internal/segmentstore"
	"musica/internal/workflow"
)

// PipelineStages builds the handlers this process runs. Analyze, translate
// and assemble are consumed by external workers and stay nil.
func PipelineStages(cfg *config.Config, store *queue.Store, registry *segmentstore.Registry, logger *slog.Logger, m *metrics.Metrics) workflow.StageSet {
	ext := extractor.NewFromConfig(cfg, registry, logger, m)
	return workflow.StageSet{
		Parse:    extractor.NewStage(ext, store.Queue(queue.StageDispatch), logger),
		Dispatch: dispatch.NewStageForStore(store, logger),
	}
}
