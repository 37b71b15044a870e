package workflow

import (
	"musica/internal/logging"
	"musica/internal/queue"
)

// ConfigureStages registers the handlers and sizes each pool from the
// pipeline configuration. Stages with a nil handler or a non-positive worker
// count are skipped.
func (m *Manager) ConfigureStages(set StageSet) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pools = m.pools[:0]
	for _, st := range queue.Stages() {
		handler := set.handlerFor(st)
		if handler == nil {
			continue
		}
		workers := m.workerCount(st)
		if workers <= 0 {
			m.logger.Debug("stage has a handler but no workers", logging.String(logging.FieldStage, string(st)))
			continue
		}
		m.pools = append(m.pools, &stagePool{
			stage:   st,
			handler: handler,
			workers: workers,
			queue:   m.store.Queue(st),
		})
	}
}

func (m *Manager) workerCount(st queue.Stage) int {
	p := m.cfg.Pipeline
	switch st {
	case queue.StageParse:
		return p.ParseWorkers
	case queue.StageDispatch:
		return p.DispatchWorkers
	case queue.StageAnalyze:
		return p.AnalyzeWorkers
	case queue.StageTranslate:
		return p.TranslateWorkers
	case queue.StageAssemble:
		return p.AssembleWorkers
	default:
		return 0
	}
}
