package workflow

import (
	"log/slog"

	"musica/internal/queue"
	"musica/internal/stage"
)

// StageSet assigns handlers to the pipeline stages. Leave a field nil to
// start no workers for that stage.
type StageSet struct {
	Parse     stage.Handler
	Dispatch  stage.Handler
	Analyze   stage.Handler
	Translate stage.Handler
	Assemble  stage.Handler
}

func (s StageSet) handlerFor(st queue.Stage) stage.Handler {
	switch st {
	case queue.StageParse:
		return s.Parse
	case queue.StageDispatch:
		return s.Dispatch
	case queue.StageAnalyze:
		return s.Analyze
	case queue.StageTranslate:
		return s.Translate
	case queue.StageAssemble:
		return s.Assemble
	default:
		return nil
	}
}

type stagePool struct {
	stage   queue.Stage
	handler stage.Handler
	workers int
	queue   *queue.Queue
	logger  *slog.Logger
}
