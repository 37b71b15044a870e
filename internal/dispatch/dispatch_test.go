package dispatch_test

import (
	"context"
	"errors"
	"testing"

	"musica/internal/dispatch"
	"musica/internal/logging"
	"musica/internal/queue"
	"musica/internal/services"
	"musica/internal/testsupport"
)

func TestExecutePushesOneAnalyzeAndOneTranslate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	handler := dispatch.NewStageForStore(store, logging.NewNop())
	ctx := context.Background()

	job := testsupport.Enqueue(t, store, queue.StageDispatch, "/scripts/a.sc", "a.sc")
	if err := handler.Prepare(ctx, job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(ctx, job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	tests := []struct {
		stage queue.Stage
		want  int
	}{
		{queue.StageAnalyze, 1},
		{queue.StageTranslate, 1},
		{queue.StageAssemble, 0},
		{queue.StageParse, 0},
	}
	for _, tt := range tests {
		if got := stats[tt.stage].Pending; got != tt.want {
			t.Fatalf("%s pending = %d, want %d", tt.stage, got, tt.want)
		}
	}

	analyze, err := store.List(ctx, []queue.Stage{queue.StageAnalyze})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if analyze[0].Payload != job.Payload {
		t.Fatalf("payload = %+v, want %+v", analyze[0].Payload, job.Payload)
	}
}

func TestPrepareRejectsEmptyPayload(t *testing.T) {
	handler := dispatch.NewStage(nil, nil, nil)
	err := handler.Prepare(context.Background(), &queue.Job{Stage: queue.StageDispatch})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if handler.HealthCheck(context.Background()).Ready {
		t.Fatal("expected unhealthy handler without queues")
	}
}
