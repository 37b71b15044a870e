package extractor_test

import (
	"context"
	"errors"
	"testing"

	"musica/internal/extractor"
	"musica/internal/logging"
	"musica/internal/queue"
	"musica/internal/services"
	"musica/internal/testsupport"
)

func TestStagePushesOneDispatchJob(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDiskSegments())
	store := testsupport.MustOpenStore(t, cfg)
	reg := testsupport.NewRegistry(t, cfg)
	path := testsupport.WriteScript(t, cfg.Paths.InputDir, "scene.sc", sceneScript)

	handler := extractor.NewStage(extractor.New(nil, reg), store.Queue(queue.StageDispatch), logging.NewNop())
	job := testsupport.Enqueue(t, store, queue.StageParse, path, "scene.sc")

	ctx := context.Background()
	if err := handler.Prepare(ctx, job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(ctx, job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	jobs, err := store.List(ctx, []queue.Stage{queue.StageDispatch})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 dispatch job, got %d", len(jobs))
	}
	if jobs[0].Payload != job.Payload {
		t.Fatalf("dispatch payload = %+v, want %+v", jobs[0].Payload, job.Payload)
	}
}

func TestStageToleratesDispatchJobFinishedDuringPush(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDiskSegments())
	store := testsupport.MustOpenStore(t, cfg)
	reg := testsupport.NewRegistry(t, cfg)
	path := testsupport.WriteScript(t, cfg.Paths.InputDir, "race.sc", sceneScript)
	job := testsupport.Enqueue(t, store, queue.StageParse, path, "race.sc")

	ctx := context.Background()
	store.OnEnqueue(func(st queue.Stage) {
		if st != queue.StageDispatch {
			return
		}
		claimed, err := store.Claim(ctx, st, "dispatch-1")
		if err != nil || claimed == nil {
			t.Errorf("Claim = %+v, %v", claimed, err)
			return
		}
		if err := store.Complete(ctx, claimed.ID); err != nil {
			t.Errorf("Complete: %v", err)
		}
	})

	handler := extractor.NewStage(extractor.New(nil, reg), store.Queue(queue.StageDispatch), logging.NewNop())
	if err := handler.Execute(ctx, job); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	outstanding, err := store.Outstanding(ctx, queue.StageDispatch)
	if err != nil {
		t.Fatalf("Outstanding: %v", err)
	}
	if outstanding != 0 {
		t.Fatalf("expected dispatch job to be consumed, %d outstanding", outstanding)
	}
}

func TestStageFailureEnqueuesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDiskSegments())
	store := testsupport.MustOpenStore(t, cfg)
	reg := testsupport.NewRegistry(t, cfg)
	path := testsupport.WriteScript(t, cfg.Paths.InputDir, "noid.sc", "Alice \"Hi\"\n")

	handler := extractor.NewStage(extractor.New(nil, reg), store.Queue(queue.StageDispatch), nil)
	job := testsupport.Enqueue(t, store, queue.StageParse, path, "noid.sc")

	err := handler.Execute(context.Background(), job)
	if !errors.Is(err, services.ErrBuild) {
		t.Fatalf("expected ErrBuild, got %v", err)
	}
	outstanding, err := store.Outstanding(context.Background(), queue.StageDispatch)
	if err != nil {
		t.Fatalf("Outstanding: %v", err)
	}
	if outstanding != 0 {
		t.Fatalf("expected no dispatch jobs, got %d", outstanding)
	}
}

func TestStagePrepareValidatesPayload(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDiskSegments())
	store := testsupport.MustOpenStore(t, cfg)
	reg := testsupport.NewRegistry(t, cfg)

	handler := extractor.NewStage(extractor.New(nil, reg), store.Queue(queue.StageDispatch), nil)
	job := testsupport.Enqueue(t, store, queue.StageParse, cfg.Paths.InputDir+"/missing.sc", "missing.sc")
	if err := handler.Prepare(context.Background(), job); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if health := handler.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy stage, got %+v", health)
	}

	if health := extractor.NewStage(extractor.New(nil, nil), nil, nil).HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy stage without registry")
	}
}
