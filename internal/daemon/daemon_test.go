package daemon_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"musica/internal/config"
	"musica/internal/daemon"
	"musica/internal/logging"
	"musica/internal/queue"
	"musica/internal/segmentstore"
	"musica/internal/testsupport"
	"musica/internal/workflow"
)

const (
	sceneScript = ";Hello comment\n#include other.sc\n1 Alice [happy] \"Hi there\"\n"
	noIDScript  = "; intro\nAlice \"Hi\"\n"
)

type harness struct {
	cfg      *config.Config
	store    *queue.Store
	registry *segmentstore.Registry
	daemon   *daemon.Daemon
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	logger := logging.NewNop()
	registry := segmentstore.NewRegistryFromConfig(cfg, logger)
	mgr := workflow.NewManager(cfg, store, logger)
	mgr.ConfigureStages(daemon.PipelineStages(cfg, store, registry, logger, nil))
	d, err := daemon.New(cfg, store, registry, mgr, logger, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})
	return &harness{cfg: cfg, store: store, registry: registry, daemon: d}
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	h := newHarness(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := h.daemon.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := h.daemon.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.LockFilePath != cfg.LockPath() || status.SegmentMode != config.SegmentModeMemory {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.Workflow.Workers[queue.StageParse] != cfg.Pipeline.ParseWorkers {
		t.Fatalf("unexpected parse workers: %v", status.Workflow.Workers)
	}

	if err := h.daemon.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	h.daemon.Stop()
	if h.daemon.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestSecondRunnerIsLockedOut(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := newHarness(t, cfg)
	second := newHarness(t, cfg)

	ctx := context.Background()
	if err := first.daemon.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	err := second.daemon.Start(ctx)
	if err == nil || !strings.Contains(err.Error(), "already") {
		t.Fatalf("expected lock error, got %v", err)
	}

	first.daemon.Stop()
	if err := second.daemon.Start(ctx); err != nil {
		t.Fatalf("second Start after release: %v", err)
	}
}

func TestDaemonProcessesInputDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDiskSegments())
	testsupport.WriteScript(t, cfg.Paths.InputDir, "ch1/scene.sc", sceneScript)
	testsupport.WriteScript(t, cfg.Paths.InputDir, "ch2/noid.sc", noIDScript)
	h := newHarness(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.daemon.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	count, err := h.daemon.EnqueueDir(ctx, "")
	if err != nil {
		t.Fatalf("EnqueueDir: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 parse jobs, got %d", count)
	}
	if err := h.daemon.WaitIdle(ctx); err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}

	for _, st := range []queue.Stage{queue.StageAnalyze, queue.StageTranslate} {
		jobs, err := h.store.List(ctx, []queue.Stage{st})
		if err != nil {
			t.Fatalf("List %s: %v", st, err)
		}
		if len(jobs) != 1 || jobs[0].Payload.FileName != "scene.sc" {
			t.Fatalf("expected one %s job for scene.sc, got %+v", st, jobs)
		}
	}

	failed, err := h.store.List(ctx, []queue.Stage{queue.StageParse}, queue.StatusFailed)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(failed) != 1 || failed[0].Payload.FileName != "noid.sc" {
		t.Fatalf("expected noid.sc parse failure, got %+v", failed)
	}
	if !strings.HasPrefix(failed[0].ErrorMessage, "[build]") {
		t.Fatalf("unexpected failure message %q", failed[0].ErrorMessage)
	}

	segStore, ok := h.registry.Get("scene.sc")
	if !ok {
		t.Fatal("expected scene.sc store to be registered")
	}
	records, err := segStore.List(ctx)
	if err != nil {
		t.Fatalf("segments List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(records))
	}
}

func TestWatchEnqueuesNewFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDiskSegments())
	cfg.Input.WatchDebounceMillis = 50
	h := newHarness(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.daemon.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- h.daemon.Watch(watchCtx, "")
	}()
	time.Sleep(100 * time.Millisecond)

	testsupport.WriteScript(t, cfg.Paths.InputDir, "late.sc", sceneScript)

	deadline := time.Now().Add(5 * time.Second)
	for {
		jobs, err := h.store.List(ctx, []queue.Stage{queue.StageAnalyze})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(jobs) == 1 && jobs[0].Payload.FileName == "late.sc" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("watched file never reached analyze queue, have %+v", jobs)
		}
		time.Sleep(20 * time.Millisecond)
	}

	stopWatch()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}
