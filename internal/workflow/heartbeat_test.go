package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"musica/internal/queue"
	"musica/internal/testsupport"
	"musica/internal/workflow"
)

func TestHeartbeatReclaimsStaleJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.Enqueue(t, store, queue.StageParse, "/scripts/a.mus", "a.mus")
	if _, err := store.Claim(ctx, queue.StageParse, "w1"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	external := testsupport.Enqueue(t, store, queue.StageTranslate, "/scripts/a.mus", "a.mus")
	if _, err := store.Claim(ctx, queue.StageTranslate, "external-translator"); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	monitor := workflow.NewHeartbeatMonitor(store, nil, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	if err := monitor.ReclaimStaleJobs(ctx, queue.StageParse); err != nil {
		t.Fatalf("ReclaimStaleJobs: %v", err)
	}
	got, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusPending {
		t.Fatalf("status = %s, want pending", got.Status)
	}
	other, err := store.GetByID(ctx, external.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if other.Status != queue.StatusRunning {
		t.Fatalf("translate job status = %s, want running", other.Status)
	}
}

func TestHeartbeatLoopKeepsJobFresh(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.Enqueue(t, store, queue.StageParse, "/scripts/a.mus", "a.mus")
	claimed, err := store.Claim(ctx, queue.StageParse, "w1")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}

	monitor := workflow.NewHeartbeatMonitor(store, nil, 10*time.Millisecond, time.Hour)
	loopCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go monitor.StartLoop(loopCtx, &wg, job.ID)
	time.Sleep(60 * time.Millisecond)
	cancel()
	wg.Wait()

	got, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.LastHeartbeat == nil || claimed.LastHeartbeat == nil {
		t.Fatal("expected heartbeat timestamps")
	}
	if !got.LastHeartbeat.After(*claimed.LastHeartbeat) {
		t.Fatalf("heartbeat not refreshed: %v <= %v", got.LastHeartbeat, claimed.LastHeartbeat)
	}
}
