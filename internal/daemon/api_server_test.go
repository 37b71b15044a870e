package daemon_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"musica/internal/api"
	"musica/internal/queue"
	"musica/internal/testsupport"
)

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("decode %s: %v (%s)", url, err, body)
		}
	}
	return resp.StatusCode
}

func TestAPIEndpoints(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Metrics.Listen = "127.0.0.1:0"
	h := newHarness(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := h.daemon.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	addr := h.daemon.Addr()
	if addr == "" {
		t.Fatal("expected endpoint address")
	}
	base := "http://" + addr

	testsupport.Enqueue(t, h.store, queue.StageAnalyze, "/in/a.sc", "a.sc")
	testsupport.Enqueue(t, h.store, queue.StageTranslate, "/in/a.sc", "a.sc")

	var status api.DaemonStatus
	if code := getJSON(t, base+"/api/status", &status); code != http.StatusOK {
		t.Fatalf("status code %d", code)
	}
	if !status.Running || status.LockFilePath != cfg.LockPath() {
		t.Fatalf("unexpected status payload: %+v", status)
	}
	var analyze api.StageCounts
	for _, st := range status.Workflow.Stages {
		if st.Stage == "analyze" {
			analyze = st
		}
	}
	if analyze.Pending != 1 || analyze.Queue != "musica-analyzer-job" {
		t.Fatalf("unexpected analyze counts: %+v", analyze)
	}

	var list api.QueueListResponse
	if code := getJSON(t, base+"/api/queue?stage=musica-translator-job", &list); code != http.StatusOK {
		t.Fatalf("queue code %d", code)
	}
	if len(list.Jobs) != 1 || list.Jobs[0].Stage != "translate" {
		t.Fatalf("unexpected queue payload: %+v", list)
	}

	var errPayload map[string]string
	if code := getJSON(t, base+"/api/queue?stage=bogus", &errPayload); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if !strings.Contains(errPayload["error"], "bogus") {
		t.Fatalf("unexpected error payload: %v", errPayload)
	}

	resp, err := http.Post(base+"/api/status", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}
