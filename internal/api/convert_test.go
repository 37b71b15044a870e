package api

import (
	"testing"
	"time"

	"musica/internal/queue"
	"musica/internal/segment"
	"musica/internal/segmentstore"
	"musica/internal/stage"
	"musica/internal/workflow"
)

func TestFromJob(t *testing.T) {
	created := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	beat := created.Add(time.Minute)
	job := &queue.Job{
		ID:            7,
		JobID:         "abc",
		Stage:         queue.StageParse,
		Payload:       queue.FileRef{FilePath: "/in/ch1/a.sc", FileName: "a.sc"},
		Status:        queue.StatusFailed,
		Attempts:      1,
		ErrorMessage:  "[parse] bad line",
		CreatedAt:     created,
		UpdatedAt:     created,
		LastHeartbeat: &beat,
	}
	dto := FromJob(job)
	if dto.Queue != "musica-parser-job" {
		t.Fatalf("queue = %q", dto.Queue)
	}
	if dto.Stage != "parse" || dto.Status != "failed" {
		t.Fatalf("unexpected stage/status: %+v", dto)
	}
	if dto.FileName != "a.sc" || dto.FilePath != "/in/ch1/a.sc" {
		t.Fatalf("unexpected payload: %+v", dto)
	}
	if dto.CreatedAt != "2026-03-04T05:06:07.000Z" {
		t.Fatalf("created = %q", dto.CreatedAt)
	}
	if dto.LastHeartbeat != "2026-03-04T05:07:07.000Z" {
		t.Fatalf("heartbeat = %q", dto.LastHeartbeat)
	}
	if got := FromJob(nil); got.ID != 0 {
		t.Fatalf("expected zero job for nil, got %+v", got)
	}
}

func TestFromStatusSummaryOrdersStages(t *testing.T) {
	summary := workflow.StatusSummary{
		Running: true,
		Workers: map[queue.Stage]int{queue.StageParse: 4},
		QueueStats: map[queue.Stage]queue.StageStats{
			queue.StageDispatch: {Pending: 2},
			queue.StageParse:    {Running: 1, Failed: 3},
		},
		StageHealth: map[string]stage.Health{
			"parse":    stage.Healthy("parse"),
			"dispatch": stage.Unhealthy("dispatch", "no targets"),
		},
		LastJob: &queue.Job{ID: 9, Stage: queue.StageParse},
	}
	wf := FromStatusSummary(summary)
	if len(wf.Stages) != len(queue.Stages()) {
		t.Fatalf("expected every stage, got %d", len(wf.Stages))
	}
	if wf.Stages[0].Stage != "parse" || wf.Stages[0].Workers != 4 || wf.Stages[0].Failed != 3 {
		t.Fatalf("unexpected parse counts: %+v", wf.Stages[0])
	}
	if wf.Stages[1].Pending != 2 {
		t.Fatalf("unexpected dispatch counts: %+v", wf.Stages[1])
	}
	if len(wf.StageHealth) != 2 || wf.StageHealth[0].Name != "dispatch" || wf.StageHealth[0].Ready {
		t.Fatalf("unexpected health ordering: %+v", wf.StageHealth)
	}
	if wf.LastJob == nil || wf.LastJob.ID != 9 {
		t.Fatalf("expected last job, got %+v", wf.LastJob)
	}
}

func TestFromSegmentRecords(t *testing.T) {
	records := []segmentstore.Record{
		{ID: 1, Segment: segment.NonMessage{Line: 1, Content: "@bg 1"}},
		{ID: 2, Segment: segment.Message{Line: 2, ID: 14, SpeakerName: "Kanon", SpeakerTachie: "kanon_a", Content: "Hello"}},
	}
	out := FromSegmentRecords(records)
	if len(out) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(out))
	}
	if out[0].Type != "non_message" || out[0].MessageID != nil {
		t.Fatalf("unexpected non-message: %+v", out[0])
	}
	if out[1].Type != "message" || out[1].MessageID == nil || *out[1].MessageID != 14 {
		t.Fatalf("unexpected message: %+v", out[1])
	}
	if out[1].SpeakerName != "Kanon" || out[1].Line != 2 {
		t.Fatalf("unexpected message fields: %+v", out[1])
	}
}
