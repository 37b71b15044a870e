package api

import (
	"slices"
	"time"

	"musica/internal/queue"
	"musica/internal/segment"
	"musica/internal/segmentstore"
	"musica/internal/stage"
	"musica/internal/workflow"
)

// FromJob converts a queue record to its API representation.
func FromJob(job *queue.Job) Job {
	if job == nil {
		return Job{}
	}
	dto := Job{
		ID:           job.ID,
		JobID:        job.JobID,
		Stage:        string(job.Stage),
		Queue:        job.Stage.JobName(),
		FilePath:     job.Payload.FilePath,
		FileName:     job.Payload.FileName,
		Status:       string(job.Status),
		Attempts:     job.Attempts,
		ErrorMessage: job.ErrorMessage,
		WorkerID:     job.WorkerID,
		CreatedAt:    FormatTime(job.CreatedAt),
		UpdatedAt:    FormatTime(job.UpdatedAt),
	}
	if job.LastHeartbeat != nil {
		dto.LastHeartbeat = FormatTime(*job.LastHeartbeat)
	}
	return dto
}

// FromJobs converts a slice of queue records.
func FromJobs(jobs []*queue.Job) []Job {
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		if job == nil {
			continue
		}
		out = append(out, FromJob(job))
	}
	return out
}

// FromStageStats lists counts for every stage in pipeline order, including
// stages with no jobs.
func FromStageStats(stats map[queue.Stage]queue.StageStats, workers map[queue.Stage]int) []StageCounts {
	stages := queue.Stages()
	out := make([]StageCounts, 0, len(stages))
	for _, st := range stages {
		s := stats[st]
		out = append(out, StageCounts{
			Stage:   string(st),
			Queue:   st.JobName(),
			Workers: workers[st],
			Pending: s.Pending,
			Running: s.Running,
			Failed:  s.Failed,
		})
	}
	return out
}

// FromStatusSummary converts workflow diagnostics.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	wf := WorkflowStatus{
		Running:     summary.Running,
		Stages:      FromStageStats(summary.QueueStats, summary.Workers),
		LastError:   summary.LastError,
		StageHealth: StageHealthSlice(summary.StageHealth),
	}
	if summary.LastJob != nil {
		job := FromJob(summary.LastJob)
		wf.LastJob = &job
	}
	return wf
}

// StageHealthSlice converts a stage health map into a deterministic slice.
func StageHealthSlice(health map[string]stage.Health) []StageHealth {
	if len(health) == 0 {
		return nil
	}
	names := make([]string, 0, len(health))
	for name := range health {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]StageHealth, 0, len(names))
	for _, name := range names {
		h := health[name]
		out = append(out, StageHealth{Name: name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// FromSegmentRecord converts a stored segment row.
func FromSegmentRecord(rec segmentstore.Record) Segment {
	dto := Segment{ID: rec.ID}
	switch seg := rec.Segment.(type) {
	case segment.Message:
		id := seg.ID
		dto.Type = segment.TypeMessage.String()
		dto.Line = seg.Line
		dto.MessageID = &id
		dto.SpeakerName = seg.SpeakerName
		dto.SpeakerTachie = seg.SpeakerTachie
		dto.Content = seg.Content
	case segment.NonMessage:
		dto.Type = segment.TypeNonMessage.String()
		dto.Line = seg.Line
		dto.Content = seg.Content
	}
	return dto
}

// FromSegmentRecords converts every row of a store listing.
func FromSegmentRecords(records []segmentstore.Record) []Segment {
	out := make([]Segment, 0, len(records))
	for _, rec := range records {
		out = append(out, FromSegmentRecord(rec))
	}
	return out
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
