package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a queue entry in a transport-friendly format.
type Job struct {
	ID            int64  `json:"id"`
	JobID         string `json:"jobId"`
	Stage         string `json:"stage"`
	Queue         string `json:"queue"`
	FilePath      string `json:"filePath"`
	FileName      string `json:"fileName"`
	Status        string `json:"status"`
	Attempts      int    `json:"attempts"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
	WorkerID      string `json:"workerId,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
	LastHeartbeat string `json:"lastHeartbeat,omitempty"`
}

// StageCounts holds per-status job counts for one stage.
type StageCounts struct {
	Stage   string `json:"stage"`
	Queue   string `json:"queue"`
	Workers int    `json:"workers"`
	Pending int    `json:"pending"`
	Running int    `json:"running"`
	Failed  int    `json:"failed"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool          `json:"running"`
	Stages      []StageCounts `json:"stages"`
	LastError   string        `json:"lastError,omitempty"`
	LastJob     *Job          `json:"lastJob,omitempty"`
	StageHealth []StageHealth `json:"stageHealth"`
}

// DaemonStatus aggregates runner information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	QueueDBPath  string         `json:"queueDbPath"`
	LockFilePath string         `json:"lockFilePath"`
	SegmentMode  string         `json:"segmentMode"`
	Scripts      []string       `json:"scripts"`
	Workflow     WorkflowStatus `json:"workflow"`
}

// QueueListResponse wraps a collection of jobs for API responses.
type QueueListResponse struct {
	Jobs []Job `json:"jobs"`
}

// Segment is one persisted script segment.
type Segment struct {
	ID            int64  `json:"id"`
	Type          string `json:"type"`
	Line          int    `json:"line"`
	MessageID     *int   `json:"messageId,omitempty"`
	SpeakerName   string `json:"speakerName,omitempty"`
	SpeakerTachie string `json:"speakerTachie,omitempty"`
	Content       string `json:"content"`
}

// SegmentListResponse wraps the segments of one script.
type SegmentListResponse struct {
	Script   string    `json:"script"`
	Segments []Segment `json:"segments"`
}
