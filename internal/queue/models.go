package queue

import (
	"fmt"
	"strings"
	"time"
)

// Stage names a pipeline queue.
type Stage string

const (
	StageParse     Stage = "parse"
	StageDispatch  Stage = "dispatch"
	StageAnalyze   Stage = "analyze"
	StageTranslate Stage = "translate"
	StageAssemble  Stage = "assemble"
)

var stageOrder = []Stage{
	StageParse,
	StageDispatch,
	StageAnalyze,
	StageTranslate,
	StageAssemble,
}

var stageJobNames = map[Stage]string{
	StageParse:     "musica-parser-job",
	StageDispatch:  "musica-dispatch-job",
	StageAnalyze:   "musica-analyzer-job",
	StageTranslate: "musica-translator-job",
	StageAssemble:  "musica-assembler-job",
}

// Stages returns every stage in pipeline order.
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// JobName returns the queue name external consumers know the stage by.
func (s Stage) JobName() string {
	return stageJobNames[s]
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	_, ok := stageJobNames[s]
	return ok
}

// ParseStage accepts a stage name or its job name, case-insensitively.
func ParseStage(value string) (Stage, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, stage := range stageOrder {
		if normalized == string(stage) || normalized == stage.JobName() {
			return stage, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", value)
}

// Status is the lifecycle state of a job row.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusFailed  Status = "failed"
)

// FileRef is the payload carried by every job: one input script.
type FileRef struct {
	FilePath string `json:"file_path"`
	FileName string `json:"file_name"`
}

// Job is one unit of work on a stage queue. Only the lifecycle fields change
// after enqueue.
type Job struct {
	ID            int64
	JobID         string
	Stage         Stage
	Payload       FileRef
	Status        Status
	Attempts      int
	ErrorMessage  string
	WorkerID      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastHeartbeat *time.Time
}

// StageStats counts jobs on one stage queue by status.
type StageStats struct {
	Pending int
	Running int
	Failed  int
}

// Total returns the number of jobs held by the stage.
func (s StageStats) Total() int {
	return s.Pending + s.Running + s.Failed
}

// Outstanding returns jobs that still need a worker.
func (s StageStats) Outstanding() int {
	return s.Pending + s.Running
}
