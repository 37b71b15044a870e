package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"musica/internal/services"
)

// Enqueue appends a pending job for ref to the stage queue.
func (s *Store) Enqueue(ctx context.Context, stage Stage, ref FileRef) (*Job, error) {
	if !stage.Valid() {
		return nil, services.Wrap(services.ErrValidation, string(stage), "enqueue", "unknown stage", nil)
	}
	if strings.TrimSpace(ref.FilePath) == "" || strings.TrimSpace(ref.FileName) == "" {
		return nil, services.Wrap(services.ErrValidation, string(stage), "enqueue", "file_path and file_name are required", nil)
	}
	payload, err := json.Marshal(ref)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	ctx = ensureContext(ctx)
	now := timestamp(time.Now())
	var job *Job
	err = retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(
			ctx,
			`INSERT INTO jobs (job_id, stage, payload_json, status, attempts, created_at, updated_at)
             VALUES (?, ?, ?, ?, 0, ?, ?)
             RETURNING `+jobColumns,
			uuid.NewString(),
			string(stage),
			string(payload),
			StatusPending,
			now,
			now,
		)
		inserted, scanErr := scanJob(row)
		if scanErr != nil {
			return scanErr
		}
		job = inserted
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrQueue, string(stage), "enqueue", "insert job", err)
	}

	// The returned job is a snapshot; a woken worker may delete the row.
	s.enqueued(stage)
	return job, nil
}

// Claim atomically marks the oldest pending job on stage as running for
// worker. It returns nil when the queue is empty.
func (s *Store) Claim(ctx context.Context, stage Stage, worker string) (*Job, error) {
	ctx = ensureContext(ctx)
	now := timestamp(time.Now())
	var job *Job
	err := retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(
			ctx,
			`UPDATE jobs
             SET status = ?, worker_id = ?, attempts = attempts + 1, error_message = NULL,
                 updated_at = ?, last_heartbeat = ?
             WHERE id = (
                 SELECT id FROM jobs WHERE stage = ? AND status = ? ORDER BY id LIMIT 1
             )
             RETURNING `+jobColumns,
			StatusRunning,
			nullableString(worker),
			now,
			now,
			string(stage),
			StatusPending,
		)
		claimed, scanErr := scanJob(row)
		if scanErr != nil {
			return scanErr
		}
		job = claimed
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrQueue, string(stage), "claim", "claim job", err)
	}
	return job, nil
}

// Complete removes a successfully handled job.
func (s *Store) Complete(ctx context.Context, id int64) error {
	if err := s.execWithoutResultRetry(ctx, `DELETE FROM jobs WHERE id = ?`, id); err != nil {
		return services.Wrap(services.ErrQueue, "", "complete", fmt.Sprintf("delete job %d", id), err)
	}
	return nil
}

// Fail marks a running job failed and records message.
func (s *Store) Fail(ctx context.Context, id int64, message string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE jobs SET status = ?, error_message = ?, last_heartbeat = NULL, updated_at = ? WHERE id = ?`,
		StatusFailed,
		nullableString(message),
		timestamp(time.Now()),
		id,
	); err != nil {
		return services.Wrap(services.ErrQueue, "", "fail", fmt.Sprintf("mark job %d failed", id), err)
	}
	return nil
}

// UpdateHeartbeat updates the last heartbeat timestamp for a running job.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := timestamp(time.Now())
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE jobs SET last_heartbeat = ?, updated_at = ? WHERE id = ? AND status = ?`,
		now,
		now,
		id,
		StatusRunning,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// GetByID fetches a job by row identifier. It returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns jobs on the given stages (all stages when none are given),
// optionally filtered by status, oldest first.
func (s *Store) List(ctx context.Context, stages []Stage, statuses ...Status) ([]*Job, error) {
	var (
		clauses []string
		args    []any
	)
	if len(stages) > 0 {
		clauses = append(clauses, `stage IN (`+makePlaceholders(len(stages))+`)`)
		args = append(args, stageArgs(stages)...)
	}
	if len(statuses) > 0 {
		clauses = append(clauses, `status IN (`+makePlaceholders(len(statuses))+`)`)
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, ` AND `)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
