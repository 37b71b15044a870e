package queue

import (
	"context"
	"fmt"
	"time"
)

// Stats returns job counts grouped by stage and status. Every stage is
// present in the result.
func (s *Store) Stats(ctx context.Context) (map[Stage]StageStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT stage, status, COUNT(1) FROM jobs GROUP BY stage, status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Stage]StageStats, len(stageOrder))
	for _, stage := range stageOrder {
		stats[stage] = StageStats{}
	}
	for rows.Next() {
		var (
			stage  string
			status string
			count  int
		)
		if err := rows.Scan(&stage, &status, &count); err != nil {
			return nil, err
		}
		entry := stats[Stage(stage)]
		switch Status(status) {
		case StatusPending:
			entry.Pending += count
		case StatusRunning:
			entry.Running += count
		case StatusFailed:
			entry.Failed += count
		}
		stats[Stage(stage)] = entry
	}
	return stats, rows.Err()
}

// Outstanding counts pending and running jobs across the given stages.
func (s *Store) Outstanding(ctx context.Context, stages ...Stage) (int, error) {
	if len(stages) == 0 {
		return 0, nil
	}
	args := stageArgs(stages)
	args = append(args, string(StatusPending), string(StatusRunning))
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM jobs WHERE stage IN (`+makePlaceholders(len(stages))+`) AND status IN (?, ?)`,
		args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count outstanding jobs: %w", err)
	}
	return count, nil
}

// ResetStuckProcessing returns running jobs on the given stages to pending.
// It is called at startup, before any worker of this process has claimed a
// job. Stages served by external consumers must not be passed.
func (s *Store) ResetStuckProcessing(ctx context.Context, stages ...Stage) (int64, error) {
	if len(stages) == 0 {
		return 0, nil
	}
	args := []any{StatusPending, timestamp(time.Now()), StatusRunning}
	args = append(args, stageArgs(stages)...)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, worker_id = NULL, last_heartbeat = NULL, updated_at = ?
         WHERE status = ? AND stage IN (`+makePlaceholders(len(stages))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		s.notifyAll()
	}
	return affected, nil
}

// ReclaimStaleProcessing returns running jobs on the given stages whose
// heartbeat is older than cutoff to pending.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time, stages ...Stage) (int64, error) {
	if len(stages) == 0 {
		return 0, nil
	}
	args := []any{StatusPending, timestamp(time.Now()), StatusRunning, timestamp(cutoff)}
	args = append(args, stageArgs(stages)...)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET status = ?, worker_id = NULL, last_heartbeat = NULL, updated_at = ?
         WHERE status = ? AND last_heartbeat IS NOT NULL AND last_heartbeat < ?
           AND stage IN (`+makePlaceholders(len(stages))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		s.notifyAll()
	}
	return affected, nil
}

// RetryFailed moves failed jobs back to pending. With no ids every failed job
// on the given stages (or all stages) is retried.
func (s *Store) RetryFailed(ctx context.Context, stages []Stage, ids ...int64) (int64, error) {
	query := `UPDATE jobs SET status = ?, error_message = NULL, worker_id = NULL, updated_at = ? WHERE status = ?`
	args := []any{StatusPending, timestamp(time.Now()), StatusFailed}
	if len(stages) > 0 {
		query += ` AND stage IN (` + makePlaceholders(len(stages)) + `)`
		args = append(args, stageArgs(stages)...)
	}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed jobs: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		s.notifyAll()
	}
	return affected, nil
}

// Clear removes jobs on the given stages (all stages when none are given),
// optionally limited to the given statuses.
func (s *Store) Clear(ctx context.Context, stages []Stage, statuses ...Status) (int64, error) {
	query := `DELETE FROM jobs WHERE 1 = 1`
	var args []any
	if len(stages) > 0 {
		query += ` AND stage IN (` + makePlaceholders(len(stages)) + `)`
		args = append(args, stageArgs(stages)...)
	}
	if len(statuses) > 0 {
		query += ` AND status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear jobs: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) notifyAll() {
	for _, stage := range stageOrder {
		s.notify(stage)
	}
}
