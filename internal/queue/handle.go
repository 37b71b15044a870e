package queue

import (
	"context"
	"sync"
	"time"
)

// Queue is the handle for one stage queue. Producers share a handle and
// their pushes are serialized on it.
type Queue struct {
	store *Store
	stage Stage
	mu    sync.Mutex
}

// Queue returns the shared handle for stage.
func (s *Store) Queue(stage Stage) *Queue {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.handles[stage]; ok {
		return q
	}
	q := &Queue{store: s, stage: stage}
	s.handles[stage] = q
	return q
}

// Stage returns the stage this handle feeds.
func (q *Queue) Stage() Stage {
	return q.stage
}

// Name returns the job name external consumers know the queue by.
func (q *Queue) Name() string {
	return q.stage.JobName()
}

// Push appends a job carrying ref.
func (q *Queue) Push(ctx context.Context, ref FileRef) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.Enqueue(ctx, q.stage, ref)
}

// TryNext claims the oldest pending job without waiting. It returns nil when
// the queue is empty.
func (q *Queue) TryNext(ctx context.Context, worker string) (*Job, error) {
	return q.store.Claim(ctx, q.stage, worker)
}

// Next claims the oldest pending job, suspending until one is pushed in this
// process, the poll interval elapses with work available, or ctx ends.
func (q *Queue) Next(ctx context.Context, worker string) (*Job, error) {
	ctx = ensureContext(ctx)
	poll := q.store.PollInterval()
	if poll <= 0 {
		poll = defaultPollInterval
	}
	for {
		signal := q.store.Signal(q.stage)
		job, err := q.TryNext(ctx, worker)
		if err != nil || job != nil {
			return job, err
		}
		timer := time.NewTimer(poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-signal:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Done removes a job this consumer finished.
func (q *Queue) Done(ctx context.Context, job *Job) error {
	return q.store.Complete(ctx, job.ID)
}

// Failed records a job this consumer could not finish.
func (q *Queue) Failed(ctx context.Context, job *Job, err error) error {
	return q.store.Fail(ctx, job.ID, FailureMessage(err))
}
