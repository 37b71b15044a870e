package testsupport

import (
	"context"
	"testing"

	"musica/internal/config"
	"musica/internal/logging"
	"musica/internal/queue"
	"musica/internal/segmentstore"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRegistry creates a segment store registry for cfg and closes it on cleanup.
func NewRegistry(t testing.TB, cfg *config.Config) *segmentstore.Registry {
	t.Helper()

	reg := segmentstore.NewRegistryFromConfig(cfg, logging.NewNop())
	t.Cleanup(func() {
		_ = reg.Close()
	})
	return reg
}

// Enqueue pushes a job for path onto stage and fails the test on error.
func Enqueue(t testing.TB, store *queue.Store, stage queue.Stage, path, name string) *queue.Job {
	t.Helper()

	job, err := store.Enqueue(context.Background(), stage, queue.FileRef{FilePath: path, FileName: name})
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return job
}
