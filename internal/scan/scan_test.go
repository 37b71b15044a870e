package scan_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"musica/internal/logging"
	"musica/internal/queue"
	"musica/internal/scan"
	"musica/internal/services"
	"musica/internal/testsupport"
)

func TestFilesAppliesIncludeAndExclude(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteScript(t, root, "ch01/scene1.sc", "; a")
	testsupport.WriteScript(t, root, "ch01/scene2.sc", "; b")
	testsupport.WriteScript(t, root, "ch02/notes.txt", "notes")
	testsupport.WriteScript(t, root, "ch02/draft/scene3.sc", "; c")
	testsupport.WriteScript(t, root, "top.sc", "; d")

	tests := []struct {
		name     string
		patterns []string
		exclude  []string
		want     []string
	}{
		{"all files", nil, nil, []string{"ch01/scene1.sc", "ch01/scene2.sc", "ch02/draft/scene3.sc", "ch02/notes.txt", "top.sc"}},
		{"scripts only", []string{"**/*.sc"}, nil, []string{"ch01/scene1.sc", "ch01/scene2.sc", "ch02/draft/scene3.sc", "top.sc"}},
		{"exclude drafts", []string{"**/*.sc"}, []string{"**/draft/**"}, []string{"ch01/scene1.sc", "ch01/scene2.sc", "top.sc"}},
		{"overlapping patterns", []string{"ch01/*", "**/scene*.sc"}, nil, []string{"ch01/scene1.sc", "ch01/scene2.sc", "ch02/draft/scene3.sc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := scan.New(root, tt.patterns, tt.exclude)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			refs, err := s.Files(context.Background())
			if err != nil {
				t.Fatalf("Files: %v", err)
			}
			var got []string
			for _, ref := range refs {
				rel, err := filepath.Rel(root, ref.FilePath)
				if err != nil {
					t.Fatalf("Rel: %v", err)
				}
				got = append(got, filepath.ToSlash(rel))
				if ref.FileName != filepath.Base(ref.FilePath) {
					t.Fatalf("file name %q does not match base of %q", ref.FileName, ref.FilePath)
				}
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewRejectsInvalidInput(t *testing.T) {
	if _, err := scan.New("", nil, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for empty root, got %v", err)
	}
	if _, err := scan.New(t.TempDir(), []string{"[unclosed"}, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for bad pattern, got %v", err)
	}
	s, err := scan.New(filepath.Join(t.TempDir(), "missing"), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Files(context.Background()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing root, got %v", err)
	}
}

func TestEnqueueAllOpensStoresAndPushesParseJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDiskSegments())
	store := testsupport.MustOpenStore(t, cfg)
	reg := testsupport.NewRegistry(t, cfg)
	testsupport.WriteScript(t, cfg.Paths.InputDir, "a.sc", "; a")
	testsupport.WriteScript(t, cfg.Paths.InputDir, "sub/b.sc", "; b")

	s, err := scan.NewFromConfig(cfg, "")
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	refs, err := s.Files(context.Background())
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	count, err := scan.NewEnqueuer(reg, store, logging.NewNop()).EnqueueAll(context.Background(), refs)
	if err != nil {
		t.Fatalf("EnqueueAll: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	jobs, err := store.List(context.Background(), []queue.Stage{queue.StageParse})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 2 || jobs[0].Payload.FileName != "a.sc" || jobs[1].Payload.FileName != "b.sc" {
		t.Fatalf("unexpected jobs %+v", jobs)
	}
	if names := reg.Names(); !reflect.DeepEqual(names, []string{"a.sc", "b.sc"}) {
		t.Fatalf("registry names = %v", names)
	}
}

func TestWatcherReportsNewFiles(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteScript(t, root, "sub/existing.sc", "; old")

	s, err := scan.New(root, []string{"**/*.sc"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w, err := scan.NewWatcher(s, 30*time.Millisecond, logging.NewNop())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	var mu sync.Mutex
	got := make(map[string]int)
	seen := make(chan struct{}, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, ref queue.FileRef) error {
			mu.Lock()
			got[ref.FileName]++
			mu.Unlock()
			seen <- struct{}{}
			return nil
		})
	}()

	time.Sleep(50 * time.Millisecond)
	testsupport.WriteScript(t, root, "sub/new.sc", "; new")
	testsupport.WriteScript(t, root, "sub/ignored.txt", "text")

	select {
	case <-seen:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if got["new.sc"] == 0 {
		t.Fatalf("expected new.sc to be reported, got %v", got)
	}
	if _, ok := got["ignored.txt"]; ok {
		t.Fatalf("non-matching file reported: %v", got)
	}
	if _, ok := got["existing.sc"]; ok {
		t.Fatalf("existing file reported: %v", got)
	}
}
