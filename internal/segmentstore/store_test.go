package segmentstore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"

	"musica/internal/config"
	"musica/internal/logging"
	"musica/internal/segment"
	"musica/internal/segmentstore"
	"musica/internal/services"
)

func newMemoryRegistry(t *testing.T) *segmentstore.Registry {
	t.Helper()
	reg := segmentstore.NewRegistry(config.SegmentModeMemory, "", logging.NewNop())
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}

func TestInsertAndListPreservesOrder(t *testing.T) {
	ctx := context.Background()
	reg := newMemoryRegistry(t)
	store, err := reg.OpenOrCreate(ctx, "order-"+uuid.NewString())
	if err != nil {
		t.Fatalf("OpenOrCreate returned error: %v", err)
	}

	want := []segment.Segment{
		segment.NonMessage{Line: 0, Content: "#bg 01"},
		segment.Message{Line: 1, ID: 1, SpeakerName: "Alice", SpeakerTachie: "happy", Content: "Hi"},
		segment.NonMessage{Line: 2, Content: "; done"},
	}
	for _, seg := range want {
		if _, err := store.Insert(ctx, seg); err != nil {
			t.Fatalf("Insert returned error: %v", err)
		}
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i, rec := range records {
		if rec.Segment != want[i] {
			t.Fatalf("record %d: got %+v want %+v", i, rec.Segment, want[i])
		}
		if i > 0 && rec.ID <= records[i-1].ID {
			t.Fatalf("expected increasing ids, got %d after %d", rec.ID, records[i-1].ID)
		}
	}

	counts, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if counts[segment.TypeMessage] != 1 || counts[segment.TypeNonMessage] != 2 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	records, err = store.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty store after Reset, got %d records", len(records))
	}
	if _, err := store.Insert(ctx, want[0]); err != nil {
		t.Fatalf("Insert after Reset returned error: %v", err)
	}
}

func TestOpenOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	reg := newMemoryRegistry(t)
	name := "idem-" + uuid.NewString()

	first, err := reg.OpenOrCreate(ctx, name)
	if err != nil {
		t.Fatalf("first OpenOrCreate: %v", err)
	}
	if _, err := first.Insert(ctx, segment.NonMessage{Line: 0, Content: "x"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	second, err := reg.OpenOrCreate(ctx, name)
	if err != nil {
		t.Fatalf("second OpenOrCreate: %v", err)
	}
	if first != second {
		t.Fatal("expected the same store for the same name")
	}
	records, err := second.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected existing data to survive, got %d records", len(records))
	}
}

func TestOpenOrCreateConcurrentCallersShareStore(t *testing.T) {
	ctx := context.Background()
	reg := newMemoryRegistry(t)
	name := "race-" + uuid.NewString()

	const callers = 8
	stores := make([]*segmentstore.Store, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store, err := reg.OpenOrCreate(ctx, name)
			if err != nil {
				t.Errorf("OpenOrCreate: %v", err)
				return
			}
			stores[i] = store
		}(i)
	}
	wg.Wait()
	for i := 1; i < callers; i++ {
		if stores[i] != stores[0] {
			t.Fatal("expected all callers to receive the same store")
		}
	}
	if names := reg.Names(); len(names) != 1 || names[0] != name {
		t.Fatalf("unexpected registry names: %v", names)
	}
}

func TestMemoryStoresAreIsolatedByName(t *testing.T) {
	ctx := context.Background()
	reg := newMemoryRegistry(t)
	a, err := reg.OpenOrCreate(ctx, "a-"+uuid.NewString())
	if err != nil {
		t.Fatalf("open a: %v", err)
	}
	b, err := reg.OpenOrCreate(ctx, "b-"+uuid.NewString())
	if err != nil {
		t.Fatalf("open b: %v", err)
	}
	if _, err := a.Insert(ctx, segment.NonMessage{Line: 0, Content: "only a"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	records, err := b.List(ctx)
	if err != nil {
		t.Fatalf("list b: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected b to be empty, got %d records", len(records))
	}
}

func TestDiskModePersistsAcrossRegistries(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	reg := segmentstore.NewRegistry(config.SegmentModeDisk, dir, logging.NewNop())
	store, err := reg.OpenOrCreate(ctx, "第一章.sc")
	if err != nil {
		t.Fatalf("OpenOrCreate: %v", err)
	}
	if _, err := store.Insert(ctx, segment.Message{Line: 0, ID: 1, Content: "こんにちは"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := reg.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "第一章.sc.db")); err != nil {
		t.Fatalf("expected database file: %v", err)
	}

	reopened, err := segmentstore.OpenExisting(ctx, dir, "第一章.sc")
	if err != nil {
		t.Fatalf("OpenExisting: %v", err)
	}
	defer reopened.Close()
	records, err := reopened.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 || records[0].Segment.(segment.Message).Content != "こんにちは" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestOpenExistingMissingStore(t *testing.T) {
	_, err := segmentstore.OpenExisting(context.Background(), t.TempDir(), "missing")
	if !errors.Is(err, services.ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestClosedRegistryRejectsOpen(t *testing.T) {
	reg := segmentstore.NewRegistry(config.SegmentModeMemory, "", logging.NewNop())
	if err := reg.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := reg.OpenOrCreate(context.Background(), "late"); !errors.Is(err, services.ErrStore) {
		t.Fatalf("expected store error after close, got %v", err)
	}
}

func TestOpenOrCreateRejectsEmptyName(t *testing.T) {
	reg := newMemoryRegistry(t)
	if _, err := reg.OpenOrCreate(context.Background(), "  "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
